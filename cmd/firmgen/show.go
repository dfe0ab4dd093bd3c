package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var showDocs = []string{"README.md", "WIRING.md"}

func showCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "show [dir]",
		Short: "Render the README and wiring docs of a generated project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return fmt.Errorf("create markdown renderer: %w", err)
			}
			out, err := renderDocs(r, dir)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width")
	return cmd
}

func renderDocs(r *glamour.TermRenderer, dir string) (string, error) {
	var out string
	found := 0
	for _, name := range showDocs {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		rendered, err := r.Render(string(data))
		if err != nil {
			return "", fmt.Errorf("render %s: %w", name, err)
		}
		out += rendered
		found++
	}
	if found == 0 {
		return "", fmt.Errorf("no README.md or WIRING.md in %s", dir)
	}
	return out, nil
}
