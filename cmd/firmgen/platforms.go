package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metalagman/firmgen/internal/platform"
)

func platformsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "Inspect the platform catalog",
	}
	cmd.AddCommand(platformsListCmd(), platformsShowCmd())
	return cmd
}

func platformsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supported platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := platform.All()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(all))
			for _, p := range all {
				rows = append(rows, []string{p.ID, p.Framework, p.MCU, strings.Join(p.Aliases, ", ")})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), table([]string{"ID", "FRAMEWORK", "MCU", "ALIASES"}, rows))
			return err
		},
	}
}

func platformsShowCmd() *cobra.Command {
	var (
		asJSON     bool
		toolSchema bool
	)
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := platform.Lookup(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case toolSchema:
				data, err := json.MarshalIndent(p.ToolSchema(), "", "  ")
				if err != nil {
					return fmt.Errorf("encode tool schema: %w", err)
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			case asJSON:
				data, err := p.JSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			default:
				_, _ = fmt.Fprintln(out, titleStyle.Render(p.Name))
				_, err = fmt.Fprintln(out, p.SpecsText())
				return err
			}
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog entry as JSON")
	cmd.Flags().BoolVar(&toolSchema, "tool-schema", false, "print the entry as a model tool schema")
	cmd.MarkFlagsMutuallyExclusive("json", "tool-schema")
	return cmd
}
