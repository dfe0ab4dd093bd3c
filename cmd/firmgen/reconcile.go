package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metalagman/firmgen/internal/reconcile"
)

func reconcileCmd() *cobra.Command {
	var framework string
	cmd := &cobra.Command{
		Use:   "reconcile [dir]",
		Short: "Enable the LVGL fonts a generated project uses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			res, err := reconcile.Project(dir, framework)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s %s, fonts %v\n", titleStyle.Render("framework"), res.Framework, res.Fonts)
			if len(res.Unknown) > 0 {
				_, _ = fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("untracked sizes ignored: %v", res.Unknown)))
			}
			if len(res.Updated) == 0 {
				_, _ = fmt.Fprintln(out, dimStyle.Render("nothing to update"))
				return nil
			}
			for _, f := range res.Updated {
				_, _ = fmt.Fprintf(out, "%s %s\n", okStyle.Render("updated"), f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&framework, "framework", "", "esp-idf or arduino (default: detect)")
	return cmd
}
