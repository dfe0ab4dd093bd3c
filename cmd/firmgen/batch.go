package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/metalagman/firmgen/internal/batch"
)

func batchCmd() *cobra.Command {
	var (
		input    string
		output   string
		plat     string
		ids      []string
		failFast bool
		noLedger bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate every task of a [labN_taskM] task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if plat != "" {
				cfg.Project.Platform = plat
			}
			if err := checkConfig(cfg); err != nil {
				return err
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read task list: %w", err)
			}
			all := batch.ParseTasks(string(data))
			tasks := batch.Select(all, ids)
			log.Info().Int("found", len(all)).Strs("selected", batch.IDs(tasks)).Str("input", input).Msg("batch: tasks parsed")

			if err := batch.WriteConfigLog(output, cfg, cfg.Project.Platform, time.Now()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var c components
			app, err := buildApp(cmd.Context(), cfg, progress{}, ledgerSettings{Disabled: noLedger}, &c)
			if err != nil {
				return err
			}
			defer func() { _ = app.Stop(cmd.Context()) }()

			runner := &batch.Runner{
				Pipeline:  c.Pipeline,
				OutputDir: output,
				Platform:  cfg.Project.Platform,
				Input:     input,
				FailFast:  failFast,
				OnTask: func(o batch.Outcome) {
					mark := okStyle.Render("✓")
					detail := o.Dir
					if o.Err != nil {
						mark = failStyle.Render("✗")
						detail = o.Err.Error()
					}
					_, _ = fmt.Fprintf(out, "%s %s %s\n", mark, titleStyle.Render(o.Task.ID), dimStyle.Render(detail))
				},
			}
			if c.Store != nil {
				runner.Store = c.Store
			}

			sum, err := runner.Run(cmd.Context(), tasks)
			_, _ = fmt.Fprintf(out, "\n%s %s: %d tasks, %d failed, results in %s\n",
				titleStyle.Render("batch"), statusText(sum.Status), len(sum.Outcomes), sum.Failed(), output)
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "design_list.txt", "task list file")
	cmd.Flags().StringVarP(&output, "output", "o", "iot_project", "output base directory")
	cmd.Flags().StringVarP(&plat, "platform", "p", "", "target platform id or alias (default from config)")
	cmd.Flags().StringSliceVarP(&ids, "tasks", "t", nil, "run only these task ids")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failed task")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "do not record the run in the SQLite ledger")
	return cmd
}
