package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/metalagman/firmgen/internal/db"
)

const stampLayout = "2006-01-02 15:04:05"

func openStore(cmd *cobra.Command) (*db.Store, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, func() {}, err
	}
	conn, err := db.Open(cfg.Batch.DBPath)
	if err != nil {
		return nil, func() {}, err
	}
	return db.NewStore(conn), func() { _ = conn.Close() }, nil
}

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List batch runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID, r.CreatedAt.Local().Format(stampLayout), r.Platform, statusText(r.Status),
					strconv.Itoa(r.Total), strconv.Itoa(r.Failed), r.OutputDir,
				})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), table([]string{"RUN", "CREATED", "PLATFORM", "STATUS", "TASKS", "FAILED", "OUTPUT"}, rows))
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list (0 for all)")
	cmd.AddCommand(runsTasksCmd(), runsPruneCmd())
	return cmd
}

func runsTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <run-id>",
		Short: "List the tasks of one batch run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := store.GetRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			tasks, err := store.ListTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []string{t.TaskID, statusText(t.Status), duration(t), t.OutputDir, t.Error})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), table([]string{"TASK", "STATUS", "TOOK", "OUTPUT", "ERROR"}, rows))
			return err
		},
	}
}

func duration(t db.Task) string {
	if t.EndedAt == nil {
		return "-"
	}
	return t.EndedAt.Sub(t.StartedAt).Round(time.Second).String()
}

func runsPruneCmd() *cobra.Command {
	var (
		policy db.RetentionPolicy
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old batch runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
				return errors.New("set --keep-last or --keep-days")
			}
			store, closeFn, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := store.PruneRuns(cmd.Context(), policy, dryRun)
			if err != nil {
				return err
			}
			mode := "deleted"
			if dryRun {
				mode = "would delete"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %d runs (kept %d of %d)\n", mode, res.Deleted, res.Kept, res.Considered)
			return err
		},
	}
	cmd.Flags().IntVar(&policy.KeepLast, "keep-last", 0, "keep the newest N runs")
	cmd.Flags().IntVar(&policy.KeepDays, "keep-days", 0, "keep runs newer than N days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be pruned without deleting")
	return cmd
}
