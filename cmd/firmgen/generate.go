package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/metalagman/firmgen/internal/config"
	"github.com/metalagman/firmgen/internal/pipeline"
)

func generateCmd() *cobra.Command {
	var (
		in     pipeline.Input
		wiring bool
		clean  bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one firmware project from a design file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("wiring") {
				cfg.Wiring.Enabled = wiring
			}
			if in.Platform != "" {
				cfg.Project.Platform = in.Platform
			}
			if err := checkConfig(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var c components
			app, err := buildApp(cmd.Context(), cfg, progress{fn: stepPrinter(out)}, ledgerSettings{Disabled: true}, &c)
			if err != nil {
				return err
			}
			defer func() { _ = app.Stop(cmd.Context()) }()

			if clean {
				dir := in.OutputDir
				if dir == "" {
					dir = firstNonEmpty(cfg.Project.OutputDir, in.ProjectName, cfg.Project.Name)
				}
				if err := removeOutput(dir); err != nil {
					return err
				}
			}

			st, err := c.Pipeline.Run(cmd.Context(), in)
			if err != nil {
				log.Error().Err(err).Strs("completed", st.Completed).Msg("generate: pipeline failed")
				return err
			}
			for _, w := range st.Result.Warnings {
				log.Warn().Msg("generate: " + w)
			}
			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprint(out, fileTree(filepath.Base(filepath.Clean(st.Result.Dir)), st.Result.Files))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.DesignFile, "design", "", "design file (default from config)")
	cmd.Flags().StringVarP(&in.Platform, "platform", "p", "", "target platform id or alias")
	cmd.Flags().StringVar(&in.ProjectName, "name", "", "project name")
	cmd.Flags().StringVarP(&in.OutputDir, "output", "o", "", "output directory (default: project name)")
	cmd.Flags().BoolVar(&wiring, "wiring", false, "generate wiring documentation")
	cmd.Flags().BoolVar(&clean, "clean", false, "remove the output directory first")
	return cmd
}

// checkConfig aborts on validation errors and logs warnings.
func checkConfig(cfg config.Config) error {
	report := config.Validate(cfg)
	for _, w := range report.Warnings {
		log.Warn().Msg("config: " + w)
	}
	return report.Err()
}

// removeOutput deletes a previous output directory. The filesystem root and
// the working directory are never removed.
func removeOutput(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	wd, _ := os.Getwd()
	if abs == filepath.Dir(abs) || abs == wd {
		return fmt.Errorf("refusing to remove %s", abs)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("clean %s: %w", dir, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
