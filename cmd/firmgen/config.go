package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/metalagman/firmgen/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(configShowCmd(), configValidateCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration without secrets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(config.Redact(cfg))
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			report := config.Validate(cfg)
			out := cmd.OutOrStdout()
			for _, w := range report.Warnings {
				_, _ = fmt.Fprintf(out, "%s %s\n", warnStyle.Render("warning"), w)
			}
			for _, e := range report.Errors {
				_, _ = fmt.Fprintf(out, "%s %s\n", failStyle.Render("error"), e)
			}
			if err := report.Err(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, okStyle.Render("configuration is valid"))
			return nil
		},
	}
}
