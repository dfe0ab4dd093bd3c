package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/metalagman/firmgen/internal/config"
	"github.com/metalagman/firmgen/internal/logging"
)

var (
	cfgFile   string
	debug     bool
	logFormat string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "firmgen",
		Short:         "firmgen turns hardware designs into buildable firmware projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logging.Init(logging.Options{Debug: debug, Format: logFormat})
		},
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "log format: console or json")

	cmd.AddCommand(
		initCmd(),
		generateCmd(),
		batchCmd(),
		reconcileCmd(),
		platformsCmd(),
		skillsCmd(),
		configCmd(),
		showCmd(),
		runsCmd(),
		serveCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("firmgen: command failed")
		return err
	}
	return nil
}

// loadConfig reads the configuration. An explicit --config must exist.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicit := cmd.Flags().Changed("config")
	return config.Load(cfgFile, explicit)
}
