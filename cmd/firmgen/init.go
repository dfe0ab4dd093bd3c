package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/metalagman/firmgen/internal/config"
)

const sampleDesign = `Build a weather station on the Arduino Mega 2560.
Read temperature and humidity from a DHT11 sensor on pin 2 every two seconds.
Show both values on a 320x240 TFT display using LVGL with large fonts.
`

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default config and a sample design",
		Long:  "Create .firmgen/config.yaml with the default settings and a sample design.txt. Existing files are left untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defaults, err := yaml.Marshal(config.Defaults())
			if err != nil {
				return fmt.Errorf("encode default config: %w", err)
			}
			files := []struct {
				path string
				data []byte
			}{
				{cfgFile, append([]byte("# firmgen configuration\n"), defaults...)},
				{config.Defaults().Project.DesignFile, []byte(sampleDesign)},
			}
			for _, f := range files {
				created, err := writeIfMissing(f.path, f.data)
				if err != nil {
					return err
				}
				if created {
					log.Info().Str("path", f.path).Msg("init: file created")
				} else {
					log.Info().Str("path", f.path).Msg("init: file exists, skipping")
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("firmgen initialized"))
			return nil
		},
	}
}

func writeIfMissing(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
