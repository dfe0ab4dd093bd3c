// Package assemble writes a generated firmware project to disk in the
// layout its framework's build tools expect.
package assemble

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"text/template"

	"github.com/rs/zerolog/log"

	"github.com/metalagman/firmgen/internal/config"
	"github.com/metalagman/firmgen/internal/platform"
	"github.com/metalagman/firmgen/internal/wiring"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Project is everything needed to lay out one generated project.
type Project struct {
	Name     string
	Platform *platform.Platform
	Design   string
	Code     string
	// Wiring is the raw diagram text. No wiring documents are written when empty.
	Wiring        string
	Info          string
	WiringOptions wiring.Options
	MermaidCLI    string
	// Configs holds reconciled build configuration contents keyed by
	// project-relative path. Missing entries are generated with no fonts.
	Configs   map[string][]byte
	Libraries []string
	Toolchain config.ToolchainConfig
}

// Result lists what Write produced.
type Result struct {
	Dir      string
	Files    []string
	Warnings []string
}

type writer struct {
	dir   string
	files []string
}

func (w *writer) write(rel string, data []byte) error {
	path := filepath.Join(w.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	w.files = append(w.files, rel)
	return nil
}

func (w *writer) render(rel, name string, data any) error {
	out, err := render(name, data)
	if err != nil {
		return err
	}
	return w.write(rel, out)
}

// Write lays out p under dir, creating it as needed. Existing files are
// overwritten. Wiring document failures become warnings.
func Write(ctx context.Context, dir string, p Project) (Result, error) {
	if p.Platform == nil {
		return Result{}, fmt.Errorf("assemble %s: no platform", p.Name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create project dir: %w", err)
	}

	w := &writer{dir: dir}
	var err error
	if p.Platform.IsESPIDF() {
		err = writeESPIDF(w, p)
	} else {
		err = writeArduino(w, p)
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{Dir: dir}
	if p.Wiring != "" {
		saved, err := wiring.SaveAll(ctx, dir, wiring.SaveInput{
			Text:       p.Wiring,
			Info:       p.Info,
			Metadata:   wiring.Metadata{Project: p.Name, Platform: p.Platform.ID},
			Options:    p.WiringOptions,
			MermaidCLI: p.MermaidCLI,
		})
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("assemble: wiring documents not saved")
			res.Warnings = append(res.Warnings, err.Error())
		}
		w.files = append(w.files, saved.Files...)
		res.Warnings = append(res.Warnings, saved.Warnings...)
	}

	readme := "readme_arduino.md.tmpl"
	if p.Platform.IsESPIDF() {
		readme = "readme_espidf.md.tmpl"
	}
	listed := append(slices.Clone(w.files), "README.md")
	slices.Sort(listed)
	if err := w.render("README.md", readme, readmeData{Project: p, Files: listed, FQBN: fqbn(p), CLI: arduinoCLI(p)}); err != nil {
		return Result{}, err
	}

	res.Files = slices.Clone(w.files)
	slices.Sort(res.Files)
	log.Info().Str("dir", dir).Int("files", len(res.Files)).Msg("assemble: project assembled")
	return res, nil
}

type readmeData struct {
	Project
	Files []string
	FQBN  string
	CLI   string
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func withNewline(s string) []byte {
	if s == "" || s[len(s)-1] != '\n' {
		s += "\n"
	}
	return []byte(s)
}

func arduinoCLI(p Project) string {
	if p.Toolchain.ArduinoCLI != "" {
		return p.Toolchain.ArduinoCLI
	}
	return "arduino-cli"
}

func fqbn(p Project) string {
	if p.Toolchain.BoardFQBN != "" {
		return p.Toolchain.BoardFQBN
	}
	return p.Platform.FQBN
}
