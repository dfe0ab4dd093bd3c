package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// Project frameworks understood by Project.
const (
	FrameworkESPIDF  = "esp-idf"
	FrameworkArduino = "arduino"
)

var (
	sourceDirs = []string{"main", "src", "components"}
	sourceExts = []string{".c", ".ino", ".cpp", ".h"}
)

// ProjectResult summarises a project reconciliation.
type ProjectResult struct {
	Framework string
	Fonts     []int
	Unknown   []int
	Updated   []string
}

// Project scans the sources of an existing project and reconciles its font
// configuration. An empty framework is detected from the directory layout.
// Nothing is written when no fonts are referenced.
func Project(dir, framework string) (ProjectResult, error) {
	if framework == "" {
		framework = DetectFramework(dir)
	}
	res := ProjectResult{Framework: framework}

	source, err := readSources(dir)
	if err != nil {
		return res, err
	}
	res.Fonts, res.Unknown = ExtractFonts(source)
	if len(res.Unknown) > 0 {
		log.Debug().Ints("sizes", res.Unknown).Msg("reconcile: untracked font sizes ignored")
	}
	if len(res.Fonts) == 0 {
		return res, nil
	}

	type target struct {
		rel      string
		format   Format
		optional bool
	}
	var targets []target
	switch framework {
	case FrameworkESPIDF:
		targets = []target{{rel: "sdkconfig", format: Sdkconfig}}
	case FrameworkArduino:
		targets = []target{
			{rel: "platformio.ini", format: PlatformIO, optional: true},
			{rel: filepath.Join("include", "lv_conf.h"), format: LVConf},
		}
	default:
		return res, fmt.Errorf("unsupported framework %q", framework)
	}

	for _, t := range targets {
		path := filepath.Join(dir, t.rel)
		if t.optional {
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				continue
			}
		}
		changed, err := File(path, res.Fonts, t.format)
		if err != nil {
			return res, err
		}
		if changed {
			res.Updated = append(res.Updated, t.rel)
		}
	}
	return res, nil
}

// DetectFramework guesses the framework of an existing project directory.
func DetectFramework(dir string) string {
	for _, marker := range []string{"sdkconfig", filepath.Join("main", "CMakeLists.txt")} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return FrameworkESPIDF
		}
	}
	return FrameworkArduino
}

func readSources(dir string) (string, error) {
	var b strings.Builder
	appendFile := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		b.Write(data)
		b.WriteByte('\n')
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read project dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && isSource(e.Name()) {
			if err := appendFile(filepath.Join(dir, e.Name())); err != nil {
				return "", err
			}
		}
	}

	for _, sub := range sourceDirs {
		root := filepath.Join(dir, sub)
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isSource(d.Name()) {
				return nil
			}
			return appendFile(path)
		})
		if err != nil {
			return "", fmt.Errorf("scan %s: %w", sub, err)
		}
	}
	return b.String(), nil
}

func isSource(name string) bool {
	return slices.Contains(sourceExts, strings.ToLower(filepath.Ext(name)))
}
