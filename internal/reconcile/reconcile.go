// Package reconcile keeps build configuration files in step with the LVGL
// fonts a generated source actually references.
package reconcile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// FontSizes is the fixed set of Montserrat sizes tracked in configuration files.
var FontSizes = []int{20, 22, 24, 26, 28, 30, 32, 34, 36}

// FontPattern matches a font reference in source code.
var FontPattern = regexp.MustCompile(`lv_font_montserrat_(\d+)`)

// trackedKey matches a configuration line that encodes any font size. Lines
// for sizes outside FontSizes are dropped as well.
var trackedKey = regexp.MustCompile(`LV_FONT_MONTSERRAT_\d+\b`)

// ExtractFonts returns the tracked font sizes referenced in source and,
// separately, referenced sizes outside the tracked set. Both are sorted and unique.
func ExtractFonts(source string) (used, unknown []int) {
	seen := map[int]bool{}
	for _, m := range FontPattern.FindAllStringSubmatch(source, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		if slices.Contains(FontSizes, n) {
			used = append(used, n)
		} else {
			unknown = append(unknown, n)
		}
	}
	slices.Sort(used)
	slices.Sort(unknown)
	return used, unknown
}

// Format describes how one configuration file encodes the font switches.
type Format struct {
	Name     string
	Enabled  func(size int) string
	Disabled func(size int) string
	// Insert places the synthesised block into the remaining lines.
	Insert func(lines, block []string) []string
}

// Sdkconfig is the ESP-IDF Kconfig output format.
var Sdkconfig = Format{
	Name:     "sdkconfig",
	Enabled:  func(n int) string { return fmt.Sprintf("CONFIG_LV_FONT_MONTSERRAT_%d=y", n) },
	Disabled: func(n int) string { return fmt.Sprintf("# CONFIG_LV_FONT_MONTSERRAT_%d is not set", n) },
	Insert:   appendBlock,
}

// PlatformIO is the platformio.ini build_flags format.
var PlatformIO = Format{
	Name:     "platformio.ini",
	Enabled:  func(n int) string { return fmt.Sprintf("    -DLV_FONT_MONTSERRAT_%d=1", n) },
	Disabled: func(n int) string { return fmt.Sprintf("    -DLV_FONT_MONTSERRAT_%d=0", n) },
	Insert:   insertAfterBuildFlags,
}

// LVConf is the lv_conf.h define format.
var LVConf = Format{
	Name:     "lv_conf.h",
	Enabled:  func(n int) string { return fmt.Sprintf("#define LV_FONT_MONTSERRAT_%d 1", n) },
	Disabled: func(n int) string { return fmt.Sprintf("#define LV_FONT_MONTSERRAT_%d 0", n) },
	Insert:   insertBeforeEndif,
}

// Apply rewrites content so that every tracked size appears exactly once, in
// ascending order, enabled when listed in used and disabled otherwise.
func Apply(content []byte, used []int, f Format) []byte {
	var kept []string
	for _, line := range splitLines(content) {
		if !isTracked(line) {
			kept = append(kept, line)
		}
	}

	block := make([]string, 0, len(FontSizes))
	for _, n := range FontSizes {
		if slices.Contains(used, n) {
			block = append(block, f.Enabled(n))
		} else {
			block = append(block, f.Disabled(n))
		}
	}

	out := f.Insert(kept, block)
	return []byte(strings.Join(out, "\n") + "\n")
}

func isTracked(line string) bool {
	return trackedKey.MatchString(line)
}

func splitLines(content []byte) []string {
	s := strings.ReplaceAll(string(content), "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func appendBlock(lines, block []string) []string {
	return append(lines, block...)
}

func insertAfterBuildFlags(lines, block []string) []string {
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "build_flags") {
			out := slices.Clone(lines[:i+1])
			out = append(out, block...)
			return append(out, lines[i+1:]...)
		}
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}
	lines = append(lines, "build_flags =")
	return append(lines, block...)
}

const lvConfGuard = "LV_CONF_H"

func insertBeforeEndif(lines, block []string) []string {
	if len(lines) == 0 {
		out := []string{"#ifndef " + lvConfGuard, "#define " + lvConfGuard, ""}
		out = append(out, block...)
		// same layout as a re-run produces: block directly above #endif
		return append(out, "#endif /* "+lvConfGuard+" */")
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "#endif") {
			out := slices.Clone(lines[:i])
			out = append(out, block...)
			return append(out, lines[i:]...)
		}
	}
	return append(lines, block...)
}

// File reconciles the configuration file at path in place. A missing file is
// treated as empty and created. It reports whether the content changed.
func File(path string, used []int, f Format) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read %s: %w", f.Name, err)
	}
	updated := Apply(content, used, f)
	if bytes.Equal(content, updated) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create dir for %s: %w", f.Name, err)
	}
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", f.Name, err)
	}
	return true, nil
}
