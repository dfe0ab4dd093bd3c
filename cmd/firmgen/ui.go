package main

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/metalagman/firmgen/internal/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	headStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

func stepPrinter(w io.Writer) func(pipeline.ProgressEvent) {
	return func(e pipeline.ProgressEvent) {
		_, _ = fmt.Fprintf(w, "%s %s %s\n", okStyle.Render("✓"), titleStyle.Render(e.Step), dimStyle.Render(e.Message))
	}
}

func statusText(status string) string {
	switch status {
	case "ok":
		return okStyle.Render(status)
	case "failed":
		return failStyle.Render(status)
	case "partial", "running":
		return warnStyle.Render(status)
	default:
		return status
	}
}

// fileTree renders slash-separated relative paths as an indented tree.
func fileTree(root string, files []string) string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(titleStyle.Render(root + "/"))
	b.WriteByte('\n')
	seen := map[string]bool{}
	for _, f := range sorted {
		parts := strings.Split(f, "/")
		for i := range parts {
			key := path.Join(parts[:i+1]...)
			if seen[key] {
				continue
			}
			seen[key] = true
			name := parts[i]
			if i < len(parts)-1 {
				name += "/"
			}
			b.WriteString(strings.Repeat("  ", i+1))
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// table renders rows with padded columns under a styled header.
func table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	line := func(cells []string, style *lipgloss.Style) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			cell := lipgloss.NewStyle().Width(widths[i]).Render(c)
			if style != nil {
				cell = style.Render(cell)
			}
			out[i] = cell
		}
		return strings.TrimRight(strings.Join(out, "  "), " ")
	}

	var b strings.Builder
	b.WriteString(line(header, &headStyle))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(line(row, nil))
		b.WriteByte('\n')
	}
	return b.String()
}
