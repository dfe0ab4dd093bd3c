package wiring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// File names written by SaveAll.
const (
	FileJSON     = "WIRING.json"
	FileMarkdown = "WIRING.md"
	FileMermaid  = "WIRING.mmd"
	FileSVG      = "WIRING.svg"
)

// DefaultMermaidCLI is the Mermaid renderer looked up on PATH.
const DefaultMermaidCLI = "mmdc"

const renderTimeout = 60 * time.Second

// ErrMermaidCLINotFound is returned by RenderSVG when the renderer is not installed.
var ErrMermaidCLINotFound = errors.New("mermaid cli not found")

// RenderError wraps a failed external render.
type RenderError struct {
	Message string
	Output  string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %v: %s", e.Message, e.Cause, e.Output)
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// RenderSVG renders mermaid source to an SVG file with the Mermaid CLI.
func RenderSVG(ctx context.Context, mermaid, outPath, cli string) error {
	if cli == "" {
		cli = DefaultMermaidCLI
	}
	bin, err := exec.LookPath(cli)
	if err != nil {
		return fmt.Errorf("%w: %s (install with: npm install -g @mermaid-js/mermaid-cli)", ErrMermaidCLINotFound, cli)
	}

	tmp, err := os.CreateTemp("", "wiring-*.mmd")
	if err != nil {
		return fmt.Errorf("create temp mermaid file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.WriteString(mermaid); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp mermaid file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp mermaid file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-i", tmp.Name(), "-o", outPath)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return &RenderError{Message: "render svg", Output: strings.TrimSpace(out.String()), Cause: err}
	}
	return nil
}

// SaveInput is everything SaveAll needs to write the wiring documents.
type SaveInput struct {
	Text       string
	Info       string
	Metadata   Metadata
	Options    Options
	MermaidCLI string
}

// Saved lists the documents written and the formats that failed.
type Saved struct {
	Document Document
	Files    []string
	Warnings []string
}

// SaveAll writes WIRING.json, WIRING.md and WIRING.mmd into dir and attempts
// WIRING.svg. A format that fails to render is recorded as a warning. Failing
// to create dir or to write a rendered document is an error; the returned
// Saved still lists the documents that were written.
func SaveAll(ctx context.Context, dir string, in SaveInput) (Saved, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("create wiring dir: %w", err)
	}

	doc := NewDocument(in.Text, in.Metadata, in.Options)
	mermaid := RenderMermaid(doc)

	writers := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{FileJSON, func() ([]byte, error) { return RenderJSON(doc) }},
		{FileMarkdown, func() ([]byte, error) { return []byte(RenderMarkdown(in.Text, in.Info)), nil }},
		{FileMermaid, func() ([]byte, error) { return []byte(mermaid), nil }},
	}

	var (
		mu         sync.Mutex
		saved      = Saved{Document: doc}
		renderErrs = make([]error, len(writers))
	)
	var g errgroup.Group
	for i, w := range writers {
		g.Go(func() error {
			data, err := w.render()
			if err != nil {
				renderErrs[i] = fmt.Errorf("render %s: %w", w.name, err)
				return nil
			}
			if err := os.WriteFile(filepath.Join(dir, w.name), data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", w.name, err)
			}
			mu.Lock()
			saved.Files = append(saved.Files, w.name)
			mu.Unlock()
			return nil
		})
	}
	writeErr := g.Wait()

	for _, err := range renderErrs {
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("wiring: document not rendered")
			saved.Warnings = append(saved.Warnings, err.Error())
		}
	}
	if writeErr != nil {
		sortFiles(saved.Files)
		return saved, writeErr
	}

	if err := RenderSVG(ctx, mermaid, filepath.Join(dir, FileSVG), in.MermaidCLI); err != nil {
		log.Warn().Err(err).Msg("wiring: svg not rendered")
		saved.Warnings = append(saved.Warnings, err.Error())
	} else {
		saved.Files = append(saved.Files, FileSVG)
	}

	sortFiles(saved.Files)
	return saved, nil
}

var fileOrder = map[string]int{FileJSON: 0, FileMarkdown: 1, FileMermaid: 2, FileSVG: 3}

func sortFiles(files []string) {
	slices.SortFunc(files, func(a, b string) int { return fileOrder[a] - fileOrder[b] })
}
