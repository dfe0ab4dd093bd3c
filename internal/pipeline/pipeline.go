// Package pipeline turns a design file into a firmware project: it reads the
// design, prompts the model for code and an optional wiring diagram,
// reconciles build configuration and assembles the project on disk.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/metalagman/firmgen/internal/agent"
	"github.com/metalagman/firmgen/internal/assemble"
	"github.com/metalagman/firmgen/internal/config"
	"github.com/metalagman/firmgen/internal/extract"
	"github.com/metalagman/firmgen/internal/features"
	"github.com/metalagman/firmgen/internal/llm"
	"github.com/metalagman/firmgen/internal/platform"
	"github.com/metalagman/firmgen/internal/prompt"
	"github.com/metalagman/firmgen/internal/reconcile"
	"github.com/metalagman/firmgen/internal/skills"
	"github.com/metalagman/firmgen/internal/wiring"
)

// Step names in execution order.
const (
	StepReadDesign      = "read_design"
	StepResolvePlatform = "resolve_platform"
	StepGenerateCode    = "generate_code"
	StepGenerateDiagram = "generate_diagram"
	StepReconcile       = "reconcile"
	StepAssemble        = "assemble"
)

// ProgressEvent is emitted after each finished step.
type ProgressEvent struct {
	Step    string
	Message string
}

// Options configure a Pipeline.
type Options struct {
	Config config.Config
	Client llm.Client
	// Skills switches code generation to the skill agent when non-empty.
	Skills     *skills.Registry
	OnProgress func(ProgressEvent)
}

// Input selects what to generate. Empty fields fall back to the project config.
type Input struct {
	DesignFile  string
	Platform    string
	ProjectName string
	OutputDir   string
}

// State accumulates the outputs of each step.
type State struct {
	Input     Input
	Design    string
	Platform  *platform.Platform
	Features  features.Set
	Code      string
	Libraries []string
	// Wiring is empty unless the diagram step ran.
	Wiring    string
	Info      string
	Document  *wiring.Document
	Fonts     []int
	Unknown   []int
	Configs   map[string][]byte
	Result    assemble.Result
	Completed []string
}

// Pipeline runs the generation steps.
type Pipeline struct {
	opts Options
}

type step struct {
	name string
	run  func(ctx context.Context, s *State) (string, error)
}

// New returns a Pipeline.
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Steps returns the step names of a run, in order.
func (p *Pipeline) Steps() []string {
	steps := p.steps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}
	return names
}

func (p *Pipeline) steps() []step {
	steps := []step{
		{StepReadDesign, p.readDesign},
		{StepResolvePlatform, p.resolvePlatform},
		{StepGenerateCode, p.generateCode},
	}
	if p.opts.Config.Wiring.Enabled {
		steps = append(steps, step{StepGenerateDiagram, p.generateDiagram})
	}
	return append(steps,
		step{StepReconcile, p.reconcile},
		step{StepAssemble, p.assemble},
	)
}

// Run executes every step in order and stops at the first failure. The
// returned state holds whatever the completed steps produced.
func (p *Pipeline) Run(ctx context.Context, in Input) (*State, error) {
	s := &State{Input: p.resolveInput(in)}
	logger := log.With().Str("project", s.Input.ProjectName).Logger()

	for _, st := range p.steps() {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		started := time.Now()
		msg, err := st.run(ctx, s)
		if err != nil {
			logger.Debug().Err(err).Str("step", st.name).Msg("pipeline: step failed")
			return s, err
		}
		s.Completed = append(s.Completed, st.name)
		logger.Info().Str("step", st.name).Str("detail", msg).Dur("elapsed", time.Since(started)).Msg("pipeline: step finished")
		if p.opts.OnProgress != nil {
			p.opts.OnProgress(ProgressEvent{Step: st.name, Message: msg})
		}
	}
	return s, nil
}

func (p *Pipeline) resolveInput(in Input) Input {
	pc := p.opts.Config.Project
	if in.DesignFile == "" {
		in.DesignFile = pc.DesignFile
	}
	if in.Platform == "" {
		in.Platform = pc.Platform
	}
	if in.ProjectName == "" {
		in.ProjectName = pc.Name
	}
	if in.OutputDir == "" {
		in.OutputDir = pc.OutputDir
	}
	if in.OutputDir == "" {
		in.OutputDir = in.ProjectName
	}
	return in
}

func (p *Pipeline) readDesign(_ context.Context, s *State) (string, error) {
	data, err := os.ReadFile(s.Input.DesignFile)
	if err != nil {
		return "", &InputError{Path: s.Input.DesignFile, Err: err}
	}
	s.Design = strings.TrimSpace(string(data))
	if s.Design == "" {
		return "", &InputError{Path: s.Input.DesignFile, Err: ErrEmptyDesign}
	}
	return fmt.Sprintf("design loaded (%d chars)", len(s.Design)), nil
}

func (p *Pipeline) resolvePlatform(_ context.Context, s *State) (string, error) {
	pl, err := platform.Lookup(s.Input.Platform)
	if err != nil {
		return "", err
	}
	s.Platform = pl
	return "platform " + pl.Name, nil
}

func (p *Pipeline) generateCode(ctx context.Context, s *State) (string, error) {
	if p.opts.Client == nil {
		return "", &GenerationError{Step: StepGenerateCode, Err: errors.New("no llm client configured")}
	}
	s.Features = features.Classify(s.Design)

	var raw string
	if reg := p.opts.Skills; reg != nil && reg.Len() > 0 {
		loop := &agent.Loop{Client: p.opts.Client, MaxIters: p.opts.Config.Skills.MaxIterations}
		code, err := agent.Firmware(ctx, loop, s.Platform.Framework, reg, s.Design)
		if err != nil {
			return "", &GenerationError{Step: StepGenerateCode, Err: err}
		}
		raw = code
	} else {
		text, err := prompt.Code(s.Platform, s.Design, s.Features)
		if err != nil {
			return "", fmt.Errorf("build code prompt: %w", err)
		}
		resp, err := p.opts.Client.Generate(ctx, llm.Request{Prompt: text})
		if err != nil {
			return "", &GenerationError{Step: StepGenerateCode, Err: err}
		}
		raw = resp.Text
	}

	s.Code = extract.Code(raw)
	if s.Code == "" {
		return "", &GenerationError{Step: StepGenerateCode, Err: llm.ErrEmptyResponse}
	}
	if s.Platform.IsArduino() {
		s.Libraries = features.Libraries(s.Code)
	}
	return fmt.Sprintf("code generated (%d chars, features %s)", len(s.Code), strings.Join(s.Features.Sorted(), ",")), nil
}

func (p *Pipeline) generateDiagram(ctx context.Context, s *State) (string, error) {
	text, err := prompt.Diagram(s.Platform, s.Design)
	if err != nil {
		return "", fmt.Errorf("build diagram prompt: %w", err)
	}
	resp, err := p.opts.Client.Generate(ctx, llm.Request{Prompt: text})
	if err != nil {
		return "", &GenerationError{Step: StepGenerateDiagram, Err: err}
	}
	s.Wiring, s.Info = extract.Diagram(resp.Text)
	if s.Wiring == "" {
		// no section headers: keep the whole answer as the diagram
		s.Wiring = strings.TrimSpace(resp.Text)
	}
	doc := wiring.NewDocument(s.Wiring, p.wiringMeta(s), p.wiringOptions())
	s.Document = &doc
	return fmt.Sprintf("wiring diagram generated (%d components, %d connections)", len(doc.Components), len(doc.Connections)), nil
}

func (p *Pipeline) reconcile(_ context.Context, s *State) (string, error) {
	s.Fonts, s.Unknown = reconcile.ExtractFonts(s.Code)
	if len(s.Unknown) > 0 {
		log.Debug().Ints("sizes", s.Unknown).Msg("pipeline: untracked font sizes ignored")
	}
	cfgs, err := assemble.BuildConfigs(p.project(s), s.Fonts)
	if err != nil {
		return "", fmt.Errorf("reconcile build configuration: %w", err)
	}
	s.Configs = cfgs
	return fmt.Sprintf("build configuration reconciled (%d fonts)", len(s.Fonts)), nil
}

func (p *Pipeline) assemble(ctx context.Context, s *State) (string, error) {
	res, err := assemble.Write(ctx, s.Input.OutputDir, p.project(s))
	if err != nil {
		return "", err
	}
	s.Result = res
	return fmt.Sprintf("project written to %s (%d files)", filepath.Clean(res.Dir), len(res.Files)), nil
}

func (p *Pipeline) project(s *State) assemble.Project {
	cfg := p.opts.Config
	return assemble.Project{
		Name:          s.Input.ProjectName,
		Platform:      s.Platform,
		Design:        s.Design,
		Code:          s.Code,
		Wiring:        s.Wiring,
		Info:          s.Info,
		WiringOptions: p.wiringOptions(),
		MermaidCLI:    cfg.Wiring.MermaidCLI,
		Configs:       s.Configs,
		Libraries:     s.Libraries,
		Toolchain:     cfg.Toolchain,
	}
}

func (p *Pipeline) wiringMeta(s *State) wiring.Metadata {
	return wiring.Metadata{Project: s.Input.ProjectName, Platform: s.Platform.ID}
}

func (p *Pipeline) wiringOptions() wiring.Options {
	return wiring.Options{
		LegacyFallback: p.opts.Config.Wiring.LegacyFallback,
		Dedup:          p.opts.Config.Wiring.Dedup,
	}
}
