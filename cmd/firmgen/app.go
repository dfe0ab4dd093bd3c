package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/metalagman/firmgen/internal/config"
	"github.com/metalagman/firmgen/internal/db"
	"github.com/metalagman/firmgen/internal/llm"
	"github.com/metalagman/firmgen/internal/pipeline"
	"github.com/metalagman/firmgen/internal/skills"
)

// progress receives pipeline step events.
type progress struct {
	fn func(pipeline.ProgressEvent)
}

// ledgerSettings controls whether the batch ledger is opened.
type ledgerSettings struct {
	Disabled bool
}

// components is what a command pulls out of the graph.
type components struct {
	fx.In

	Config   config.Config
	Pipeline *pipeline.Pipeline
	Store    *db.Store `optional:"true"`
}

func newLLMClient(lc fx.Lifecycle, cfg config.Config) (llm.Client, error) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.StopHook(cancel))
	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	log.Debug().Str("client", client.Name()).Msg("firmgen: llm client ready")
	return client, nil
}

func newSkillRegistry(cfg config.Config) (*skills.Registry, error) {
	if strings.TrimSpace(cfg.Skills.Dir) == "" {
		return nil, nil
	}
	reg, err := skills.Load(cfg.Skills.Dir, cfg.Skills.Enabled)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	log.Info().Strs("skills", reg.Names()).Msg("firmgen: skills loaded")
	return reg, nil
}

func newPipeline(cfg config.Config, client llm.Client, reg *skills.Registry, p progress) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Config:     cfg,
		Client:     client,
		Skills:     reg,
		OnProgress: p.fn,
	})
}

func newLedger(lc fx.Lifecycle, cfg config.Config, s ledgerSettings) (*db.Store, error) {
	if s.Disabled {
		return nil, nil
	}
	conn, err := db.Open(cfg.Batch.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open batch ledger: %w", err)
	}
	lc.Append(fx.StopHook(conn.Close))
	return db.NewStore(conn), nil
}

// buildApp wires the generation graph. The caller must Stop the returned app.
func buildApp(ctx context.Context, cfg config.Config, p progress, ledger ledgerSettings, out *components) (*fx.App, error) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, p, ledger),
		fx.Provide(newLLMClient, newSkillRegistry, newPipeline, newLedger),
		fx.Populate(out),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return app, nil
}
