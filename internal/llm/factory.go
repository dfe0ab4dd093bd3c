package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/metalagman/firmgen/internal/config"
	"github.com/metalagman/firmgen/internal/llm/openaiapi"
)

// New builds the configured provider wrapped in logging, retry and a
// per-request timeout.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	var (
		inner Client
		err   error
	)
	key := config.ResolveAPIKey(cfg)

	switch cfg.Provider {
	case config.ProviderGemini:
		inner, err = NewGemini(ctx, GeminiConfig{Model: cfg.Model, APIKey: key, BaseURL: cfg.BaseURL}, nil)
	case config.ProviderOpenAI:
		var c *openaiapi.Client
		c, err = openaiapi.NewClient(openaiapi.Config{
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			APIKey:    key,
			APIKeyEnv: cfg.APIKeyEnv,
			Timeout:   cfg.Timeout,
		}, nil)
		if err == nil {
			inner = NewOpenAI(c)
		}
	case config.ProviderExec:
		inner, err = NewExec(ExecConfig{Cmd: cfg.Cmd, UseTTY: cfg.UseTTY, Stderr: os.Stderr})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return Wrap(inner, Logging(), Retry(cfg.MaxRetries, 0), Timeout(cfg.Timeout)), nil
}
