package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/metalagman/firmgen/internal/llm/openaiapi"
)

// OpenAI adapts the Responses API client to Client.
type OpenAI struct {
	c *openaiapi.Client
}

// NewOpenAI wraps an openaiapi client.
func NewOpenAI(c *openaiapi.Client) *OpenAI {
	return &OpenAI{c: c}
}

// Name identifies the provider and model.
func (o *OpenAI) Name() string { return "openai:" + o.c.Model() }

// Generate performs one Responses API call.
func (o *OpenAI) Generate(ctx context.Context, req Request) (Response, error) {
	out, err := o.c.Complete(ctx, openaiapi.CompletionRequest{
		Instructions: req.System,
		Input:        req.Prompt,
		JSON:         req.JSON,
	})
	if err != nil {
		if permanentStatus(openaiapi.StatusCode(err)) {
			return Response{}, NewPermanentError(err)
		}
		if errors.Is(err, openaiapi.ErrNoOutput) {
			return Response{}, fmt.Errorf("%w: %w", ErrEmptyResponse, err)
		}
		return Response{}, err
	}
	return Response{Text: out.OutputText}, nil
}
