package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// Gemini generates text with the Gemini API.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini builds a Gemini client. httpClient may be nil.
func NewGemini(ctx context.Context, cfg GeminiConfig, httpClient *http.Client) (*Gemini, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, NewPermanentError(fmt.Errorf("gemini api key is required (set llm.api_key or GEMINI_API_KEY)"))
	}

	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{cli: cli, model: model}, nil
}

// Name identifies the provider and model.
func (g *Gemini) Name() string { return "gemini:" + g.model }

// Generate performs one GenerateContent call.
func (g *Gemini) Generate(ctx context.Context, req Request) (Response, error) {
	gc := &genai.GenerateContentConfig{}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), gc)
	if err != nil {
		err = fmt.Errorf("gemini generate: %w", err)
		if permanentStatus(geminiStatus(err)) {
			return Response{}, NewPermanentError(err)
		}
		return Response{}, err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Response{}, fmt.Errorf("gemini generate: %w", ErrEmptyResponse)
	}
	return Response{Text: text}, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiPtr *genai.APIError
	if errors.As(err, &apiPtr) && apiPtr != nil {
		return apiPtr.Code
	}
	return 0
}
