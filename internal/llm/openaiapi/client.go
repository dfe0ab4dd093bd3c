// Package openaiapi is a thin one-shot client over the OpenAI Responses API.
package openaiapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const jsonDirective = "Respond with a single JSON object and nothing else."

// ErrNoOutput is returned when a response carries no output text.
var ErrNoOutput = errors.New("openai response did not contain output text")

// Client wraps the Responses API for one-shot calls.
type Client struct {
	cfg    Config
	client openai.Client
}

// NewClient constructs a new OpenAI API client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		envKey := strings.TrimSpace(cfg.APIKeyEnv)
		if envKey == "" {
			envKey = defaultAPIKeyEnv
		}
		apiKey = strings.TrimSpace(os.Getenv(envKey))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required (set llm.api_key or %s)", defaultAPIKeyEnv)
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(timeout),
		// retries are owned by the caller's middleware
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Client{
		cfg:    Config{Model: model, BaseURL: baseURL, Timeout: timeout},
		client: openai.NewClient(opts...),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Complete executes a single Responses API request.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	instructions := req.Instructions
	if req.JSON {
		instructions = strings.TrimSpace(instructions + "\n\n" + jsonDirective)
	}

	params := responses.ResponseNewParams{
		Model: c.cfg.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(req.Input),
		},
	}
	if instructions != "" {
		params.Instructions = openai.String(instructions)
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("openai responses.create: %w", err)
	}
	if msg := strings.TrimSpace(resp.Error.Message); msg != "" {
		return CompletionResponse{}, fmt.Errorf("openai response failed: %s", msg)
	}

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return CompletionResponse{}, ErrNoOutput
	}
	return CompletionResponse{OutputText: output}, nil
}

// StatusCode extracts the HTTP status of an API error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
