// Package llm is the text-generation boundary: a small client interface,
// provider implementations and composable middleware.
package llm

import (
	"context"
	"errors"
)

// Request is a single text-generation call.
type Request struct {
	System string
	Prompt string
	// JSON asks the provider for a JSON object response where supported.
	JSON bool
}

// Response is the generated text.
type Response struct {
	Text string
}

// Client generates text.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

// ErrEmptyResponse is returned when a provider answers without text.
var ErrEmptyResponse = errors.New("empty response")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError marks err as not retryable.
func NewPermanentError(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is marked as not retryable.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

func permanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != 408 && code != 429
}
