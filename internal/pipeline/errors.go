package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyDesign is wrapped by InputError when the design file has no text.
var ErrEmptyDesign = errors.New("design is empty")

// InputError reports a design file that could not be used.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("design file %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// GenerationError reports a failed call to the text-generation service.
type GenerationError struct {
	Step string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: generation failed: %v", e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
