package providers

import (
	"context"
	"errors"
)

// ErrModelNotReady is returned by TextGenerator.Ready when the backend cannot
// serve generation requests. The workflow engine fails fast on it before any
// stage runs.
var ErrModelNotReady = errors.New("text generation backend is not ready")

// TextGenerator defines the interface to the text-generation backend that
// drives the reasoning pipeline. Implementations may be network clients or
// local inference; the engine never issues overlapping calls on one instance.
type TextGenerator interface {
	// Generate produces a free-text completion for the given prompts.
	Generate(ctx context.Context, systemPrompt, prompt string, temperature float64) (string, error)

	// Ready reports whether the backend can be used. It returns an error
	// wrapping ErrModelNotReady when the backend is unavailable.
	Ready(ctx context.Context) error

	// ModelID identifies the backing model for telemetry and audit records.
	ModelID() string
}
