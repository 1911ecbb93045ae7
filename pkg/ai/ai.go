package ai

import "context"

// Client is a language model backend capable of schema-constrained JSON
// generation. Implementations must be safe for concurrent use.
type Client interface {
	// Provider returns the backend name reported in response metadata,
	// e.g. "gemini" or "openai".
	Provider() string

	// GenerateStructured sends the prompt to the model and unmarshals the
	// JSON answer into out. The name and description label the response
	// schema for backends that accept one; the schema itself is derived
	// from out by reflection.
	GenerateStructured(
		ctx context.Context,
		name string,
		description string,
		system string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error
}

// GenerateOptions holds per-call generation settings. Zero values mean the
// client default.
type GenerateOptions struct {
	Model       string
	Temperature float64
}

// GenerateOption mutates GenerateOptions.
type GenerateOption func(*GenerateOptions)

func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithTemperature(temperature float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temperature
	}
}
