package ocr

import (
	"context"
	"errors"
)

// EngineKind identifies an OCR backend.
type EngineKind string

const (
	// EngineNone means no OCR ran, e.g. native PDF text extraction.
	EngineNone EngineKind = "none"
	// EngineCloud is the hosted document-text-detection backend.
	EngineCloud EngineKind = "cloud"
	// EngineLocal is the on-host Tesseract backend.
	EngineLocal EngineKind = "local"
)

// ErrEngineUnavailable signals that a backend cannot run at all, typically
// because credentials or the recognizer binary are missing. The extraction
// orchestrator treats it as a fallback trigger rather than a request failure.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Config carries all recognition and preprocessing options for one request.
// It is constructed once per request and passed by value through the
// pipeline; nothing mutates it after construction.
type Config struct {
	Engine   EngineKind
	Language string
	DPI      int

	Deskew   bool
	Denoise  bool
	Binarize bool
	Morph    bool

	MergeColumns        bool
	StripHeadersFooters bool
	// DropLowConfidence is a per-word confidence floor in [0, 1]; words the
	// cloud backend reports below it are discarded. Zero keeps everything.
	DropLowConfidence float64
}

// DefaultConfig returns the configuration used when the caller specifies
// nothing: cloud engine, English, 400 DPI, every preprocessing and merge
// step enabled.
func DefaultConfig() Config {
	return Config{
		Engine:              EngineCloud,
		Language:            "en",
		DPI:                 400,
		Deskew:              true,
		Denoise:             true,
		Binarize:            true,
		Morph:               true,
		MergeColumns:        true,
		StripHeadersFooters: true,
	}
}

// Engine converts a page image into recognized text.
//
// Implementations must return ErrEngineUnavailable (wrapped or bare) when the
// backend is not usable in this environment, so the orchestrator can fall
// back instead of failing the document.
type Engine interface {
	Name() EngineKind
	Recognize(ctx context.Context, image []byte, cfg Config) (string, error)
}
