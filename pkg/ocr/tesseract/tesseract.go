package tesseract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/inkgraph/backend/pkg/ocr"
)

// Engine recognizes text with a locally installed Tesseract. Each call uses a
// fresh gosseract client because the client is not safe for concurrent use.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Name implements ocr.Engine.
func (e *Engine) Name() ocr.EngineKind {
	return ocr.EngineLocal
}

// Recognize runs Tesseract over the image in single-block page segmentation
// mode, which suits the one-column page crops the extraction layer produces.
func (e *Engine) Recognize(ctx context.Context, img []byte, cfg ocr.Config) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(mapLanguage(cfg.Language)); err != nil {
		// A missing traineddata file means the backend cannot serve this
		// request at all, not that the image is bad.
		return "", fmt.Errorf("%w: tesseract language %q: %v", ocr.ErrEngineUnavailable, cfg.Language, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("tesseract page seg mode: %w", err)
	}
	if cfg.DPI > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(cfg.DPI)); err != nil {
			return "", fmt.Errorf("tesseract dpi: %w", err)
		}
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// mapLanguage converts two-letter codes to the three-letter Tesseract
// traineddata names. Unknown codes pass through unchanged so callers can name
// a traineddata file directly.
func mapLanguage(lang string) string {
	switch strings.TrimSpace(strings.ToLower(lang)) {
	case "", "en":
		return "eng"
	case "de":
		return "deu"
	case "fr":
		return "fra"
	case "es":
		return "spa"
	case "it":
		return "ita"
	case "nl":
		return "nld"
	default:
		return strings.TrimSpace(strings.ToLower(lang))
	}
}
