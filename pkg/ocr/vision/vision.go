package vision

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/inkgraph/backend/pkg/logger"
	"github.com/inkgraph/backend/pkg/ocr"
)

// Engine recognizes text through the Cloud Vision document-text-detection
// API. The underlying API client is created lazily on first use and shared
// across requests for the process lifetime; creation is guarded so the first
// successful initialization wins and later callers reuse it.
type Engine struct {
	mu     sync.Mutex
	client *vision.ImageAnnotatorClient
}

// New returns an Engine without touching credentials; nothing talks to the
// network until the first Recognize call.
func New() *Engine {
	return &Engine{}
}

// Name implements ocr.Engine.
func (e *Engine) Name() ocr.EngineKind {
	return ocr.EngineCloud
}

func (e *Engine) annotator(ctx context.Context) (*vision.ImageAnnotatorClient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return e.client, nil
	}

	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: vision client: %v", ocr.ErrEngineUnavailable, err)
	}
	e.client = client
	return client, nil
}

// Recognize submits the image for document text detection and reconstructs
// paragraphs from the returned block geometry in reading order.
func (e *Engine) Recognize(ctx context.Context, img []byte, cfg ocr.Config) (string, error) {
	client, err := e.annotator(ctx)
	if err != nil {
		return "", err
	}

	visionImg, err := vision.NewImageFromReader(bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("vision image: %w", err)
	}

	annotation, err := client.DetectDocumentText(ctx, visionImg, &visionpb.ImageContext{
		LanguageHints: []string{mapLanguage(cfg.Language)},
	})
	if err != nil {
		return "", fmt.Errorf("document text detection: %w", err)
	}
	if annotation == nil {
		return "", nil
	}

	text := reconstruct(annotation, cfg)
	if strings.TrimSpace(text) == "" {
		// Geometry gave us nothing usable; the flat annotation text is
		// better than an empty page.
		text = annotation.GetText()
	}
	return strings.TrimSpace(text), nil
}

type textBlock struct {
	top     int32
	left    int32
	centerX float64
	text    string
}

// reconstruct orders blocks by (top, left) and, when column merging is on,
// reads the left column before the right one. The column split point is the
// midpoint of the horizontal block centers.
func reconstruct(annotation *visionpb.TextAnnotation, cfg ocr.Config) string {
	var blocks []textBlock
	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			text := blockText(block, cfg.DropLowConfidence)
			if strings.TrimSpace(text) == "" {
				continue
			}
			top, left, right := blockBounds(block)
			blocks = append(blocks, textBlock{
				top:     top,
				left:    left,
				centerX: float64(left+right) / 2,
				text:    text,
			})
		}
	}
	if len(blocks) == 0 {
		return ""
	}

	byReadingOrder := func(bs []textBlock) {
		sort.SliceStable(bs, func(i, j int) bool {
			if bs[i].top != bs[j].top {
				return bs[i].top < bs[j].top
			}
			return bs[i].left < bs[j].left
		})
	}

	groups := [][]textBlock{blocks}
	if cfg.MergeColumns && len(blocks) > 1 {
		minC, maxC := blocks[0].centerX, blocks[0].centerX
		for _, b := range blocks[1:] {
			if b.centerX < minC {
				minC = b.centerX
			}
			if b.centerX > maxC {
				maxC = b.centerX
			}
		}
		mid := (minC + maxC) / 2
		var left, right []textBlock
		for _, b := range blocks {
			if b.centerX <= mid {
				left = append(left, b)
			} else {
				right = append(right, b)
			}
		}
		if len(left) > 0 && len(right) > 0 {
			groups = [][]textBlock{left, right}
		}
	}

	var out strings.Builder
	for _, group := range groups {
		byReadingOrder(group)
		for _, b := range group {
			if out.Len() > 0 {
				out.WriteString("\n")
			}
			out.WriteString(strings.TrimRight(b.text, "\n"))
		}
	}
	return out.String()
}

func blockBounds(block *visionpb.Block) (top, left, right int32) {
	vertices := block.GetBoundingBox().GetVertices()
	if len(vertices) == 0 {
		return 0, 0, 0
	}
	top, left, right = vertices[0].GetY(), vertices[0].GetX(), vertices[0].GetX()
	for _, v := range vertices[1:] {
		if v.GetY() < top {
			top = v.GetY()
		}
		if v.GetX() < left {
			left = v.GetX()
		}
		if v.GetX() > right {
			right = v.GetX()
		}
	}
	return top, left, right
}

func blockText(block *visionpb.Block, confidenceFloor float64) string {
	var out strings.Builder
	for _, paragraph := range block.GetParagraphs() {
		for _, word := range paragraph.GetWords() {
			if confidenceFloor > 0 && float64(word.GetConfidence()) < confidenceFloor {
				logger.Debug("Dropping low-confidence word", "confidence", word.GetConfidence())
				continue
			}
			for _, symbol := range word.GetSymbols() {
				out.WriteString(symbol.GetText())
				out.WriteString(breakSuffix(symbol))
			}
		}
		out.WriteString("\n")
	}
	return out.String()
}

func breakSuffix(symbol *visionpb.Symbol) string {
	switch symbol.GetProperty().GetDetectedBreak().GetType() {
	case visionpb.TextAnnotation_DetectedBreak_SPACE,
		visionpb.TextAnnotation_DetectedBreak_SURE_SPACE:
		return " "
	case visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE,
		visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
		return "\n"
	case visionpb.TextAnnotation_DetectedBreak_HYPHEN:
		return "-\n"
	default:
		return ""
	}
}

// mapLanguage converts Tesseract-style codes to the BCP-47 hints the API
// expects, e.g. "eng" to "en".
func mapLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	switch {
	case lang == "":
		return "en"
	case strings.HasPrefix(lang, "eng"):
		return "en"
	default:
		return lang
	}
}
