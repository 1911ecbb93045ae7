package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/inkgraph/backend/internal/util"
	"github.com/inkgraph/backend/pkg/logger"
	"github.com/inkgraph/backend/pkg/ocr"
)

// maxConcurrentPages bounds parallel page OCR per document.
const maxConcurrentPages = 4

// ErrUnsupportedFormat marks an upload whose format cannot be processed at
// all. It is an input error, not an extraction failure.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Kind is the detected input document type.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// File is one uploaded input document.
type File struct {
	Name string
	Data []byte
}

// Result is the extracted text of one document together with how it was
// obtained. An empty Text with a nil error means the document was readable
// but carried no recognizable text; callers decide how to report that.
type Result struct {
	Text            string
	Pages           int
	ImagesProcessed int
	// EngineUsed is the OCR backend that produced the text, or EngineNone
	// when the text came from a native layer or no backend succeeded.
	EngineUsed ocr.EngineKind
}

// Extractor turns uploaded documents into plain text. PDFs take a native
// text fast path when every page has a text layer; otherwise pages are
// rasterized and recognized, falling back from the preferred OCR backend to
// the other one per page.
type Extractor struct {
	cloud ocr.Engine
	local ocr.Engine
	pdf   pdfToolkit
}

func New(cloud, local ocr.Engine) *Extractor {
	return &Extractor{cloud: cloud, local: local, pdf: popplerToolkit{}}
}

// DetectKind classifies the upload by magic bytes first and the file
// extension second.
func DetectKind(name string, data []byte) (Kind, error) {
	switch {
	case len(data) >= 5 && string(data[:5]) == "%PDF-":
		return KindPDF, nil
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return KindImage, nil
	case len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8:
		return KindImage, nil
	case len(data) >= 4 && string(data[:4]) == "GIF8":
		return KindImage, nil
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, nil
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return KindImage, nil
	case ".txt", ".md", ".text":
		return KindText, nil
	}

	if utf8.Valid(data) {
		return KindText, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Extract converts one document to text according to its detected kind.
func (e *Extractor) Extract(ctx context.Context, file File, cfg ocr.Config) (Result, error) {
	if len(file.Data) == 0 {
		return Result{}, fmt.Errorf("empty file: %s", file.Name)
	}

	kind, err := DetectKind(file.Name, file.Data)
	if err != nil {
		return Result{}, err
	}

	switch kind {
	case KindText:
		return Result{
			Text:       util.SanitizeText(string(file.Data)),
			Pages:      1,
			EngineUsed: ocr.EngineNone,
		}, nil
	case KindImage:
		return e.extractImage(ctx, file.Data, cfg)
	default:
		return e.extractPDF(ctx, file.Data, cfg)
	}
}

func (e *Extractor) extractImage(ctx context.Context, data []byte, cfg ocr.Config) (Result, error) {
	text, used := e.recognize(ctx, ocr.Preprocess(data, cfg), cfg)
	return Result{
		Text:            util.SanitizeText(text),
		Pages:           1,
		ImagesProcessed: 1,
		EngineUsed:      used,
	}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte, cfg ocr.Config) (Result, error) {
	dir, err := os.MkdirTemp("", "docextract-")
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Result{}, fmt.Errorf("write temp pdf: %w", err)
	}

	info, err := e.pdf.Info(data)
	if err != nil {
		return Result{}, err
	}
	if info.Pages == 0 {
		return Result{EngineUsed: ocr.EngineNone}, nil
	}

	imagePages := 0
	for _, has := range info.HasImages {
		if has {
			imagePages++
		}
	}
	logger.Debug("Classified PDF", "pages", info.Pages, "imagePages", imagePages)

	native := make([]string, info.Pages)
	allNative := true
	for page := 1; page <= info.Pages; page++ {
		text, err := e.pdf.PageText(ctx, path, page)
		if err != nil {
			logger.Debug("Native text extraction failed", "page", page, "err", err)
			allNative = false
			break
		}
		if strings.TrimSpace(text) == "" {
			allNative = false
			break
		}
		native[page-1] = text
	}

	if allNative {
		return Result{
			Text:       util.SanitizeText(joinPages(native, cfg)),
			Pages:      info.Pages,
			EngineUsed: ocr.EngineNone,
		}, nil
	}

	return e.ocrPDF(ctx, dir, path, info.Pages, cfg)
}

// ocrPDF rasterizes and recognizes every page concurrently while keeping the
// output in page order. Individual page failures degrade to an empty page
// instead of failing the document.
func (e *Extractor) ocrPDF(ctx context.Context, dir, path string, pages int, cfg ocr.Config) (Result, error) {
	texts := make([]string, pages)
	engines := make([]ocr.EngineKind, pages)
	rendered := 0

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentPages)

	for page := 1; page <= pages; page++ {
		page := page
		group.Go(func() error {
			img, err := e.pdf.RenderPage(groupCtx, dir, path, page, cfg.DPI)
			if err != nil {
				logger.Warn("Page rasterization failed", "page", page, "err", err)
				engines[page-1] = ocr.EngineNone
				return nil
			}

			text, used := e.recognize(groupCtx, ocr.Preprocess(img, cfg), cfg)
			texts[page-1] = text
			engines[page-1] = used

			mu.Lock()
			rendered++
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	used := ocr.EngineNone
	for _, kind := range engines {
		switch kind {
		case ocr.EngineLocal:
			used = ocr.EngineLocal
		case ocr.EngineCloud:
			if used == ocr.EngineNone {
				used = ocr.EngineCloud
			}
		}
	}

	text := util.SanitizeText(joinPages(texts, cfg))
	if strings.TrimSpace(text) == "" {
		used = ocr.EngineNone
	}
	return Result{
		Text:            text,
		Pages:           pages,
		ImagesProcessed: rendered,
		EngineUsed:      used,
	}, nil
}

// recognize runs the OCR backend chain over one page image: the configured
// engine first, then the remaining one. Backends that error or return blank
// text hand over to the next.
func (e *Extractor) recognize(ctx context.Context, img []byte, cfg ocr.Config) (string, ocr.EngineKind) {
	var strategies []util.Strategy[string]
	for _, engine := range e.chain(cfg.Engine) {
		engine := engine
		strategies = append(strategies, util.Strategy[string]{
			Name: string(engine.Name()),
			Run: func() (string, error) {
				return engine.Recognize(ctx, img, cfg)
			},
		})
	}

	text, winner := util.FirstOf(func(s string) bool {
		return strings.TrimSpace(s) == ""
	}, strategies...)
	if winner == "" {
		return "", ocr.EngineNone
	}
	return text, ocr.EngineKind(winner)
}

// chain orders the backends for one recognition attempt. Only the cloud
// backend degrades to the local one; a failed local backend has no further
// fallback.
func (e *Extractor) chain(preferred ocr.EngineKind) []ocr.Engine {
	var ordered []ocr.Engine
	if preferred == ocr.EngineLocal {
		ordered = []ocr.Engine{e.local}
	} else {
		ordered = []ocr.Engine{e.cloud, e.local}
	}

	chain := ordered[:0]
	for _, engine := range ordered {
		if engine != nil {
			chain = append(chain, engine)
		}
	}
	return chain
}

// joinPages strips repeated header and footer lines when configured and
// concatenates pages with a blank line between them.
func joinPages(pages []string, cfg ocr.Config) string {
	if cfg.StripHeadersFooters && len(pages) >= 2 {
		pages = stripRepeatedLines(pages)
	}

	var nonEmpty []string
	for _, p := range pages {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// edgeLines is how many lines at the top and bottom of a page count as
// header or footer candidates.
const edgeLines = 3

// stripRepeatedLines removes lines that recur near the page edges on a large
// share of pages, which is where running headers, footers and page numbers
// live. A line must appear on at least max(2, 40% of pages) pages to be
// dropped.
func stripRepeatedLines(pages []string) []string {
	threshold := int(math.Ceil(0.4 * float64(len(pages))))
	if threshold < 2 {
		threshold = 2
	}

	counts := map[string]int{}
	for _, page := range pages {
		seen := map[string]bool{}
		for _, line := range edgeCandidates(strings.Split(page, "\n")) {
			key := strings.TrimSpace(line)
			if key == "" || len(key) > 120 || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
		}
	}

	drop := map[string]bool{}
	for key, n := range counts {
		if n >= threshold {
			drop[key] = true
		}
	}
	if len(drop) == 0 {
		return pages
	}

	out := make([]string, len(pages))
	for i, page := range pages {
		lines := strings.Split(page, "\n")
		edges := map[int]bool{}
		for _, idx := range edgeIndexes(lines) {
			edges[idx] = true
		}

		var kept []string
		for idx, line := range lines {
			if edges[idx] && drop[strings.TrimSpace(line)] {
				continue
			}
			kept = append(kept, line)
		}
		out[i] = strings.Join(kept, "\n")
	}
	return out
}

func edgeCandidates(lines []string) []string {
	var out []string
	for _, idx := range edgeIndexes(lines) {
		out = append(out, lines[idx])
	}
	return out
}

// edgeIndexes returns the indexes of the first and last non-blank lines of a
// page, up to edgeLines on each side.
func edgeIndexes(lines []string) []int {
	var nonBlank []int
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonBlank = append(nonBlank, i)
		}
	}

	picked := map[int]bool{}
	for i := 0; i < len(nonBlank) && i < edgeLines; i++ {
		picked[nonBlank[i]] = true
	}
	for i := 0; i < len(nonBlank) && i < edgeLines; i++ {
		picked[nonBlank[len(nonBlank)-1-i]] = true
	}

	out := make([]int, 0, len(picked))
	for idx := range picked {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
