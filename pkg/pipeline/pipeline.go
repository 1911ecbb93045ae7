package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/inkgraph/backend/internal/util"
	"github.com/inkgraph/backend/pkg/common"
	"github.com/inkgraph/backend/pkg/concepts"
	"github.com/inkgraph/backend/pkg/extract"
	"github.com/inkgraph/backend/pkg/graph"
	"github.com/inkgraph/backend/pkg/logger"
	"github.com/inkgraph/backend/pkg/ocr"
	"github.com/inkgraph/backend/pkg/structure"
)

const (
	// maxResponseChars caps the cleaned text in the response body.
	maxResponseChars = 5000
	// maxExcerptChars caps the raw text excerpt in the metadata.
	maxExcerptChars = 500
	// maxConcurrentFiles bounds parallel document extraction per request.
	maxConcurrentFiles = 2
)

// Extractor converts one document into text.
type Extractor interface {
	Extract(ctx context.Context, file extract.File, cfg ocr.Config) (extract.Result, error)
}

// Structurer converts text into structured form without failing.
type Structurer interface {
	Structure(ctx context.Context, text string, opts structure.Options) common.StructuredText
}

// Options tunes one processing request.
type Options struct {
	// Language hints OCR, e.g. "en".
	Language string
	// Engine selects the preferred OCR backend, "cloud" or "local".
	Engine string
	// SummaryLevel is "short", "medium" or "detailed".
	SummaryLevel string
	// TopK caps the keyphrase count.
	TopK int
	// User is echoed back in the response metadata.
	User string
}

// FileStatus reports the outcome of one input document.
type FileStatus struct {
	Name      string `json:"name"`
	Pages     int    `json:"pages"`
	OCREngine string `json:"ocr_engine"`
	Error     string `json:"error,omitempty"`
}

// Meta describes how the response was produced.
type Meta struct {
	Pages           int          `json:"pages"`
	ImagesProcessed int          `json:"images_processed"`
	OCREngine       string       `json:"ocr_engine"`
	LLMProvider     string       `json:"llm_provider"`
	RawExcerpt      string       `json:"raw_excerpt"`
	User            string       `json:"user,omitempty"`
	Files           []FileStatus `json:"files"`
}

// Response is the full processing result for one request.
type Response struct {
	Text           string             `json:"text"`
	Keyphrases     []common.KeyPhrase `json:"keyphrases"`
	Mindmap        graph.Graph        `json:"mindmap"`
	Flowchart      graph.Graph        `json:"flowchart"`
	NoTextDetected bool               `json:"no_text_detected,omitempty"`
	Meta           Meta               `json:"meta"`
}

// Coordinator runs the full document pipeline: extraction, cleanup,
// structuring, concept ranking and graph derivation.
type Coordinator struct {
	extractor  Extractor
	structurer Structurer
}

func New(extractor Extractor, structurer Structurer) *Coordinator {
	return &Coordinator{extractor: extractor, structurer: structurer}
}

// Process runs all files through the pipeline and merges them into one
// response. Individual file failures are reported per file; Process fails
// fast on invalid input (no files, unsupported format) and when every file
// fails.
func (c *Coordinator) Process(ctx context.Context, files []extract.File, opts Options) (Response, error) {
	if len(files) == 0 {
		return Response{}, fmt.Errorf("no files provided")
	}
	cfg := buildConfig(opts)

	results := make([]extract.Result, len(files))
	statuses := make([]FileStatus, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentFiles)
	for i, file := range files {
		i, file := i, file
		group.Go(func() error {
			result, err := c.extractor.Extract(groupCtx, file, cfg)
			statuses[i] = FileStatus{
				Name:      file.Name,
				Pages:     result.Pages,
				OCREngine: string(result.EngineUsed),
			}
			if err != nil {
				if errors.Is(err, extract.ErrUnsupportedFormat) {
					return fmt.Errorf("%s: %w", file.Name, err)
				}
				logger.Warn("File extraction failed", "file", file.Name, "err", err)
				statuses[i].Error = err.Error()
				statuses[i].OCREngine = string(ocr.EngineNone)
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Response{}, err
	}

	meta := mergeMeta(statuses, results, opts.User)
	failed := 0
	var rawParts []string
	for i, result := range results {
		if statuses[i].Error != "" {
			failed++
			continue
		}
		if strings.TrimSpace(result.Text) != "" {
			rawParts = append(rawParts, strings.TrimSpace(result.Text))
		}
	}
	if failed == len(files) {
		return Response{}, fmt.Errorf("all %d files failed extraction", failed)
	}

	raw := strings.Join(rawParts, "\n\n")
	meta.RawExcerpt = util.TruncateChars(raw, maxExcerptChars)
	if strings.TrimSpace(raw) == "" {
		meta.LLMProvider = "none"
		return Response{
			NoTextDetected: true,
			Keyphrases:     []common.KeyPhrase{},
			Meta:           meta,
		}, nil
	}

	clean := extract.Cleanup(raw)
	structured := c.structurer.Structure(ctx, clean, structure.Options{
		SummaryLevel: opts.SummaryLevel,
		TopK:         opts.TopK,
	})
	meta.LLMProvider = "none"
	if structured.FromModel {
		meta.LLMProvider = structured.Provider
	}

	keyphrases := concepts.Rank(structured.Concepts, structured.CleanText, opts.TopK)
	mindmap := c.buildMindmap(structured, keyphrases)
	flowchart := c.buildFlowchart(structured, keyphrases, mindmap)

	return Response{
		Text:       util.TruncateChars(structured.CleanText, maxResponseChars),
		Keyphrases: keyphrases,
		Mindmap:    mindmap,
		Flowchart:  flowchart,
		Meta:       meta,
	}, nil
}

// buildMindmap prefers the model outline and degrades to keyphrase
// co-occurrence when the outline yields no edges.
func (c *Coordinator) buildMindmap(structured common.StructuredText, keyphrases []common.KeyPhrase) graph.Graph {
	result, source := util.FirstOf(
		graph.Graph.Empty,
		util.Strategy[graph.Graph]{
			Name: "bullets",
			Run: func() (graph.Graph, error) {
				return graph.FromBullets(structured.Bullets), nil
			},
		},
		util.Strategy[graph.Graph]{
			Name: "cooccurrence",
			Run: func() (graph.Graph, error) {
				return graph.FromCooccurrence(structured.CleanText, keyphrases), nil
			},
		},
	)
	logger.Debug("Built mindmap", "source", source, "nodes", len(result.Nodes), "edges", len(result.Edges))
	return result
}

// buildFlowchart tries model relations, then reuses the mindmap hierarchy,
// then subject-verb-object patterns, then keyphrase co-occurrence.
func (c *Coordinator) buildFlowchart(structured common.StructuredText, keyphrases []common.KeyPhrase, mindmap graph.Graph) graph.Graph {
	result, source := util.FirstOf(
		graph.Graph.Empty,
		util.Strategy[graph.Graph]{
			Name: "relations",
			Run: func() (graph.Graph, error) {
				return graph.FromRelations(structured.Relations), nil
			},
		},
		util.Strategy[graph.Graph]{
			Name: "mindmap",
			Run: func() (graph.Graph, error) {
				return mindmap, nil
			},
		},
		util.Strategy[graph.Graph]{
			Name: "svo",
			Run: func() (graph.Graph, error) {
				sentences, err := concepts.Analyze(structured.CleanText)
				if err != nil {
					return graph.Graph{}, err
				}
				return graph.FromSentences(sentences, keyphrases), nil
			},
		},
		util.Strategy[graph.Graph]{
			Name: "cooccurrence",
			Run: func() (graph.Graph, error) {
				return graph.FromCooccurrence(structured.CleanText, keyphrases), nil
			},
		},
	)
	logger.Debug("Built flowchart", "source", source, "nodes", len(result.Nodes), "edges", len(result.Edges))
	return result
}

func buildConfig(opts Options) ocr.Config {
	cfg := ocr.DefaultConfig()
	if opts.Language != "" {
		cfg.Language = opts.Language
	}
	if opts.Engine == string(ocr.EngineLocal) {
		cfg.Engine = ocr.EngineLocal
	}
	return cfg
}

func mergeMeta(statuses []FileStatus, results []extract.Result, user string) Meta {
	meta := Meta{
		OCREngine: string(ocr.EngineNone),
		User:      user,
		Files:     statuses,
	}
	for i, result := range results {
		if statuses[i].Error != "" {
			continue
		}
		meta.Pages += result.Pages
		meta.ImagesProcessed += result.ImagesProcessed
		switch result.EngineUsed {
		case ocr.EngineLocal:
			meta.OCREngine = string(ocr.EngineLocal)
		case ocr.EngineCloud:
			if meta.OCREngine == string(ocr.EngineNone) {
				meta.OCREngine = string(ocr.EngineCloud)
			}
		}
	}
	return meta
}
