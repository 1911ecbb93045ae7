package structure

import (
	"context"
	"strings"
	"time"

	"github.com/inkgraph/backend/internal/util"
	"github.com/inkgraph/backend/pkg/ai"
	"github.com/inkgraph/backend/pkg/common"
	"github.com/inkgraph/backend/pkg/concepts"
	"github.com/inkgraph/backend/pkg/logger"
)

const (
	// maxInputChars bounds the text sent to the model.
	maxInputChars = 16000
	// maxHeuristicBullets caps the outline built without a model.
	maxHeuristicBullets = 25
	// maxBulletChars trims a heuristic bullet to a readable length.
	maxBulletChars = 120

	defaultTimeout = 45 * time.Second
	defaultTopK    = 12
	// modelAttempts is how often a failed model call is retried before the
	// heuristics take over.
	modelAttempts = 2
)

// Options tunes one structuring request.
type Options struct {
	// SummaryLevel is "short", "medium" or "detailed".
	SummaryLevel string
	// TopK caps the number of concepts requested from the model.
	TopK int
	// Timeout bounds the model call; heuristics run unbounded.
	Timeout time.Duration
}

// Service turns cleaned document text into structured form. A nil model
// client is valid; the service then always uses its deterministic
// heuristics.
type Service struct {
	client ai.Client
}

func New(client ai.Client) *Service {
	return &Service{client: client}
}

// The model answer uses explicitly bounded nesting so the response schema
// stays finite.
type bulletLeaf struct {
	Text string `json:"t"`
}

type bulletBranch struct {
	Text     string       `json:"t"`
	Children []bulletLeaf `json:"children"`
}

type bulletRoot struct {
	Text     string         `json:"t"`
	Children []bulletBranch `json:"children"`
}

type modelResponse struct {
	CleanText string       `json:"clean_text"`
	Bullets   []bulletRoot `json:"bullets"`
	Concepts  []string     `json:"concepts"`
	Relations [][]string   `json:"relations"`
}

// Structure converts text into a StructuredText. It never fails: when the
// model is missing, errors out or answers partially, the gaps are filled
// from deterministic heuristics over the input.
func (s *Service) Structure(ctx context.Context, text string, opts Options) common.StructuredText {
	text = strings.TrimSpace(text)
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	if text == "" {
		return common.StructuredText{Relations: [][]string{}}
	}
	if s.client == nil {
		return s.heuristic(text, opts.TopK)
	}

	input := util.TruncateChars(text, maxInputChars)
	logger.Debug("Structuring text",
		"chars", len(input),
		"tokens", util.CountTokens(input),
		"provider", s.client.Provider(),
	)

	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var resp modelResponse
	err := util.RetryErr(modelAttempts, func() error {
		resp = modelResponse{}
		return s.client.GenerateStructured(
			callCtx,
			"structured_notes",
			"Cleaned text, outline, concepts and concept relations of a document",
			systemPrompt,
			buildPrompt(input, opts.SummaryLevel, opts.TopK),
			&resp,
			ai.WithTemperature(0.2),
		)
	})
	if err != nil {
		logger.Warn("Model structuring failed, using heuristics", "err", err)
		return s.heuristic(text, opts.TopK)
	}

	return s.salvage(text, resp, opts.TopK)
}

// salvage merges a model answer with heuristic backfill for every field the
// model left empty, so a partial answer still yields a complete result.
func (s *Service) salvage(original string, resp modelResponse, topK int) common.StructuredText {
	out := common.StructuredText{
		CleanText: strings.TrimSpace(resp.CleanText),
		Bullets:   convertBullets(resp.Bullets),
		Concepts:  trimAll(resp.Concepts),
		Relations: resp.Relations,
		FromModel: true,
		Provider:  s.client.Provider(),
	}

	if out.CleanText == "" {
		out.CleanText = original
	}
	if len(out.Bullets) == 0 {
		out.Bullets = heuristicBullets(out.CleanText)
	}
	if len(out.Concepts) == 0 {
		out.Concepts = concepts.TextPhrases(out.CleanText, topK)
	}
	if out.Relations == nil {
		out.Relations = [][]string{}
	}
	return out
}

func (s *Service) heuristic(text string, topK int) common.StructuredText {
	return common.StructuredText{
		CleanText: text,
		Bullets:   heuristicBullets(text),
		Concepts:  concepts.TextPhrases(text, topK),
		Relations: [][]string{},
	}
}

// heuristicBullets builds a flat outline from the first line of each
// paragraph.
func heuristicBullets(text string) []common.Bullet {
	var bullets []common.Bullet
	for _, paragraph := range strings.Split(text, "\n\n") {
		lines := strings.Split(strings.TrimSpace(paragraph), "\n")
		head := strings.TrimSpace(strings.TrimLeft(lines[0], "-*• \t"))
		if head == "" {
			continue
		}
		bullets = append(bullets, common.Bullet{Text: util.TruncateChars(head, maxBulletChars)})
		if len(bullets) == maxHeuristicBullets {
			break
		}
	}
	return bullets
}

func convertBullets(roots []bulletRoot) []common.Bullet {
	var out []common.Bullet
	for _, root := range roots {
		if strings.TrimSpace(root.Text) == "" {
			continue
		}
		bullet := common.Bullet{Text: strings.TrimSpace(root.Text)}
		for _, branch := range root.Children {
			if strings.TrimSpace(branch.Text) == "" {
				continue
			}
			child := common.Bullet{Text: strings.TrimSpace(branch.Text)}
			for _, leaf := range branch.Children {
				if strings.TrimSpace(leaf.Text) == "" {
					continue
				}
				child.Children = append(child.Children, common.Bullet{Text: strings.TrimSpace(leaf.Text)})
			}
			bullet.Children = append(bullet.Children, child)
		}
		out = append(out, bullet)
	}
	return out
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
