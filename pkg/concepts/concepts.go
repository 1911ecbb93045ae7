package concepts

import (
	"strings"
	"unicode"

	"github.com/inkgraph/backend/internal/util"
	"github.com/inkgraph/backend/pkg/common"
	"github.com/inkgraph/backend/pkg/logger"
)

const defaultTopK = 12

// genericTerms are document-structure words that never make useful concepts.
var genericTerms = map[string]bool{
	"introduction": true, "overview": true, "summary": true, "notes": true,
	"note": true, "chapter": true, "section": true, "page": true,
	"content": true, "contents": true, "conclusion": true, "example": true,
	"examples": true, "agenda": true, "misc": true, "todo": true,
	"stuff": true, "things": true, "item": true, "items": true,
	"text": true, "document": true, "title": true, "etc": true,
}

// stopWords is a compact english stop list for tokens and single-word
// concepts.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "he": true, "her": true, "his": true,
	"in": true, "into": true, "is": true, "it": true, "its": true,
	"of": true, "on": true, "or": true, "our": true, "she": true,
	"that": true, "the": true, "their": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "to": true, "was": true,
	"we": true, "were": true, "which": true, "while": true, "with": true,
	"will": true, "would": true, "you": true, "your": true, "about": true,
	"also": true, "can": true, "not": true, "more": true, "some": true,
	"such": true, "than": true, "when": true, "where": true, "how": true,
	"what": true, "why": true, "who": true, "all": true, "any": true,
	"each": true, "other": true, "may": true, "do": true, "does": true,
	"did": true, "if": true, "so": true, "no": true, "up": true, "out": true,
}

// placeholderPhrases is the last resort when no ranking strategy yields
// anything, so downstream graphs always have at least a few nodes.
var placeholderPhrases = []string{"Document Overview", "Main Topics", "Key Points"}

// Rank produces the final ordered keyphrase list through a fallback chain:
// model-provided concepts first, then linguistic extraction over the text,
// then plain frequency counting, then fixed placeholders. Scores encode the
// rank as 1.0 - 0.01*position.
func Rank(modelConcepts []string, text string, topK int) []common.KeyPhrase {
	if topK <= 0 {
		topK = defaultTopK
	}

	phrases, source := util.FirstOf(
		func(p []string) bool { return len(p) == 0 },
		util.Strategy[[]string]{
			Name: "model",
			Run: func() ([]string, error) {
				return FilterModelConcepts(modelConcepts, topK), nil
			},
		},
		util.Strategy[[]string]{
			Name: "linguistic",
			Run: func() ([]string, error) {
				return linguisticPhrases(text, topK)
			},
		},
		util.Strategy[[]string]{
			Name: "frequency",
			Run: func() ([]string, error) {
				return frequencyPhrases(text, topK), nil
			},
		},
	)
	if source == "" {
		phrases, source = placeholderPhrases, "placeholder"
	}
	logger.Debug("Ranked concepts", "source", source, "count", len(phrases))

	return scoreByRank(phrases)
}

// TextPhrases extracts concepts from text alone: the linguistic pass first,
// plain frequency counting when tagging yields nothing.
func TextPhrases(text string, topK int) []string {
	if topK <= 0 {
		topK = defaultTopK
	}
	phrases, err := linguisticPhrases(text, topK)
	if err != nil || len(phrases) == 0 {
		return frequencyPhrases(text, topK)
	}
	return phrases
}

// FilterModelConcepts normalizes and filters model-suggested concepts:
// generic terms, stop words, numbers and near-empty strings are dropped,
// duplicates removed with order preserved, and the list capped at topK.
func FilterModelConcepts(concepts []string, topK int) []string {
	if topK <= 0 {
		topK = defaultTopK
	}

	seen := map[string]bool{}
	var out []string
	for _, concept := range concepts {
		normalized := Normalize(concept)
		if !usableConcept(normalized) || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
		if len(out) == topK {
			break
		}
	}
	return out
}

// Normalize lowercases a phrase, strips surrounding punctuation and
// collapses inner whitespace.
func Normalize(phrase string) string {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	phrase = strings.TrimFunc(phrase, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.Join(strings.Fields(phrase), " ")
}

// Titleize upper-cases the first letter of every word. Ranked phrases and
// graph labels are built from normalized lowercase text and get title-cased
// for display.
func Titleize(phrase string) string {
	words := strings.Fields(phrase)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func usableConcept(normalized string) bool {
	if len([]rune(normalized)) < 3 {
		return false
	}
	if genericTerms[normalized] || stopWords[normalized] {
		return false
	}

	hasLetter := false
	for _, r := range normalized {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	return hasLetter
}

func scoreByRank(phrases []string) []common.KeyPhrase {
	out := make([]common.KeyPhrase, 0, len(phrases))
	for i, phrase := range phrases {
		out = append(out, common.KeyPhrase{
			Phrase: Titleize(phrase),
			Score:  1.0 - 0.01*float64(i),
		})
	}
	return out
}
