package graph

import (
	"sort"
	"strings"

	"github.com/inkgraph/backend/pkg/common"
	"github.com/inkgraph/backend/pkg/concepts"
)

// FromRelations builds a flowchart graph from (parent, child) label pairs.
// Pairs with fewer than two usable labels are skipped.
func FromRelations(relations [][]string) Graph {
	b := newBuilder()
	for _, relation := range relations {
		if len(relation) < 2 {
			continue
		}
		from := b.addNode(relation[0])
		to := b.addNode(relation[1])
		b.addEdge(from, to, 1, "")
	}
	return b.graph()
}

// FromSentences approximates subject-verb-object triples from tagged
// sentences: the noun run before the first verb points at the noun run after
// it, labeled with the verb. Only triples whose subject and object each
// resolve to a known concept produce an edge, and the matched concept
// becomes the node, so the flowchart stays within the ranked vocabulary.
func FromSentences(sentences []concepts.Sentence, phrases []common.KeyPhrase) Graph {
	matcher := newConceptMatcher(phrases)
	b := newBuilder()
	for _, sentence := range sentences {
		subject, verb, object := svo(sentence.Tokens)
		if subject == "" || object == "" {
			continue
		}
		fromConcept := matcher.match(subject)
		toConcept := matcher.match(object)
		if fromConcept == "" || toConcept == "" || fromConcept == toConcept {
			continue
		}
		from := b.addNode(Titleize(fromConcept))
		to := b.addNode(Titleize(toConcept))
		b.addEdge(from, to, 1, strings.ToLower(verb))
	}
	return b.graph()
}

// conceptMatcher resolves normalized text fragments to known concepts,
// preferring the longest concept when several match.
type conceptMatcher struct {
	known []string
}

func newConceptMatcher(phrases []common.KeyPhrase) conceptMatcher {
	var m conceptMatcher
	seen := map[string]bool{}
	for _, kp := range phrases {
		normalized := concepts.Normalize(kp.Phrase)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		m.known = append(m.known, normalized)
	}
	sort.SliceStable(m.known, func(i, j int) bool {
		return len(m.known[i]) > len(m.known[j])
	})
	return m
}

// match returns the longest concept the fragment contains or is contained
// by, or "" when the fragment mentions no concept.
func (m conceptMatcher) match(fragment string) string {
	if fragment == "" {
		return ""
	}
	for _, concept := range m.known {
		if strings.Contains(fragment, concept) || strings.Contains(concept, fragment) {
			return concept
		}
	}
	return ""
}

func svo(tokens []concepts.Token) (subject, verb, object string) {
	verbAt := -1
	for i, token := range tokens {
		if strings.HasPrefix(token.Tag, "VB") {
			verbAt = i
			verb = token.Text
			break
		}
	}
	if verbAt < 0 {
		return "", "", ""
	}

	subject = lastNounRun(tokens[:verbAt])
	object = firstNounRun(tokens[verbAt+1:])
	return subject, verb, object
}

func lastNounRun(tokens []concepts.Token) string {
	end := -1
	for i := len(tokens) - 1; i >= 0; i-- {
		if strings.HasPrefix(tokens[i].Tag, "NN") {
			end = i
			break
		}
	}
	if end < 0 {
		return ""
	}
	start := end
	for start > 0 && strings.HasPrefix(tokens[start-1].Tag, "NN") {
		start--
	}
	return joinWords(tokens[start : end+1])
}

func firstNounRun(tokens []concepts.Token) string {
	start := -1
	for i, token := range tokens {
		if strings.HasPrefix(token.Tag, "NN") {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}
	end := start
	for end+1 < len(tokens) && strings.HasPrefix(tokens[end+1].Tag, "NN") {
		end++
	}
	return joinWords(tokens[start : end+1])
}

func joinWords(tokens []concepts.Token) string {
	words := make([]string, len(tokens))
	for i, token := range tokens {
		words[i] = token.Text
	}
	return concepts.Normalize(strings.Join(words, " "))
}
