package concepts

import (
	"sort"
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// Token is one part-of-speech tagged word.
type Token struct {
	Text string
	Tag  string
}

// Sentence is one sentence with its tagged tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Analyze splits text into sentences and tags each one. The tags follow the
// Penn Treebank set, e.g. NN, NNP, VBZ.
func Analyze(text string) ([]Sentence, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	var out []Sentence
	for _, s := range doc.Sentences() {
		tagged, err := prose.NewDocument(s.Text, prose.WithSegmentation(false))
		if err != nil {
			continue
		}
		sentence := Sentence{Text: s.Text}
		for _, t := range tagged.Tokens() {
			sentence.Tokens = append(sentence.Tokens, Token{Text: t.Text, Tag: t.Tag})
		}
		out = append(out, sentence)
	}
	return out, nil
}

func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func isPhraseTag(tag string) bool {
	return isNounTag(tag) || strings.HasPrefix(tag, "JJ")
}

// maxPhraseTokens bounds noun phrase candidates; longer runs keep their
// trailing tokens, which carry the head noun.
const maxPhraseTokens = 3

// linguisticPhrases extracts noun phrase candidates from tagged sentences
// and ranks them by frequency, with a boost for phrases appearing in the
// first line of the text and a small bonus for longer phrases. Phrases
// contained in an already ranked phrase are dropped.
func linguisticPhrases(text string, topK int) ([]string, error) {
	sentences, err := Analyze(text)
	if err != nil {
		return nil, err
	}

	title := ""
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			title = strings.ToLower(line)
			break
		}
	}

	counts := map[string]int{}
	for _, sentence := range sentences {
		for _, phrase := range nounPhrases(sentence.Tokens) {
			counts[phrase]++
		}
	}
	if len(counts) == 0 {
		return nil, nil
	}

	type scored struct {
		phrase string
		score  float64
	}
	ranked := make([]scored, 0, len(counts))
	for phrase, count := range counts {
		score := float64(count)
		if title != "" && strings.Contains(title, phrase) {
			score += 2
		}
		tokens := len(strings.Fields(phrase))
		if tokens > maxPhraseTokens {
			tokens = maxPhraseTokens
		}
		score += 0.2 * float64(tokens)
		ranked = append(ranked, scored{phrase: phrase, score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].phrase < ranked[j].phrase
	})

	var out []string
	for _, candidate := range ranked {
		if containedInAny(candidate.phrase, out) {
			continue
		}
		out = append(out, candidate.phrase)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

type runToken struct {
	word string
	noun bool
}

// nounPhrases collects maximal adjective-noun runs that end in a noun,
// trimmed to the trailing maxPhraseTokens tokens.
func nounPhrases(tokens []Token) []string {
	var phrases []string
	var run []runToken

	flush := func() {
		defer func() { run = nil }()

		// Trailing adjectives belong to the next phrase, not this one.
		for len(run) > 0 && !run[len(run)-1].noun {
			run = run[:len(run)-1]
		}
		if len(run) == 0 {
			return
		}
		if len(run) > maxPhraseTokens {
			run = run[len(run)-maxPhraseTokens:]
		}

		words := make([]string, len(run))
		for i, t := range run {
			words[i] = t.word
		}
		phrase := Normalize(strings.Join(words, " "))
		if usablePhrase(phrase) {
			phrases = append(phrases, phrase)
		}
	}

	for _, token := range tokens {
		if isPhraseTag(token.Tag) {
			run = append(run, runToken{word: token.Text, noun: isNounTag(token.Tag)})
			continue
		}
		flush()
	}
	flush()
	return phrases
}

func usablePhrase(phrase string) bool {
	if !usableConcept(phrase) {
		return false
	}
	words := strings.Fields(phrase)
	for _, w := range words {
		if !stopWords[w] && !genericTerms[w] {
			return true
		}
	}
	return false
}

func containedInAny(phrase string, kept []string) bool {
	for _, k := range kept {
		if strings.Contains(k, phrase) || strings.Contains(phrase, k) {
			return true
		}
	}
	return false
}
