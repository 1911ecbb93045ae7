package concepts

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`[\pL][\pL'-]{2,}`)

// dedupPrefixLen folds inflected variants of the same stem, e.g. "concept"
// and "concepts" share their first six characters.
const dedupPrefixLen = 6

// frequencyPhrases is the last text-based ranking strategy: plain word
// frequency over the lowercased text, stop and generic words removed,
// variants folded by a shared prefix.
func frequencyPhrases(text string, topK int) []string {
	counts := map[string]int{}
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if stopWords[word] || genericTerms[word] {
			continue
		}
		counts[word]++
	}
	if len(counts) == 0 {
		return nil
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	seenPrefix := map[string]bool{}
	var out []string
	for _, word := range words {
		prefix := word
		if len(prefix) > dedupPrefixLen {
			prefix = prefix[:dedupPrefixLen]
		}
		if seenPrefix[prefix] {
			continue
		}
		seenPrefix[prefix] = true
		out = append(out, word)
		if len(out) == topK {
			break
		}
	}
	return out
}
