package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	horizontalWS = regexp.MustCompile(`[ \t]+`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// Cleanup normalizes raw extracted text: line endings, hyphenation across
// line breaks, soft line breaks inside sentences, and whitespace runs. It is
// idempotent, so cleaned text passes through unchanged.
func Cleanup(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(horizontalWS.ReplaceAllString(lines[i], " "))
	}

	lines = dehyphenate(lines)
	lines = joinSoftBreaks(lines)

	joined := strings.Join(lines, "\n")
	joined = blankRuns.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

// dehyphenate merges words split across a line break, e.g. "exam-" followed
// by "ple text" becomes "example text".
func dehyphenate(lines []string) []string {
	var out []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		for i+1 < len(lines) && hyphenBreak(line, lines[i+1]) {
			line = strings.TrimSuffix(line, "-") + lines[i+1]
			i++
		}
		out = append(out, line)
	}
	return out
}

func hyphenBreak(line, next string) bool {
	if len(line) < 2 || !strings.HasSuffix(line, "-") {
		return false
	}
	before := []rune(strings.TrimSuffix(line, "-"))
	after := []rune(next)
	return len(before) > 0 && unicode.IsLetter(before[len(before)-1]) &&
		len(after) > 0 && unicode.IsLower(after[0])
}

// joinSoftBreaks merges a line into the previous one when the break clearly
// falls mid-sentence: the previous line does not end a sentence and the next
// one continues in lowercase.
func joinSoftBreaks(lines []string) []string {
	var out []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		for i+1 < len(lines) && softBreak(line, lines[i+1]) {
			line = line + " " + lines[i+1]
			i++
		}
		out = append(out, line)
	}
	return out
}

func softBreak(line, next string) bool {
	if line == "" || next == "" {
		return false
	}

	last := []rune(line)
	switch last[len(last)-1] {
	case '.', '!', '?', ':', ';':
		return false
	}

	// Only continue a sentence into a line that starts in lowercase; this
	// keeps headings, bullets and numbered items on their own lines.
	return unicode.IsLower([]rune(next)[0])
}
