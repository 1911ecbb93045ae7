package structure

import "fmt"

const systemPrompt = `You turn raw lecture and meeting notes into structured study material.
You always answer with a single JSON object and nothing else.`

const responseContract = `Answer with a JSON object of this exact shape:
{
  "clean_text": "the corrected full text",
  "bullets": [{"t": "point", "children": [{"t": "sub point", "children": []}]}],
  "concepts": ["concept", "..."],
  "relations": [["parent concept", "child concept"]]
}

Rules:
- clean_text: fix OCR artifacts, spelling and broken line breaks, keep the meaning and the language of the input.
- bullets: a hierarchical outline of the content, at most three levels deep.
- concepts: the key concepts, most important first, short noun phrases.
- relations: pairs of concepts where the first is the broader idea of the second.`

var summaryStyles = map[string]string{
	"short":    "Keep the outline compact: only the main points, at most eight top-level bullets.",
	"medium":   "Produce a balanced outline covering every topic in the text.",
	"detailed": "Produce a thorough outline that keeps supporting details and examples as nested bullets.",
}

func buildPrompt(text, summaryLevel string, topK int) string {
	style, ok := summaryStyles[summaryLevel]
	if !ok {
		style = summaryStyles["medium"]
	}
	return fmt.Sprintf(
		"%s\n\n%s\nList at most %d concepts.\n\nInput text:\n%s",
		responseContract, style, topK, text,
	)
}
