package common

// Bullet is one node of a hierarchical outline extracted from a document.
// The text is the display form of the idea; children carry sub-ideas up to a
// small nesting depth.
type Bullet struct {
	Text     string   `json:"t"`
	Children []Bullet `json:"children,omitempty"`
}

// StructuredText is the result of cleaning and structuring raw extracted
// text. CleanText is never empty: when structuring fails it carries the
// cleaned input unchanged.
//
// Concepts preserves insertion order, which doubles as rank order. Relations
// holds (parent, child) label pairs; entries shorter than two labels are
// ignored by consumers.
type StructuredText struct {
	CleanText string     `json:"clean_text"`
	Bullets   []Bullet   `json:"bullets"`
	Concepts  []string   `json:"concepts"`
	Relations [][]string `json:"relations"`

	// FromModel reports whether a language model produced any part of the
	// result, as opposed to the deterministic heuristics.
	FromModel bool `json:"from_model"`
	// Provider names the model backend that answered, empty for heuristics.
	Provider string `json:"provider,omitempty"`
}

// KeyPhrase is a ranked candidate topic term.
type KeyPhrase struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}
