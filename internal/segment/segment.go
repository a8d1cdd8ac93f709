package segment

import "strings"

// Segment is one timed unit of speech. Start and End are seconds on the
// source timeline. TranslatedText is empty until the translation stage runs.
type Segment struct {
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	SourceText     string  `json:"source_text"`
	TranslatedText string  `json:"translated_text,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// Duration returns the source-timeline span of the segment.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Text returns the translated text when present, falling back to the source
// text. Dub assembly speaks whichever is available.
func (s Segment) Text() string {
	if strings.TrimSpace(s.TranslatedText) != "" {
		return s.TranslatedText
	}
	return s.SourceText
}

// CaptionText returns the translated text only, never the source fallback. A
// segment whose translation is blank must drop out of the caption output
// rather than show source-language text.
func (s Segment) CaptionText() string {
	return s.TranslatedText
}

// Filter drops malformed entries: inverted or zero-length time spans and
// segments with no source text. Upstream engines emit segments in
// non-decreasing start order; ordering is trusted, not re-sorted.
func Filter(segments []Segment) []Segment {
	filtered := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Start < 0 || seg.End <= seg.Start {
			continue
		}
		if strings.TrimSpace(seg.SourceText) == "" {
			continue
		}
		filtered = append(filtered, seg)
	}
	return filtered
}

// WordCount counts whitespace-separated words after cleaning.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
