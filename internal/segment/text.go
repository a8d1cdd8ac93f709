package segment

import "strings"

// CleanText collapses internal whitespace and newlines to single spaces and
// trims the result. Purely cosmetic; never used to derive timing.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// WrapText soft-wraps cleaned text at the given character width by greedy
// word packing. Words longer than the width occupy a line of their own;
// nothing is ever broken mid-word.
func WrapText(text string, width int) []string {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil
	}
	if width <= 0 {
		return []string{cleaned}
	}

	words := strings.Fields(cleaned)
	lines := make([]string, 0, len(words)/4+1)
	var current strings.Builder
	for _, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if current.Len()+1+len(word) > width {
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			continue
		}
		current.WriteByte(' ')
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
