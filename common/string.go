package common

import "strings"

// WrapString wraps every paragraph of s at width runes, breaking at the
// last space before the limit. A width below 1 returns s unchanged.
func WrapString(s string, width int) string {
	if width < 1 {
		return s
	}

	paragraphs := strings.Split(s, "\n")
	for i, p := range paragraphs {
		paragraphs[i] = wrapLine(p, width)
	}
	return strings.Join(paragraphs, "\n")
}

func wrapLine(s string, width int) string {
	var lines []string
	runes := []rune(s)
	for len(runes) > width {
		splitAt := width
		// Try to split at the last space before the specified width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = []rune(strings.TrimLeft(string(runes[splitAt:]), " "))
	}
	if len(runes) > 0 || len(lines) == 0 {
		lines = append(lines, string(runes))
	}
	return strings.Join(lines, "\n")
}
