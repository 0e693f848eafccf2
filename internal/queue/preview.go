package queue

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yiblet/clipq/internal/store"
)

// Preview returns a single-line summary of an entry, at most maxLen runes.
// Text entries use their first non-empty line; image entries use a
// placeholder naming the source when one is known.
func Preview(entry *store.HistoryEntry, maxLen int) string {
	var title string
	switch entry.Kind {
	case store.KindImage, store.KindGIF:
		label := "[image]"
		if entry.Kind == store.KindGIF {
			label = "[gif]"
		}
		title = label
		if entry.OriginalURL != "" && !strings.HasPrefix(entry.OriginalURL, "data:") {
			title = label + " " + entry.OriginalURL
		}
	default:
		title = FirstLine(entry.Content)
	}
	return Truncate(title, maxLen)
}

// FirstLine returns the first non-empty line of text with control characters
// removed and whitespace collapsed. Whitespace-only text yields "[empty]".
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if cleaned := Sanitize(line); cleaned != "" {
			return cleaned
		}
	}
	return "[empty]"
}

// Truncate shortens s to at most maxLen runes, ending with "..." when cut.
func Truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return strings.Repeat(".", maxLen)
	}

	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

// Sanitize replaces control characters with spaces and collapses whitespace
// so the result is safe to print on one terminal line.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
