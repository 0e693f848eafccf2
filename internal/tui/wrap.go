package tui

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

const tabWidth = 4

// WrapText wraps text to maxWidth terminal cells, breaking on word boundaries
// when possible. Widths are measured in cells so wide runes wrap correctly.
// Height truncation is left to the caller.
func WrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{}
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))

	var result []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if runewidth.StringWidth(line) <= maxWidth {
			result = append(result, line)
			continue
		}
		result = append(result, wrapLine(line, maxWidth)...)
	}
	return result
}

// wrapLine wraps a single line wider than maxWidth
func wrapLine(line string, maxWidth int) []string {
	var (
		result  []string
		current strings.Builder
		width   int
	)
	flush := func() {
		if width > 0 {
			result = append(result, current.String())
			current.Reset()
			width = 0
		}
	}

	for _, word := range splitWords(line) {
		wordWidth := runewidth.StringWidth(word)

		if wordWidth > maxWidth {
			flush()
			chunks := breakWord(word, maxWidth)
			// the last chunk keeps accepting words
			result = append(result, chunks[:len(chunks)-1]...)
			last := chunks[len(chunks)-1]
			current.WriteString(last)
			width = runewidth.StringWidth(last)
			continue
		}

		if width > 0 && width+1+wordWidth > maxWidth {
			flush()
		}
		if width > 0 {
			current.WriteByte(' ')
			width++
		}
		current.WriteString(word)
		width += wordWidth
	}
	flush()
	return result
}

// breakWord splits word into chunks no wider than maxWidth cells
func breakWord(word string, maxWidth int) []string {
	var (
		chunks []string
		chunk  strings.Builder
		width  int
	)
	for _, r := range word {
		w := runewidth.RuneWidth(r)
		if width+w > maxWidth && width > 0 {
			chunks = append(chunks, chunk.String())
			chunk.Reset()
			width = 0
		}
		chunk.WriteRune(r)
		width += w
	}
	if chunk.Len() > 0 {
		chunks = append(chunks, chunk.String())
	}
	return chunks
}

// splitWords splits text on runs of whitespace
func splitWords(text string) []string {
	return strings.FieldsFunc(text, unicode.IsSpace)
}
