package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/store"
	"github.com/yiblet/clipq/internal/thumbnail"
)

// RightPaneMsg represents messages that the right pane component handles
type RightPaneMsg interface {
	isRightPaneMsg()
}

// Right pane message implementations
type ScrollUpMsg struct{}

func (ScrollUpMsg) isRightPaneMsg() {}

type ScrollDownMsg struct {
	MaxScroll int
}

func (ScrollDownMsg) isRightPaneMsg() {}

type ScrollToTopMsg struct{}

func (ScrollToTopMsg) isRightPaneMsg() {}

type ScrollToBottomMsg struct {
	MaxScroll int
}

func (ScrollToBottomMsg) isRightPaneMsg() {}

type PageUpMsg struct{}

func (PageUpMsg) isRightPaneMsg() {}

type PageDownMsg struct {
	MaxScroll int
}

func (PageDownMsg) isRightPaneMsg() {}

type JumpMsg struct {
	Direction string // "j" for down, "k" for up
	Lines     int
	MaxScroll int
}

func (JumpMsg) isRightPaneMsg() {}

type ResizeRightPaneMsg struct {
	Width  int
	Height int
}

func (ResizeRightPaneMsg) isRightPaneMsg() {}

// UpdateContentMsg resets the view after the selected entry changes
type UpdateContentMsg struct{}

func (UpdateContentMsg) isRightPaneMsg() {}

// RightPaneModel holds the state for the entry viewer
type RightPaneModel struct {
	Width   int
	Height  int
	ViewPos int // first visible line
}

// NewRightPaneModel creates a new right pane model
func NewRightPaneModel(width, height int) RightPaneModel {
	return RightPaneModel{Width: width, Height: height}
}

// Update applies a right pane message
func (r *RightPaneModel) Update(msg RightPaneMsg) error {
	switch m := msg.(type) {
	case ScrollUpMsg:
		if r.ViewPos > 0 {
			r.ViewPos--
		}
	case ScrollDownMsg:
		if r.ViewPos < m.MaxScroll {
			r.ViewPos++
		}
	case ScrollToTopMsg:
		r.ViewPos = 0
	case ScrollToBottomMsg:
		r.ViewPos = m.MaxScroll
	case PageUpMsg:
		r.ViewPos = max(r.ViewPos-r.pageSize(), 0)
	case PageDownMsg:
		r.ViewPos = min(r.ViewPos+r.pageSize(), m.MaxScroll)
	case JumpMsg:
		switch m.Direction {
		case "j":
			r.ViewPos = min(r.ViewPos+m.Lines, m.MaxScroll)
		case "k":
			r.ViewPos = max(r.ViewPos-m.Lines, 0)
		}
	case ResizeRightPaneMsg:
		r.Width = m.Width
		r.Height = m.Height
	case UpdateContentMsg:
		r.ViewPos = 0
	}
	return nil
}

// pageSize is half the visible height
func (r RightPaneModel) pageSize() int {
	return max(r.visibleLines()/2, 1)
}

func (r RightPaneModel) visibleLines() int {
	return max(r.Height-6, 1)
}

func (r RightPaneModel) textWidth() int {
	return max(r.Width-6, 1)
}

// RightPaneView renders the selected entry as a pure function
func RightPaneView(model RightPaneModel, entry *store.HistoryEntry, focused bool, selectedIndex int) (string, error) {
	borderColor := "62"
	if focused {
		borderColor = "205"
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(0, 1).
		Width(model.Width - 2).
		Height(model.Height - 4)

	var content strings.Builder
	if entry == nil {
		content.WriteString(lipgloss.NewStyle().Bold(true).Render("Entry") + "\n\n")
		content.WriteString("No entry selected")
		return style.Render(content.String()), nil
	}

	title := fmt.Sprintf("Entry [%d]", selectedIndex)
	if focused {
		title = "● " + title
	}
	title += ": " + queue.Preview(entry, model.Width-20)

	lines := EntryLines(entry, model.textWidth())
	visible := model.visibleLines()
	if maxScroll := getMaxScroll(model, entry); maxScroll > 0 {
		bottom := min(model.ViewPos+visible, len(lines))
		title += fmt.Sprintf(" (%d-%d/%d)", model.ViewPos+1, bottom, len(lines))
	}
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n")

	end := min(model.ViewPos+visible, len(lines))
	for i := model.ViewPos; i < end; i++ {
		content.WriteString(lines[i] + "\n")
	}

	return style.Render(strings.TrimSuffix(content.String(), "\n")), nil
}

// EntryLines lays out an entry's metadata and payload wrapped to width
func EntryLines(entry *store.HistoryEntry, width int) []string {
	meta := []string{
		"Type:   " + string(entry.Kind),
		"Source: " + string(entry.Origin),
		"Copied: " + time.UnixMilli(entry.CreatedAt).Format(time.DateTime),
	}
	if entry.Pinned {
		meta = append(meta, "Pinned: yes")
	}

	var lines []string
	for _, m := range meta {
		lines = append(lines, WrapText(m, width)...)
	}
	lines = append(lines, "")

	if !entry.Kind.IsImage() {
		return append(lines, WrapText(entry.Content, width)...)
	}
	if entry.OriginalURL != "" {
		lines = append(lines, WrapText("Original: "+entry.OriginalURL, width)...)
	}
	if mime, data, err := thumbnail.Decode(entry.Thumbnail); err == nil {
		lines = append(lines, WrapText(fmt.Sprintf("Thumbnail: %s, %d bytes", mime, len(data)), width)...)
	} else {
		lines = append(lines, "Thumbnail: unavailable")
	}
	return lines
}

// getMaxScroll returns the maximum scroll position (pure function)
func getMaxScroll(model RightPaneModel, entry *store.HistoryEntry) int {
	if entry == nil {
		return 0
	}
	return max(len(EntryLines(entry, model.textWidth()))-model.visibleLines(), 0)
}
