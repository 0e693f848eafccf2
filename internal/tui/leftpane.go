package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/store"
)

// LeftPaneMsg represents messages that the left pane component handles
type LeftPaneMsg interface {
	isLeftPaneMsg()
}

// Left pane message implementations
type NavigateUpMsg struct{}

func (NavigateUpMsg) isLeftPaneMsg() {}

type NavigateDownMsg struct {
	MaxIndex int // Maximum valid index for bounds checking
}

func (NavigateDownMsg) isLeftPaneMsg() {}

type SelectItemMsg struct {
	Index int
}

func (SelectItemMsg) isLeftPaneMsg() {}

type GoToTopMsg struct{}

func (GoToTopMsg) isLeftPaneMsg() {}

type GoToBottomMsg struct {
	MaxIndex int
}

func (GoToBottomMsg) isLeftPaneMsg() {}

type JumpToIndexMsg struct {
	Index    int
	MaxIndex int
}

func (JumpToIndexMsg) isLeftPaneMsg() {}

type ResizeLeftPaneMsg struct {
	Width  int
	Height int
}

func (ResizeLeftPaneMsg) isLeftPaneMsg() {}

// LeftPaneModel holds the state for the history list
type LeftPaneModel struct {
	Cursor   int // Current cursor position
	Selected int // Currently selected entry index
	Offset   int // First visible row
	Width    int
	Height   int
}

// NewLeftPaneModel creates a new left pane model
func NewLeftPaneModel(width, height int) LeftPaneModel {
	return LeftPaneModel{Width: width, Height: height}
}

// Update applies a left pane message
func (l *LeftPaneModel) Update(msg LeftPaneMsg) error {
	switch m := msg.(type) {
	case NavigateUpMsg:
		if l.Cursor > 0 {
			l.Cursor--
		}
	case NavigateDownMsg:
		if l.Cursor < m.MaxIndex {
			l.Cursor++
		}
	case GoToTopMsg:
		l.Cursor = 0
	case GoToBottomMsg:
		if m.MaxIndex >= 0 {
			l.Cursor = m.MaxIndex
		}
	case JumpToIndexMsg:
		if m.Index >= 0 && m.Index <= m.MaxIndex {
			l.Cursor = m.Index
		}
	case SelectItemMsg:
		if m.Index >= 0 {
			l.Cursor = m.Index
		}
	case ResizeLeftPaneMsg:
		l.Width = m.Width
		l.Height = m.Height
	}
	l.Selected = l.Cursor
	l.scrollToCursor()
	return nil
}

// rows is the number of entries that fit below the title
func (l *LeftPaneModel) rows() int {
	return max(l.Height-6, 1)
}

func (l *LeftPaneModel) scrollToCursor() {
	if l.Cursor < l.Offset {
		l.Offset = l.Cursor
	}
	if l.Cursor >= l.Offset+l.rows() {
		l.Offset = l.Cursor - l.rows() + 1
	}
}

// LeftPaneView renders the history list as a pure function
func LeftPaneView(model LeftPaneModel, entries []*store.HistoryEntry, capacity int, focused bool) (string, error) {
	borderColor := "62"
	if focused {
		borderColor = "205" // Highlight focused pane
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(0, 1).
		Width(model.Width).
		Height(model.Height - 4)

	var content strings.Builder
	title := fmt.Sprintf("History (%d)", len(entries))
	if capacity > 0 {
		title = fmt.Sprintf("History (%d/%d)", len(entries), capacity)
	}
	if focused {
		title = "● " + title
	}
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n")

	if len(entries) == 0 {
		content.WriteString("Nothing copied yet")
		return style.Render(content.String()), nil
	}

	end := min(model.Offset+model.rows(), len(entries))
	pinStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	for i := model.Offset; i < end; i++ {
		entry := entries[i]
		marker := "  "
		if entry.Pinned {
			marker = pinStyle.Render("*") + " "
		}
		prefix := fmt.Sprintf("%d. ", i)
		// borders, padding, marker and index
		available := model.Width - 4 - 2 - len(prefix)
		line := marker + prefix + queue.Preview(entry, available)

		if i == model.Cursor {
			line = lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("230")).
				Width(model.Width - 4).
				Render(line)
		}
		content.WriteString(line + "\n")
	}

	return style.Render(strings.TrimSuffix(content.String(), "\n")), nil
}
