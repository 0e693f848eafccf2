package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/store"
)

// ModalMsg represents messages that the modal component handles
type ModalMsg interface {
	isModalMsg()
}

// Modal message implementations
type ShowModalMsg struct {
	Title   string
	Content string
	Options string
}

func (ShowModalMsg) isModalMsg() {}

type HideModalMsg struct{}

func (HideModalMsg) isModalMsg() {}

// ModalModel holds the state for modal dialogs
type ModalModel struct {
	Active  bool
	Title   string
	Content string
	Options string
	Width   int
	Height  int
}

// NewModalModel creates a new modal model
func NewModalModel() ModalModel {
	return ModalModel{Width: 60, Height: 10}
}

// Update handles modal messages
func (m *ModalModel) Update(msg ModalMsg) error {
	switch msg := msg.(type) {
	case ShowModalMsg:
		m.Active = true
		m.Title = msg.Title
		m.Content = msg.Content
		m.Options = msg.Options
	case HideModalMsg:
		m.Active = false
		m.Title = ""
		m.Content = ""
		m.Options = ""
	}
	return nil
}

// ModalView overlays the modal centered on backgroundView
func ModalView(model ModalModel, backgroundView string, windowWidth, windowHeight int) string {
	if !model.Active {
		return backgroundView
	}

	body := model.Title
	if model.Content != "" {
		body += "\n\n" + model.Content
	}
	if model.Options != "" {
		body += "\n\n" + model.Options
	}

	width := min(model.Width, windowWidth-4)
	height := min(model.Height, windowHeight-4)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("9")).
		Padding(1, 2).
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(body)

	bgLines := strings.Split(backgroundView, "\n")
	modalLines := strings.Split(modal, "\n")

	top := max((windowHeight-len(modalLines))/2, 0)
	left := max((windowWidth-lipgloss.Width(modalLines[0]))/2, 0)

	for i, line := range modalLines {
		row := top + i
		if row >= len(bgLines) {
			break
		}
		bgLines[row] = overlayLine(bgLines[row], line, left)
	}
	return strings.Join(bgLines, "\n")
}

// overlayLine draws fg over bg starting at cell x, keeping bg's styling on
// both sides
func overlayLine(bg, fg string, x int) string {
	before := ansi.Truncate(bg, x, "")
	if pad := x - ansi.StringWidth(before); pad > 0 {
		before += strings.Repeat(" ", pad)
	}
	end := x + ansi.StringWidth(fg)
	after := ""
	if ansi.StringWidth(bg) > end {
		after = ansi.TruncateLeft(bg, end, "")
	}
	return before + fg + after
}

// ShowDeleteConfirmation creates the delete confirmation modal for entry
func ShowDeleteConfirmation(entry *store.HistoryEntry, index int) ShowModalMsg {
	content := fmt.Sprintf("Entry: %s\nIndex: %d", queue.Preview(entry, 40), index)
	if entry.Pinned {
		content += "\nThis entry is pinned."
	}
	return ShowModalMsg{
		Title:   "Delete Entry?",
		Content: content + "\n\nAre you sure you want to delete this entry?",
		Options: "[Y] Yes, delete    [N] No, cancel",
	}
}

// ShowClearConfirmation creates the clear-all confirmation modal
func ShowClearConfirmation(count int) ShowModalMsg {
	return ShowModalMsg{
		Title:   "Clear History?",
		Content: fmt.Sprintf("All %d entries will be removed, pinned ones included.", count),
		Options: "[Y] Yes, clear    [N] No, cancel",
	}
}
