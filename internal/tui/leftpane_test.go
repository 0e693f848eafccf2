package tui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/yiblet/clipq/internal/store"
)

func textEntries(n int) []*store.HistoryEntry {
	entries := make([]*store.HistoryEntry, n)
	for i := range entries {
		entries[i] = &store.HistoryEntry{
			ID:      fmt.Sprintf("id-%d", i),
			Kind:    store.KindText,
			Content: fmt.Sprintf("Item %d", i),
			Origin:  store.OriginAuto,
		}
	}
	return entries
}

func TestNewLeftPaneModel(t *testing.T) {
	model := NewLeftPaneModel(30, 20)

	if model.Cursor != 0 || model.Selected != 0 || model.Offset != 0 {
		t.Errorf("Expected zero position, got cursor=%d selected=%d offset=%d", model.Cursor, model.Selected, model.Offset)
	}
	if model.Width != 30 || model.Height != 20 {
		t.Errorf("Expected 30x20, got %dx%d", model.Width, model.Height)
	}
}

func TestLeftPaneModel_Navigation(t *testing.T) {
	model := NewLeftPaneModel(30, 20)

	model.Update(NavigateUpMsg{})
	if model.Cursor != 0 {
		t.Errorf("Expected cursor to stay at 0, got %d", model.Cursor)
	}

	model.Update(NavigateDownMsg{MaxIndex: 1})
	model.Update(NavigateDownMsg{MaxIndex: 1})
	if model.Cursor != 1 || model.Selected != 1 {
		t.Errorf("Expected cursor clamped at 1, got cursor=%d selected=%d", model.Cursor, model.Selected)
	}

	model.Update(JumpToIndexMsg{Index: 5, MaxIndex: 3})
	if model.Cursor != 1 {
		t.Errorf("Expected out of range jump to be ignored, got %d", model.Cursor)
	}

	model.Update(GoToBottomMsg{MaxIndex: 3})
	if model.Selected != 3 {
		t.Errorf("Expected selected 3, got %d", model.Selected)
	}

	model.Update(GoToTopMsg{})
	if model.Selected != 0 {
		t.Errorf("Expected selected 0, got %d", model.Selected)
	}
}

func TestLeftPaneModel_ScrollsWithCursor(t *testing.T) {
	// 10 high leaves 4 rows for entries
	model := NewLeftPaneModel(30, 10)

	model.Update(JumpToIndexMsg{Index: 6, MaxIndex: 9})
	if model.Offset != 3 {
		t.Errorf("Expected offset 3, got %d", model.Offset)
	}

	model.Update(JumpToIndexMsg{Index: 1, MaxIndex: 9})
	if model.Offset != 1 {
		t.Errorf("Expected offset 1, got %d", model.Offset)
	}

	view, _ := LeftPaneView(model, textEntries(10), 0, false)
	if !strings.Contains(view, "Item 1") || strings.Contains(view, "Item 0") {
		t.Errorf("Expected the list to start at Item 1:\n%s", view)
	}
	if strings.Contains(view, "Item 5") {
		t.Errorf("Expected rows past the pane to be hidden:\n%s", view)
	}
}

func TestLeftPaneView(t *testing.T) {
	entries := textEntries(2)
	entries[1].Pinned = true
	model := NewLeftPaneModel(30, 20)

	view, err := LeftPaneView(model, entries, 50, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, want := range []string{"History (2/50)", "0. Item 0", "* 1. Item 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestLeftPaneView_Empty(t *testing.T) {
	view, _ := LeftPaneView(NewLeftPaneModel(30, 20), nil, 0, true)

	if !strings.Contains(view, "● History (0)") {
		t.Errorf("Expected focused title, got:\n%s", view)
	}
	if !strings.Contains(view, "Nothing copied yet") {
		t.Errorf("Expected empty message, got:\n%s", view)
	}
}

func TestLeftPaneView_TruncatesLongEntries(t *testing.T) {
	entries := []*store.HistoryEntry{{
		ID:      "long",
		Kind:    store.KindText,
		Content: strings.Repeat("x", 200),
	}}

	view, _ := LeftPaneView(NewLeftPaneModel(30, 20), entries, 0, false)
	if !strings.Contains(view, "...") {
		t.Errorf("Expected truncated preview:\n%s", view)
	}
	if strings.Contains(view, strings.Repeat("x", 30)) {
		t.Errorf("Expected preview to fit the pane:\n%s", view)
	}
}
