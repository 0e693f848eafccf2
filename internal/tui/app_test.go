package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/router"
	"github.com/yiblet/clipq/internal/store"
	"github.com/yiblet/clipq/internal/store/memstore"
)

type fakeCopier struct {
	mu     sync.Mutex
	copied []string
	err    error
}

func (c *fakeCopier) Copy(_ context.Context, entry *store.HistoryEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.copied = append(c.copied, entry.ID)
	return nil
}

type failingBackend struct{}

func (failingBackend) Dispatch(context.Context, router.Request) router.Response {
	return router.Response{Error: &router.ErrorBody{Code: router.CodeInternal, Message: "backend down"}}
}

func newTestApp(t *testing.T, texts ...string) (*AppModel, *queue.Engine, *fakeCopier) {
	t.Helper()
	engine := queue.New(memstore.NewMemoryHistoryStore(), queue.Options{Capacity: 10})
	ctx := context.Background()
	for _, text := range texts {
		require.NoError(t, engine.RecordManualText(ctx, text))
	}
	copier := &fakeCopier{}
	app := NewAppModel(ctx, router.New(engine, nil, nil), copier)
	app.Init()
	return &app, engine, copier
}

func press(app *AppModel, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = app.Update(msg)
	}
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNewAppModel_LoadsHistory(t *testing.T) {
	app, _, _ := newTestApp(t, "first", "second")

	require.Len(t, app.Items, 2)
	assert.Equal(t, "second", app.Items[0].Content)
	assert.Equal(t, 10, app.Capacity)
	assert.Equal(t, LeftPane, app.ActivePane)
	assert.Equal(t, NormalMode, app.CurrentMode)
	assert.Equal(t, "second", app.Selected().Content)
}

func TestAppModel_InitReportsLoadError(t *testing.T) {
	app := NewAppModel(context.Background(), failingBackend{}, nil)
	app.Init()

	assert.Empty(t, app.Items)
	assert.Contains(t, app.FlashMessage, "backend down")
}

func TestAppModel_WindowResize(t *testing.T) {
	app, _, _ := newTestApp(t, "a")

	app.Update(tea.WindowSizeMsg{Width: 150, Height: 30})
	assert.Equal(t, 150, app.Width)
	assert.Equal(t, 50, app.LeftWidth)
	assert.Equal(t, 98, app.RightWidth)
	assert.Equal(t, 30, app.LeftPane.Height)

	app.Update(tea.WindowSizeMsg{Width: 10, Height: 10})
	assert.Equal(t, 30, app.Width)
	assert.Equal(t, 15, app.LeftWidth)
	assert.Equal(t, 20, app.RightWidth)
}

func TestAppModel_Navigation(t *testing.T) {
	app, _, _ := newTestApp(t, "a", "b", "c", "d")

	press(app, "j")
	assert.Equal(t, "c", app.Selected().Content)
	press(app, "G")
	assert.Equal(t, "a", app.Selected().Content)
	press(app, "k", "k")
	assert.Equal(t, "c", app.Selected().Content)
	press(app, "g")
	assert.Equal(t, "d", app.Selected().Content)

	press(app, "2", "j")
	assert.Equal(t, 2, app.LeftPane.Selected)
	assert.Equal(t, NormalMode, app.CurrentMode)

	press(app, "3", "g")
	assert.Equal(t, 2, app.LeftPane.Selected)

	press(app, "9", "9", "j")
	assert.Equal(t, 3, app.LeftPane.Selected)
}

func TestAppModel_NumberInputCancel(t *testing.T) {
	app, _, _ := newTestApp(t, "a", "b")

	press(app, "5")
	assert.Equal(t, NumberInputMode, app.CurrentMode)
	press(app, "backspace")
	assert.Equal(t, NormalMode, app.CurrentMode)
	assert.Empty(t, app.NumberBuffer)

	press(app, "4", "x")
	assert.Equal(t, NormalMode, app.CurrentMode)
	assert.Equal(t, 0, app.LeftPane.Selected)
}

func TestAppModel_PaneSwitching(t *testing.T) {
	app, _, _ := newTestApp(t, "a")

	press(app, "tab")
	assert.Equal(t, RightPane, app.ActivePane)
	press(app, "tab")
	assert.Equal(t, LeftPane, app.ActivePane)
	press(app, "l")
	assert.Equal(t, RightPane, app.ActivePane)
	press(app, "h")
	assert.Equal(t, LeftPane, app.ActivePane)
}

func TestAppModel_RightPaneScroll(t *testing.T) {
	lines := make([]string, 60)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	app, _, _ := newTestApp(t, strings.Join(lines, "\n"))
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 20})

	press(app, "l", "j", "j")
	assert.Equal(t, 2, app.RightPane.ViewPos)
	press(app, "G")
	maxScroll := getMaxScroll(app.RightPane, app.Selected())
	assert.Positive(t, maxScroll)
	assert.Equal(t, maxScroll, app.RightPane.ViewPos)
	press(app, "g")
	assert.Equal(t, 0, app.RightPane.ViewPos)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Nil(t, cmd)
	assert.Equal(t, app.RightPane.pageSize(), app.RightPane.ViewPos)
}

func TestAppModel_Copy(t *testing.T) {
	app, _, copier := newTestApp(t, "copy me")

	press(app, "c")
	assert.Equal(t, []string{app.Items[0].ID}, copier.copied)
	assert.Equal(t, "Copied 7 bytes to clipboard", app.FlashMessage)

	copier.err = errors.New("no display")
	press(app, "y")
	assert.Contains(t, app.FlashMessage, "no display")
}

func TestAppModel_CopyWithoutClipboard(t *testing.T) {
	engine := queue.New(memstore.NewMemoryHistoryStore(), queue.Options{})
	require.NoError(t, engine.RecordManualText(context.Background(), "x"))
	app := NewAppModel(context.Background(), router.New(engine, nil, nil), nil)
	app.Init()

	press(&app, "enter")
	assert.Equal(t, "Clipboard is not available", app.FlashMessage)
}

func TestAppModel_TogglePin(t *testing.T) {
	app, engine, _ := newTestApp(t, "keep")
	id := app.Selected().ID

	press(app, "p")
	e, ok := engine.Get(id)
	require.True(t, ok)
	assert.True(t, e.Pinned)
	assert.True(t, app.Selected().Pinned)
	assert.Equal(t, "Entry pinned", app.FlashMessage)

	press(app, "p")
	e, _ = engine.Get(id)
	assert.False(t, e.Pinned)
	assert.Equal(t, "Entry unpinned", app.FlashMessage)
}

func TestAppModel_DeleteConfirm(t *testing.T) {
	app, engine, _ := newTestApp(t, "a", "b", "c")
	press(app, "j")
	target := app.Selected().ID

	press(app, "d")
	assert.Equal(t, DeleteMode, app.CurrentMode)
	assert.True(t, app.Modal.Active)

	press(app, "n")
	assert.Equal(t, NormalMode, app.CurrentMode)
	assert.False(t, app.Modal.Active)
	assert.Equal(t, 3, engine.Len())

	press(app, "d", "y")
	assert.Equal(t, NormalMode, app.CurrentMode)
	assert.Equal(t, 2, engine.Len())
	_, ok := engine.Get(target)
	assert.False(t, ok)
	assert.Equal(t, "a", app.Selected().Content)
	assert.Equal(t, "Entry deleted", app.FlashMessage)
}

func TestAppModel_DeleteOnEmptyHistory(t *testing.T) {
	app, _, _ := newTestApp(t)

	press(app, "d")
	assert.Equal(t, NormalMode, app.CurrentMode)
	assert.False(t, app.Modal.Active)
}

func TestAppModel_ClearConfirm(t *testing.T) {
	app, engine, _ := newTestApp(t, "a", "b")

	press(app, "X", "esc")
	assert.Equal(t, 2, engine.Len())

	press(app, "X", "Y")
	assert.Equal(t, 0, engine.Len())
	assert.Empty(t, app.Items)
	assert.Nil(t, app.Selected())
	assert.Equal(t, "Cleared 2 entries", app.FlashMessage)
}

func TestAppModel_RefreshKeepsSelection(t *testing.T) {
	app, engine, _ := newTestApp(t, "a", "b")
	press(app, "j")
	require.Equal(t, "a", app.Selected().Content)

	require.NoError(t, engine.RecordTextCopy(context.Background(), "new copy"))
	_, cmd := app.Update(refreshTickMsg{})

	assert.NotNil(t, cmd)
	require.Len(t, app.Items, 3)
	assert.Equal(t, "a", app.Selected().Content)
	assert.Equal(t, 2, app.LeftPane.Selected)
}

func TestAppModel_Filter(t *testing.T) {
	app, _, _ := newTestApp(t, "alpha", "beta", "alphabet")

	press(app, "/", "a", "l", "p", "enter")
	assert.Equal(t, NormalMode, app.CurrentMode)
	require.Len(t, app.Visible, 2)
	assert.Equal(t, "alphabet", app.Visible[0].Content)
	assert.Equal(t, "alpha", app.Visible[1].Content)
	assert.Contains(t, renderStatusLine(*app), "2 of 3 entries")

	press(app, "esc")
	assert.False(t, app.Filter.IsApplied())
	assert.Len(t, app.Visible, 3)
}

func TestAppModel_FilterInvalidPattern(t *testing.T) {
	app, _, _ := newTestApp(t, "a")

	press(app, "/", "(", "enter")
	assert.Equal(t, FilterMode, app.CurrentMode)
	assert.NotEmpty(t, app.Filter.Error)

	press(app, "backspace", "enter")
	assert.Equal(t, NormalMode, app.CurrentMode)
	assert.False(t, app.Filter.IsApplied())
}

func TestAppModel_HelpMode(t *testing.T) {
	app, _, _ := newTestApp(t, "a")

	press(app, "z")
	assert.Equal(t, HelpMode, app.CurrentMode)
	assert.Contains(t, app.View(), "Clipboard History")

	cmd := press(app, "q")
	assert.False(t, isQuit(cmd))
	assert.Equal(t, NormalMode, app.CurrentMode)
}

func TestAppModel_Quit(t *testing.T) {
	app, _, _ := newTestApp(t, "a")

	assert.True(t, isQuit(press(app, "q")))
	assert.True(t, isQuit(press(app, "ctrl+c")))
}

func TestAppModel_FlashExpires(t *testing.T) {
	app, _, _ := newTestApp(t, "a")
	app.FlashMessage = "hello"

	app.Update(flashExpiredMsg{})
	assert.Empty(t, app.FlashMessage)
}

func TestAppView(t *testing.T) {
	app, _, _ := newTestApp(t, "first entry", "second entry")
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 20})

	view := app.View()
	assert.Contains(t, view, "History (2/10)")
	assert.Contains(t, view, "second entry")
	assert.Contains(t, view, "Type:   text")

	press(app, "d")
	assert.Contains(t, app.View(), "Delete Entry?")
}
