// Package tui is the terminal browser for the clipboard history.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/clipq/internal/router"
	"github.com/yiblet/clipq/internal/store"
)

// RefreshInterval is how often the history list is reloaded so copies
// recorded by the watcher show up while the browser is open.
const RefreshInterval = time.Second

const flashDuration = 2 * time.Second

// Backend executes history requests.
type Backend interface {
	Dispatch(ctx context.Context, req router.Request) router.Response
}

// Copier puts an entry back on the clipboard.
type Copier interface {
	Copy(ctx context.Context, entry *store.HistoryEntry) error
}

// PaneType represents which pane is focused
type PaneType int

const (
	LeftPane PaneType = iota
	RightPane
)

// UIMode represents the current modal state of the application
type UIMode int

const (
	NormalMode UIMode = iota
	FilterMode
	HelpMode
	NumberInputMode
	DeleteMode
	ClearMode
)

type refreshTickMsg struct{}

type flashExpiredMsg struct{}

// AppModel orchestrates all sub-models
type AppModel struct {
	Width       int
	Height      int
	LeftWidth   int
	RightWidth  int
	ActivePane  PaneType
	CurrentMode UIMode

	LeftPane  LeftPaneModel
	RightPane RightPaneModel
	Filter    FilterModel
	Modal     ModalModel

	Items    []*store.HistoryEntry // full history, newest first
	Visible  []*store.HistoryEntry // Items narrowed by the filter
	Capacity int

	// Number input mode for multi-digit commands like "10j"
	NumberBuffer string
	BufferPane   PaneType

	FlashMessage string
	FlashExpiry  time.Time

	backend Backend
	copier  Copier
	ctx     context.Context
}

// NewAppModel creates an app model backed by backend. copier may be nil when
// no clipboard is available.
func NewAppModel(ctx context.Context, backend Backend, copier Copier) AppModel {
	defaultWidth := 120
	defaultHeight := 20
	defaultLeftWidth := 40
	defaultRightWidth := 78

	return AppModel{
		Width:       defaultWidth,
		Height:      defaultHeight,
		LeftWidth:   defaultLeftWidth,
		RightWidth:  defaultRightWidth,
		ActivePane:  LeftPane,
		CurrentMode: NormalMode,
		LeftPane:    NewLeftPaneModel(defaultLeftWidth, defaultHeight),
		RightPane:   NewRightPaneModel(defaultRightWidth, defaultHeight),
		Filter:      NewFilterModel(),
		Modal:       NewModalModel(),
		backend:     backend,
		copier:      copier,
		ctx:         ctx,
	}
}

// Init loads the history and starts the refresh ticker
func (a *AppModel) Init() tea.Cmd {
	if err := a.Refresh(); err != nil {
		return tea.Batch(a.setFlashMessage("Error loading history: "+err.Error()), tickRefresh())
	}
	return tickRefresh()
}

func tickRefresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// Update handles app-level messages and routes to sub-models
func (a *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		return a.handleWindowResize(m)
	case tea.KeyMsg:
		return a.handleKeyPress(m)
	case refreshTickMsg:
		// a failed background reload keeps the last good list
		_ = a.Refresh()
		return a, tickRefresh()
	case flashExpiredMsg:
		if !time.Now().Before(a.FlashExpiry) {
			a.FlashMessage = ""
			a.FlashExpiry = time.Time{}
		}
		return a, nil
	}
	return a, nil
}

// Refresh reloads the history from the backend
func (a *AppModel) Refresh() error {
	resp := a.backend.Dispatch(a.ctx, router.GetQueue{})
	if !resp.Success {
		return responseError(resp)
	}
	items, ok := resp.Data.([]*store.HistoryEntry)
	if !ok {
		return fmt.Errorf("unexpected queue payload %T", resp.Data)
	}
	if count := a.backend.Dispatch(a.ctx, router.GetCount{}); count.Success {
		if c, ok := count.Data.(router.CountData); ok {
			a.Capacity = c.Capacity
		}
	}
	a.SetItems(items)
	return nil
}

// SetItems replaces the history keeping the selected entry when it survives
func (a *AppModel) SetItems(items []*store.HistoryEntry) {
	var selectedID string
	if e := a.Selected(); e != nil {
		selectedID = e.ID
	}

	a.Items = items
	a.Visible = a.Filter.Apply(items)

	index := min(a.LeftPane.Cursor, max(len(a.Visible)-1, 0))
	for i, e := range a.Visible {
		if e.ID == selectedID {
			index = i
			break
		}
	}
	a.LeftPane.Update(SelectItemMsg{Index: index})

	if e := a.Selected(); e == nil || e.ID != selectedID {
		a.RightPane.Update(UpdateContentMsg{})
	} else {
		a.RightPane.ViewPos = min(a.RightPane.ViewPos, getMaxScroll(a.RightPane, e))
	}
}

// Selected returns the entry under the cursor, or nil
func (a *AppModel) Selected() *store.HistoryEntry {
	if a.LeftPane.Selected < 0 || a.LeftPane.Selected >= len(a.Visible) {
		return nil
	}
	return a.Visible[a.LeftPane.Selected]
}

func (a *AppModel) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	a.Width = max(msg.Width, 30)
	a.Height = msg.Height

	minLeftWidth := 15
	minRightWidth := 20
	borderSpacing := 2

	if a.Width < minLeftWidth+minRightWidth+borderSpacing {
		a.LeftWidth = minLeftWidth
		a.RightWidth = max(a.Width-a.LeftWidth-borderSpacing, minRightWidth)
	} else {
		a.LeftWidth = max(a.Width/3, minLeftWidth)
		a.RightWidth = a.Width - a.LeftWidth - borderSpacing
		if a.RightWidth < minRightWidth {
			a.RightWidth = minRightWidth
			a.LeftWidth = a.Width - a.RightWidth - borderSpacing
		}
	}

	a.LeftPane.Update(ResizeLeftPaneMsg{Width: a.LeftWidth, Height: a.Height})
	a.RightPane.Update(ResizeRightPaneMsg{Width: a.RightWidth, Height: a.Height})
	a.RightPane.Update(UpdateContentMsg{})
	return a, nil
}

// handleKeyPress dispatches on the current mode before looking at the key
func (a *AppModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch a.CurrentMode {
	case FilterMode:
		return a.handleFilterModeKeys(key)
	case HelpMode:
		return a.handleHelpModeKeys(key)
	case NumberInputMode:
		return a.handleNumberInputModeKeys(key)
	case DeleteMode:
		return a.handleConfirmKeys(key, a.deleteSelected)
	case ClearMode:
		return a.handleConfirmKeys(key, a.clearAll)
	default:
		return a.handleNormalModeKeys(key)
	}
}

func (a *AppModel) handleFilterModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.Filter.Update(CancelFilterMsg{})
		a.CurrentMode = NormalMode
		return a, nil
	case "enter":
		a.Filter.Update(ApplyFilterMsg{})
		if a.Filter.Error != "" {
			return a, nil
		}
		a.CurrentMode = NormalMode
		a.SetItems(a.Items)
		return a, nil
	case "backspace", "ctrl+h":
		if input := []rune(a.Filter.Input); len(input) > 0 {
			a.Filter.Update(UpdateFilterInputMsg{Input: string(input[:len(input)-1])})
		}
		return a, nil
	default:
		if r := []rune(key); len(r) == 1 && r[0] >= ' ' {
			a.Filter.Update(UpdateFilterInputMsg{Input: a.Filter.Input + key})
		}
		return a, nil
	}
}

func (a *AppModel) handleHelpModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return a, tea.Quit
	case "z", "esc", "q":
		a.CurrentMode = NormalMode
	}
	return a, nil
}

func (a *AppModel) handleNumberInputModeKeys(key string) (tea.Model, tea.Cmd) {
	switch {
	case key == "ctrl+c":
		return a, tea.Quit
	case key == "esc":
		a.NumberBuffer = ""
		a.CurrentMode = NormalMode
	case key == "backspace":
		if len(a.NumberBuffer) > 1 {
			a.NumberBuffer = a.NumberBuffer[:len(a.NumberBuffer)-1]
		} else {
			a.NumberBuffer = ""
			a.CurrentMode = NormalMode
		}
	case len(key) == 1 && key >= "0" && key <= "9":
		a.NumberBuffer += key
	case isMovementCommand(key):
		multiplier := 1
		if n, err := strconv.Atoi(a.NumberBuffer); err == nil {
			multiplier = n
		}
		a.NumberBuffer = ""
		a.CurrentMode = NormalMode
		return a.executeCommand(multiplier, key, a.BufferPane)
	default:
		a.NumberBuffer = ""
		a.CurrentMode = NormalMode
	}
	return a, nil
}

// handleConfirmKeys drives a yes/no modal. confirm runs on yes.
func (a *AppModel) handleConfirmKeys(key string, confirm func() tea.Cmd) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return a, tea.Quit
	case "y", "Y":
		a.Modal.Update(HideModalMsg{})
		a.CurrentMode = NormalMode
		return a, confirm()
	case "n", "N", "esc":
		a.Modal.Update(HideModalMsg{})
		a.CurrentMode = NormalMode
	}
	return a, nil
}

func (a *AppModel) handleNormalModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "esc":
		if a.Filter.IsApplied() {
			a.Filter.Update(ClearFilterMsg{})
			a.SetItems(a.Items)
			return a, nil
		}
		return a, tea.Quit
	case "z":
		a.CurrentMode = HelpMode
		return a, nil
	case "/":
		a.Filter.Update(StartFilterMsg{})
		a.CurrentMode = FilterMode
		return a, nil
	case "c", "y", "enter":
		return a, a.copySelected()
	case "p":
		return a, a.togglePin()
	case "r":
		if err := a.Refresh(); err != nil {
			return a, a.setFlashMessage("Error loading history: " + err.Error())
		}
		return a, a.setFlashMessage("History reloaded")
	case "X":
		if len(a.Items) > 0 {
			a.CurrentMode = ClearMode
			a.Modal.Update(ShowClearConfirmation(len(a.Items)))
		}
		return a, nil
	case "d":
		if e := a.Selected(); e != nil {
			a.CurrentMode = DeleteMode
			a.Modal.Update(ShowDeleteConfirmation(e, a.LeftPane.Selected))
		}
		return a, nil
	case "tab":
		if a.ActivePane == LeftPane {
			a.ActivePane = RightPane
		} else {
			a.ActivePane = LeftPane
		}
		return a, nil
	case "h", "left":
		a.ActivePane = LeftPane
		return a, nil
	case "l", "right":
		a.ActivePane = RightPane
		return a, nil
	}

	if len(key) == 1 && key >= "1" && key <= "9" {
		a.NumberBuffer = key
		a.BufferPane = a.ActivePane
		a.CurrentMode = NumberInputMode
		return a, nil
	}

	if isMovementCommand(key) {
		return a.executeCommand(1, key, a.ActivePane)
	}

	if a.ActivePane == RightPane {
		return a.handleRightPaneKeys(key)
	}
	return a, nil
}

func (a *AppModel) handleRightPaneKeys(key string) (tea.Model, tea.Cmd) {
	maxScroll := getMaxScroll(a.RightPane, a.Selected())
	page := a.RightPane.visibleLines()

	switch key {
	case "ctrl+u":
		a.RightPane.Update(PageUpMsg{})
	case "ctrl+d":
		a.RightPane.Update(PageDownMsg{MaxScroll: maxScroll})
	case "ctrl+b":
		a.RightPane.Update(JumpMsg{Direction: "k", Lines: page, MaxScroll: maxScroll})
	case "ctrl+f":
		a.RightPane.Update(JumpMsg{Direction: "j", Lines: page, MaxScroll: maxScroll})
	}
	return a, nil
}

// isMovementCommand checks if a key is a movement command that can use multipliers
func isMovementCommand(key string) bool {
	switch key {
	case "up", "k", "down", "j", "g", "G":
		return true
	}
	return false
}

// executeCommand executes a movement with a number multiplier on pane
func (a *AppModel) executeCommand(multiplier int, key string, pane PaneType) (tea.Model, tea.Cmd) {
	if pane == LeftPane {
		maxIndex := len(a.Visible) - 1
		before := a.LeftPane.Selected
		switch key {
		case "up", "k":
			a.LeftPane.Update(JumpToIndexMsg{Index: max(a.LeftPane.Cursor-multiplier, 0), MaxIndex: maxIndex})
		case "down", "j":
			a.LeftPane.Update(JumpToIndexMsg{Index: min(a.LeftPane.Cursor+multiplier, maxIndex), MaxIndex: maxIndex})
		case "g":
			if multiplier > 1 {
				a.LeftPane.Update(JumpToIndexMsg{Index: min(multiplier-1, maxIndex), MaxIndex: maxIndex})
			} else {
				a.LeftPane.Update(GoToTopMsg{})
			}
		case "G":
			a.LeftPane.Update(GoToBottomMsg{MaxIndex: maxIndex})
		}
		if a.LeftPane.Selected != before {
			a.RightPane.Update(UpdateContentMsg{})
		}
		return a, nil
	}

	maxScroll := getMaxScroll(a.RightPane, a.Selected())
	switch key {
	case "up", "k":
		a.RightPane.Update(JumpMsg{Direction: "k", Lines: multiplier, MaxScroll: maxScroll})
	case "down", "j":
		a.RightPane.Update(JumpMsg{Direction: "j", Lines: multiplier, MaxScroll: maxScroll})
	case "g":
		if multiplier > 1 {
			a.RightPane.ViewPos = min(multiplier-1, maxScroll)
		} else {
			a.RightPane.Update(ScrollToTopMsg{})
		}
	case "G":
		a.RightPane.Update(ScrollToBottomMsg{MaxScroll: maxScroll})
	}
	return a, nil
}

func (a *AppModel) copySelected() tea.Cmd {
	entry := a.Selected()
	if entry == nil {
		return a.setFlashMessage("No entry selected")
	}
	if a.copier == nil {
		return a.setFlashMessage("Clipboard is not available")
	}
	if err := a.copier.Copy(a.ctx, entry); err != nil {
		return a.setFlashMessage("Error copying entry: " + err.Error())
	}
	if entry.Kind.IsImage() {
		return a.setFlashMessage("Copied image to clipboard")
	}
	return a.setFlashMessage(fmt.Sprintf("Copied %d bytes to clipboard", len(entry.Content)))
}

func (a *AppModel) togglePin() tea.Cmd {
	entry := a.Selected()
	if entry == nil {
		return a.setFlashMessage("No entry selected")
	}
	var req router.Request = router.PinItem{ID: entry.ID}
	done := "Entry pinned"
	if entry.Pinned {
		req = router.UnpinItem{ID: entry.ID}
		done = "Entry unpinned"
	}
	if err := a.dispatch(req); err != nil {
		return a.setFlashMessage("Error: " + err.Error())
	}
	return a.setFlashMessage(done)
}

func (a *AppModel) deleteSelected() tea.Cmd {
	entry := a.Selected()
	if entry == nil {
		return nil
	}
	if err := a.dispatch(router.DeleteItem{ID: entry.ID}); err != nil {
		return a.setFlashMessage("Error deleting entry: " + err.Error())
	}
	return a.setFlashMessage("Entry deleted")
}

func (a *AppModel) clearAll() tea.Cmd {
	count := len(a.Items)
	if err := a.dispatch(router.ClearAll{}); err != nil {
		return a.setFlashMessage("Error clearing history: " + err.Error())
	}
	return a.setFlashMessage(fmt.Sprintf("Cleared %d entries", count))
}

// dispatch runs a mutation and reloads the list
func (a *AppModel) dispatch(req router.Request) error {
	if resp := a.backend.Dispatch(a.ctx, req); !resp.Success {
		return responseError(resp)
	}
	return a.Refresh()
}

func responseError(resp router.Response) error {
	if resp.Error == nil {
		return errors.New("request failed")
	}
	return errors.New(resp.Error.Message)
}

// setFlashMessage shows message on the status line for a short while
func (a *AppModel) setFlashMessage(message string) tea.Cmd {
	a.FlashMessage = message
	a.FlashExpiry = time.Now().Add(flashDuration)
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{}
	})
}

// View renders the app
func (a *AppModel) View() string {
	view, _ := AppView(*a)
	return view
}

// AppView renders the complete application using pure functions
func AppView(model AppModel) (string, error) {
	if model.Width == 0 {
		return "Initializing...", nil
	}

	if model.CurrentMode == HelpMode {
		return renderHelpView(model) + "\n\n" + renderStatusLine(model), nil
	}

	normalView, err := renderNormalView(model)
	if err != nil {
		return "", err
	}
	if model.Modal.Active {
		return ModalView(model.Modal, normalView, model.Width, model.Height), nil
	}
	return normalView, nil
}

func renderNormalView(model AppModel) (string, error) {
	left, err := LeftPaneView(model.LeftPane, model.Visible, model.Capacity, model.ActivePane == LeftPane)
	if err != nil {
		return "", err
	}
	right, err := RightPaneView(model.RightPane, model.Selected(), model.ActivePane == RightPane, model.LeftPane.Selected)
	if err != nil {
		return "", err
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n\n" + renderStatusLine(model), nil
}

// renderStatusLine renders the bottom status line (pure function)
func renderStatusLine(model AppModel) string {
	style := lipgloss.NewStyle().Width(model.Width)

	if model.FlashMessage != "" && time.Now().Before(model.FlashExpiry) {
		return style.Foreground(lipgloss.Color("10")).Render(model.FlashMessage)
	}

	var status string
	switch {
	case model.CurrentMode == FilterMode:
		status = "/" + model.Filter.Input
		if model.Filter.Error != "" {
			status += " (Error: " + model.Filter.Error + ")"
		} else {
			status += " (Enter to filter, Esc to cancel)"
		}
	case model.NumberBuffer != "":
		status = model.NumberBuffer
	case model.CurrentMode == HelpMode:
		status = "Help - Press z to return, q to quit"
	case model.Filter.IsApplied():
		status = fmt.Sprintf("Filter: %s - %d of %d entries (Esc to clear)",
			model.Filter.Pattern, len(model.Visible), len(model.Items))
	default:
		status = "Press z for help, q to quit"
	}
	return style.Render(status)
}

// renderHelpView renders the help content as a single pane (pure function)
func renderHelpView(model AppModel) string {
	var help strings.Builder
	help.WriteString(`clipq - Clipboard History

NAVIGATION:
  j, ↓        Next entry (right pane: scroll down)
  k, ↑        Previous entry (right pane: scroll up)
  g, G        First / last entry (with number: go to entry N)
  #j, #k      Move N entries or lines
  Tab, h, l   Switch panes
  Ctrl+u/d    Half page up / down (right pane)
  Ctrl+b/f    Full page up / down (right pane)

HISTORY:
  c, y, Enter Copy entry to the clipboard
  p           Pin or unpin entry
  d           Delete entry
  X           Clear all history
  /pattern    Filter entries
  r           Reload history

`)
	fmt.Fprintf(&help, "The newest copy is entry 0. Past %d entries the oldest\n", model.Capacity)
	help.WriteString(`unpinned entry is dropped; pinned entries (*) are kept.

  z           Toggle this help screen
  q, Ctrl+c   Quit`)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1).
		Width(model.Width - 4).
		Height(model.Height - 4).
		Render(help.String())
}
