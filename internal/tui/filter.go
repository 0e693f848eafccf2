package tui

import (
	"regexp"

	"github.com/yiblet/clipq/internal/store"
)

// FilterMsg represents messages that the filter component handles
type FilterMsg interface {
	isFilterMsg()
}

type StartFilterMsg struct{}

func (StartFilterMsg) isFilterMsg() {}

type UpdateFilterInputMsg struct {
	Input string
}

func (UpdateFilterInputMsg) isFilterMsg() {}

type ApplyFilterMsg struct{}

func (ApplyFilterMsg) isFilterMsg() {}

type CancelFilterMsg struct{}

func (CancelFilterMsg) isFilterMsg() {}

type ClearFilterMsg struct{}

func (ClearFilterMsg) isFilterMsg() {}

// FilterModel narrows the history list to entries matching a pattern
type FilterModel struct {
	Active  bool   // true while the pattern is being typed
	Input   string // pattern being typed
	Pattern string // applied pattern, empty when the list is unfiltered
	Error   string // compile error for Input

	re *regexp.Regexp
}

// NewFilterModel creates an inactive filter
func NewFilterModel() FilterModel {
	return FilterModel{}
}

// Update handles filter messages
func (f *FilterModel) Update(msg FilterMsg) error {
	switch m := msg.(type) {
	case StartFilterMsg:
		f.Active = true
		f.Input = f.Pattern
		f.Error = ""
	case UpdateFilterInputMsg:
		f.Input = m.Input
	case ApplyFilterMsg:
		if f.Input == "" {
			f.clear()
			return nil
		}
		re, err := regexp.Compile("(?i)" + f.Input)
		if err != nil {
			// stay active so the pattern can be corrected
			f.Error = err.Error()
			return nil
		}
		f.re = re
		f.Pattern = f.Input
		f.Error = ""
		f.Active = false
	case CancelFilterMsg:
		f.Active = false
		f.Input = ""
		f.Error = ""
	case ClearFilterMsg:
		f.clear()
	}
	return nil
}

func (f *FilterModel) clear() {
	f.Active = false
	f.Input = ""
	f.Pattern = ""
	f.Error = ""
	f.re = nil
}

// IsApplied reports whether a pattern currently narrows the list
func (f FilterModel) IsApplied() bool {
	return f.re != nil
}

// Apply returns the entries matching the applied pattern, or all entries
// when no pattern is applied. Text entries match on content and image
// entries on their original URL.
func (f FilterModel) Apply(entries []*store.HistoryEntry) []*store.HistoryEntry {
	if f.re == nil {
		return entries
	}
	var matched []*store.HistoryEntry
	for _, e := range entries {
		haystack := e.Content
		if e.Kind.IsImage() {
			haystack = e.OriginalURL
		}
		if f.re.MatchString(haystack) {
			matched = append(matched, e)
		}
	}
	return matched
}
