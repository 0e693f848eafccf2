// Package mockboard provides an in-memory clipboard for tests and demos.
package mockboard

import (
	"context"
	"sync"

	"github.com/yiblet/clipq/internal/clipboard"
)

// MockClipboard implements clipboard.Clipboard and clipboard.Watcher.
// Writes, like real copies, are reported to watchers.
type MockClipboard struct {
	mu       sync.Mutex
	data     map[clipboard.Format][]byte
	writes   []clipboard.Event
	watchers []chan clipboard.Event
}

// New creates a new MockClipboard instance
func New() *MockClipboard {
	return &MockClipboard{data: make(map[clipboard.Format][]byte)}
}

// IsSupported always returns true for the mock clipboard
func (m *MockClipboard) IsSupported() bool {
	return true
}

// Read returns the content last set for f.
func (m *MockClipboard) Read(f clipboard.Format) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data[f]...), nil
}

// Write stores data, records the write and notifies watchers.
func (m *MockClipboard) Write(f clipboard.Format, data []byte) error {
	m.mu.Lock()
	m.writes = append(m.writes, clipboard.Event{Format: f, Data: append([]byte(nil), data...)})
	m.mu.Unlock()
	m.Copy(f, data)
	return nil
}

// Copy simulates a user copy: the content changes and watchers are told.
func (m *MockClipboard) Copy(f clipboard.Format, data []byte) {
	m.mu.Lock()
	m.data[f] = append([]byte(nil), data...)
	watchers := append([]chan clipboard.Event(nil), m.watchers...)
	m.mu.Unlock()

	for _, w := range watchers {
		w <- clipboard.Event{Format: f, Data: append([]byte(nil), data...)}
	}
}

// Writes returns every Write call in order (for assertions).
func (m *MockClipboard) Writes() []clipboard.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]clipboard.Event(nil), m.writes...)
}

// Watch implements clipboard.Watcher. The channel is buffered so Copy does
// not block a test that reads events afterwards.
func (m *MockClipboard) Watch(ctx context.Context) <-chan clipboard.Event {
	ch := make(chan clipboard.Event, 64)
	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()

	out := make(chan clipboard.Event)
	go func() {
		defer close(out)
		defer m.unwatch(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (m *MockClipboard) unwatch(ch chan clipboard.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.watchers {
		if w == ch {
			m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
			return
		}
	}
}
