// Package clipboard connects the system clipboard to the history engine.
// Boards read and write clipboard content, watchers report copy events, and
// the Bridge and Copier translate between them and router requests.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yiblet/clipq/internal/digest"
)

// Format is a clipboard content format.
type Format int

const (
	FormatText Format = iota
	FormatImage
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatImage:
		return "image"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ErrUnsupportedFormat is returned by boards that cannot handle a format.
var ErrUnsupportedFormat = errors.New("clipboard format not supported")

// Clipboard reads and writes the system clipboard. Image data is PNG.
type Clipboard interface {
	IsSupported() bool
	Read(f Format) ([]byte, error)
	Write(f Format, data []byte) error
}

// Event is one detected copy.
type Event struct {
	Format Format
	Data   []byte
}

// Watcher reports copy events until ctx is canceled, then closes the channel.
type Watcher interface {
	Watch(ctx context.Context) <-chan Event
}

// DefaultPollInterval is how often a Poller samples the clipboard.
const DefaultPollInterval = 500 * time.Millisecond

// Poller turns a Clipboard without change notifications into a Watcher by
// sampling it and reporting content that differs from the previous sample.
// Content present when watching starts is not reported.
type Poller struct {
	Board    Clipboard
	Interval time.Duration
	Formats  []Format
	Logger   *slog.Logger
}

// NewPoller polls board for text.
func NewPoller(board Clipboard, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		Board:    board,
		Interval: DefaultPollInterval,
		Formats:  []Format{FormatText},
		Logger:   logger,
	}
}

// Watch implements Watcher.
func (p *Poller) Watch(ctx context.Context) <-chan Event {
	events := make(chan Event)
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	go func() {
		defer close(events)

		last := make(map[Format]string, len(p.Formats))
		for _, f := range p.Formats {
			if data, err := p.Board.Read(f); err == nil {
				last[f] = digest.Bytes(data)
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			for _, f := range p.Formats {
				data, err := p.Board.Read(f)
				if err != nil {
					p.Logger.Debug("clipboard poll failed", "format", f, "error", err)
					continue
				}
				sum := digest.Bytes(data)
				if sum == last[f] {
					continue
				}
				last[f] = sum
				if len(data) == 0 {
					continue
				}
				select {
				case events <- Event{Format: f, Data: data}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events
}
