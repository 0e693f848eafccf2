package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/yiblet/clipq/internal/digest"
	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/router"
	"github.com/yiblet/clipq/internal/store"
	"github.com/yiblet/clipq/internal/thumbnail"
)

// Dispatcher accepts router requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req router.Request) router.Response
}

// Bridge turns copy events into router requests.
type Bridge struct {
	dispatcher Dispatcher
	thumbs     *thumbnail.Generator
	logger     *slog.Logger
}

// NewBridge creates a bridge.
func NewBridge(d Dispatcher, thumbs *thumbnail.Generator, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	if thumbs == nil {
		thumbs = thumbnail.New(0)
	}
	return &Bridge{dispatcher: d, thumbs: thumbs, logger: logger}
}

// Run records events from w until its channel closes.
func (b *Bridge) Run(ctx context.Context, w Watcher) {
	b.logger.Info("watching clipboard")
	for ev := range w.Watch(ctx) {
		b.Handle(ctx, ev)
	}
	b.logger.Info("clipboard watcher stopped")
}

// Handle records a single event.
func (b *Bridge) Handle(ctx context.Context, ev Event) {
	var req router.Request
	switch ev.Format {
	case FormatText:
		req = router.RecordTextCopy{Content: string(ev.Data)}
	case FormatImage:
		thumb, err := b.thumbs.DataURL(ev.Data)
		if err != nil {
			b.logger.Warn("failed to build thumbnail for copied image", "bytes", len(ev.Data), "error", err)
			return
		}
		req = router.AddImage{Thumbnail: thumb, Source: store.OriginAuto}
	default:
		b.logger.Debug("ignoring clipboard event", "format", ev.Format)
		return
	}

	resp := b.dispatcher.Dispatch(ctx, req)
	if !resp.Success {
		b.logger.Warn("copy event not recorded", "operation", req.Operation(),
			"code", resp.Error.Code, "message", resp.Error.Message)
	}
}

// Copier puts history entries back on the clipboard and registers each
// write with the engine so the watcher does not record it again.
type Copier struct {
	board      Clipboard
	dispatcher Dispatcher
	thumbs     *thumbnail.Generator
	logger     *slog.Logger
}

// NewCopier creates a copier. thumbs must match the generator the bridge
// uses so image copies produce the fingerprint the watcher will see.
func NewCopier(board Clipboard, d Dispatcher, thumbs *thumbnail.Generator, logger *slog.Logger) *Copier {
	if logger == nil {
		logger = slog.Default()
	}
	if thumbs == nil {
		thumbs = thumbnail.New(0)
	}
	return &Copier{board: board, dispatcher: d, thumbs: thumbs, logger: logger}
}

// Copy writes entry to the clipboard. The internal copy is registered before
// the write so the resulting copy event always finds it.
func (c *Copier) Copy(ctx context.Context, entry *store.HistoryEntry) error {
	var (
		format Format
		data   []byte
		hash   string
	)
	switch {
	case entry.Kind == store.KindText:
		format, data, hash = FormatText, []byte(entry.Content), digest.String(entry.Content)
	case entry.Kind.IsImage():
		var err error
		data, err = pngFromDataURL(entry.Thumbnail)
		if err != nil {
			return err
		}
		thumb, err := c.thumbs.DataURL(data)
		if err != nil {
			return fmt.Errorf("failed to fingerprint image: %w", err)
		}
		// the watcher reports this write without a URL
		format, hash = FormatImage, queue.ImageHash(thumb, "")
	default:
		return fmt.Errorf("cannot copy entry of kind %q", entry.Kind)
	}

	resp := c.dispatcher.Dispatch(ctx, router.RegisterInternalCopy{Hash: hash})
	if !resp.Success {
		return fmt.Errorf("failed to register internal copy: %s", resp.Error.Message)
	}
	if err := c.board.Write(format, data); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	c.logger.Debug("entry copied to clipboard", "id", entry.ID, "kind", entry.Kind)
	return nil
}

// pngFromDataURL re-encodes a thumbnail as PNG, the clipboard image format.
func pngFromDataURL(dataURL string) ([]byte, error) {
	if dataURL == "" {
		return nil, errors.New("entry has no thumbnail")
	}
	_, raw, err := thumbnail.Decode(dataURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode thumbnail: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
