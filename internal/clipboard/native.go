package clipboard

import (
	"context"
	"fmt"
	"sync"

	xclip "golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// Native is the system clipboard through golang.design/x/clipboard. It
// receives change notifications from the platform instead of polling.
type Native struct{}

// NewNative initializes the platform clipboard. It fails on systems without
// a clipboard service, such as a headless Linux without X11.
func NewNative() (*Native, error) {
	initOnce.Do(func() {
		initErr = xclip.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", initErr)
	}
	return &Native{}, nil
}

// IsSupported reports true once initialized.
func (n *Native) IsSupported() bool {
	return true
}

// Read returns the current clipboard content in format f.
func (n *Native) Read(f Format) ([]byte, error) {
	xf, err := nativeFormat(f)
	if err != nil {
		return nil, err
	}
	return xclip.Read(xf), nil
}

// Write replaces the clipboard content.
func (n *Native) Write(f Format, data []byte) error {
	xf, err := nativeFormat(f)
	if err != nil {
		return err
	}
	xclip.Write(xf, data)
	return nil
}

// Watch reports text and image copies.
func (n *Native) Watch(ctx context.Context) <-chan Event {
	events := make(chan Event)
	text := xclip.Watch(ctx, xclip.FmtText)
	image := xclip.Watch(ctx, xclip.FmtImage)

	go func() {
		defer close(events)
		for text != nil || image != nil {
			var ev Event
			select {
			case data, ok := <-text:
				if !ok {
					text = nil
					continue
				}
				ev = Event{Format: FormatText, Data: data}
			case data, ok := <-image:
				if !ok {
					image = nil
					continue
				}
				ev = Event{Format: FormatImage, Data: data}
			case <-ctx.Done():
				return
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

func nativeFormat(f Format) (xclip.Format, error) {
	switch f {
	case FormatText:
		return xclip.FmtText, nil
	case FormatImage:
		return xclip.FmtImage, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}
