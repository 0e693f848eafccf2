// Package media fetches images referenced by URL for context capture.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultMaxBytes bounds a fetched body.
	DefaultMaxBytes = 20 << 20

	defaultTimeout = 15 * time.Second
	userAgent      = "clipq/1 (+clipboard history)"
)

var (
	// ErrUnsupportedScheme is returned for URLs other than http and https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrTooLarge is returned when the body exceeds the size limit.
	ErrTooLarge = errors.New("media exceeds size limit")

	// ErrNotMedia is returned when the response is not an image or video.
	ErrNotMedia = errors.New("response is not an image or video")
)

// Media is a fetched resource.
type Media struct {
	URL         string
	ContentType string
	Data        []byte
}

// Animated reports whether the media should be recorded as an animated
// image rather than a still.
func (m *Media) Animated() bool {
	return m.ContentType == "image/gif" || strings.HasPrefix(m.ContentType, "video/")
}

// Fetcher downloads media over HTTP.
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
	Timeout  time.Duration
}

// NewFetcher returns a fetcher using http.DefaultClient.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:   http.DefaultClient,
		MaxBytes: DefaultMaxBytes,
		Timeout:  defaultTimeout,
	}
}

// Fetch downloads rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Media, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*,video/*;q=0.8")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}

	contentType := mediaType(resp.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return nil, fmt.Errorf("%w: %s", ErrNotMedia, contentType)
	}

	return &Media{URL: rawURL, ContentType: contentType, Data: data}, nil
}

// mediaType prefers the declared type and sniffs when it is missing or
// generic.
func mediaType(header string, data []byte) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
