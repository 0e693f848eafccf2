// Package thumbnail turns image bytes into a bounded JPEG data URL.
package thumbnail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"strings"

	// Decoders for the formats a clipboard or page can hand us.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxSize bounds the longer edge of a thumbnail, in pixels.
	DefaultMaxSize = 200

	// Quality is the JPEG quality used for thumbnails.
	Quality = 70
)

// ErrEmpty is returned for an empty input.
var ErrEmpty = errors.New("empty image data")

// Generator produces thumbnails no larger than MaxSize on either edge.
type Generator struct {
	MaxSize int
}

// New returns a generator. A non-positive size selects DefaultMaxSize.
func New(maxSize int) *Generator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Generator{MaxSize: maxSize}
}

// DataURL decodes data, scales it to fit within MaxSize and returns it as a
// JPEG data URL. Data that cannot be decoded is returned unscaled as a data
// URL of its sniffed content type, so formats without a decoder still
// produce a usable entry.
func (g *Generator) DataURL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		mime := http.DetectContentType(data)
		if !strings.HasPrefix(mime, "image/") {
			return "", fmt.Errorf("failed to decode image: %w", err)
		}
		return Encode(mime, data), nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, g.Scale(src), &jpeg.Options{Quality: Quality}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return Encode("image/jpeg", buf.Bytes()), nil
}

// Scale fits src within MaxSize x MaxSize keeping its aspect ratio. Images
// already small enough are only flattened onto white.
func (g *Generator) Scale(src image.Image) image.Image {
	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), g.MaxSize)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha, so transparent pixels become white instead of black.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// Fit returns the dimensions of a w x h box scaled down to fit in
// limit x limit. Dimensions never drop below 1.
func Fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, clampMin(h * limit / w)
	}
	return clampMin(w * limit / h), limit
}

func clampMin(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Encode formats data as a base64 data URL.
func Encode(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a base64 data URL into its content type and bytes.
func Decode(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data URL")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return mime, []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	return mime, data, nil
}
