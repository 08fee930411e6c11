// Package thumbnail turns uploaded images into fixed-width JPEG thumbnails.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// Width of every thumbnail in pixels.
	Width = 150
	// Suffix appended to the source key to form the thumbnail key.
	Suffix = ".jpeg"
	// ContentType of the encoded thumbnail.
	ContentType = "image/jpeg"

	quality = 90
)

// ErrDecode is returned when the source bytes are not a supported image.
var ErrDecode = errors.New("cannot decode image")

// Resize decodes src, scales it to Width keeping the aspect ratio and
// encodes the result as JPEG.
func Resize(src []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}

	dst := image.NewRGBA(image.Rect(0, 0, Width, Height(b.Dx(), b.Dy())))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return out.Bytes(), nil
}

// Height returns round(h * Width / w), never less than one pixel.
func Height(w, h int) int {
	if w <= 0 {
		return 1
	}
	n := (h*Width + w/2) / w
	if n < 1 {
		return 1
	}
	return n
}

// Key returns the thumbnail key for a source key.
func Key(sourceKey string) string {
	return sourceKey + Suffix
}
