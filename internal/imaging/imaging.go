// internal/imaging/imaging.go
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode parses raw bytes into a raster. Supported formats are jpeg, png, gif
// and webp; anything else is reported as a decode failure.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Guard caps the longest edge of img at maxDimension, preserving aspect ratio.
// In-bound images are returned unchanged. The guard only ever downsamples; the
// inference stage's cost grows super-linearly with pixel count, so oversized
// inputs must be bounded before it runs.
func Guard(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDimension {
		return img
	}

	factor := float64(maxDimension) / float64(longest)
	newW := int(math.Round(float64(w) * factor))
	newH := int(math.Round(float64(h) * factor))
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodeJPEG re-encodes a raster to JPEG at the given quality. The pipeline
// uploads JPEG rather than PNG for smaller payloads.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
