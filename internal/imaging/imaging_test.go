package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	return img
}

func TestGuardInBoundImageUnchanged(t *testing.T) {
	img := solidImage(300, 200)
	got := Guard(img, 400)
	if got != image.Image(img) {
		t.Fatalf("expected in-bound image to be returned unchanged")
	}
}

func TestGuardAtExactLimitUnchanged(t *testing.T) {
	img := solidImage(400, 100)
	got := Guard(img, 400)
	if got != image.Image(img) {
		t.Fatalf("expected image at the limit to be returned unchanged")
	}
}

func TestGuardDownsamplesOversized(t *testing.T) {
	img := solidImage(600, 300)
	got := Guard(img, 400)

	b := got.Bounds()
	if b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("expected 400x200, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestGuardPreservesAspectRatio(t *testing.T) {
	cases := []struct{ w, h, max int }{
		{6000, 3000, 4000},
		{3000, 6000, 4000},
		{5120, 1440, 2000},
		{999, 1001, 500},
	}
	for _, tc := range cases {
		got := Guard(solidImage(tc.w, tc.h), tc.max)
		b := got.Bounds()
		if b.Dx() > tc.max || b.Dy() > tc.max {
			t.Fatalf("guard(%dx%d, %d) exceeded bound: %dx%d", tc.w, tc.h, tc.max, b.Dx(), b.Dy())
		}

		want := float64(tc.w) / float64(tc.h)
		gotRatio := float64(b.Dx()) / float64(b.Dy())
		// One pixel of rounding on either edge is tolerated.
		tolerance := want * (1.0/float64(b.Dx()) + 1.0/float64(b.Dy()))
		if math.Abs(gotRatio-want) > tolerance {
			t.Fatalf("guard(%dx%d, %d) skewed ratio: got %f want %f", tc.w, tc.h, tc.max, gotRatio, want)
		}
	}
}

func TestGuardNeverProducesZeroDimension(t *testing.T) {
	got := Guard(solidImage(9000, 1), 400)
	b := got.Bounds()
	if b.Dx() != 400 || b.Dy() != 1 {
		t.Fatalf("expected 400x1, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(20, 10)); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	img, format, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if format != "png" {
		t.Fatalf("expected png format, got %q", format)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("unexpected dimensions: %dx%d", b.Dx(), b.Dy())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := Decode([]byte("not an image at all")); err == nil {
		t.Fatalf("expected decode failure for non-image bytes")
	}
}

func TestEncodeJPEGProducesValidJPEG(t *testing.T) {
	data, err := EncodeJPEG(solidImage(32, 16), 95)
	if err != nil {
		t.Fatalf("EncodeJPEG returned error: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatalf("output does not start with a JPEG signature")
	}

	img, format, err := Decode(data)
	if err != nil {
		t.Fatalf("re-decode failed: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg, got %q", format)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Fatalf("unexpected dimensions after re-decode: %dx%d", b.Dx(), b.Dy())
	}
}
