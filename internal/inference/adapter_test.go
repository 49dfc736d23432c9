package inference

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

// nearestEngine is an in-process stand-in for the model runtime. It replicates
// each source pixel scale times in both dimensions, which makes tiled and
// full-frame output directly comparable.
type nearestEngine struct {
	calls     int
	lastOpts  Options
	failAfter int // fail on the nth call when > 0
}

func (e *nearestEngine) Enhance(_ context.Context, img image.Image, scale int, opts Options) (image.Image, error) {
	e.calls++
	e.lastOpts = opts
	if e.failAfter > 0 && e.calls >= e.failAfter {
		return nil, errors.New("model runtime out of memory")
	}

	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	for y := 0; y < b.Dy()*scale; y++ {
		for x := 0; x < b.Dx()*scale; x++ {
			out.Set(x, y, img.At(b.Min.X+x/scale, b.Min.Y+y/scale))
		}
	}
	return out, nil
}

func patternImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8((x * 7) % 256), G: uint8((y * 13) % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func TestSelectMode(t *testing.T) {
	gpu := SelectMode(true)
	if gpu.TileSize != 0 || !gpu.HalfPrecision {
		t.Fatalf("accelerator mode should be full-frame half precision, got %+v", gpu)
	}

	cpu := SelectMode(false)
	if cpu.TileSize != 512 || cpu.TilePad != 10 || cpu.HalfPrecision {
		t.Fatalf("cpu mode should be 512px tiles with 10px pad at full precision, got %+v", cpu)
	}
}

func TestEnhanceFullFrameDimensions(t *testing.T) {
	engine := &nearestEngine{}
	adapter := NewAdapter(engine, SelectMode(true), 1)

	out, err := adapter.Enhance(context.Background(), patternImage(30, 20), 4)
	if err != nil {
		t.Fatalf("Enhance returned error: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Fatalf("expected 120x80, got %dx%d", b.Dx(), b.Dy())
	}
	if engine.calls != 1 {
		t.Fatalf("expected a single engine call, got %d", engine.calls)
	}
	if !engine.lastOpts.HalfPrecision {
		t.Fatalf("accelerator mode should request half precision")
	}
}

func TestEnhanceTiledMatchesFullFrame(t *testing.T) {
	src := patternImage(41, 27)
	scale := 3

	full, err := NewAdapter(&nearestEngine{}, Mode{TileSize: 0}, 1).Enhance(context.Background(), src, scale)
	if err != nil {
		t.Fatalf("full-frame Enhance returned error: %v", err)
	}

	engine := &nearestEngine{}
	tiled, err := NewAdapter(engine, Mode{TileSize: 16, TilePad: 3}, 1).Enhance(context.Background(), src, scale)
	if err != nil {
		t.Fatalf("tiled Enhance returned error: %v", err)
	}

	if engine.calls < 2 {
		t.Fatalf("expected multiple tile calls, got %d", engine.calls)
	}
	if engine.lastOpts.HalfPrecision {
		t.Fatalf("tiled cpu mode should request full precision")
	}

	fb, tb := full.Bounds(), tiled.Bounds()
	if fb.Dx() != tb.Dx() || fb.Dy() != tb.Dy() {
		t.Fatalf("dimension mismatch: full %v tiled %v", fb, tb)
	}
	for y := 0; y < fb.Dy(); y++ {
		for x := 0; x < fb.Dx(); x++ {
			fr, fg, fbl, fa := full.At(x, y).RGBA()
			tr, tg, tbl, ta := tiled.At(x, y).RGBA()
			if fr != tr || fg != tg || fbl != tbl || fa != ta {
				t.Fatalf("pixel mismatch at (%d,%d)", x, y)
			}
		}
	}
}

func TestEnhanceTiledHandlesOffsetBounds(t *testing.T) {
	base := patternImage(24, 18)
	shifted := base.SubImage(image.Rect(4, 2, 24, 18))

	out, err := NewAdapter(&nearestEngine{}, Mode{TileSize: 8, TilePad: 2}, 1).Enhance(context.Background(), shifted, 2)
	if err != nil {
		t.Fatalf("Enhance returned error: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 40 || b.Dy() != 32 {
		t.Fatalf("expected 40x32, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestEnhanceRejectsInvalidScale(t *testing.T) {
	adapter := NewAdapter(&nearestEngine{}, SelectMode(false), 1)
	if _, err := adapter.Enhance(context.Background(), patternImage(4, 4), 0); err == nil {
		t.Fatalf("expected error for scale 0")
	}
}

func TestEnhancePropagatesEngineFailure(t *testing.T) {
	engine := &nearestEngine{failAfter: 1}
	adapter := NewAdapter(engine, Mode{TileSize: 8, TilePad: 2}, 1)

	_, err := adapter.Enhance(context.Background(), patternImage(20, 20), 2)
	if err == nil {
		t.Fatalf("expected engine failure to propagate")
	}
}

func TestEnhanceRejectsWrongEngineDimensions(t *testing.T) {
	bad := engineFunc(func(_ context.Context, img image.Image, scale int, _ Options) (image.Image, error) {
		b := img.Bounds()
		return image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy())), nil
	})

	adapter := NewAdapter(bad, Mode{TileSize: 0}, 1)
	if _, err := adapter.Enhance(context.Background(), patternImage(10, 10), 4); err == nil {
		t.Fatalf("expected dimension check to fail")
	}
}

type engineFunc func(ctx context.Context, img image.Image, scale int, opts Options) (image.Image, error)

func (f engineFunc) Enhance(ctx context.Context, img image.Image, scale int, opts Options) (image.Image, error) {
	return f(ctx, img, scale, opts)
}
