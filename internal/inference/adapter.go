// internal/inference/adapter.go
package inference

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/sync/semaphore"
)

// Mode is the tiling and precision policy negotiated once at construction.
// It reflects the deployment environment, not the image being processed.
type Mode struct {
	TileSize      int // 0 means the whole frame is processed at once
	TilePad       int // overlap around each tile, discarded after enhancement
	HalfPrecision bool
}

const (
	defaultTileSize = 512
	defaultTilePad  = 10
)

// SelectMode picks the processing mode for the available compute. With an
// accelerator the whole frame goes through at half precision; on a
// general-purpose processor the frame is tiled to bound peak memory.
func SelectMode(hasAccelerator bool) Mode {
	if hasAccelerator {
		return Mode{TileSize: 0, HalfPrecision: true}
	}
	return Mode{TileSize: defaultTileSize, TilePad: defaultTilePad, HalfPrecision: false}
}

// Adapter wraps an Engine with the tiling policy and a gate serializing
// access to the shared accelerator.
type Adapter struct {
	engine Engine
	mode   Mode
	gate   *semaphore.Weighted
}

func NewAdapter(engine Engine, mode Mode, slots int64) *Adapter {
	if slots < 1 {
		slots = 1
	}
	return &Adapter{
		engine: engine,
		mode:   mode,
		gate:   semaphore.NewWeighted(slots),
	}
}

// Enhance upscales img by the integer factor scale in each dimension.
func (a *Adapter) Enhance(ctx context.Context, img image.Image, scale int) (image.Image, error) {
	if scale < 1 {
		return nil, fmt.Errorf("invalid scale factor %d", scale)
	}

	if err := a.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire accelerator slot: %w", err)
	}
	defer a.gate.Release(1)

	if a.mode.TileSize <= 0 {
		out, err := a.engine.Enhance(ctx, img, scale, Options{HalfPrecision: a.mode.HalfPrecision})
		if err != nil {
			return nil, err
		}
		return out, a.checkDims(out, img.Bounds(), scale)
	}
	return a.enhanceTiled(ctx, img, scale)
}

// enhanceTiled splits the frame into TileSize tiles with TilePad overlap,
// enhances each independently and composites the interiors into the output
// canvas. The scaled padding is discarded, which keeps tile seams clean.
func (a *Adapter) enhanceTiled(ctx context.Context, img image.Image, scale int) (image.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	ts, pad := a.mode.TileSize, a.mode.TilePad

	out := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h; y += ts {
		for x := 0; x < w; x += ts {
			tw := min(ts, w-x)
			th := min(ts, h-y)

			// Padded source window, clamped to the frame.
			px0 := max(0, x-pad)
			py0 := max(0, y-pad)
			px1 := min(w, x+tw+pad)
			py1 := min(h, y+th+pad)

			tile := cropRGBA(img, image.Rect(b.Min.X+px0, b.Min.Y+py0, b.Min.X+px1, b.Min.Y+py1))
			enhanced, err := a.engine.Enhance(ctx, tile, scale, Options{HalfPrecision: a.mode.HalfPrecision})
			if err != nil {
				return nil, fmt.Errorf("enhance tile at (%d,%d): %w", x, y, err)
			}
			if err := a.checkDims(enhanced, tile.Bounds(), scale); err != nil {
				return nil, err
			}

			dstRect := image.Rect(x*scale, y*scale, (x+tw)*scale, (y+th)*scale)
			srcPt := enhanced.Bounds().Min.Add(image.Pt((x-px0)*scale, (y-py0)*scale))
			draw.Draw(out, dstRect, enhanced, srcPt, draw.Src)
		}
	}
	return out, nil
}

func (a *Adapter) checkDims(out image.Image, src image.Rectangle, scale int) error {
	ob := out.Bounds()
	if ob.Dx() != src.Dx()*scale || ob.Dy() != src.Dy()*scale {
		return fmt.Errorf("engine returned %dx%d for a %dx%d input at scale %d",
			ob.Dx(), ob.Dy(), src.Dx(), src.Dy(), scale)
	}
	return nil
}

// cropRGBA copies the given window into a fresh zero-origin raster so the
// engine never sees offset bounds.
func cropRGBA(img image.Image, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
