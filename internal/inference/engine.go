// internal/inference/engine.go
package inference

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Options carries per-call hints forwarded to the model runtime.
type Options struct {
	HalfPrecision bool
}

// Engine is the boundary to the external upscaling model. Implementations
// accept an arbitrary-size raster and return one scaled by the integer factor
// in each dimension.
type Engine interface {
	Enhance(ctx context.Context, img image.Image, scale int, opts Options) (image.Image, error)
}

// HTTPEngine talks to a model-serving sidecar over HTTP. Rasters travel as
// PNG in both directions; the scale factor and precision hint go in headers.
type HTTPEngine struct {
	url    string
	client *http.Client
}

func NewHTTPEngine(url string) *HTTPEngine {
	return &HTTPEngine{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (e *HTTPEngine) Enhance(ctx context.Context, img image.Image, scale int, opts Options) (image.Image, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("encode engine request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &body)
	if err != nil {
		return nil, fmt.Errorf("build engine request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("X-Upscale-Factor", strconv.Itoa(scale))
	req.Header.Set("X-Half-Precision", strconv.FormatBool(opts.HalfPrecision))

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("engine returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	out, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode engine response: %w", err)
	}
	return out, nil
}

var _ Engine = (*HTTPEngine)(nil)
