// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/upscalely/upscale-go/internal/domain"
	"github.com/upscalely/upscale-go/internal/imaging"
	"github.com/upscalely/upscale-go/internal/status"
	"github.com/upscalely/upscale-go/internal/storage"
)

// Enhancer is the inference capability the pipeline drives. Satisfied by
// inference.Adapter.
type Enhancer interface {
	Enhance(ctx context.Context, img image.Image, scale int) (image.Image, error)
}

// Config holds the per-deployment processing parameters.
type Config struct {
	Scale         int
	MaxDimension  int
	JPEGQuality   int
	FetchTimeout  time.Duration
	FetchMaxBytes int64
}

// Pipeline runs one upscale request through fetch, guard, inference, encode,
// upload and status recording, strictly in that order. The first stage to
// fail short-circuits the run to the failure-recording terminal state.
type Pipeline struct {
	fetcher  *Fetcher
	enhancer Enhancer
	sink     storage.ObjectStorage
	store    status.Store
	cfg      Config
}

// Result is the terminal outcome of a successful run.
type Result struct {
	OutputURL string `json:"outputUrl"`
}

func New(enhancer Enhancer, sink storage.ObjectStorage, store status.Store, cfg Config) *Pipeline {
	if cfg.Scale < 1 {
		cfg.Scale = 4
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 4000
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 95
	}
	return &Pipeline{
		fetcher:  NewFetcher(cfg.FetchTimeout, cfg.FetchMaxBytes),
		enhancer: enhancer,
		sink:     sink,
		store:    store,
		cfg:      cfg,
	}
}

// ObjectKey is the deterministic output location for a request. Re-running
// the same request id overwrites the prior blob instead of duplicating it.
func ObjectKey(userID, requestID string) string {
	return fmt.Sprintf("users/%s/upscaled/%s.jpg", userID, requestID)
}

// Run executes the pipeline for one request. A validation failure returns
// ErrInvalidRequest before any network or storage side effect. Processing
// failures are recorded to the status store best-effort and returned tagged
// with their stage.
func (p *Pipeline) Run(ctx context.Context, req domain.UpscaleRequest) (*Result, error) {
	if !req.Valid() {
		return nil, ErrInvalidRequest
	}

	log.Info().Str("request_id", req.RequestID).Str("image_url", req.ImageURL).Msg("processing upscale request")

	outputURL, serr := p.process(ctx, req)
	if serr != nil {
		log.Error().Err(serr.Err).Str("request_id", req.RequestID).Str("stage", string(serr.Stage)).Msg("pipeline stage failed")
		p.recordFailure(ctx, req.RequestID, serr)
		return nil, serr
	}

	if err := p.store.Update(ctx, req.RequestID, map[string]string{
		status.FieldStatus:    string(domain.StatusCompleted),
		status.FieldOutputURL: outputURL,
	}); err != nil {
		serr := failedAt(StageRecordingStatus, err)
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("failed to record completion")
		// A failed completion write is a stage failure like any other: the
		// record must not be left pending without at least attempting the
		// failed terminal state.
		p.recordFailure(ctx, req.RequestID, serr)
		return nil, serr
	}

	log.Info().Str("request_id", req.RequestID).Str("output_url", outputURL).Msg("upscale request completed")
	return &Result{OutputURL: outputURL}, nil
}

// process drives the forward stages and returns the uploaded blob URL. Each
// stage's failure is tagged so Run can map it to the terminal state.
func (p *Pipeline) process(ctx context.Context, req domain.UpscaleRequest) (string, *StageError) {
	raw, err := p.fetcher.Fetch(ctx, req.ImageURL)
	if err != nil {
		return "", failedAt(StageFetching, err)
	}

	img, format, err := imaging.Decode(raw)
	if err != nil {
		return "", failedAt(StageGuarding, err)
	}

	before := img.Bounds()
	img = imaging.Guard(img, p.cfg.MaxDimension)
	if after := img.Bounds(); after != before {
		log.Info().
			Str("request_id", req.RequestID).
			Str("format", format).
			Int("from_w", before.Dx()).Int("from_h", before.Dy()).
			Int("to_w", after.Dx()).Int("to_h", after.Dy()).
			Msg("resized oversized input")
	}

	upscaled, err := p.enhancer.Enhance(ctx, img, p.cfg.Scale)
	if err != nil {
		return "", failedAt(StageInferring, err)
	}

	encoded, err := imaging.EncodeJPEG(upscaled, p.cfg.JPEGQuality)
	if err != nil {
		return "", failedAt(StageEncoding, err)
	}

	outputURL, err := p.sink.Put(ctx, ObjectKey(req.UserID, req.RequestID), encoded, "image/jpeg")
	if err != nil {
		return "", failedAt(StageUploading, err)
	}
	return outputURL, nil
}

// recordFailure writes the failed terminal state best-effort. A failure of
// this secondary write is logged and swallowed: the caller still observes the
// original stage error, the persisted record may stay stale.
func (p *Pipeline) recordFailure(ctx context.Context, requestID string, cause error) {
	err := p.store.Update(ctx, requestID, map[string]string{
		status.FieldStatus: string(domain.StatusFailed),
		status.FieldError:  cause.Error(),
	})
	if err != nil {
		log.Warn().Err(err).Str("request_id", requestID).Msg("could not record failure status")
	}
}
