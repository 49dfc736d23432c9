// internal/status/store.go
package status

import (
	"context"
	"errors"

	"github.com/upscalely/upscale-go/internal/domain"
)

// ErrNotFound is returned when no record exists for a request id. The
// pipeline only transitions records, it never creates them.
var ErrNotFound = errors.New("status record not found")

// Field names used in partial updates.
const (
	FieldStatus    = "status"
	FieldOutputURL = "outputUrl"
	FieldError     = "error"
)

// Store is the document abstraction holding per-request status records,
// keyed by request id. Update applies merge semantics: only the supplied
// fields change, everything else in the document is untouched.
type Store interface {
	Create(ctx context.Context, rec domain.StatusRecord) error
	Update(ctx context.Context, requestID string, fields map[string]string) error
	Get(ctx context.Context, requestID string) (*domain.StatusRecord, error)
}
