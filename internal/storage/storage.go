package storage

import "context"

// ObjectStorage captures the blob operations the pipeline needs. Put persists
// data under key with the given content type and returns a stable, publicly
// dereferenceable URL. Writing the same key again replaces the object.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
