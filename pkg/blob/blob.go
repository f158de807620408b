// Package blob is the object-storage collaborator. The engine only ever
// needs opaque get/put/delete against a bucket; which provider backs it is
// someone else's problem.
package blob

import "context"

// Store is the minimal surface the ingestion pipeline needs. Paths are
// forward-slash keys, e.g. "books/42/cover.jpg".
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Delete(ctx context.Context, path string) error
	// DeletePrefix removes every object under the given key prefix. Used when
	// a book is deleted to drop its re-hosted resources.
	DeletePrefix(ctx context.Context, prefix string) error
	// URL returns the public URL a reading client uses to fetch the object.
	URL(path string) string
}
