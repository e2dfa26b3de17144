package providers

import (
	"context"
	"errors"
	"time"
)

// ErrDocumentNotFound is returned by Read when no document exists for an id.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentInfo describes one stored document.
type DocumentInfo struct {
	ID      string
	ModTime time.Time
}

// DocumentStore defines directory-based JSON persistence keyed by document
// id. The audit logger uses it case-keyed and the benchmark harness
// report-keyed. Writes are create-only; ids are unique per execution, so no
// locking is required.
type DocumentStore interface {
	// Write marshals doc and stores it under id.
	Write(ctx context.Context, id string, doc any) error

	// Read unmarshals the document stored under id into out.
	Read(ctx context.Context, id string, out any) error

	// List returns info for every stored document.
	List(ctx context.Context) ([]DocumentInfo, error)
}
