// Package docstore reads and writes the shared budget document.
//
// A Store moves opaque bytes guarded by a Version token. The Gateway layers the ledger
// codec on top and turns the version token into an optimistic read-modify-write cycle.
package docstore

import (
	"context"
	"errors"
)

// Version identifies one revision of the stored document. The empty Version means the
// document does not exist yet.
type Version string

var (
	// ErrConflict is returned by Put when the stored revision no longer matches the
	// expected version.
	ErrConflict = errors.New("docstore: version conflict")
	// ErrNoChange may be returned by an Update mutation to finish without saving.
	ErrNoChange = errors.New("docstore: no change")
	// ErrNotConfigured is returned when a backend lacks required settings.
	ErrNotConfigured = errors.New("docstore: store not configured")
)

// Store is a whole-document backend.
type Store interface {
	// Get returns the current content and its version. A missing document yields
	// empty content and an empty Version.
	Get(ctx context.Context) ([]byte, Version, error)
	// Put replaces the content if the stored version still equals expected and
	// returns the new version.
	Put(ctx context.Context, content []byte, expected Version) (Version, error)
}
