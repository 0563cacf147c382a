// Package store persists article records. The MongoDB store owns
// identity resolution and duplicate reconciliation; file stores exist
// for offline export.
package store

import (
	"context"

	"github.com/sesgocero/crawler/internal/types"
)

// Outcome classifies what an upsert did.
type Outcome int

const (
	// OutcomeInserted means no record with this identity existed.
	OutcomeInserted Outcome = iota

	// OutcomeUpdated means an existing record's content changed.
	OutcomeUpdated

	// OutcomeUnchanged means the payload matched the stored record;
	// nothing was written.
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Store is the interface for article persistence backends.
type Store interface {
	// Upsert writes the article keyed by its URL identity. It is
	// idempotent: resubmitting an identical record is a no-op.
	Upsert(ctx context.Context, a *types.Article) (Outcome, error)

	// Close flushes pending writes and releases resources.
	Close(ctx context.Context) error

	// Name returns the backend identifier.
	Name() string
}

// ReconcileReport summarizes a duplicate-reconciliation pass.
type ReconcileReport struct {
	// Groups is the number of identity values that had more than
	// one stored record.
	Groups int

	// Removed is the number of surplus records deleted.
	Removed int
}
