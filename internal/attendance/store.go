package attendance

import (
	"context"
	"time"
)

// Store is the durable append-only log behind a Ledger.
// Append must be all-or-nothing per record.
type Store interface {
	Append(ctx context.Context, rec Record) error
}

// Reader lists persisted records.
type Reader interface {
	List(ctx context.Context, since time.Time) ([]Record, error)
}
