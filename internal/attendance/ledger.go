// Package attendance records who was recognized, at most once per person per session.
package attendance

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/dataset"
)

// Ledger guards a Store with the per-session dedup set.
// A Ledger belongs to exactly one session and is discarded with it.
type Ledger struct {
	sessionID string
	store     Store

	mu     sync.Mutex
	marked map[string]struct{}
	order  []Record
}

// NewLedger creates an empty ledger for sessionID.
func NewLedger(sessionID string, store Store) *Ledger {
	return &Ledger{
		sessionID: sessionID,
		store:     store,
		marked:    make(map[string]struct{}),
	}
}

// Mark records label once per session. A repeated label returns ErrAlreadyMarked and
// writes nothing. A store failure returns a *WriteError and leaves the label unmarked,
// so a later sighting can try again.
func (l *Ledger) Mark(ctx context.Context, label string, observedAt time.Time) error {
	if err := dataset.ValidateLabel(label); err != nil {
		return fmt.Errorf("mark attendance: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.marked[label]; ok {
		return ErrAlreadyMarked
	}

	rec := Record{
		SessionID:  l.sessionID,
		Label:      label,
		ObservedAt: observedAt.Local().Truncate(time.Second),
	}
	if err := l.store.Append(ctx, rec); err != nil {
		return &WriteError{Label: label, cause: err}
	}
	l.marked[label] = struct{}{}
	l.order = append(l.order, rec)
	return nil
}

// IsMarked reports whether label was already recorded in this session.
func (l *Ledger) IsMarked(label string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.marked[label]
	return ok
}

// Records returns the records appended in this session, in append order.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.order)
}

// Len returns the number of distinct labels marked.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.marked)
}

// SessionID returns the id of the owning session.
func (l *Ledger) SessionID() string {
	return l.sessionID
}
