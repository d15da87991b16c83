package attendance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) Append(_ context.Context, _ Record) error {
	s.calls++
	return s.err
}

type memoryStore struct {
	mu      sync.Mutex
	records []Record
}

func (s *memoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestLedger_MarkOncePerSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	ledger := NewLedger("s1", NewFileStore(path))
	ctx := context.Background()

	t1 := time.Date(2024, 3, 5, 9, 15, 30, 0, time.Local)
	t2 := t1.Add(time.Minute)

	if err := ledger.Mark(ctx, "alice", t1); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := ledger.Mark(ctx, "alice", t2); !errors.Is(err, ErrAlreadyMarked) {
		t.Fatalf("second mark error = %v, want ErrAlreadyMarked", err)
	}

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), lines)
	}
	if lines[0] != "alice,2024-03-05 09:15:30" {
		t.Errorf("line = %q, want %q", lines[0], "alice,2024-03-05 09:15:30")
	}
	if !ledger.IsMarked("alice") || ledger.IsMarked("bob") {
		t.Error("IsMarked does not reflect marked labels")
	}
}

func TestLedger_StoresLocalTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	store := NewFileStore(path)
	ledger := NewLedger("s1", store)
	ctx := context.Background()

	observed := time.Date(2024, 6, 1, 22, 45, 10, 700_000_000, time.UTC)
	if err := ledger.Mark(ctx, "alice", observed); err != nil {
		t.Fatal(err)
	}

	want := observed.Truncate(time.Second)
	rec := ledger.Records()[0]
	if !rec.ObservedAt.Equal(want) || rec.ObservedAt.Location() != time.Local {
		t.Errorf("ObservedAt = %v, want %v in local time", rec.ObservedAt, want)
	}

	lines := readLines(t, path)
	if wantLine := "alice," + want.Local().Format("2006-01-02 15:04:05"); lines[0] != wantLine {
		t.Errorf("line = %q, want %q", lines[0], wantLine)
	}

	records, err := store.List(ctx, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || !records[0].ObservedAt.Equal(want) {
		t.Errorf("read back %+v, want one record at %v", records, want)
	}
}

func TestLedger_NewLedgerStartsEmpty(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()
	now := time.Now()

	first := NewLedger("s1", store)
	if err := first.Mark(ctx, "alice", now); err != nil {
		t.Fatalf("mark: %v", err)
	}

	second := NewLedger("s2", store)
	if err := second.Mark(ctx, "alice", now); err != nil {
		t.Fatalf("mark in new session: %v", err)
	}
	if len(store.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(store.records))
	}
	if store.records[0].SessionID != "s1" || store.records[1].SessionID != "s2" {
		t.Errorf("session ids = %q, %q", store.records[0].SessionID, store.records[1].SessionID)
	}
}

func TestLedger_ConcurrentDistinctLabels(t *testing.T) {
	const n = 64
	path := filepath.Join(t.TempDir(), "attendance.csv")
	ledger := NewLedger("s1", NewFileStore(path))
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- ledger.Mark(ctx, fmt.Sprintf("person-%02d", i), now)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("mark: %v", err)
		}
	}

	lines := readLines(t, path)
	if len(lines) != n {
		t.Fatalf("expected %d lines, got %d", n, len(lines))
	}
	seen := make(map[string]bool)
	for _, line := range lines {
		label, ts, ok := strings.Cut(line, ",")
		if !ok || ts != "2024-01-02 03:04:05" || !strings.HasPrefix(label, "person-") {
			t.Errorf("corrupted line %q", line)
		}
		seen[label] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct labels, got %d", n, len(seen))
	}

	records := ledger.Records()
	if len(records) != n || ledger.Len() != n {
		t.Errorf("ledger has %d records / %d labels, want %d", len(records), ledger.Len(), n)
	}
}

func TestLedger_ConcurrentSameLabel(t *testing.T) {
	store := &memoryStore{}
	ledger := NewLedger("s1", store)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	acks := 0
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.Mark(ctx, "alice", time.Now()); err == nil {
				mu.Lock()
				acks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acks != 1 || len(store.records) != 1 {
		t.Errorf("acks = %d, records = %d, want 1 and 1", acks, len(store.records))
	}
}

func TestLedger_WriteFailure(t *testing.T) {
	store := &failingStore{err: errors.New("disk full")}
	ledger := NewLedger("s1", store)
	ctx := context.Background()

	err := ledger.Mark(ctx, "alice", time.Now())
	if !errors.Is(err, ErrWriteFailure) {
		t.Fatalf("error = %v, want ErrWriteFailure", err)
	}
	var writeErr *WriteError
	if !errors.As(err, &writeErr) || writeErr.Label != "alice" {
		t.Fatalf("expected *WriteError for alice, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error %q does not carry the cause", err)
	}
	if ledger.IsMarked("alice") {
		t.Error("failed write must not mark the label")
	}

	// the next sighting retries the append
	_ = ledger.Mark(ctx, "alice", time.Now())
	if store.calls != 2 {
		t.Errorf("store called %d times, want 2", store.calls)
	}
}

func TestLedger_RejectsInvalidLabel(t *testing.T) {
	store := &memoryStore{}
	ledger := NewLedger("s1", store)

	for _, label := range []string{"", "  ", "a,b", "a\nb"} {
		if err := ledger.Mark(context.Background(), label, time.Now()); err == nil {
			t.Errorf("Mark(%q) succeeded, want error", label)
		}
	}
	if len(store.records) != 0 {
		t.Errorf("invalid labels reached the store: %+v", store.records)
	}
}
