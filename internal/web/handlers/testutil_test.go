package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/dataset"
	"github.com/kozaktomas/face-attendance/internal/session"
	"github.com/kozaktomas/face-attendance/internal/vision"
)

// memoryStore is an in-memory attendance.Store for handler tests
type memoryStore struct {
	mu      sync.Mutex
	records []attendance.Record
}

func (s *memoryStore) Append(_ context.Context, rec attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// newTestSession creates a running session over a 2x2 grayscale dataset:
// alice is a dark face, bob a bright one.
func newTestSession(t *testing.T) (*session.Session, *memoryStore) {
	t.Helper()

	ds, err := dataset.New([]dataset.LabeledSample{
		{Label: "alice", Vector: dataset.FeatureVector{0, 0, 0, 0}},
		{Label: "bob", Vector: dataset.FeatureVector{255, 255, 255, 255}},
	})
	if err != nil {
		t.Fatal(err)
	}
	normalizer, err := vision.NewNormalizer(2)
	if err != nil {
		t.Fatal(err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := &memoryStore{}
	s, err := session.New(session.Config{
		Dataset:    ds,
		K:          1,
		Workers:    2,
		Store:      store,
		Detector:   vision.WholeFrameDetector{},
		Normalizer: normalizer,
		Logger:     logrus.NewEntry(logger),
		Now:        func() time.Time { return time.Date(2024, 4, 2, 10, 0, 0, 0, time.Local) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	return s, store
}

// parseJSONResponse decodes the recorder body into v
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", recorder.Body.String(), err)
	}
}

// assertStatusCode checks the response status
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d: %s", expected, recorder.Code, recorder.Body.String())
	}
}
