// Package session runs recognition: frames in, attendance marks out.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/dataset"
	"github.com/kozaktomas/face-attendance/internal/knn"
)

// Config configures a Session.
type Config struct {
	Dataset    *dataset.Dataset
	K          int
	Workers    int
	Store      attendance.Store
	Detector   Detector
	Normalizer Normalizer
	Logger     *logrus.Entry
	Now        func() time.Time
}

// Session is one recognition run: Idle, then Running, then Stopped.
// A stopped session cannot be restarted; create a new one instead.
type Session struct {
	id         string
	classifier *knn.Classifier
	store      attendance.Store
	detector   Detector
	normalizer Normalizer
	workers    int
	log        *logrus.Entry
	now        func() time.Time

	mu      sync.Mutex
	state   State
	ledger  *attendance.Ledger
	records []attendance.Record // snapshot taken at Stop
	stats   Stats
}

// New creates an idle session.
func New(cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, errors.New("session: attendance store is required")
	}
	if cfg.K == 0 {
		cfg.K = constants.DefaultK
	}
	classifier, err := knn.NewClassifier(cfg.Dataset, cfg.K)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = constants.DefaultRecognitionWorkers
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	id := uuid.NewString()
	return &Session{
		id:         id,
		classifier: classifier,
		store:      cfg.Store,
		detector:   cfg.Detector,
		normalizer: cfg.Normalizer,
		workers:    cfg.Workers,
		log:        cfg.Logger.WithField("session_id", id),
		now:        cfg.Now,
	}, nil
}

// ID returns the session id written with every attendance record.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start moves an idle session to Running with an empty marked set.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return ErrSessionClosed
	}
	s.ledger = attendance.NewLedger(s.id, s.store)
	s.state = StateRunning

	ds := s.classifier.Dataset()
	if ds.Len() == 0 {
		s.log.Warn("Dataset is empty, faces will not be classified")
	}
	s.log.WithFields(logrus.Fields{
		"samples": ds.Len(),
		"labels":  len(ds.Labels()),
		"k":       s.classifier.K(),
	}).Info("Recognition session started")
	return nil
}

// Stop moves the session to Stopped. No marks are issued afterwards.
// Stopping an idle or stopped session is a no-op apart from the state change.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return
	}
	wasRunning := s.state == StateRunning
	s.state = StateStopped
	if s.ledger != nil {
		s.records = s.ledger.Records()
		s.ledger = nil
	}
	if wasRunning {
		s.log.WithFields(logrus.Fields{
			"frames":  s.stats.Frames,
			"marked":  s.stats.Marked,
			"skipped": s.stats.Skipped,
			"failed":  s.stats.Failed,
		}).Info("Recognition session stopped")
	}
}

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Records returns the attendance records appended by this session, in append order.
func (s *Session) Records() []attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger != nil {
		return s.ledger.Records()
	}
	return append([]attendance.Record(nil), s.records...)
}

// Run processes frames from src until ctx is canceled, Stop is called, the source is
// exhausted (io.EOF) or the device fails. The session is Stopped when Run returns.
// A device failure is returned wrapped in ErrDeviceUnavailable; the other endings return nil.
func (s *Session) Run(ctx context.Context, src FrameSource) error {
	if s.State() != StateRunning {
		return ErrNotRunning
	}
	defer s.Stop()

	for {
		// cancellation is polled once per frame
		if ctx.Err() != nil {
			s.log.Info("Recognition canceled")
			return nil
		}
		if s.State() != StateRunning {
			return nil
		}

		frame, err := src.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			s.log.Info("Frame source exhausted")
			return nil
		case ctx.Err() != nil:
			s.log.Info("Recognition canceled")
			return nil
		case errors.Is(err, ErrDeviceUnavailable):
			s.log.WithError(err).Error("Frame source failed")
			return err
		default:
			s.log.WithError(err).Error("Frame source failed")
			return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}

		if _, err := s.ProcessFrame(ctx, frame); err != nil && !errors.Is(err, ErrNotRunning) {
			s.log.WithError(err).WithField("frame", frame.Seq).Warn("Skipping frame")
		}
	}
}

// ProcessFrame detects, classifies and marks every face in frame.
// A detection failure skips the whole frame and is returned; per-region problems
// are reported in the outcomes and never fail the call.
func (s *Session) ProcessFrame(ctx context.Context, frame Frame) ([]Outcome, error) {
	if s.State() != StateRunning {
		return nil, ErrNotRunning
	}
	if s.detector == nil || s.normalizer == nil {
		return nil, errors.New("session has no detector or normalizer")
	}
	if frame.Image == nil {
		return nil, fmt.Errorf("frame %d has no image", frame.Seq)
	}

	s.mu.Lock()
	s.stats.Frames++
	s.mu.Unlock()

	regions, err := s.detector.Detect(ctx, frame.Image)
	if err != nil {
		return nil, fmt.Errorf("detect faces in frame %d: %w", frame.Seq, err)
	}

	observedAt := frame.CapturedAt
	if observedAt.IsZero() {
		observedAt = s.now()
	}
	bounds := frame.Image.Bounds()
	log := s.log.WithField("frame", frame.Seq)

	outcomes := s.classifyAll(len(regions), func(i int) (image.Rectangle, dataset.FeatureVector, error) {
		region := regions[i].Intersect(bounds)
		if region.Empty() {
			return regions[i], nil, fmt.Errorf("region %v outside frame %v", regions[i], bounds)
		}
		vec, err := s.normalizer.Normalize(frame.Image, region)
		if err != nil {
			return region, nil, fmt.Errorf("normalize: %w", err)
		}
		return region, vec, nil
	})
	s.markAll(ctx, log, outcomes, observedAt)
	return outcomes, nil
}

// Recognize classifies already normalized vectors and marks the results.
func (s *Session) Recognize(ctx context.Context, vectors []dataset.FeatureVector) ([]Outcome, error) {
	if s.State() != StateRunning {
		return nil, ErrNotRunning
	}
	outcomes := s.classifyAll(len(vectors), func(i int) (image.Rectangle, dataset.FeatureVector, error) {
		return image.Rectangle{}, vectors[i], nil
	})
	s.markAll(ctx, s.log, outcomes, s.now())
	return outcomes, nil
}

// classifyAll runs vectorAt and the classifier for n inputs in parallel.
// Outcomes that classified successfully are left with an empty Status for markAll.
func (s *Session) classifyAll(
	n int, vectorAt func(i int) (image.Rectangle, dataset.FeatureVector, error),
) []Outcome {
	outcomes := make([]Outcome, n)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range n {
		g.Go(func() error {
			region, vec, err := vectorAt(i)
			outcomes[i].Region = region
			if err != nil {
				outcomes[i].Status = StatusSkipped
				outcomes[i].Err = err
				return nil
			}
			label, neighbors, err := s.classifier.Predict(vec)
			if err != nil {
				outcomes[i].Status = StatusSkipped
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Label = label
			outcomes[i].Distance = neighbors[0].Distance
			return nil
		})
	}
	_ = g.Wait() // workers never fail, errors are kept per outcome

	return outcomes
}

// markAll marks classified outcomes in input order and logs every result.
func (s *Session) markAll(ctx context.Context, log *logrus.Entry, outcomes []Outcome, observedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range outcomes {
		o := &outcomes[i]
		entry := log.WithField("region", o.Region.String())
		if o.Label != "" {
			entry = entry.WithField("label", o.Label)
		}

		if o.Status == "" {
			switch {
			case s.state != StateRunning:
				o.Status = StatusSkipped
				o.Err = ErrNotRunning
			default:
				o.Err = s.ledger.Mark(ctx, o.Label, observedAt)
				switch {
				case o.Err == nil:
					o.Status = StatusMarked
				case errors.Is(o.Err, attendance.ErrAlreadyMarked):
					o.Status = StatusAlreadyMarked
				default:
					o.Status = StatusFailed
				}
			}
		}

		switch o.Status {
		case StatusMarked:
			entry.WithField("distance", o.Distance).Info("Attendance marked")
		case StatusAlreadyMarked:
			entry.Debug("Already marked in this session")
		case StatusSkipped:
			entry.WithError(o.Err).WithField("kind", errorKind(o.Err)).Warn("Skipping face")
		case StatusFailed:
			entry.WithError(o.Err).Error("Failed to record attendance")
		}
		s.stats.add(*o)
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, knn.ErrEmptyDataset):
		return "empty_dataset"
	case errors.Is(err, knn.ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrNotRunning):
		return "not_running"
	default:
		return "normalize"
	}
}
