package vision

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-attendance/internal/session"
)

// DirSource replays the image files of a directory as frames, in name order.
// Files that fail to decode are logged and skipped.
type DirSource struct {
	paths []string
	pos   int
	seq   int
	log   *logrus.Entry
}

// NewDirSource lists the images in dir. A missing directory fails with
// session.ErrDeviceUnavailable.
func NewDirSource(dir string, log *logrus.Entry) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrDeviceUnavailable, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.Sort(paths)
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &DirSource{paths: paths, log: log}, nil
}

// Len returns the number of image files found.
func (s *DirSource) Len() int {
	return len(s.paths)
}

// Next implements session.FrameSource. It returns io.EOF after the last file.
func (s *DirSource) Next(ctx context.Context) (session.Frame, error) {
	for s.pos < len(s.paths) {
		if err := ctx.Err(); err != nil {
			return session.Frame{}, err
		}
		path := s.paths[s.pos]
		s.pos++

		img, err := LoadImage(path)
		if err != nil {
			s.log.WithError(err).WithField("path", path).Warn("Skipping unreadable frame")
			continue
		}
		s.seq++
		return session.Frame{Seq: s.seq, Image: img}, nil
	}
	return session.Frame{}, io.EOF
}
