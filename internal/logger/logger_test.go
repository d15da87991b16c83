package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/config"
	log "github.com/sirupsen/logrus"
)

func TestInit_InvalidLevelDefaultsToInfo(t *testing.T) {
	closer, err := Init(config.LogConfig{Level: "loud"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer closer.Close()

	if log.GetLevel() != log.InfoLevel {
		t.Errorf("expected info level, got %s", log.GetLevel())
	}
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "attendance.log")

	closer, err := Init(config.LogConfig{Level: "debug", File: path, Format: "json"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	log.WithField("label", "alice").Info("marked")
	closer.Close()
	log.SetOutput(os.Stderr)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"label":"alice"`) {
		t.Errorf("expected JSON log line with label field, got %q", string(data))
	}
}
