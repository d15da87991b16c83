package database

import (
	"errors"
	"sync"
)

// ErrNotConfigured is returned when no database backend has been registered.
var ErrNotConfigured = errors.New("database backend not configured, set DATABASE_URL")

var (
	providerMu          sync.RWMutex
	postgresSamples     func() SampleWriter
	postgresAttendance  func() AttendanceStore
	postgresInitialized bool
)

// RegisterPostgresBackend registers PostgreSQL repository constructors.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(samples func() SampleWriter, attendance func() AttendanceStore) {
	providerMu.Lock()
	defer providerMu.Unlock()
	postgresSamples = samples
	postgresAttendance = attendance
	postgresInitialized = true
}

// ResetBackend forgets the registered backend.
func ResetBackend() {
	providerMu.Lock()
	defer providerMu.Unlock()
	postgresSamples = nil
	postgresAttendance = nil
	postgresInitialized = false
}

// IsInitialized reports whether a backend was registered.
func IsInitialized() bool {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return postgresInitialized
}

// GetSampleWriter returns the dataset repository of the registered backend.
func GetSampleWriter() (SampleWriter, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if !postgresInitialized || postgresSamples == nil {
		return nil, ErrNotConfigured
	}
	return postgresSamples(), nil
}

// GetAttendanceStore returns the attendance repository of the registered backend.
func GetAttendanceStore() (AttendanceStore, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if !postgresInitialized || postgresAttendance == nil {
		return nil, ErrNotConfigured
	}
	return postgresAttendance(), nil
}
