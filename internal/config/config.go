package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Dataset sources.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Attendance backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Dataset     DatasetConfig     `yaml:"dataset"`
	Attendance  AttendanceConfig  `yaml:"attendance"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Log         LogConfig         `yaml:"log"`
	Capture     CaptureConfig     `yaml:"capture"`
	Web         WebConfig         `yaml:"web"`
	Database    DatabaseConfig    `yaml:"database"`
}

type DatasetConfig struct {
	Path          string `yaml:"path"`   // CSV file with label,v1..vN rows
	Source        string `yaml:"source"` // csv or postgres
	HNSWIndexPath string `yaml:"hnsw_index_path"`
}

type AttendanceConfig struct {
	Path    string `yaml:"path"`    // attendance log appended by the file backend
	Backend string `yaml:"backend"` // file or postgres
}

type RecognitionConfig struct {
	K        int `yaml:"k"`
	FaceSize int `yaml:"face_size"`
	Workers  int `yaml:"workers"`
}

// FeatureDim returns the feature vector length produced by a FaceSize x FaceSize crop.
func (c RecognitionConfig) FeatureDim() int {
	return c.FaceSize * c.FaceSize
}

type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"` // text or json
}

type CaptureConfig struct {
	CascadePath  string `yaml:"cascade_path"`
	CameraDevice int    `yaml:"camera_device"`
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // extra CORS origins besides localhost
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`            // PostgreSQL connection URL
	MaxOpenConns int    `yaml:"max_open_conns"` // Maximum open connections
	MaxIdleConns int    `yaml:"max_idle_conns"` // Maximum idle connections
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString returns the environment variable or the default when it is unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty items.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadDefaults() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return cfg
}

func Load() *Config {
	d := loadDefaults()

	return &Config{
		Dataset: DatasetConfig{
			Path:          envString("DATASET_PATH", d.Dataset.Path),
			Source:        strings.ToLower(envString("DATASET_SOURCE", d.Dataset.Source)),
			HNSWIndexPath: envString("HNSW_INDEX_PATH", d.Dataset.HNSWIndexPath),
		},
		Attendance: AttendanceConfig{
			Path:    envString("ATTENDANCE_PATH", d.Attendance.Path),
			Backend: strings.ToLower(envString("ATTENDANCE_BACKEND", d.Attendance.Backend)),
		},
		Recognition: RecognitionConfig{
			K:        envInt("KNN_K", d.Recognition.K),
			FaceSize: envInt("FACE_SIZE", d.Recognition.FaceSize),
			Workers:  envInt("RECOGNITION_WORKERS", d.Recognition.Workers),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envString("LOG_LEVEL", d.Log.Level)),
			File:   envString("LOG_FILE", d.Log.File),
			Format: strings.ToLower(envString("LOG_FORMAT", d.Log.Format)),
		},
		Capture: CaptureConfig{
			CascadePath:  envString("HAAR_CASCADE_PATH", d.Capture.CascadePath),
			CameraDevice: envCameraDevice(d.Capture.CameraDevice),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", d.Web.Host),
			Port:           envInt("WEB_PORT", d.Web.Port),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", d.Web.AllowedOrigins),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
	}
}

// envCameraDevice reads CAMERA_DEVICE; device 0 is valid so envInt can't be used.
func envCameraDevice(defaultVal int) int {
	s := os.Getenv("CAMERA_DEVICE")
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// Validate checks the enumerated settings and the ones a backend depends on.
func (c *Config) Validate() error {
	switch c.Dataset.Source {
	case SourceCSV, SourcePostgres:
	default:
		return fmt.Errorf("unknown DATASET_SOURCE %q (want %s or %s)", c.Dataset.Source, SourceCSV, SourcePostgres)
	}
	switch c.Attendance.Backend {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("unknown ATTENDANCE_BACKEND %q (want %s or %s)", c.Attendance.Backend, BackendFile, BackendPostgres)
	}
	if c.NeedsDatabase() && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required for the %s backend", SourcePostgres)
	}
	return nil
}

// NeedsDatabase reports whether any configured backend talks to PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return c.Dataset.Source == SourcePostgres || c.Attendance.Backend == BackendPostgres
}
