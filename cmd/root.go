package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Face recognition attendance tracker",
	Long: `Face Attendance recognizes faces with a k-nearest-neighbor classifier over a
labeled dataset of grayscale face crops and appends one attendance record per
person per session.

Typical workflow:
  face-attendance capture alice         # collect training crops
  face-attendance prepare faces/        # build the dataset CSV
  face-attendance recognize             # mark attendance from the camera
  face-attendance serve                 # or expose recognition over HTTP`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// setup loads and validates the configuration, initializes logging and connects to
// PostgreSQL when a configured backend needs it. The caller must run the returned cleanup.
func setup() (*config.Config, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	closer, err := logger.Init(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	if cfg.NeedsDatabase() {
		if err := connectDatabase(cfg); err != nil {
			closer.Close()
			return nil, nil, err
		}
	}
	return cfg, func() { cleanup(closer) }, nil
}

// connectDatabase initializes the global PostgreSQL pool unless it is already up.
func connectDatabase(cfg *config.Config) error {
	if postgres.IsAvailable() {
		return nil
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	log.Debug("Connecting to PostgreSQL database")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return nil
}

func cleanup(logCloser io.Closer) {
	if err := postgres.Shutdown(); err != nil {
		log.WithError(err).Warn("Failed to close PostgreSQL pool")
	}
	logCloser.Close()
}
