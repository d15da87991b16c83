package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/session"
	"github.com/kozaktomas/face-attendance/internal/vision"
	"github.com/kozaktomas/face-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recognition HTTP API",
	Long: `Start the HTTP API. One recognition session lives for the lifetime of the
server; attendance marked through any endpoint is recorded once per person.

Endpoints:
  GET  /api/v1/health
  POST /api/v1/recognize    {"vectors": [[...], ...]}
  POST /api/v1/frames       image body or multipart field "image"
  GET  /api/v1/attendance`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST)")
	serveCmd.Flags().Bool("cascade", false, "Detect faces in posted frames with the Haar cascade (gocv builds)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	var detector session.Detector = vision.WholeFrameDetector{}
	if mustGetBool(cmd, "cascade") {
		cascade, err := openFaceDetector(cfg)
		if err != nil {
			return err
		}
		defer cascade.Close()
		detector = cascade
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cfg, detector)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	server := web.NewServer(cfg, s)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		fmt.Println("\nShutting down...")
		// stop marking before in-flight requests drain
		s.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error during shutdown")
		}
	}()

	fmt.Printf("Session %s serving on http://%s\n", s.ID(), server.Addr())
	fmt.Printf("Logging attendance to %s\n", describeAttendanceStore(cfg))
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	<-shutdownDone
	return nil
}
