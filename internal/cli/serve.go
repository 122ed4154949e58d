package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/strumspace/strumspace/internal/audio"
	"github.com/strumspace/strumspace/internal/detector"
	"github.com/strumspace/strumspace/internal/logger"
	"github.com/strumspace/strumspace/internal/metrics"
	"github.com/strumspace/strumspace/internal/server"
	"github.com/strumspace/strumspace/internal/session"
)

// SessionIdleTimeout is how long an untouched HTTP session is kept.
const SessionIdleTimeout = time.Hour

var serveOpts struct {
	addr        string
	webDir      string
	maxAttempts int
	threshold   float64
	detector    detector.Config
}

func init() {
	serveOpts.detector = detector.DefaultConfig()

	f := serveCmd.Flags()
	f.StringVar(&serveOpts.addr, "addr", ":8080", "listen address")
	f.StringVar(&serveOpts.webDir, "web", "", "static web directory (default: search web/ and <data-dir>/web)")
	f.IntVar(&serveOpts.maxAttempts, "max-attempts", session.DefaultMaxAttempts, "failed attempts before move_on is reported")
	f.Float64Var(&serveOpts.threshold, "threshold", audio.DefaultThreshold, "chroma similarity needed to name a chord")
	detectorFlags(serveCmd, &serveOpts.detector)

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API",
	Long:  `Runs the HTTP API for session, detect and verify requests.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	table, err := loadTable(st)
	if err != nil {
		return err
	}

	d := newDetector(serveOpts.detector)
	defer d.Close()

	verifier := audio.NewChromaVerifier(table)
	verifier.SetThreshold(serveOpts.threshold)

	webDir := serveOpts.webDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		logger.Info("cli", "serving static files from %s", webDir)
	}

	sessions := session.NewStore(serveOpts.maxAttempts)
	srv := server.New(server.Config{
		StaticDir: webDir,
		Table:     table,
		Sessions:  sessions,
		Store:     st,
		Detector:  d,
		Verifier:  verifier,
		Metrics:   metrics.New(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go expireSessions(ctx, sessions)

	return listen(ctx, srv.HTTPServer(serveOpts.addr))
}

// listen serves until ctx is cancelled, then shuts down gracefully.
func listen(ctx context.Context, hs *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("cli", "listening on %s", hs.Addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("cli", "shutting down")
	if err := hs.Shutdown(shutdownCtx); err != nil {
		// open MJPEG streams never go idle
		if errors.Is(err, context.DeadlineExceeded) {
			return hs.Close()
		}
		return err
	}
	return nil
}

func expireSessions(ctx context.Context, sessions *session.Store) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Expire(SessionIdleTimeout); n > 0 {
				logger.Info("cli", "expired %d idle sessions", n)
			}
		}
	}
}
