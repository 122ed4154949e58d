package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/strumspace/strumspace/internal/app"
	"github.com/strumspace/strumspace/internal/audio"
	"github.com/strumspace/strumspace/internal/capture"
	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/detector"
	"github.com/strumspace/strumspace/internal/logger"
	"github.com/strumspace/strumspace/internal/metrics"
	"github.com/strumspace/strumspace/internal/server"
	"github.com/strumspace/strumspace/internal/session"
	"github.com/strumspace/strumspace/internal/store"
	"github.com/strumspace/strumspace/internal/tray"
)

var liveOpts struct {
	camera        capture.Config
	difficulty    string
	maxAttempts   int
	motion        float64
	threshold     float64
	recordCmd     string
	noAudio       bool
	window        bool
	showFretboard bool
	useTray       bool
	addr          string
	detector      detector.Config
}

func init() {
	liveOpts.camera = capture.DefaultConfig()
	liveOpts.detector = detector.DefaultConfig()

	f := liveCmd.Flags()
	f.StringVar(&liveOpts.camera.Source, "camera", liveOpts.camera.Source, "camera index, video file or stream URL")
	f.IntVar(&liveOpts.camera.Width, "width", liveOpts.camera.Width, "capture width")
	f.IntVar(&liveOpts.camera.Height, "height", liveOpts.camera.Height, "capture height")
	f.BoolVar(&liveOpts.camera.Mirror, "mirror", false, "flip the image horizontally")
	f.StringVar(&liveOpts.difficulty, "difficulty", "", "practice tier: beginner, intermediate or advanced (default: last used)")
	f.IntVar(&liveOpts.maxAttempts, "max-attempts", session.DefaultMaxAttempts, "failed attempts before moving on")
	f.Float64Var(&liveOpts.motion, "motion-threshold", 1.0, "percent of changed pixels that counts as motion")
	f.Float64Var(&liveOpts.threshold, "threshold", audio.DefaultThreshold, "chroma similarity needed to name a chord")
	f.StringVar(&liveOpts.recordCmd, "record-cmd", strings.Join(audio.DefaultRecordCommand, " "), "command that writes a WAV take to stdout")
	f.BoolVar(&liveOpts.noAudio, "no-audio", false, "disable chord verification")
	f.BoolVar(&liveOpts.window, "window", true, "show a preview window (q quits, n skips, g toggles guidance)")
	f.BoolVar(&liveOpts.showFretboard, "show-fretboard", false, "outline the detected fretboard")
	f.BoolVar(&liveOpts.useTray, "tray", false, "show a system tray menu")
	f.StringVar(&liveOpts.addr, "addr", "", "also serve the API, MJPEG stream and overlay websocket on this address")
	detectorFlags(liveCmd, &liveOpts.detector)

	rootCmd.AddCommand(liveCmd)
}

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Runs the camera practice loop",
	Long:  `Runs the camera practice loop with finger guidance and chord verification.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLive()
	},
}

func runLive() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	table, err := loadTable(st)
	if err != nil {
		return err
	}

	settings := st.Settings()
	difficulty := liveOpts.difficulty
	if difficulty == "" {
		difficulty = settings.GetDefault(store.SettingDifficulty, string(chord.Beginner))
	}
	d := chord.Difficulty(strings.ToLower(difficulty))
	if !d.Valid() {
		logger.Warn("cli", "unknown difficulty %q, using beginner", difficulty)
		d = chord.Beginner
	}
	if err := settings.Set(store.SettingDifficulty, string(d)); err != nil {
		logger.Warn("cli", "save difficulty: %v", err)
	}

	verifier := audio.NewChromaVerifier(table)
	verifier.SetThreshold(liveOpts.threshold)

	var recorder audio.Recorder
	if !liveOpts.noAudio {
		recorder = audio.NewCommandRecorder(strings.Fields(liveOpts.recordCmd), 0)
	}

	m := metrics.New()
	var feed *server.Feed
	if liveOpts.addr != "" {
		feed = server.NewFeed()
	}

	a := app.New(app.Config{
		CameraConfig:  liveOpts.camera,
		MotionThresh:  liveOpts.motion,
		Table:         table,
		Difficulty:    d,
		MaxAttempts:   liveOpts.maxAttempts,
		Detector:      newDetector(liveOpts.detector),
		Verifier:      verifier,
		Recorder:      recorder,
		Store:         st,
		Metrics:       m,
		Feed:          feed,
		ShowWindow:    liveOpts.window,
		ShowFretboard: liveOpts.showFretboard,
	})
	a.SetGuidance(settings.GetDefault(store.SettingGuidance, "on") == "on")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if feed != nil {
		srv := server.New(server.Config{
			Table:    table,
			Store:    st,
			Verifier: verifier,
			Metrics:  m,
			Feed:     feed,
		})
		go func() {
			if err := listen(ctx, srv.HTTPServer(liveOpts.addr)); err != nil {
				logger.Error("cli", "server: %v", err)
			}
		}()
	}

	if err := a.Start(); err != nil {
		return fmt.Errorf("start camera: %w", err)
	}
	defer a.Stop()
	logger.Info("cli", "practising %s: %s", d, a.Status().Line())

	if liveOpts.useTray {
		runTray(ctx, a, settings)
	} else {
		select {
		case <-ctx.Done():
		case <-a.Done():
		}
	}
	return nil
}

// runTray blocks in the tray event loop until the user or the app quits.
func runTray(ctx context.Context, a *app.App, settings *store.SettingRepository) {
	t := tray.New()
	t.SetGuidance(a.Guidance())
	t.SetStatus(a.Status().Line())

	t.OnGuidance(func(on bool) {
		a.SetGuidance(on)
		value := "off"
		if on {
			value = "on"
		}
		if err := settings.Set(store.SettingGuidance, value); err != nil {
			logger.Warn("cli", "save guidance: %v", err)
		}
	})
	t.OnSkip(a.Skip)
	t.OnQuit(a.Quit)
	if liveOpts.addr != "" {
		t.OnOpen(func() { openBrowser(browserURL(liveOpts.addr)) })
	}
	a.OnStatus(func(s app.Status) {
		t.SetStatus(s.Line())
		t.SetGuidance(s.Guidance)
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-a.Done():
		}
		t.Quit()
	}()
	t.Run()
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("cli", "open browser: %v", err)
	}
}
