// Package cli implements the strumspace command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/detector"
	"github.com/strumspace/strumspace/internal/logger"
	"github.com/strumspace/strumspace/internal/store"
)

// Global flags
var (
	logLevel  string
	logColor  bool
	dataDir   string
	chordFile string
)

var rootCmd = &cobra.Command{
	Use:   "strumspace",
	Short: "Guitar chord trainer with on-video finger guidance",
	Long: `StrumSpace locates the fret zones of a guitar in a video feed, draws where
each finger goes for the chord being practised and listens for the chord
to move the player through a difficulty tier.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.Init(level, os.Stderr, logColor)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, silent)")
	pf.BoolVar(&logColor, "log-color", false, "colorize log output")
	pf.StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for the database, models and web assets")
	pf.StringVar(&chordFile, "chords", "", "JSON chord file merged over the built-in library")
}

// Execute runs the root command.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".strumspace"
	}
	return filepath.Join(homeDir, ".strumspace")
}

// openStore opens the database in the data directory, creating it if needed.
func openStore() (*store.Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(filepath.Join(dataDir, "strumspace.db"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// loadTable builds the chord table: the built-in library, then the --chords
// file, then custom chords saved in st.
func loadTable(st *store.Store) (*chord.Table, error) {
	table := chord.DefaultTable()

	if chordFile != "" {
		extra, err := chord.LoadFile(chordFile)
		if err != nil {
			return nil, err
		}
		for _, c := range extra.List("") {
			if err := table.Add(c); err != nil {
				return nil, err
			}
		}
		logger.Info("cli", "loaded %d chords from %s", extra.Len(), chordFile)
	}

	if st != nil {
		n, err := st.Chords().LoadInto(table)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			logger.Info("cli", "loaded %d custom chords", n)
		}
	}
	return table, nil
}

// detectorFlags binds the fretboard detector options to cmd.
func detectorFlags(cmd *cobra.Command, c *detector.Config) {
	f := cmd.Flags()
	f.StringVar(&c.ModelPath, "model", "", "YOLOv8 ONNX fret zone model (default <data-dir>/models/fretboard.onnx)")
	f.StringVar(&c.LabelsPath, "labels", "", "class names file, one per line (default Zone1..Zone12)")
	f.StringVar(&c.ScriptPath, "detector-script", "", "external detection service script")
	f.StringVar(&c.PythonPath, "python", "", "interpreter for the detection service")
	f.Float64Var(&c.MinConfidence, "min-confidence", c.MinConfidence, "drop raw detections below this score")
}

// newDetector fills in the default model path and picks a detector.
func newDetector(c detector.Config) detector.Detector {
	if c.ModelPath == "" {
		c.ModelPath = filepath.Join(dataDir, "models", "fretboard.onnx")
	}
	d, kind := detector.New(c)
	logger.Info("cli", "using %s fretboard detector", kind)
	return d
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <data-dir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
