package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/strumspace/strumspace/internal/chord"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--data-dir", t.TempDir(), "--log-level", "silent"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestChordsCommands(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		out, err := run(t, "chords", "list", "--difficulty", "advanced")
		if err != nil {
			t.Fatalf("chords list error = %v", err)
		}
		if !strings.Contains(out, "G/B") || !strings.Contains(out, "advanced") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("show", func(t *testing.T) {
		out, err := run(t, "chords", "show", "am")
		if err != nil {
			t.Fatalf("chords show error = %v", err)
		}
		if !strings.HasPrefix(out, "Am (A Minor, beginner)") || !strings.Contains(out, "string 2 fret 1") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("show unknown", func(t *testing.T) {
		if _, err := run(t, "chords", "show", "H7"); err == nil {
			t.Error("expected error for unknown chord")
		}
	})

	t.Run("tiers", func(t *testing.T) {
		out, err := run(t, "chords", "tiers")
		if err != nil {
			t.Fatalf("chords tiers error = %v", err)
		}
		if !strings.Contains(out, "Am C G D Em") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("midi", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.mid")
		if _, err := run(t, "chords", "midi", "C", "-o", path); err != nil {
			t.Fatalf("chords midi error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil || !bytes.HasPrefix(data, []byte("MThd")) {
			t.Errorf("expected a MIDI file, got %d bytes (%v)", len(data), err)
		}
	})
}

func TestChordFileFlag(t *testing.T) {
	t.Cleanup(func() { chordFile = "" })

	path := filepath.Join(t.TempDir(), "chords.json")
	if err := os.WriteFile(path, []byte(`{"Xm": [[5, 2], [7, 3]]}`), 0644); err != nil {
		t.Fatalf("write chord file: %v", err)
	}

	out, err := run(t, "chords", "show", "Xm", "--chords", path)
	if err != nil {
		t.Fatalf("chords show error = %v", err)
	}
	if !strings.Contains(out, "string 2 fret 5") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.mid")

	c, _ := chord.DefaultTable().Get("C")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	chord.WriteMIDI(f, c)
	f.Close()

	out, err := run(t, "verify", path, "C")
	if err != nil {
		t.Fatalf("verify error = %v", err)
	}
	if !strings.Contains(out, "expected C") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := run(t, "verify", filepath.Join(dir, "take.mp3")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBrowserURL(t *testing.T) {
	if got := browserURL(":8080"); got != "http://localhost:8080/" {
		t.Errorf("browserURL(:8080) = %q", got)
	}
	if got := browserURL("10.0.0.2:9000"); got != "http://10.0.0.2:9000/" {
		t.Errorf("browserURL = %q", got)
	}
}
