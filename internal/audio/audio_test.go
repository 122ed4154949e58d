package audio

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/strumspace/strumspace/internal/chord"
)

func tone(keys ...uint8) Sample {
	return Synthesize(keys, RecordRate, RecordSeconds*RecordRate)
}

func TestChroma_SingleNote(t *testing.T) {
	// A5
	chroma, err := Chroma(context.Background(), tone(81))
	if err != nil {
		t.Fatalf("Chroma() error = %v", err)
	}
	if len(chroma) != 12 {
		t.Fatalf("expected 12 bins, got %d", len(chroma))
	}
	if math.Abs(chroma[9]-1) > 1e-9 {
		t.Errorf("expected A bin to be the peak, got %v", chroma)
	}
	for pc, v := range chroma {
		if pc != 9 && v > 0.5 {
			t.Errorf("unexpected energy %.2f in pitch class %d", v, pc)
		}
	}
}

func TestChroma_Silence(t *testing.T) {
	silent := Sample{Rate: RecordRate, Data: make([]float64, RecordRate)}
	if _, err := Chroma(context.Background(), silent); !errors.Is(err, ErrEmptySample) {
		t.Errorf("Chroma() error = %v, want ErrEmptySample", err)
	}

	v := NewChromaVerifier(chord.DefaultTable())
	if _, err := v.Verify(context.Background(), "Am", silent); !errors.Is(err, ErrEmptySample) {
		t.Errorf("Verify() error = %v, want ErrEmptySample", err)
	}
}

func TestChroma_Errors(t *testing.T) {
	if _, err := Chroma(context.Background(), Sample{Rate: RecordRate}); !errors.Is(err, ErrEmptySample) {
		t.Errorf("expected ErrEmptySample, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Chroma(ctx, tone(60)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMatch(t *testing.T) {
	t.Run("exact template", func(t *testing.T) {
		chroma := NewTemplate("", 9, 0, 4).Profile
		name, score := Match(chroma, DefaultTemplates(), DefaultThreshold)
		if name != "Am" || math.Abs(score-1) > 1e-9 {
			t.Errorf("expected Am with score 1, got %s %.3f", name, score)
		}
	})

	t.Run("below threshold", func(t *testing.T) {
		// a lone F# matches no triad well
		chroma := NewTemplate("", 6).Profile
		if name, _ := Match(chroma, DefaultTemplates(), DefaultThreshold); name != Unknown {
			t.Errorf("expected Unknown, got %s", name)
		}
	})

	t.Run("first template wins ties", func(t *testing.T) {
		tpls := []Template{NewTemplate("first", 0, 4, 7), NewTemplate("second", 0, 4, 7)}
		if name, _ := Match(NewTemplate("", 0, 4, 7).Profile, tpls, 0); name != "first" {
			t.Errorf("expected first, got %s", name)
		}
	})
}

func TestChromaVerifier_Triads(t *testing.T) {
	v := NewChromaVerifier(nil)

	tests := []struct {
		name string
		keys []uint8
	}{
		{"C", []uint8{72, 76, 79}},
		{"Am", []uint8{69, 72, 76}},
		{"Em", []uint8{76, 79, 83}},
		{"D", []uint8{74, 78, 81}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Verify(context.Background(), tt.name, tone(tt.keys...))
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if !res.Correct {
				t.Errorf("expected %s, detected %s (score %.2f)", tt.name, res.Detected, res.Score)
			}
		})
	}
}

func TestChromaVerifier_WrongChord(t *testing.T) {
	v := NewChromaVerifier(nil)
	res, err := v.Verify(context.Background(), "G", tone(72, 76, 79))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if res.Correct || res.Detected != "C" {
		t.Errorf("expected C detected and incorrect, got %+v", res)
	}
}

func TestChromaVerifier_ResolvesAliases(t *testing.T) {
	v := NewChromaVerifier(chord.DefaultTable())
	res, err := v.Verify(context.Background(), "A Minor", tone(69, 72, 76))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if res.Expected != "Am" || !res.Correct {
		t.Errorf("expected alias resolved to Am, got %+v", res)
	}
}

func TestTableTemplates(t *testing.T) {
	tpls := TableTemplates(DefaultTemplates(), chord.DefaultTable())
	if len(tpls) <= len(DefaultTemplates()) {
		t.Fatalf("expected table chords to add templates, got %d", len(tpls))
	}
	names := make(map[string]int)
	for _, tpl := range tpls {
		names[tpl.Name]++
	}
	if names["F"] != 1 || names["C"] != 1 {
		t.Errorf("expected one template each for F and C, got %v", names)
	}
}

func TestMockVerifier(t *testing.T) {
	m := NewMockVerifier()

	res, _ := m.Verify(context.Background(), "C", Sample{})
	if !res.Correct {
		t.Error("expected default mock to accept")
	}

	m.SetDetected("G")
	res, _ = m.Verify(context.Background(), "C", Sample{})
	if res.Correct || res.Detected != "G" {
		t.Errorf("unexpected result %+v", res)
	}

	m.SetError(errors.New("mic unplugged"))
	if _, err := m.Verify(context.Background(), "C", Sample{}); err == nil {
		t.Error("expected error")
	}
	if len(m.Calls()) != 3 {
		t.Errorf("expected 3 calls, got %d", len(m.Calls()))
	}
}

func writeWAV(t *testing.T, s Sample) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "take.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := EncodeWAV(f, s); err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	return path
}

func TestDecodeWAV(t *testing.T) {
	in := tone(72, 76, 79)
	path := writeWAV(t, in)

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	out, err := DecodeWAV(f)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if out.Rate != RecordRate || len(out.Data) != len(in.Data) {
		t.Fatalf("expected %d frames at %d Hz, got %d at %d", len(in.Data), RecordRate, len(out.Data), out.Rate)
	}
	for i := 0; i < 1000; i++ {
		if math.Abs(out.Data[i]-in.Data[i]) > 1e-3 {
			t.Fatalf("frame %d: got %f, want %f", i, out.Data[i], in.Data[i])
		}
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not riff data")))
	if !errors.Is(err, ErrUnsupportedSample) {
		t.Errorf("expected ErrUnsupportedSample, got %v", err)
	}
}

func TestDecodeMIDI(t *testing.T) {
	c, _ := chord.DefaultTable().Get("C")

	var buf bytes.Buffer
	if err := chord.WriteMIDI(&buf, c); err != nil {
		t.Fatalf("WriteMIDI() error = %v", err)
	}

	keys, err := MIDIKeys(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("MIDIKeys() error = %v", err)
	}
	want := make(map[uint8]bool)
	for _, k := range chord.MIDINotes(c) {
		want[k] = true
	}
	if len(keys) != len(want) {
		t.Errorf("expected %d keys, got %v", len(want), keys)
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("unexpected key %d", k)
		}
	}

	s, err := DecodeMIDI(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeMIDI() error = %v", err)
	}
	if s.Rate != RecordRate || len(s.Data) != RecordSeconds*RecordRate {
		t.Errorf("unexpected sample shape %d @ %d", len(s.Data), s.Rate)
	}

	if _, err := MIDIKeys(strings.NewReader("nope")); !errors.Is(err, ErrUnsupportedSample) {
		t.Errorf("expected ErrUnsupportedSample, got %v", err)
	}
}

func TestCommandRecorder(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	t.Run("parses wav from stdout", func(t *testing.T) {
		path := writeWAV(t, tone(69))
		r := NewCommandRecorder([]string{"cat", path}, time.Second)
		s, err := r.Record(context.Background())
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if s.Rate != RecordRate || len(s.Data) == 0 {
			t.Errorf("unexpected sample %d @ %d", len(s.Data), s.Rate)
		}
	})

	t.Run("command failure", func(t *testing.T) {
		r := NewCommandRecorder([]string{"cat", filepath.Join(t.TempDir(), "missing.wav")}, time.Second)
		if _, err := r.Record(context.Background()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		if _, err := exec.LookPath("sleep"); err != nil {
			t.Skip("sleep not available")
		}
		r := NewCommandRecorder([]string{"sleep", "5"}, 50*time.Millisecond)
		_, err := r.Record(context.Background())
		if err == nil || !strings.Contains(err.Error(), "timeout") {
			t.Errorf("expected timeout error, got %v", err)
		}
	})
}
