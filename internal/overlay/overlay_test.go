package overlay

import (
	"reflect"
	"sync"
	"testing"

	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/fretboard"
)

var referenceBox = fretboard.BoundingBox{X1: 100, Y1: 150, X2: 200, Y2: 200}

func TestCompute_ReferenceGeometry(t *testing.T) {
	boxes := fretboard.FretBoxMap{1: referenceBox}

	t.Run("string 1 maps to the right edge", func(t *testing.T) {
		markers := Compute([]chord.Position{{Fret: 1, String: 1}}, boxes)
		if len(markers) != 1 {
			t.Fatalf("expected 1 marker, got %d", len(markers))
		}
		want := Marker{X: 200, Y: 175, Fret: 1, String: 1, Finger: 1}
		if markers[0] != want {
			t.Errorf("expected %+v, got %+v", want, markers[0])
		}
	})

	t.Run("string 6 maps to the left edge", func(t *testing.T) {
		markers := Compute([]chord.Position{{Fret: 1, String: 6}}, boxes)
		if len(markers) != 1 {
			t.Fatalf("expected 1 marker, got %d", len(markers))
		}
		if markers[0].X != 100 || markers[0].Y != 175 {
			t.Errorf("expected (100,175), got (%d,%d)", markers[0].X, markers[0].Y)
		}
	})

	t.Run("intermediate strings are evenly spaced", func(t *testing.T) {
		var positions []chord.Position
		for s := 1; s <= 6; s++ {
			positions = append(positions, chord.Position{Fret: 1, String: s})
		}
		markers := Compute(positions, boxes)
		wantX := []int{200, 180, 160, 140, 120, 100}
		for i, m := range markers {
			if m.X != wantX[i] {
				t.Errorf("string %d: expected x=%d, got %d", m.String, wantX[i], m.X)
			}
		}
	})
}

func TestCompute_Truncation(t *testing.T) {
	// width 7 gives spacing 1.4; string 3 -> col 3 -> 4.2 -> 4
	boxes := fretboard.FretBoxMap{2: {X1: 0, Y1: 0, X2: 7, Y2: 5}}
	markers := Compute([]chord.Position{{Fret: 2, String: 3}}, boxes)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if markers[0].X != 4 || markers[0].Y != 2 {
		t.Errorf("expected (4,2), got (%d,%d)", markers[0].X, markers[0].Y)
	}
}

func TestCompute_SkipsInvalid(t *testing.T) {
	t.Run("undetected fret", func(t *testing.T) {
		boxes := fretboard.FretBoxMap{1: referenceBox}
		markers := Compute([]chord.Position{{Fret: 2, String: 3}, {Fret: 3, String: 5}}, boxes)
		if len(markers) != 0 {
			t.Errorf("expected no markers, got %v", markers)
		}
	})

	t.Run("out of range strings", func(t *testing.T) {
		boxes := fretboard.FretBoxMap{1: referenceBox}
		for _, s := range []int{0, 7, -1} {
			markers := Compute([]chord.Position{{Fret: 1, String: s}}, boxes)
			if len(markers) != 0 {
				t.Errorf("string %d: expected no markers, got %v", s, markers)
			}
		}
	})

	t.Run("degenerate boxes", func(t *testing.T) {
		boxes := fretboard.FretBoxMap{
			1: {X1: 100, Y1: 150, X2: 100, Y2: 200},
			2: {X1: 200, Y1: 150, X2: 100, Y2: 200},
		}
		positions := []chord.Position{{Fret: 1, String: 1}, {Fret: 2, String: 6}}
		if markers := Compute(positions, boxes); len(markers) != 0 {
			t.Errorf("expected no markers, got %v", markers)
		}
	})

	t.Run("open string fret zero", func(t *testing.T) {
		boxes := fretboard.FretBoxMap{1: referenceBox}
		if markers := Compute([]chord.Position{{Fret: 0, String: 6}}, boxes); len(markers) != 0 {
			t.Errorf("expected no markers, got %v", markers)
		}
	})

	t.Run("nothing detected", func(t *testing.T) {
		markers := Compute([]chord.Position{{Fret: 1, String: 1}}, nil)
		if markers == nil || len(markers) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", markers)
		}
	})
}

func TestCompute_MixedChord(t *testing.T) {
	am := chord.DefaultTable().Positions("Am")
	boxes := fretboard.FretBoxMap{
		1: {X1: 100, Y1: 150, X2: 200, Y2: 200},
		2: {X1: 210, Y1: 150, X2: 310, Y2: 200},
	}

	markers := Compute(am, boxes)
	if len(markers) != len(am) {
		t.Fatalf("expected %d markers, got %d", len(am), len(markers))
	}
	for i, m := range markers {
		if m.Fret != am[i].Fret || m.String != am[i].String {
			t.Errorf("marker %d out of order: %+v", i, m)
		}
		if m.Finger != m.Fret {
			t.Errorf("marker %d: finger %d should equal fret %d", i, m.Finger, m.Fret)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	positions := chord.DefaultTable().Positions("F")
	boxes := fretboard.FretBoxMap{
		1: {X1: 10, Y1: 10, X2: 60, Y2: 40},
		2: {X1: 70, Y1: 12, X2: 125, Y2: 44},
		3: {X1: 130, Y1: 14, X2: 183, Y2: 47},
	}

	first := Compute(positions, boxes)
	second := Compute(positions, boxes)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical output, got %v and %v", first, second)
	}
}

func TestCompute_Concurrent(t *testing.T) {
	positions := chord.DefaultTable().Positions("C")
	boxes := fretboard.FretBoxMap{
		1: {X1: 100, Y1: 150, X2: 200, Y2: 200},
		2: {X1: 210, Y1: 150, X2: 310, Y2: 200},
		3: {X1: 320, Y1: 150, X2: 420, Y2: 200},
	}
	want := Compute(positions, boxes)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Compute(positions, boxes); !reflect.DeepEqual(got, want) {
				t.Errorf("concurrent result differs: %v", got)
			}
		}()
	}
	wg.Wait()
}
