package fretboard

import "testing"

func TestZoneFret(t *testing.T) {
	tests := []struct {
		label  string
		want   int
		wantOK bool
	}{
		{"Zone1", 1, true},
		{"Zone12", 12, true},
		{"Zone0", 0, false},
		{"Zone13", 0, false},
		{"zone3", 0, false},
		{"Neck", 0, false},
		{"Zone", 0, false},
	}

	for _, tt := range tests {
		got, ok := ZoneFret(tt.label)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ZoneFret(%q) = (%d, %v), want (%d, %v)", tt.label, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestZoneLabels(t *testing.T) {
	labels := ZoneLabels()
	if len(labels) != NumFrets {
		t.Fatalf("expected %d labels, got %d", NumFrets, len(labels))
	}
	for i, l := range labels {
		fret, ok := ZoneFret(l)
		if !ok || fret != i+1 {
			t.Errorf("label %q does not round trip to fret %d", l, i+1)
		}
	}
}

func TestBuildFretBoxes(t *testing.T) {
	t.Run("drops low confidence and unknown labels", func(t *testing.T) {
		boxes := BuildFretBoxes([]Detection{
			{Label: "Zone1", Confidence: 0.9, Box: BoundingBox{100, 150, 200, 200}},
			{Label: "Zone2", Confidence: 0.5, Box: BoundingBox{200, 150, 300, 200}},
			{Label: "Zone3", Confidence: 0.2, Box: BoundingBox{300, 150, 400, 200}},
			{Label: "Headstock", Confidence: 0.99, Box: BoundingBox{0, 0, 10, 10}},
		})

		if len(boxes) != 1 {
			t.Fatalf("expected 1 fret box, got %d: %v", len(boxes), boxes)
		}
		if _, ok := boxes[1]; !ok {
			t.Error("expected fret 1 to be present")
		}
	})

	t.Run("later duplicate wins over a more confident one", func(t *testing.T) {
		later := BoundingBox{20, 0, 30, 10}
		boxes := BuildFretBoxes([]Detection{
			{Label: "Zone3", Confidence: 0.9, Box: BoundingBox{0, 0, 10, 10}},
			{Label: "Zone3", Confidence: 0.6, Box: later},
		})
		if boxes[3] != later {
			t.Errorf("expected %v, got %v", later, boxes[3])
		}
	})

	t.Run("later duplicate below threshold is ignored", func(t *testing.T) {
		first := BoundingBox{9, 9, 19, 19}
		boxes := BuildFretBoxes([]Detection{
			{Label: "Zone5", Confidence: 0.7, Box: first},
			{Label: "Zone5", Confidence: 0.5, Box: BoundingBox{1, 2, 3, 4}},
		})
		if boxes[5] != first {
			t.Errorf("expected %v, got %v", first, boxes[5])
		}
	})

	t.Run("empty input gives empty map", func(t *testing.T) {
		if boxes := BuildFretBoxes(nil); len(boxes) != 0 {
			t.Errorf("expected empty map, got %v", boxes)
		}
	})
}

func TestMerge(t *testing.T) {
	t.Run("unions boxes above threshold", func(t *testing.T) {
		box, ok := Merge([]Detection{
			{Label: "Zone1", Confidence: 0.45, Box: BoundingBox{100, 150, 200, 200}},
			{Label: "Zone2", Confidence: 0.8, Box: BoundingBox{190, 140, 290, 210}},
			{Label: "Zone3", Confidence: 0.1, Box: BoundingBox{0, 0, 1000, 1000}},
		})
		if !ok {
			t.Fatal("expected a merged box")
		}
		want := BoundingBox{100, 140, 290, 210}
		if box != want {
			t.Errorf("expected %v, got %v", want, box)
		}
	})

	t.Run("no detections", func(t *testing.T) {
		if _, ok := Merge(nil); ok {
			t.Error("expected no merged box")
		}
	})
}

func TestBoundingBox_Usable(t *testing.T) {
	if (BoundingBox{X1: 10, X2: 10}).Usable() {
		t.Error("zero width box should not be usable")
	}
	if (BoundingBox{X1: 20, X2: 10}).Usable() {
		t.Error("inverted box should not be usable")
	}
	if !(BoundingBox{X1: 10, X2: 11}).Usable() {
		t.Error("positive width box should be usable")
	}
}
