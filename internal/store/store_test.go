package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/strumspace/strumspace/internal/chord"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"chords", "attempts", "session_results", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	var fk int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		t.Errorf("foreign keys should be enabled, got %d (%v)", fk, err)
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Settings().Set("k", "v")
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if v, _ := s.Settings().Get("k"); v != "v" {
		t.Errorf("expected persisted setting, got %q", v)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestChordRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Chords()

	c := &chord.Chord{
		ID:         "asus2",
		Name:       "A Suspended 2",
		Display:    "Asus2",
		Difficulty: chord.Intermediate,
		Positions:  []chord.Position{{Fret: 2, String: 4, Finger: 1}, {Fret: 2, String: 3, Finger: 2}},
		Tips:       "Leave the B string open.",
	}

	t.Run("save and get", func(t *testing.T) {
		if err := repo.Save(c); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		rec, err := repo.Get("asus2")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if rec.Chord.Display != "Asus2" || len(rec.Chord.Positions) != 2 || rec.Chord.Positions[1].Finger != 2 {
			t.Errorf("unexpected chord %+v", rec.Chord)
		}
	})

	t.Run("save replaces", func(t *testing.T) {
		c2 := *c
		c2.Positions = c2.Positions[:1]
		if err := repo.Save(&c2); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		recs, err := repo.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(recs) != 1 || len(recs[0].Chord.Positions) != 1 {
			t.Errorf("expected one replaced chord, got %d", len(recs))
		}
	})

	t.Run("invalid difficulty stored as beginner", func(t *testing.T) {
		if err := repo.Save(&chord.Chord{ID: "x", Display: "X", Difficulty: "legendary"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		rec, _ := repo.Get("x")
		if rec.Chord.Difficulty != chord.Beginner {
			t.Errorf("expected beginner, got %s", rec.Chord.Difficulty)
		}
	})

	t.Run("load into table", func(t *testing.T) {
		table := chord.DefaultTable()
		before := table.Len()
		n, err := repo.LoadInto(table)
		if err != nil {
			t.Fatalf("LoadInto() error = %v", err)
		}
		if n != 2 || table.Len() != before+2 {
			t.Errorf("expected 2 chords added, got n=%d len=%d", n, table.Len())
		}
		if len(table.Positions("Asus2")) != 1 {
			t.Error("expected stored chord in table")
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := repo.Get("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		if err := repo.Save(&chord.Chord{Display: "Q"}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestAttemptRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Attempts()

	attempts := []*Attempt{
		{SessionID: "s1", Expected: "Am", Detected: "C", Correct: false, Score: 0.72},
		{SessionID: "s1", Expected: "Am", Detected: "Am", Correct: true, Score: 0.93},
		{SessionID: "s2", Expected: "G", Detected: "Unknown", Correct: false},
	}
	for _, a := range attempts {
		if err := repo.Create(a); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if a.ID == 0 {
			t.Error("expected ID to be set")
		}
	}

	recent, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 || recent[0].Expected != "G" {
		t.Errorf("expected newest first, got %+v", recent)
	}

	s1, err := repo.ListBySession("s1")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(s1) != 2 || s1[0].Correct || !s1[1].Correct {
		t.Errorf("unexpected session attempts %+v", s1)
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if len(stats) != 2 || stats[0] != (ChordStats{Chord: "Am", Attempts: 2, Correct: 1}) {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestResultRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Results()

	started := time.Now().Add(-5 * time.Minute).Truncate(time.Second)
	res := &SessionResult{
		SessionID:  "s1",
		Difficulty: "beginner",
		Score:      40,
		Completed:  []string{"Am", "C", "G", "D"},
		StartedAt:  started,
	}
	if err := repo.Create(res); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(res); err == nil {
		t.Error("expected duplicate session to fail")
	}

	got, err := repo.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Score != 40 || len(got.Completed) != 4 || !got.StartedAt.Equal(started) {
		t.Errorf("unexpected result %+v", got)
	}

	repo.Create(&SessionResult{SessionID: "s2", Difficulty: "beginner", Score: 50, StartedAt: started})
	if best, _ := repo.Best("beginner"); best != 50 {
		t.Errorf("Best() = %d, want 50", best)
	}
	if best, _ := repo.Best("advanced"); best != 0 {
		t.Errorf("Best() for empty tier = %d, want 0", best)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSettingRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get(SettingDifficulty); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if v := repo.GetDefault(SettingDifficulty, "beginner"); v != "beginner" {
		t.Errorf("GetDefault() = %q", v)
	}

	repo.Set(SettingDifficulty, "advanced")
	repo.Set(SettingDifficulty, "intermediate")
	repo.Set(SettingGuidance, "on")

	all, err := repo.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 || all[SettingDifficulty] != "intermediate" {
		t.Errorf("unexpected settings %v", all)
	}
}
