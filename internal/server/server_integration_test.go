package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/strumspace/strumspace/internal/audio"
	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/detector"
	"github.com/strumspace/strumspace/internal/metrics"
	"github.com/strumspace/strumspace/internal/store"
)

func TestAPI_PracticeWorkflow(t *testing.T) {
	// Setup
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	table := chord.DefaultTable()
	verifier := audio.NewMockVerifier()
	m := metrics.New()

	srv := New(Config{
		Table:    table,
		Store:    s,
		Detector: detector.NewMockDetector(),
		Verifier: verifier,
		Metrics:  m,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()
	post := func(path, body string) *http.Response {
		t.Helper()
		resp, err := client.Post(ts.URL+path, "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("POST %s error = %v", path, err)
		}
		return resp
	}

	// 1. Store a custom chord
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/chords/Asus2",
		bytes.NewBufferString(`{"positions": [[2, 4], [2, 3]]}`))
	resp, err := client.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /api/chords/Asus2 failed: %v", err)
	}
	resp.Body.Close()
	if _, err := s.Chords().Get("asus2"); err != nil {
		t.Errorf("custom chord not persisted: %v", err)
	}

	// 2. Start a session
	resp = post("/api/sessions", `{"difficulty": "beginner"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/sessions status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created struct {
		ID           string `json:"id"`
		CurrentChord string `json:"current_chord"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.CurrentChord != "Am" {
		t.Errorf("current chord = %s, want Am", created.CurrentChord)
	}

	// 3. A wrong chord counts an attempt
	verifier.SetDetected("C")
	var midi bytes.Buffer
	c, _ := table.Get("Am")
	chord.WriteMIDI(&midi, c)
	body, _ := json.Marshal(map[string]string{"audio": encodeBase64(midi.Bytes()), "format": "midi"})

	resp = post("/api/sessions/"+created.ID+"/verify", string(body))
	var result struct {
		Correct   bool   `json:"correct"`
		Attempts  int    `json:"attempts"`
		NextChord string `json:"next_chord"`
		Score     int    `json:"score"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if result.Correct || result.Attempts != 1 || result.NextChord != "Am" {
		t.Errorf("unexpected wrong-chord result %+v", result)
	}

	// 4. The right chord advances
	verifier.SetDetected("")
	resp = post("/api/sessions/"+created.ID+"/verify", string(body))
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if !result.Correct || result.NextChord != "C" || result.Score != 10 {
		t.Errorf("unexpected correct result %+v", result)
	}

	// 5. History reflects both attempts
	resp, _ = client.Get(ts.URL + "/api/history")
	var history struct {
		Attempts []store.Attempt `json:"attempts"`
	}
	json.NewDecoder(resp.Body).Decode(&history)
	resp.Body.Close()
	if len(history.Attempts) != 2 || !history.Attempts[0].Correct {
		t.Errorf("unexpected history %+v", history.Attempts)
	}

	// 6. Health counts the session
	resp, _ = client.Get(ts.URL + "/api/health")
	var health healthResponse
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health.ActiveSessions != 1 || !health.Detector || !health.Verifier {
		t.Errorf("unexpected health %+v", health)
	}

	// 7. Delete the session
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+created.ID, nil)
	resp, _ = client.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if m.VerificationsCorrect.Load() != 1 || m.Verifications.Load() != 2 {
		t.Error("expected verification metrics")
	}
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
