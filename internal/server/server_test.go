package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strumspace/strumspace/internal/metrics"
	"github.com/strumspace/strumspace/internal/overlay"
)

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("reports library and collaborators", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("health status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("health content type = %s", ct)
		}

		var health healthResponse
		if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
			t.Fatalf("decode health: %v", err)
		}
		if health.Status != "ok" || health.Uptime == "" {
			t.Errorf("unexpected health %+v", health)
		}
		if health.ActiveSessions != 0 || health.Chords == 0 {
			t.Errorf("expected an idle server with the built-in library, got %+v", health)
		}
	})

	t.Run("rejects writes", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodDelete} {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s /api/health = %d, want 405", method, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_CORS(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected CORS header '*', got %q", got)
	}
}

func TestServer_OptionalRoutes(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/metrics", "/api/history", "/api/stream"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 without collaborators, got %d", path, rec.Code)
		}
	}
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.New()
	m.FramesProcessed.Add(3)
	s := New(Config{Metrics: m})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "strumspace_frames_processed_total 3") {
		t.Errorf("expected frames metric in output:\n%s", rec.Body.String())
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	pages := map[string]string{
		"index.html": "<html><body>practice</body></html>",
		"app.js":     "connectOverlay();",
	}
	for name, body := range pages {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	s := New(Config{StaticDir: dir})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, pages["index.html"]},
		{"/app.js", http.StatusOK, pages["app.js"]},
		{"/missing.css", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("GET %s = %d, want %d", tt.path, rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("GET %s body = %q", tt.path, rec.Body.String())
			}
		})
	}

	t.Run("API routes take precedence", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tiers", nil))
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON from API route, got %s", rec.Header().Get("Content-Type"))
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestStreamHandler(t *testing.T) {
	feed := NewFeed()
	ts := httptest.NewServer(New(Config{Feed: feed}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("unexpected Content-Type %s", ct)
	}

	feed.PublishFrame([]byte("jpegdata"))

	r := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 5 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	if lines[0] != "--frame" || lines[1] != "Content-Type: image/jpeg" || lines[2] != "Content-Length: 8" {
		t.Errorf("unexpected part header %q", lines[:3])
	}
	if lines[4] != "jpegdata" {
		t.Errorf("unexpected frame body %q", lines[4])
	}
}

func TestFeed_FrameAfter(t *testing.T) {
	feed := NewFeed()

	jpeg, seq, wait := feed.frameAfter(0)
	if jpeg != nil || wait == nil {
		t.Fatal("expected to wait on an empty feed")
	}

	feed.PublishFrame([]byte{1})
	select {
	case <-wait:
	case <-time.After(time.Second):
		t.Fatal("publish should wake waiters")
	}

	jpeg, seq, _ = feed.frameAfter(seq)
	if len(jpeg) != 1 || seq != 1 {
		t.Errorf("expected frame 1, got %v seq %d", jpeg, seq)
	}
	if jpeg, _, _ = feed.frameAfter(seq); jpeg != nil {
		t.Error("expected no newer frame")
	}
}

func TestOverlayHub_Broadcast(t *testing.T) {
	feed := NewFeed()
	ts := httptest.NewServer(New(Config{Feed: feed}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/overlay/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for feed.Overlays().Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	feed.PublishOverlay(OverlayMessage{
		Chord:   "Am",
		Markers: []overlay.Marker{{X: 164, Y: 220, Fret: 1, String: 2, Finger: 1}},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg OverlayMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Chord != "Am" || len(msg.Markers) != 1 || msg.Timestamp == 0 {
		t.Errorf("unexpected message %+v", msg)
	}
}
