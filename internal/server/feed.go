package server

import (
	"sync"
	"time"

	"github.com/strumspace/strumspace/internal/overlay"
)

// OverlayMessage is pushed to websocket clients for every processed live frame.
type OverlayMessage struct {
	Chord     string           `json:"chord"`
	Markers   []overlay.Marker `json:"markers"`
	Score     int              `json:"score"`
	Complete  bool             `json:"complete"`
	Timestamp int64            `json:"timestamp"`
}

// Feed hands the live pipeline's output to HTTP clients. The pipeline
// publishes; stream and websocket handlers consume.
type Feed struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}

	overlays *OverlayHub
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{
		updated:  make(chan struct{}),
		overlays: NewOverlayHub(),
	}
}

// PublishFrame stores the latest JPEG frame and wakes waiting streams.
// The slice must not be modified afterwards.
func (f *Feed) PublishFrame(jpeg []byte) {
	f.mu.Lock()
	f.jpeg = jpeg
	f.seq++
	close(f.updated)
	f.updated = make(chan struct{})
	f.mu.Unlock()
}

// PublishOverlay broadcasts the markers for one frame.
func (f *Feed) PublishOverlay(msg OverlayMessage) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	f.overlays.Broadcast(msg)
}

// Overlays returns the websocket hub.
func (f *Feed) Overlays() *OverlayHub {
	return f.overlays
}

// frameAfter returns the newest frame if it is newer than seq. When there is
// none, it returns a channel that is closed on the next publish.
func (f *Feed) frameAfter(seq uint64) ([]byte, uint64, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seq > seq && f.jpeg != nil {
		return f.jpeg, f.seq, nil
	}
	return nil, seq, f.updated
}
