package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/strumspace/strumspace/internal/audio"
	"github.com/strumspace/strumspace/internal/frame"
)

// maxAudioBytes bounds an uploaded recording.
const maxAudioBytes = 10 << 20

var (
	errNoAudio          = errors.New("audio is required")
	errUnsupportedAudio = errors.New("unsupported audio format, use wav or midi")
)

type audioRequest struct {
	Audio  string `json:"audio"`
	Format string `json:"format"`
}

// readSample extracts the recording from a verify request. It accepts a
// multipart upload in the "audio" field or a JSON body carrying base64 data.
func readSample(w http.ResponseWriter, r *http.Request) (audio.Sample, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipartSample(r)
	}

	var req audioRequest
	if err := decodeJSON(r, &req); err != nil {
		return audio.Sample{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if req.Audio == "" {
		return audio.Sample{}, errNoAudio
	}
	data, err := frame.DecodeBase64(req.Audio)
	if err != nil {
		return audio.Sample{}, fmt.Errorf("invalid audio encoding: %w", err)
	}
	return decodeAudio(data, req.Format)
}

func readMultipartSample(r *http.Request) (audio.Sample, error) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		return audio.Sample{}, fmt.Errorf("invalid form: %w", err)
	}
	f, header, err := r.FormFile("audio")
	if err != nil {
		return audio.Sample{}, errNoAudio
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return audio.Sample{}, fmt.Errorf("read audio: %w", err)
	}

	format := r.FormValue("format")
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	}
	return decodeAudio(data, format)
}

// decodeAudio decodes data according to format. An empty format means WAV.
func decodeAudio(data []byte, format string) (audio.Sample, error) {
	switch strings.ToLower(format) {
	case "", "wav", "wave":
		s, err := audio.DecodeWAV(bytes.NewReader(data))
		if err != nil {
			return audio.Sample{}, fmt.Errorf("decode wav: %w", err)
		}
		return s, nil
	case "mid", "midi":
		s, err := audio.DecodeMIDI(bytes.NewReader(data))
		if err != nil {
			return audio.Sample{}, fmt.Errorf("decode midi: %w", err)
		}
		return s, nil
	}
	return audio.Sample{}, errUnsupportedAudio
}
