package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ndjsonWriter emits newline-delimited JSON events over a streaming response.
// It flushes after every event and enforces the stream contract: any number
// of status events, then exactly one terminal event, nothing after.
type ndjsonWriter struct {
	w        http.ResponseWriter
	flusher  http.Flusher
	enc      *json.Encoder
	terminal bool
}

func newNDJSONWriter(w http.ResponseWriter) *ndjsonWriter {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &ndjsonWriter{
		w:       w,
		flusher: flusher,
		enc:     json.NewEncoder(w),
	}
}

// Status emits a progress event. Dropped silently once a terminal event has
// been sent.
func (s *ndjsonWriter) Status(message string) {
	if s.terminal {
		return
	}
	s.emit(map[string]any{"type": "status", "message": message})
}

// Result emits the terminal success event.
func (s *ndjsonWriter) Result(auditID int64, url string, scores ScoresDTO, creditsRemaining int64) {
	if s.terminal {
		return
	}
	s.terminal = true
	s.emit(map[string]any{
		"type":             "result",
		"auditId":          auditID,
		"url":              url,
		"scores":           scores,
		"creditsRemaining": creditsRemaining,
	})
}

// Error emits the terminal error event with the HTTP-equivalent status code.
func (s *ndjsonWriter) Error(message string, status int) {
	if s.terminal {
		return
	}
	s.terminal = true
	s.emit(map[string]any{"type": "error", "error": message, "status": status})
}

// TerminalSent reports whether a terminal event has been emitted.
func (s *ndjsonWriter) TerminalSent() bool {
	return s.terminal
}

func (s *ndjsonWriter) emit(event any) {
	if err := s.enc.Encode(event); err != nil {
		slog.Debug("write stream event", "error", err)
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
