package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var errStreamingUnsupported = errors.New("response writer does not support streaming")

type streamError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type streamComplete struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// SSEWriter emits Server-Sent Events with increasing ids, flushing after each one.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	lastID  int
}

// NewSSEWriter commits a 200 event-stream response.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends data as JSON under the given event name.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	s.lastID++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.lastID, event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event. Write failures are dropped; the client is gone.
func (s *SSEWriter) WriteError(code, message string) {
	_ = s.WriteEvent("error", streamError{Error: code, Message: message})
}

// WriteComplete sends the terminal event of a stream.
func (s *SSEWriter) WriteComplete(runID, status string) {
	_ = s.WriteEvent("complete", streamComplete{RunID: runID, Status: status})
}
