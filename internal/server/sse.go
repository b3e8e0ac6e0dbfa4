package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sseKeepaliveInterval is how often keepalive comments are sent to
// prevent connection timeouts.
const sseKeepaliveInterval = 15 * time.Second

// handleDoorStream handles GET /v1/door/stream: a server-sent-events feed of
// door snapshots. The current state is sent immediately so every consumer
// starts converged; each subsequent transition follows as a "state" event.
func (s *DoorServer) handleDoorStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, cancel := s.machine.Watch()
	defer cancel()

	// Initial snapshot. Watch only sees transitions from now on, so the
	// current state is written explicitly.
	if err := writeSSE(w, s.doorJSON(s.machine.Current())); err != nil {
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case st, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSE(w, s.doorJSON(st)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, payload doorResponse) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	return err
}
