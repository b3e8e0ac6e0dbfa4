package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/groblegark/doord/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version         string    `json:"version"`
	Type            string    `json:"type"`
	Door            string    `json:"door"`
	Timestamp       time.Time `json:"timestamp"`
	TransitionCount int       `json:"transition_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes the full transition log for a door as JSONL to w,
// oldest first.
func ExportJSONL(ctx context.Context, s store.Store, doorID string, w io.Writer) error {
	transitions, err := s.ListTransitions(ctx, doorID, 0)
	if err != nil {
		return fmt.Errorf("list transitions: %w", err)
	}

	// The store returns newest first; the export reads oldest first.
	for i, j := 0, len(transitions)-1; i < j; i, j = i+1, j-1 {
		transitions[i], transitions[j] = transitions[j], transitions[i]
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:         "1",
		Type:            "header",
		Door:            doorID,
		Timestamp:       time.Now().UTC(),
		TransitionCount: len(transitions),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, t := range transitions {
		if err := enc.Encode(record{Type: "transition", Data: t}); err != nil {
			return fmt.Errorf("encode transition %d: %w", t.ID, err)
		}
	}

	return nil
}
