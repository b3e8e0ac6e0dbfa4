package store

import (
	"context"
	"time"

	"github.com/groblegark/doord/internal/model"
)

// Transition is one recorded door state change.
type Transition struct {
	ID         int64            `json:"id"`
	DoorID     string           `json:"door_id"`
	Status     model.DoorStatus `json:"status"`
	Sessions   []string         `json:"sessions,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Store is the transition history log. Appends come from the bridge; reads
// serve the HTTP API and the sync exporter.
type Store interface {
	RecordTransition(ctx context.Context, t *Transition) error
	// ListTransitions returns the most recent transitions for a door,
	// newest first. limit <= 0 means no limit.
	ListTransitions(ctx context.Context, doorID string, limit int) ([]*Transition, error)
	Close() error
}

// Noop is a Store that records nothing (used when no database is configured).
type Noop struct{}

func (Noop) RecordTransition(ctx context.Context, t *Transition) error { return nil }

func (Noop) ListTransitions(ctx context.Context, doorID string, limit int) ([]*Transition, error) {
	return nil, nil
}

func (Noop) Close() error { return nil }
