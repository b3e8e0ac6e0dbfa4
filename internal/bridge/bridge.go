// Package bridge connects the door machine to the message bus.
//
// It consumes the door's request subject, runs each decoded request through
// the machine, and publishes every snapshot the machine produces to the
// state subject. Malformed payloads are dropped; rejected requests surface
// on the diagnostic subject. No inbound message is ever fatal.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/groblegark/doord/internal/codec"
	"github.com/groblegark/doord/internal/door"
	"github.com/groblegark/doord/internal/events"
	"github.com/groblegark/doord/internal/model"
	"github.com/groblegark/doord/internal/store"
)

// Rejection is the diagnostic payload published when a request is refused.
// Unlike door traffic it is JSON: it feeds dashboards and logs, not peers.
type Rejection struct {
	Door    string `json:"door"`
	Mode    string `json:"mode"`
	Session string `json:"session"`
	Reason  string `json:"reason"`
}

// Rejection reasons, also used as metric label values.
const (
	reasonBusy           = "busy"
	reasonInvalidRelease = "invalid_release"
	reasonMissingSession = "missing_session"
)

// Bridge wires one door machine to the bus.
type Bridge struct {
	machine *door.Machine
	sub     events.Subscriber
	pub     events.Publisher
	history store.Store
	logger  *slog.Logger
	metrics *Metrics
}

// New creates a bridge. history may be store.Noop{}; metrics may be nil to
// disable counting.
func New(machine *door.Machine, sub events.Subscriber, pub events.Publisher, history store.Store, logger *slog.Logger, metrics *Metrics) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		machine: machine,
		sub:     sub,
		pub:     pub,
		history: history,
		logger:  logger,
		metrics: metrics,
	}
}

// Run subscribes to the request subject and processes traffic until ctx is
// cancelled. The current snapshot is published on entry so late subscribers
// converge without waiting for the next transition.
func (b *Bridge) Run(ctx context.Context) error {
	doorID := b.machine.DoorID()

	reqCh, cancelSub, err := b.sub.Subscribe(events.RequestSubject(doorID))
	if err != nil {
		return fmt.Errorf("bridge: subscribe: %w", err)
	}
	defer cancelSub()

	stateCh, cancelWatch := b.machine.Watch()
	defer cancelWatch()

	b.logger.Info("bridge: started", "door", doorID)
	b.publishState(ctx, b.machine.Current())

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bridge: stopping", "door", doorID)
			return nil
		case raw, ok := <-reqCh:
			if !ok {
				b.logger.Info("bridge: request subscription closed", "door", doorID)
				return nil
			}
			b.handleRequest(ctx, raw)
		case st := <-stateCh:
			b.publishState(ctx, st)
		}
	}
}

func (b *Bridge) handleRequest(ctx context.Context, raw []byte) {
	req, err := codec.DecodeRequest(raw)
	if err != nil {
		b.logger.Warn("bridge: dropping undecodable request", "err", err)
		if b.metrics != nil {
			b.metrics.DecodeFailures.Inc()
		}
		return
	}

	// The wire format cannot express a missing session distinct from an
	// empty one; neither names a claim holder, so both are refused. The
	// HTTP ingress applies the same rule.
	if req.Session == "" {
		b.reject(ctx, req, reasonMissingSession)
		return
	}

	if _, err := b.machine.Apply(req); err != nil {
		reason := reasonInvalidRelease
		if errors.Is(err, door.ErrBusy) {
			reason = reasonBusy
		}
		b.reject(ctx, req, reason)
		return
	}
	if b.metrics != nil {
		b.metrics.RequestsAccepted.Inc()
	}
}

func (b *Bridge) reject(ctx context.Context, req *model.DoorRequest, reason string) {
	b.logger.Warn("bridge: request rejected",
		"door", b.machine.DoorID(),
		"mode", req.Mode.String(),
		"session", req.Session,
		"reason", reason)
	if b.metrics != nil {
		b.metrics.RequestsRejected.WithLabelValues(reason).Inc()
	}

	diag, err := json.Marshal(Rejection{
		Door:    b.machine.DoorID(),
		Mode:    req.Mode.String(),
		Session: req.Session,
		Reason:  reason,
	})
	if err != nil {
		return
	}
	if err := b.pub.Publish(ctx, events.RejectedSubject(b.machine.DoorID()), diag); err != nil {
		b.logger.Warn("bridge: publishing rejection diagnostic", "err", err)
	}
}

func (b *Bridge) publishState(ctx context.Context, st *model.DoorState) {
	doorID := b.machine.DoorID()

	data, err := codec.EncodeState(st)
	if err != nil {
		// Unreachable with a machine-produced snapshot; log and move on.
		b.logger.Error("bridge: encoding state", "err", err)
		return
	}
	if err := b.pub.Publish(ctx, events.StateSubject(doorID), data); err != nil {
		b.logger.Warn("bridge: publishing state", "err", err)
		return
	}
	if b.metrics != nil {
		b.metrics.StatesPublished.Inc()
	}

	if err := b.history.RecordTransition(ctx, &store.Transition{
		DoorID:     doorID,
		Status:     st.Status,
		Sessions:   st.Sessions,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		b.logger.Warn("bridge: recording transition", "err", err)
	}
}
