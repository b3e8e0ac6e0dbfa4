package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/groblegark/doord/internal/bridge"
	"github.com/groblegark/doord/internal/codec"
	"github.com/groblegark/doord/internal/events"
	"github.com/groblegark/doord/internal/model"
)

// requestTimeout bounds how long a submit waits for the supervisor to settle.
const requestTimeout = 10 * time.Second

// submitRequest publishes a door request to the bus and waits until the
// supervisor either settles on a state reflecting it or rejects it.
func submitRequest(mode model.RequestMode, session string) (*model.DoorState, error) {
	sub, err := events.NewNATSSubscriber(natsURL, nil)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	stateCh, cancelState, err := sub.Subscribe(events.StateSubject(doorID))
	if err != nil {
		return nil, err
	}
	defer cancelState()

	rejectCh, cancelReject, err := sub.Subscribe(events.RejectedSubject(doorID))
	if err != nil {
		return nil, err
	}
	defer cancelReject()

	pub, err := events.NewNATSPublisher(natsURL)
	if err != nil {
		return nil, err
	}
	defer pub.Close()

	data, err := codec.EncodeRequest(&model.DoorRequest{Mode: mode, Session: session})
	if err != nil {
		return nil, err
	}
	if err := pub.Publish(context.Background(), events.RequestSubject(doorID), data); err != nil {
		return nil, err
	}
	if err := pub.Flush(); err != nil {
		return nil, err
	}

	deadline := time.After(requestTimeout)
	for {
		select {
		case raw, ok := <-stateCh:
			if !ok {
				return nil, fmt.Errorf("state subscription closed")
			}
			st, err := codec.DecodeState(raw)
			if err != nil {
				continue
			}
			if settled(st, mode, session) {
				return st, nil
			}
		case raw := <-rejectCh:
			var rej bridge.Rejection
			if err := json.Unmarshal(raw, &rej); err != nil {
				continue
			}
			if rej.Session == session {
				return nil, fmt.Errorf("request rejected: %s", rej.Reason)
			}
		case <-deadline:
			return nil, fmt.Errorf("timed out waiting for the supervisor")
		}
	}
}

// settled reports whether a state snapshot reflects the submitted request:
// an open request is settled once the session holds a claim, a release once
// the door is past MOVING and the claim is gone.
func settled(st *model.DoorState, mode model.RequestMode, session string) bool {
	holds := slices.Contains(st.Sessions, session)
	switch mode {
	case model.ModeOpen:
		return st.Status == model.StatusOpen && holds
	case model.ModeRelease:
		return st.Status != model.StatusMoving && !holds
	}
	return false
}
