// Package door implements the authoritative actuator model.
//
// A Machine owns the current door snapshot and the claim registry, and is
// the only component that mutates either. All transitions are serialized
// behind a single mutex, so the bridge, the HTTP server, and the actuator
// timer can apply requests concurrently.
//
// Actuator travel is modeled with a configurable duration. With zero travel
// the MOVING phase completes synchronously, which is what the tests and the
// scenario semantics assume. With non-zero travel the machine stays MOVING
// until a timer fires; any request arriving mid-travel is rejected (OPEN
// with ErrBusy, RELEASE with ErrInvalidRelease). Nothing is queued.
package door

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/groblegark/doord/internal/model"
	"github.com/groblegark/doord/internal/registry"
)

// Rejection sentinels. Both are per-request and never fatal.
var (
	// ErrBusy rejects an OPEN while the actuator is travelling.
	ErrBusy = errors.New("door is busy")

	// ErrInvalidRelease rejects a RELEASE with no matching claim, or one
	// arriving while the actuator is travelling.
	ErrInvalidRelease = errors.New("no matching claim to release")
)

// watchBuffer is the per-watcher channel depth. Snapshots are dropped for a
// watcher that falls this far behind rather than blocking transitions.
const watchBuffer = 16

// Config configures a Machine.
type Config struct {
	// DoorID names the door this machine supervises.
	DoorID string

	// Travel is how long the actuator takes to move between CLOSED and
	// OPEN. Zero means motion completes within the triggering request.
	Travel time.Duration

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// Machine is the door state machine. Create one with New.
type Machine struct {
	doorID string
	travel time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	current *model.DoorState
	reg     *registry.Registry
	pending string // session awaiting claim while opening
	gen     uint64 // invalidates stale travel timers
	timer   *time.Timer

	watchMu  sync.RWMutex
	watchers map[chan *model.DoorState]struct{}
}

// New returns a machine in the initial CLOSED state with no claims.
func New(cfg Config) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		doorID:   cfg.DoorID,
		travel:   cfg.Travel,
		logger:   logger,
		current:  model.NewClosedState(),
		reg:      registry.New(),
		watchers: make(map[chan *model.DoorState]struct{}),
	}
}

// DoorID returns the door this machine supervises.
func (m *Machine) DoorID() string { return m.doorID }

// Current returns the latest snapshot.
func (m *Machine) Current() *model.DoorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Apply runs a request through the state machine. On acceptance it returns
// the snapshot the request settled on (the OPEN/CLOSED snapshot when travel
// is zero, the intermediate MOVING snapshot otherwise). On rejection it
// returns the unchanged current snapshot together with ErrBusy or
// ErrInvalidRelease.
func (m *Machine) Apply(req *model.DoorRequest) (*model.DoorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch req.Mode {
	case model.ModeOpen:
		return m.applyOpen(req.Session)
	case model.ModeRelease:
		return m.applyRelease(req.Session)
	}
	return m.current, ErrInvalidRelease
}

func (m *Machine) applyOpen(session string) (*model.DoorState, error) {
	switch m.current.Status {
	case model.StatusMoving:
		return m.current, ErrBusy

	case model.StatusOpen:
		// Join semantics: additional holders pile onto an open door.
		m.reg.Add(session)
		return m.transitionLocked(model.StatusOpen), nil

	case model.StatusClosed:
		m.pending = session
		m.transitionLocked(model.StatusMoving)
		if m.travel > 0 {
			m.scheduleArrivalLocked()
			return m.current, nil
		}
		return m.arriveOpenLocked(), nil
	}
	return m.current, ErrBusy
}

func (m *Machine) applyRelease(session string) (*model.DoorState, error) {
	if m.current.Status != model.StatusOpen || !m.reg.Contains(session) {
		return m.current, ErrInvalidRelease
	}

	m.reg.Remove(session)
	if !m.reg.IsEmpty() {
		return m.transitionLocked(model.StatusOpen), nil
	}

	m.transitionLocked(model.StatusMoving)
	if m.travel > 0 {
		m.scheduleArrivalLocked()
		return m.current, nil
	}
	return m.transitionLocked(model.StatusClosed), nil
}

// arriveOpenLocked completes an opening motion: the pending session becomes
// the first claim and the door settles OPEN.
func (m *Machine) arriveOpenLocked() *model.DoorState {
	if m.pending != "" {
		m.reg.Add(m.pending)
		m.pending = ""
	}
	return m.transitionLocked(model.StatusOpen)
}

// scheduleArrivalLocked arms the travel timer for the current motion. The
// destination is derived on arrival: a pending session means the door was
// opening, otherwise it was closing.
func (m *Machine) scheduleArrivalLocked() {
	m.gen++
	gen := m.gen
	m.timer = time.AfterFunc(m.travel, func() { m.arrive(gen) })
}

func (m *Machine) arrive(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A Stop since scheduling invalidates the timer.
	if gen != m.gen || m.current.Status != model.StatusMoving {
		return
	}

	if m.pending != "" {
		m.arriveOpenLocked()
	} else {
		m.transitionLocked(model.StatusClosed)
	}
}

// transitionLocked replaces the current snapshot with one reflecting the
// given status and the registry contents, fans it out to watchers, and
// returns it. This is the single place door state changes.
func (m *Machine) transitionLocked(status model.DoorStatus) *model.DoorState {
	st := &model.DoorState{Status: status}
	if status == model.StatusOpen {
		st.Sessions = m.reg.All()
	}
	m.current = st

	m.logger.Debug("door transition",
		"door", m.doorID,
		"status", status.String(),
		"holders", len(st.Sessions))

	m.watchMu.RLock()
	for ch := range m.watchers {
		select {
		case ch <- st:
		default:
			// Drop for slow watchers rather than stalling the machine.
		}
	}
	m.watchMu.RUnlock()

	return st
}

// Watch returns a channel receiving every snapshot the machine produces from
// now on. Call the cancel function to unregister and close the channel.
func (m *Machine) Watch() (<-chan *model.DoorState, func()) {
	ch := make(chan *model.DoorState, watchBuffer)

	m.watchMu.Lock()
	m.watchers[ch] = struct{}{}
	m.watchMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.watchMu.Lock()
			delete(m.watchers, ch)
			m.watchMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Stop cancels any in-flight travel timer. The machine remains usable; Stop
// exists so shutdown does not race a timer against teardown.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
