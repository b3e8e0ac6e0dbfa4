package model

import "slices"

// DoorStatus is the physical actuator state. The numeric values match the
// wire enum (MOVING is the zero value for forward compatibility).
type DoorStatus int32

const (
	StatusMoving DoorStatus = 0
	StatusClosed DoorStatus = 1
	StatusOpen   DoorStatus = 2
)

// String returns the string representation of the status.
func (s DoorStatus) String() string {
	switch s {
	case StatusMoving:
		return "moving"
	case StatusClosed:
		return "closed"
	case StatusOpen:
		return "open"
	}
	return "unknown"
}

// IsValid checks whether the status is a known value.
func (s DoorStatus) IsValid() bool {
	switch s {
	case StatusMoving, StatusClosed, StatusOpen:
		return true
	}
	return false
}

// RequestMode selects the operation a DoorRequest asks for.
type RequestMode int32

const (
	ModeOpen    RequestMode = 0
	ModeRelease RequestMode = 1
)

// String returns the string representation of the mode.
func (m RequestMode) String() string {
	switch m {
	case ModeOpen:
		return "open"
	case ModeRelease:
		return "release"
	}
	return "unknown"
}

// IsValid checks whether the mode is a known value.
func (m RequestMode) IsValid() bool {
	return m == ModeOpen || m == ModeRelease
}

// DoorState is an immutable snapshot of the actuator: its status and the
// sessions currently holding it open. Sessions is non-empty only when
// Status is StatusOpen. Snapshots are never mutated in place; each accepted
// transition produces a new one.
type DoorState struct {
	Status   DoorStatus `json:"status"`
	Sessions []string   `json:"sessions,omitempty"`
}

// NewClosedState returns the initial snapshot every door starts from.
func NewClosedState() *DoorState {
	return &DoorState{Status: StatusClosed}
}

// Equal reports whether two snapshots carry the same status and the same
// session sequence in the same order.
func (s *DoorState) Equal(o *DoorState) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Status == o.Status && slices.Equal(s.Sessions, o.Sessions)
}

// Clone returns a deep copy. Useful when a caller needs to hold a snapshot
// across further transitions.
func (s *DoorState) Clone() *DoorState {
	if s == nil {
		return nil
	}
	out := &DoorState{Status: s.Status}
	if len(s.Sessions) > 0 {
		out.Sessions = slices.Clone(s.Sessions)
	}
	return out
}

// DoorRequest asks the supervisor to open the door for a session or release
// that session's claim. Requests are consumed once and never persisted.
type DoorRequest struct {
	Mode    RequestMode `json:"mode"`
	Session string      `json:"session"`
}
