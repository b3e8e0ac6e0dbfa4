// Package server exposes the door supervisor over HTTP: current state,
// transition history, a server-sent-events stream, and request submission
// for operators without bus access.
package server

import (
	"log/slog"

	"github.com/groblegark/doord/internal/door"
	"github.com/groblegark/doord/internal/store"
)

// DoorServer serves the HTTP API for one supervised door.
type DoorServer struct {
	machine *door.Machine
	history store.Store
	logger  *slog.Logger
}

// NewDoorServer creates a server around the given machine and history store.
func NewDoorServer(machine *door.Machine, history store.Store, logger *slog.Logger) *DoorServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DoorServer{
		machine: machine,
		history: history,
		logger:  logger,
	}
}
