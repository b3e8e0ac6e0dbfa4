package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/groblegark/doord/internal/door"
	"github.com/groblegark/doord/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health and /metrics)
// must include a valid Authorization: Bearer <token> header.
func (s *DoorServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/door", s.handleGetDoor)
	mux.HandleFunc("GET /v1/door/stream", s.handleDoorStream)
	mux.HandleFunc("GET /v1/transitions", s.handleListTransitions)
	mux.HandleFunc("POST /v1/door/open", s.handleOpen)
	mux.HandleFunc("POST /v1/door/release", s.handleRelease)
	mux.Handle("GET /metrics", promhttp.Handler())
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *DoorServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// doorResponse is the JSON shape for door state endpoints.
type doorResponse struct {
	Door     string   `json:"door"`
	Status   string   `json:"status"`
	Sessions []string `json:"sessions,omitempty"`
}

func (s *DoorServer) doorJSON(st *model.DoorState) doorResponse {
	return doorResponse{
		Door:     s.machine.DoorID(),
		Status:   st.Status.String(),
		Sessions: st.Sessions,
	}
}

// handleGetDoor handles GET /v1/door.
func (s *DoorServer) handleGetDoor(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.doorJSON(s.machine.Current()))
}

// requestBody is the JSON body for open/release submissions.
type requestBody struct {
	Session string `json:"session"`
}

// handleOpen handles POST /v1/door/open.
func (s *DoorServer) handleOpen(w http.ResponseWriter, r *http.Request) {
	s.applyRequest(w, r, model.ModeOpen)
}

// handleRelease handles POST /v1/door/release.
func (s *DoorServer) handleRelease(w http.ResponseWriter, r *http.Request) {
	s.applyRequest(w, r, model.ModeRelease)
}

func (s *DoorServer) applyRequest(w http.ResponseWriter, r *http.Request, mode model.RequestMode) {
	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Session == "" {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	st, err := s.machine.Apply(&model.DoorRequest{Mode: mode, Session: body.Session})
	switch {
	case errors.Is(err, door.ErrBusy):
		writeError(w, http.StatusConflict, "door is busy")
		return
	case errors.Is(err, door.ErrInvalidRelease):
		writeError(w, http.StatusUnprocessableEntity, "no matching claim to release")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.doorJSON(st))
}

// handleListTransitions handles GET /v1/transitions?limit=N.
func (s *DoorServer) handleListTransitions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	transitions, err := s.history.ListTransitions(r.Context(), s.machine.DoorID(), limit)
	if err != nil {
		s.logger.Error("listing transitions", "err", err)
		writeError(w, http.StatusInternalServerError, "listing transitions failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transitions": transitions})
}

// AuthMiddleware enforces bearer-token auth when token is non-empty.
// Health and metrics stay reachable for probes and scrapers.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && (r.URL.Path == "/v1/health" || r.URL.Path == "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "invalid authorization scheme")
			return
		}

		provided := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
