package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marmos91/ingestd/internal/ingest"
)

// SessionController is the subset of the ingest engine's session manager
// that the control surface drives: start a new (or named) session, stop
// the active one, and report its current status.
type SessionController interface {
	StartSession(ctx context.Context, name string) (ingest.Status, error)
	StopSession(ctx context.Context) error
	Status() ingest.Status
	Ready() bool
}

// SessionHandler serves the control-surface routes for starting,
// stopping and inspecting the active ingest session.
type SessionHandler struct {
	controller SessionController
}

// NewSessionHandler creates a SessionHandler backed by controller.
func NewSessionHandler(controller SessionController) *SessionHandler {
	return &SessionHandler{controller: controller}
}

type startSessionRequest struct {
	Name string `json:"name,omitempty"`
}

type startSessionResponse struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// Start handles POST /v1/session/start.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	if err := ingest.ValidateSessionName(req.Name); err != nil {
		BadRequest(w, err.Error())
		return
	}

	status, err := h.controller.StartSession(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, ingest.ErrSessionActive) {
			Conflict(w, err.Error())
			return
		}
		InternalServerError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, startSessionResponse{
		Date: status.DatePrefix,
		Name: status.Name,
	})
}

// Stop handles POST /v1/session/stop.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.StopSession(r.Context()); err != nil {
		if errors.Is(err, ingest.ErrNoActiveSession) {
			Conflict(w, err.Error())
			return
		}
		InternalServerError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Active       bool   `json:"active"`
	Name         string `json:"name,omitempty"`
	ProcessedOK  int64  `json:"processed_ok"`
	ProcessedErr int64  `json:"processed_err"`
	LastError    string `json:"last_error,omitempty"`
}

// Status handles GET /v1/session/status.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	s := h.controller.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Active:       s.Active,
		Name:         s.Name,
		ProcessedOK:  s.ProcessedOK,
		ProcessedErr: s.ProcessedErr,
		LastError:    s.LastError,
	})
}

// Live handles GET /healthz/live — always 200 once the process is
// serving HTTP requests.
func (h *SessionHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

// Ready handles GET /healthz/ready — 200 once the ingest engine has
// finished startup recovery and its background loops are running.
func (h *SessionHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.controller.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
