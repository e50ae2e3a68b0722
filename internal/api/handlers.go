package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/scribemail/scribe/internal/profile"
	"github.com/scribemail/scribe/internal/signature"
	"github.com/scribemail/scribe/internal/store"
	"github.com/scribemail/scribe/internal/template"
	"github.com/scribemail/scribe/internal/verse"
)

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Templates int    `json:"templates"`
	Profiles  int    `json:"profiles"`
}

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// CountResponse reports how many records an import touched
type CountResponse struct {
	Count int `json:"count"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   "0.1.0",
		Uptime:    time.Since(s.startTime).String(),
		Templates: len(s.templates.All()),
		Profiles:  len(s.profiles.All()),
	})
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}

// sendManagerError maps manager errors onto HTTP statuses. The quota
// ceiling maps to 507 so clients can distinguish a full store from a
// transient failure.
func (s *Server) sendManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrQuotaExceeded):
		s.sendError(w, http.StatusInsufficientStorage, err.Error())
	case errors.Is(err, template.ErrNotFound),
		errors.Is(err, template.ErrUnknownPrebuiltCategory),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, signature.ErrNotFound),
		errors.Is(err, verse.ErrUnknownKey):
		s.sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, template.ErrMalformedImport),
		errors.Is(err, profile.ErrMalformedImport),
		errors.Is(err, signature.ErrMalformedImport):
		s.sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, signature.ErrLastSignature):
		s.sendError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Internal error")
	}
}
