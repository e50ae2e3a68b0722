package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scribemail/scribe/internal/profile"
)

// ProfileRequest is the request body for profile create and update
type ProfileRequest struct {
	Name      *string           `json:"name"`
	Variables map[string]string `json:"variables"`
	IsDefault *bool             `json:"isDefault"`
}

// handleListProfiles handles GET /api/v1/profiles
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.profiles.All())
}

// handleCreateProfile handles POST /api/v1/profiles
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	isDefault := req.IsDefault != nil && *req.IsDefault
	p, err := s.profiles.Create(deref(req.Name), req.Variables, isDefault)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, p)
}

// handleGetProfile handles GET /api/v1/profiles/{id}
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p := s.profiles.Get(chi.URLParam(r, "id"))
	if p == nil {
		s.sendError(w, http.StatusNotFound, "Profile not found")
		return
	}
	s.sendJSON(w, http.StatusOK, p)
}

// handleUpdateProfile handles PUT /api/v1/profiles/{id}
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := s.profiles.Update(chi.URLParam(r, "id"), profile.UpdateFields{
		Name:      req.Name,
		Variables: req.Variables,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, p)
}

// handleDeleteProfile handles DELETE /api/v1/profiles/{id}
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	ok, err := s.profiles.Delete(chi.URLParam(r, "id"))
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	if !ok {
		s.sendError(w, http.StatusNotFound, "Profile not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActiveProfile handles GET /api/v1/profiles/active
func (s *Server) handleActiveProfile(w http.ResponseWriter, r *http.Request) {
	p := s.profiles.Active()
	if p == nil {
		s.sendError(w, http.StatusNotFound, "No active profile")
		return
	}
	s.sendJSON(w, http.StatusOK, p)
}

// handleSetActiveProfile handles PUT /api/v1/profiles/active
func (s *Server) handleSetActiveProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		s.sendError(w, http.StatusBadRequest, "id is required")
		return
	}

	ok, err := s.profiles.SetActive(req.ID)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	if !ok {
		s.sendError(w, http.StatusNotFound, "Profile not found")
		return
	}
	s.sendJSON(w, http.StatusOK, s.profiles.Active())
}

// handleClearActiveProfile handles DELETE /api/v1/profiles/active
func (s *Server) handleClearActiveProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.ClearActive(); err != nil {
		s.sendManagerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateProfileVariables handles PUT /api/v1/profiles/{id}/variables
func (s *Server) handleUpdateProfileVariables(w http.ResponseWriter, r *http.Request) {
	var variables map[string]string
	if err := json.NewDecoder(r.Body).Decode(&variables); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ok, err := s.profiles.UpdateVariables(chi.URLParam(r, "id"), variables)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	if !ok {
		s.sendError(w, http.StatusNotFound, "Profile not found")
		return
	}
	s.sendJSON(w, http.StatusOK, s.profiles.Get(chi.URLParam(r, "id")))
}

// handleProfileStats handles GET /api/v1/profiles/stats
func (s *Server) handleProfileStats(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.profiles.Stats())
}

// handleExportProfiles handles GET /api/v1/profiles/export
func (s *Server) handleExportProfiles(w http.ResponseWriter, r *http.Request) {
	data, err := s.profiles.Export()
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(data))
}

// handleImportProfiles handles POST /api/v1/profiles/import
func (s *Server) handleImportProfiles(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	strategy := profile.MergeSkipDuplicateByName
	if req.Strategy == "replace" {
		strategy = profile.ReplaceAll
	}

	count, err := s.profiles.Import(req.Data, strategy)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, CountResponse{Count: count})
}
