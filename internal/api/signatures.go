package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scribemail/scribe/internal/metrics"
	"github.com/scribemail/scribe/internal/signature"
)

// SignatureRequest is the request body for signature create and update
type SignatureRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	HTML        *string `json:"html"`
}

// RenderedSignatureResponse carries a fully processed signature body
type RenderedSignatureResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	HTML string `json:"html"`
}

// handleListSignatures handles GET /api/v1/signatures
// Supports ?category= for filtering.
func (s *Server) handleListSignatures(w http.ResponseWriter, r *http.Request) {
	if category := r.URL.Query().Get("category"); category != "" {
		s.sendJSON(w, http.StatusOK, s.signatures.ByCategory(category))
		return
	}
	s.sendJSON(w, http.StatusOK, s.signatures.All())
}

// handleAddSignature handles POST /api/v1/signatures
func (s *Server) handleAddSignature(w http.ResponseWriter, r *http.Request) {
	var req SignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sig, err := s.signatures.Add(deref(req.Name), deref(req.Description), deref(req.Category), deref(req.HTML))
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, sig)
}

// handleGetSignature handles GET /api/v1/signatures/{id}
func (s *Server) handleGetSignature(w http.ResponseWriter, r *http.Request) {
	sig := s.signatures.Get(chi.URLParam(r, "id"))
	if sig == nil {
		s.sendError(w, http.StatusNotFound, "Signature not found")
		return
	}
	s.sendJSON(w, http.StatusOK, sig)
}

// handleUpdateSignature handles PUT /api/v1/signatures/{id}
func (s *Server) handleUpdateSignature(w http.ResponseWriter, r *http.Request) {
	var req SignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sig, err := s.signatures.Update(chi.URLParam(r, "id"), signature.UpdateFields{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		HTML:        req.HTML,
	})
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, sig)
}

// handleDeleteSignature handles DELETE /api/v1/signatures/{id}
func (s *Server) handleDeleteSignature(w http.ResponseWriter, r *http.Request) {
	ok, err := s.signatures.Delete(chi.URLParam(r, "id"))
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	if !ok {
		s.sendError(w, http.StatusNotFound, "Signature not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActiveSignature handles GET /api/v1/signatures/active
func (s *Server) handleActiveSignature(w http.ResponseWriter, r *http.Request) {
	sig := s.signatures.Active()
	if sig == nil {
		s.sendError(w, http.StatusNotFound, "No active signature")
		return
	}
	s.sendJSON(w, http.StatusOK, sig)
}

// handleSetActiveSignature handles PUT /api/v1/signatures/active
func (s *Server) handleSetActiveSignature(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		s.sendError(w, http.StatusBadRequest, "id is required")
		return
	}

	ok, err := s.signatures.SetActive(req.ID)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	if !ok {
		s.sendError(w, http.StatusNotFound, "Signature not found")
		return
	}
	s.sendJSON(w, http.StatusOK, s.signatures.Active())
}

// handleRenderedSignature handles GET /api/v1/signatures/{id}/rendered
func (s *Server) handleRenderedSignature(w http.ResponseWriter, r *http.Request) {
	s.renderSignature(w, r, chi.URLParam(r, "id"))
}

// handleRenderedActiveSignature handles GET /api/v1/signatures/rendered
func (s *Server) handleRenderedActiveSignature(w http.ResponseWriter, r *http.Request) {
	s.renderSignature(w, r, "")
}

func (s *Server) renderSignature(w http.ResponseWriter, r *http.Request, id string) {
	html, err := s.signatures.Processed(r.Context(), id)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}

	sig := s.signatures.Active()
	if id != "" {
		sig = s.signatures.Get(id)
	}
	metrics.IncSignatureRenders()
	s.sendJSON(w, http.StatusOK, RenderedSignatureResponse{
		ID:   sig.ID,
		Name: sig.Name,
		HTML: html,
	})
}

// handleGetUserProfile handles GET /api/v1/signatures/user-profile
func (s *Server) handleGetUserProfile(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.signatures.UserProfileRecord())
}

// handleUpdateUserProfile handles PUT /api/v1/signatures/user-profile
func (s *Server) handleUpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.signatures.UpdateUserProfile(updates); err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, s.signatures.UserProfileRecord())
}

// handleExportSignatures handles GET /api/v1/signatures/export
func (s *Server) handleExportSignatures(w http.ResponseWriter, r *http.Request) {
	data, err := s.signatures.Export()
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(data))
}

// handleImportSignatures handles POST /api/v1/signatures/import
func (s *Server) handleImportSignatures(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	count, err := s.signatures.Import(req.Data)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, CountResponse{Count: count})
}
