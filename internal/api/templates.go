package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scribemail/scribe/internal/metrics"
	"github.com/scribemail/scribe/internal/template"
)

// TemplateRequest is the request body for template create and update
type TemplateRequest struct {
	Name     *string `json:"name"`
	Subject  *string `json:"subject"`
	Body     *string `json:"body"`
	Category *string `json:"category"`
}

// RenderRequest is the request body for render and insert. Values
// override the active profile's variables key by key.
type RenderRequest struct {
	Values map[string]string `json:"values"`
}

// RenderResponse carries the substituted subject and body
type RenderResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ImportRequest wraps an import payload with its strategy
type ImportRequest struct {
	Strategy string          `json:"strategy"` // "merge" (default) or "replace"
	Data     json.RawMessage `json:"data"`
}

func importStrategy(name string) template.ImportStrategy {
	if name == "replace" {
		return template.ReplaceAll
	}
	return template.MergeSkipDuplicateByName
}

// handleListTemplates handles GET /api/v1/templates
// Supports ?q= for search and ?category= for filtering.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		s.sendJSON(w, http.StatusOK, s.templates.Search(q))
		return
	}
	if category := r.URL.Query().Get("category"); category != "" {
		s.sendJSON(w, http.StatusOK, s.templates.ByCategory(category))
		return
	}
	s.sendJSON(w, http.StatusOK, s.templates.All())
}

// handleCreateTemplate handles POST /api/v1/templates
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := s.templates.Create(deref(req.Name), deref(req.Subject), deref(req.Body), deref(req.Category))
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, t)
}

// handleGetTemplate handles GET /api/v1/templates/{id}
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t := s.templates.Get(chi.URLParam(r, "id"))
	if t == nil {
		s.sendError(w, http.StatusNotFound, "Template not found")
		return
	}
	s.sendJSON(w, http.StatusOK, t)
}

// handleUpdateTemplate handles PUT /api/v1/templates/{id}
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := s.templates.Update(chi.URLParam(r, "id"), template.UpdateFields{
		Name:     req.Name,
		Subject:  req.Subject,
		Body:     req.Body,
		Category: req.Category,
	})
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, t)
}

// handleDeleteTemplate handles DELETE /api/v1/templates/{id}
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ok, err := s.templates.Delete(chi.URLParam(r, "id"))
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	if !ok {
		s.sendError(w, http.StatusNotFound, "Template not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDuplicateTemplate handles POST /api/v1/templates/{id}/duplicate
func (s *Server) handleDuplicateTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.templates.Duplicate(chi.URLParam(r, "id"))
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, t)
}

// renderTemplate substitutes a template from the active profile plus the
// request's explicit values, resolving the dynamic verse and quote
// placeholders first so substitution cannot blank them.
func (s *Server) renderTemplate(r *http.Request, id string, req RenderRequest) (*RenderResponse, error) {
	t := s.templates.Get(id)
	if t == nil {
		return nil, template.ErrNotFound
	}

	subject := s.verses.ProcessSpecialVariables(r.Context(), t.Subject)
	body := s.verses.ProcessSpecialVariables(r.Context(), t.Body)

	values := s.profiles.VariableValues(t.Variables)
	for k, v := range req.Values {
		values[k] = v
	}

	return &RenderResponse{
		ID:      t.ID,
		Name:    t.Name,
		Subject: template.Substitute(subject, values),
		Body:    template.Substitute(body, values),
	}, nil
}

// handleRenderTemplate handles POST /api/v1/templates/{id}/render
func (s *Server) handleRenderTemplate(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeOptional(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rendered, err := s.renderTemplate(r, chi.URLParam(r, "id"), req)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}

	if t := s.templates.Get(rendered.ID); t != nil {
		metrics.IncTemplateRenders(t.Category)
	}
	s.sendJSON(w, http.StatusOK, rendered)
}

// handleInsertTemplate handles POST /api/v1/templates/{id}/insert.
// Insertion is a render that also bumps the usage counter.
func (s *Server) handleInsertTemplate(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeOptional(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rendered, err := s.renderTemplate(r, chi.URLParam(r, "id"), req)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}

	if err := s.templates.IncrementUsage(rendered.ID); err != nil {
		s.sendManagerError(w, err)
		return
	}
	metrics.IncTemplateInsertions()
	s.sendJSON(w, http.StatusOK, rendered)
}

// handleTemplateStats handles GET /api/v1/templates/stats
func (s *Server) handleTemplateStats(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.templates.Stats())
}

// handleTemplateStorage handles GET /api/v1/templates/storage
func (s *Server) handleTemplateStorage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.templates.StorageUsage()
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, usage)
}

// handleMostUsedTemplates handles GET /api/v1/templates/most-used
func (s *Server) handleMostUsedTemplates(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.sendError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	s.sendJSON(w, http.StatusOK, s.templates.MostUsed(limit))
}

// handleExportTemplates handles GET /api/v1/templates/export
func (s *Server) handleExportTemplates(w http.ResponseWriter, r *http.Request) {
	data, err := s.templates.Export()
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(data))
}

// handleImportTemplates handles POST /api/v1/templates/import
func (s *Server) handleImportTemplates(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	count, err := s.templates.Import(req.Data, importStrategy(req.Strategy))
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	metrics.AddTemplateImports(req.Strategy, count)
	s.sendJSON(w, http.StatusOK, CountResponse{Count: count})
}

// handlePrebuiltCategories handles GET /api/v1/templates/prebuilt
func (s *Server) handlePrebuiltCategories(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, template.PrebuiltCategories())
}

// handleImportPrebuilt handles POST /api/v1/templates/prebuilt/{category}
func (s *Server) handleImportPrebuilt(w http.ResponseWriter, r *http.Request) {
	count, err := s.templates.ImportPrebuilt(chi.URLParam(r, "category"))
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, CountResponse{Count: count})
}

// handleListCategories handles GET /api/v1/categories
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.templates.Categories())
}

// handleAddCategory handles POST /api/v1/categories
func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		s.sendError(w, http.StatusBadRequest, "name is required")
		return
	}

	if !s.templates.AddCategory(req.Name) {
		s.sendError(w, http.StatusConflict, "Category already exists")
		return
	}
	s.sendJSON(w, http.StatusCreated, s.templates.Categories())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// decodeOptional parses an optional JSON request body. An empty body is
// valid and leaves v untouched.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}
