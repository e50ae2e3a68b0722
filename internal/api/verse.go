package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scribemail/scribe/internal/verse"
)

// VerseResponse carries a resolved verse plus its display form
type VerseResponse struct {
	Key       string `json:"key,omitempty"`
	Text      string `json:"text"`
	Reference string `json:"reference"`
	Version   string `json:"version"`
	Formatted string `json:"formatted"`
}

// QuoteResponse carries a quote plus its display form
type QuoteResponse struct {
	Text      string `json:"text"`
	Author    string `json:"author"`
	Formatted string `json:"formatted"`
}

func verseResponse(key string, v verse.Verse) VerseResponse {
	return VerseResponse{
		Key:       key,
		Text:      v.Text,
		Reference: v.Reference,
		Version:   v.Version,
		Formatted: verse.FormatVerse(v),
	}
}

func quoteResponse(q verse.Quote) QuoteResponse {
	return QuoteResponse{
		Text:      q.Text,
		Author:    q.Author,
		Formatted: verse.FormatQuote(q),
	}
}

// handleVerseOfTheDay handles GET /api/v1/verse/today
func (s *Server) handleVerseOfTheDay(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, verseResponse("", s.verses.VerseOfTheDay(r.Context())))
}

// handleGetVerse handles GET /api/v1/verse/{key}
// Supports ?translation= to override the active preference.
func (s *Server) handleGetVerse(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	translation := r.URL.Query().Get("translation")
	if translation == "" {
		translation = s.verses.Translation()
	}

	v, err := s.verses.Resolve(r.Context(), key, translation)
	if err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, verseResponse(key, v))
}

// handleVerseKeys handles GET /api/v1/verse/keys
func (s *Server) handleVerseKeys(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, verse.Keys())
}

// handleGetTranslation handles GET /api/v1/verse/translation
func (s *Server) handleGetTranslation(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"translation": s.verses.Translation(),
		"available":   verse.Translations(),
	})
}

// handleSetTranslation handles PUT /api/v1/verse/translation
func (s *Server) handleSetTranslation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Translation string `json:"translation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Translation == "" {
		s.sendError(w, http.StatusBadRequest, "translation is required")
		return
	}

	known := false
	for _, t := range verse.Translations() {
		if t == req.Translation {
			known = true
			break
		}
	}
	if !known {
		s.sendError(w, http.StatusBadRequest, "Unknown translation")
		return
	}

	if err := s.verses.SetTranslation(req.Translation); err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]string{"translation": s.verses.Translation()})
}

// handleListCustomVerses handles GET /api/v1/verse/custom
func (s *Server) handleListCustomVerses(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.verses.CustomVerses())
}

// handleAddCustomVerse handles PUT /api/v1/verse/custom/{key}
func (s *Server) handleAddCustomVerse(w http.ResponseWriter, r *http.Request) {
	var v verse.Verse
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil || v.Text == "" {
		s.sendError(w, http.StatusBadRequest, "text is required")
		return
	}

	if err := s.verses.AddCustom(chi.URLParam(r, "key"), v); err != nil {
		s.sendManagerError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, s.verses.CustomVerses())
}

// handleDeleteCustomVerse handles DELETE /api/v1/verse/custom/{key}
func (s *Server) handleDeleteCustomVerse(w http.ResponseWriter, r *http.Request) {
	if err := s.verses.DeleteCustom(chi.URLParam(r, "key")); err != nil {
		s.sendManagerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportCustomVerses handles POST /api/v1/verse/custom/import
func (s *Server) handleImportCustomVerses(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	count, err := s.verses.ImportCustom(data)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.sendJSON(w, http.StatusOK, CountResponse{Count: count})
}

// handleVerseCache handles GET /api/v1/verse/cache
func (s *Server) handleVerseCache(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.verses.CacheStats())
}

// handleClearVerseCache handles DELETE /api/v1/verse/cache
func (s *Server) handleClearVerseCache(w http.ResponseWriter, r *http.Request) {
	if err := s.verses.ClearCache(); err != nil {
		s.sendManagerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleQuoteOfTheDay handles GET /api/v1/quote/today
func (s *Server) handleQuoteOfTheDay(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, quoteResponse(s.verses.QuoteOfTheDay()))
}

// handleRandomQuote handles GET /api/v1/quote/random
func (s *Server) handleRandomQuote(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, quoteResponse(s.verses.RandomQuote()))
}
