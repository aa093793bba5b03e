package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type labelRequest struct {
	Name string `json:"name"`
}

type colorDefinitionRequest struct {
	Name  string `json:"name"`
	Value string `json:"colorValue"`
}

// ListLabels handles GET /labels.
func (s *Server) ListLabels(w http.ResponseWriter, r *http.Request) {
	cat, err := s.taxonomy.Catalog(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat.Labels)
}

// CreateLabel handles POST /labels.
func (s *Server) CreateLabel(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := s.taxonomy.CreateLabel(r.Context(), req.Name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// DeleteLabel handles DELETE /labels/{id}.
func (s *Server) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	if err := s.taxonomy.DeleteLabel(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListColors handles GET /colors.
func (s *Server) ListColors(w http.ResponseWriter, r *http.Request) {
	cat, err := s.taxonomy.Catalog(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat.Colors)
}

// CreateColor handles POST /colors.
func (s *Server) CreateColor(w http.ResponseWriter, r *http.Request) {
	var req colorDefinitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.taxonomy.CreateColor(r.Context(), req.Name, req.Value)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// DeleteColor handles DELETE /colors/{id}.
func (s *Server) DeleteColor(w http.ResponseWriter, r *http.Request) {
	if err := s.taxonomy.DeleteColor(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
