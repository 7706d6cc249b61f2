package web

import (
	"math"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/alumni/internal/core"
	"github.com/JonMunkholm/alumni/internal/database"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500

	// maxPage keeps (page-1)*pageSize inside int32 for every page size.
	maxPage = math.MaxInt32 / maxPageSize
)

type graduatesPage struct {
	Graduates []database.Graduate `json:"graduates"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	PageSize  int                 `json:"pageSize"`
}

func (s *Server) handleListGraduates(w http.ResponseWriter, r *http.Request) {
	page := min(parseIntParam(r, "page", 1), maxPage)
	pageSize := min(parseIntParam(r, "pageSize", defaultPageSize), maxPageSize)

	graduates, total, err := s.registry.ListGraduatesPage(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if graduates == nil {
		graduates = []database.Graduate{}
	}
	writeJSON(w, graduatesPage{Graduates: graduates, Total: total, Page: page, PageSize: pageSize})
}

func (s *Server) handleGetGraduate(w http.ResponseWriter, r *http.Request) {
	id, ok := graduateID(r)
	if !ok {
		s.fail(w, r, core.ErrNotFound)
		return
	}

	g, err := s.registry.GetGraduate(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, g)
}

// handleDeleteGraduate soft-deletes a record. Deleted records no longer
// match duplicates, so the same national ID can be imported again.
func (s *Server) handleDeleteGraduate(w http.ResponseWriter, r *http.Request) {
	id, ok := graduateID(r)
	if !ok {
		s.fail(w, r, core.ErrNotFound)
		return
	}

	if err := s.registry.SoftDeleteGraduate(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func graduateID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// parseIntParam reads a positive integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
