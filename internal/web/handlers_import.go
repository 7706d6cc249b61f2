package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/alumni/internal/core"
	"github.com/go-chi/chi/v5"
)

const (
	// multipartOverhead allows for boundaries and part headers on top of
	// the file itself.
	multipartOverhead = 1 << 20

	// multipartMemory is the part of a form kept in memory before spilling
	// to temporary files.
	multipartMemory = 32 << 20
)

// handlePreview analyzes an uploaded file and returns the row buckets.
// Nothing is written to storage.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			s.fail(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err))
			return
		}
		s.fail(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, errNoFile)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.fail(w, r, fmt.Errorf("%w: %d bytes", core.ErrFileTooLarge, header.Size))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: read upload: %v", core.ErrInvalidFile, err))
		return
	}

	result, err := s.service.Preview(WithRequestMetadata(r.Context(), r), header.Filename, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, result)
}

type confirmRequest struct {
	RowsToImport []core.ImportRow `json:"rowsToImport"`
}

// handleConfirm persists the rows the client selected from a preview.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxFileSize())

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isBodyTooLarge(err) {
			s.fail(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err))
			return
		}
		s.fail(w, r, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	result, err := s.service.Confirm(WithRequestMetadata(r.Context(), r), req.RowsToImport)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, result)
}

// handleSample downloads the import template as csv or xlsx.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))

	data, contentType, err := core.Sample(format)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="graduates-sample.%s"`, format))
	_, _ = w.Write(data)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
