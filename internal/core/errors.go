package core

import (
	"errors"

	db "github.com/JonMunkholm/alumni/internal/database"
)

// File-level and request-level failures. Row-level problems are never
// returned as errors; they are reported inside PreviewResult and
// ConfirmResult.
var (
	ErrEmptyImport       = errors.New("empty import: no rows to import")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrEmptyFile         = errors.New("empty file")
	ErrInvalidFile       = errors.New("invalid file")

	// ErrNotFound is re-exported so callers of core do not import database.
	ErrNotFound = db.ErrNotFound
)
