package core

// preview.go classifies every row of an uploaded file without writing
// anything. Each data row lands in exactly one of three buckets:
//
//	errorRows      at least one field check failed
//	duplicateRows  valid, but collides with an active graduate
//	validRows      valid and new
//
// Fully blank rows are counted in totalRows and skippedRows only.

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/alumni/internal/logging"
)

// ctxCheckInterval is how many rows are processed between context checks.
const ctxCheckInterval = 1000

// Preview parses, normalizes, validates and duplicate-checks an uploaded
// file. File-level problems (format, size, unreadable content) are returned
// as errors; row-level problems are part of the result.
func (s *Service) Preview(ctx context.Context, fileName string, data []byte) (*PreviewResult, error) {
	start := time.Now()

	if _, err := FormatOf(fileName); err != nil {
		return nil, err
	}
	if size := int64(len(data)); size > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, size, s.maxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	table, err := ParseFile(fileName, data)
	if err != nil {
		return nil, err
	}

	result, err := s.previewTable(ctx, table)
	if err != nil {
		return nil, err
	}
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	logging.FromContext(ctx).Info("import preview",
		"file", fileName,
		"format", table.Format,
		"total", result.Summary.TotalRows,
		"valid", result.Summary.ValidRows,
		"errors", result.Summary.ErrorRows,
		"duplicates", result.Summary.DuplicateRows,
		"skipped", result.Summary.SkippedRows,
		"duration_ms", result.ProcessingTimeMs,
	)
	return result, nil
}

func (s *Service) previewTable(ctx context.Context, table *Table) (*PreviewResult, error) {
	headerIdx := findHeader(table.Records)
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}
	header := table.Records[headerIdx]
	normalizer, mapping := NewNormalizer(header.Cells)

	existing, err := s.store.ListActiveGraduates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing graduates: %w", err)
	}
	matcher := NewMatcher(s.rules, existing)

	result := &PreviewResult{
		ValidRows:     []ImportRow{},
		ErrorRows:     []ValidationError{},
		DuplicateRows: []DuplicateMatch{},
		FieldMapping:  mapping,
	}
	sum := &result.Summary

	for i, rec := range table.Records[headerIdx+1:] {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		sum.TotalRows++
		if isEmptyRow(rec.Cells) {
			sum.SkippedRows++
			continue
		}

		row := normalizer.Normalize(rec.Line-header.Line, rec)

		if errs := ValidateRow(row.Data); len(errs) > 0 {
			result.ErrorRows = append(result.ErrorRows, ValidationError{
				Row:    row.Row,
				Data:   row.Data,
				Errors: errs,
			})
			continue
		}

		if id, fields, dup := matcher.Match(row.Data); dup {
			result.DuplicateRows = append(result.DuplicateRows, DuplicateMatch{
				Row:         row.Row,
				Data:        row.Data,
				DuplicateID: id,
				MatchFields: fields,
			})
			continue
		}

		result.ValidRows = append(result.ValidRows, row)
	}

	sum.ValidRows = len(result.ValidRows)
	sum.ErrorRows = len(result.ErrorRows)
	sum.DuplicateRows = len(result.DuplicateRows)
	return result, nil
}

// findHeader returns the index of the header record: the first of the
// leading MaxHeaderSearchRows records that contains a recognized column
// title, else the first non-blank record. -1 means the file has no content.
func findHeader(records []Record) int {
	firstNonBlank := -1
	for i, rec := range records {
		if i >= MaxHeaderSearchRows {
			break
		}
		if isEmptyRow(rec.Cells) {
			continue
		}
		if firstNonBlank < 0 {
			firstNonBlank = i
		}
		for _, cell := range rec.Cells {
			if _, ok := LookupHeader(cell); ok {
				return i
			}
		}
	}
	if firstNonBlank < 0 {
		// Blank lead-in longer than the search window.
		for i := MaxHeaderSearchRows; i < len(records); i++ {
			if !isEmptyRow(records[i].Cells) {
				return i
			}
		}
	}
	return firstNonBlank
}
