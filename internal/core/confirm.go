package core

import (
	"context"

	"github.com/google/uuid"

	db "github.com/JonMunkholm/alumni/internal/database"
	"github.com/JonMunkholm/alumni/internal/logging"
)

// Confirm persists the given rows, typically the validRows of a preview plus
// any duplicates the user chose to keep. Every row is normalized and
// validated again since the caller may have edited it.
//
// Rows are inserted one at a time without a surrounding transaction: a
// failing row is reported in FailedRows and does not affect the others.
// Duplicates are not re-checked; the storage unique index on teudat_zehut is
// the only guard against a concurrent import of the same person.
func (s *Service) Confirm(ctx context.Context, rows []ImportRow) (*ConfirmResult, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger := logging.WithFields(ctx, "rows", len(rows))
	result := &ConfirmResult{
		BatchID:    uuid.NewString(),
		FailedRows: []FailedRow{},
	}

	fail := func(row int, errs ...string) {
		result.Failed++
		result.FailedRows = append(result.FailedRows, FailedRow{Row: row, Errors: errs})
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			// Report the rest as failed; what was inserted stays inserted.
			msg := FormatUserError(err)
			for _, rest := range rows[i:] {
				fail(rest.Row, msg)
			}
			logger.Warn("import confirm interrupted", "error", err, "remaining", len(rows)-i)
			break
		}

		data := NormalizeFields(row.Data)
		if errs := ValidateRow(data); len(errs) > 0 {
			fail(row.Row, errs...)
			continue
		}

		if _, err := s.store.InsertGraduate(ctx, data.InsertParams()); err != nil {
			logger.Warn("insert graduate failed", "row", row.Row, "error", err)
			fail(row.Row, FormatUserError(err))
			continue
		}
		result.Imported++
	}

	s.recordAudit(ctx, len(rows), result)

	logger.Info("import confirm",
		"batch_id", result.BatchID,
		"imported", result.Imported,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *Service) recordAudit(ctx context.Context, requested int, result *ConfirmResult) {
	if s.audit == nil {
		return
	}
	entry := db.ImportAudit{
		BatchID:   result.BatchID,
		Requested: requested,
		Imported:  result.Imported,
		Failed:    result.Failed,
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
	}
	// The import already happened; an audit failure must not turn it into an error.
	if err := s.audit.InsertImportAudit(context.WithoutCancel(ctx), entry); err != nil {
		logging.FromContext(ctx).Warn("record import audit failed", "batch_id", result.BatchID, "error", err)
	}
}
