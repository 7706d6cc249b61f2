// Package core implements the graduate bulk import: turning an uploaded
// spreadsheet into a preview, and committing the rows the user approved.
//
// The package is independent of HTTP. The web handlers and the importctl
// command both drive the same [Service].
//
// # Pipeline
//
//  1. [ParseFile] reads CSV or XLSX into raw records.
//  2. The header row is located and a [Normalizer] maps its columns onto
//     canonical field names (Hebrew and English titles are accepted).
//  3. Each record becomes an [ImportRow]; [ValidateRow] collects every
//     failing field check.
//  4. Valid rows are looked up in a [Matcher] built from the active
//     graduates, using the ordered [MatchRule] list.
//
// [Service.Preview] runs steps 1-4 and returns a [PreviewResult] without
// writing anything. [Service.Confirm] re-normalizes and re-validates the
// rows it is given and inserts them individually.
//
// # Error Handling
//
// File-level failures are returned as errors wrapping one of the sentinel
// errors ([ErrUnsupportedFormat], [ErrFileTooLarge], [ErrEmptyFile],
// [ErrInvalidFile], [ErrEmptyImport]). Row-level failures are data.
// [MapError] converts technical errors into a Hebrew [UserMessage] with a
// support code.
package core
