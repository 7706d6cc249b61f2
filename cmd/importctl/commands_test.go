package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/alumni/internal/core"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSampleThenPreviewThenConfirm(t *testing.T) {
	dir := t.TempDir()
	db := "sqlite:" + filepath.Join(dir, "alumni.db")
	samplePath := filepath.Join(dir, "sample.xlsx")

	if _, err := run(t, "sample", "xlsx", "-o", samplePath); err != nil {
		t.Fatalf("sample: %v", err)
	}

	out, err := run(t, "preview", samplePath, "--db", db)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	var preview core.PreviewResult
	if err := json.Unmarshal([]byte(out), &preview); err != nil {
		t.Fatalf("preview output is not JSON: %v\n%s", err, out)
	}
	if preview.Summary.ValidRows == 0 || preview.Summary.ErrorRows != 0 {
		t.Fatalf("preview summary = %+v", preview.Summary)
	}

	previewPath := filepath.Join(dir, "preview.json")
	if err := os.WriteFile(previewPath, []byte(out), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err = run(t, "confirm", previewPath, "--db", db)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	var res core.ConfirmResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("confirm output is not JSON: %v\n%s", err, out)
	}
	if res.Imported != preview.Summary.ValidRows || res.Failed != 0 {
		t.Errorf("confirm result = %+v", res)
	}

	// The same national IDs are now registered, so a second commit of the
	// stale preview fails row by row.
	_, err = run(t, "confirm", previewPath, "--db", db)
	if code := exitCodeOf(err); code != exitPartial {
		t.Errorf("second confirm exit code = %d (%v), want %d", code, err, exitPartial)
	}

	out, err = run(t, "preview", samplePath, "--db", db)
	if err != nil {
		t.Fatalf("second preview: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &preview); err != nil {
		t.Fatal(err)
	}
	if preview.Summary.DuplicateRows != res.Imported || preview.Summary.ValidRows != 0 {
		t.Errorf("second preview summary = %+v, want all rows duplicate", preview.Summary)
	}
}

func TestSample_Stdout(t *testing.T) {
	out, err := run(t, "sample", "csv")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "\ufeff") {
		t.Error("csv sample should start with a BOM")
	}
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"unknown sample format", []string{"sample", "ods"}},
		{"missing preview file", []string{"preview", filepath.Join(dir, "missing.csv")}},
		{"malformed preview json", []string{"confirm", bad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if code := exitCodeOf(err); code != exitUsage {
				t.Errorf("exit code = %d (%v), want %d", code, err, exitUsage)
			}
		})
	}
}

func TestRowsToImport(t *testing.T) {
	p := &core.PreviewResult{
		ValidRows:     []core.ImportRow{{Row: 1}, {Row: 4}},
		DuplicateRows: []core.DuplicateMatch{{Row: 2, DuplicateID: 7}},
	}

	if got := rowsToImport(p, false); len(got) != 2 {
		t.Errorf("without duplicates = %+v", got)
	}

	got := rowsToImport(p, true)
	want := []int{1, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("with duplicates = %+v", got)
	}
	for i, row := range want {
		if got[i].Row != row {
			t.Errorf("row %d = %d, want %d", i, got[i].Row, row)
		}
	}
}
