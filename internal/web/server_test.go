package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/alumni/internal/config"
	"github.com/JonMunkholm/alumni/internal/core"
	"github.com/JonMunkholm/alumni/internal/database"
)

const previewCSV = "שם פרטי,שם משפחה,ת\"ז,טלפון\n" +
	"משה,כהן,123456782,050-1234567\n" +
	"שרה,לוי,123456789,0501234567\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{WriteTimeout: time.Minute},
		Rate:   config.RateLimitConfig{Enabled: false},
	}
}

type testServer struct {
	*Server
	store *database.SQLiteStore
}

func newTestServer(t *testing.T, cfg *config.Config, opts core.Options) *testServer {
	t.Helper()
	store, err := database.OpenSQLite(filepath.Join(t.TempDir(), "alumni.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(store.Close)

	srv := NewServer(cfg, core.NewService(store, opts), store)
	t.Cleanup(func() {
		srv.apiLimiter.Close()
		srv.importLimiter.Close()
	})
	return &testServer{Server: srv, store: store}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/graduates/import/preview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func confirmRequestBody(t *testing.T, rows []core.ImportRow) *http.Request {
	t.Helper()
	body, err := json.Marshal(confirmRequest{RowsToImport: rows})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/graduates/import/confirm", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestPreview(t *testing.T) {
	ts := newTestServer(t, testConfig(), core.Options{})

	rec := ts.do(uploadRequest(t, "file", "graduates.csv", []byte(previewCSV)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var res core.PreviewResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Summary.TotalRows != 2 || res.Summary.ValidRows != 1 || res.Summary.ErrorRows != 1 {
		t.Errorf("Summary = %+v", res.Summary)
	}
	if len(res.ErrorRows) != 1 || res.ErrorRows[0].Row != 2 {
		t.Errorf("ErrorRows = %+v, want row 2", res.ErrorRows)
	}
}

func TestPreview_FileErrors(t *testing.T) {
	tests := []struct {
		name   string
		opts   core.Options
		req    func(t *testing.T) *http.Request
		status int
		code   string
	}{
		{
			name:   "missing file field",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "other", "a.csv", []byte(previewCSV)) },
			status: http.StatusBadRequest,
			code:   "FILE004",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/graduates/import/preview", strings.NewReader("x"))
			},
			status: http.StatusBadRequest,
			code:   "FILE004",
		},
		{
			name:   "unsupported extension",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "file", "a.txt", []byte(previewCSV)) },
			status: http.StatusBadRequest,
			code:   "FILE002",
		},
		{
			name:   "too large",
			opts:   core.Options{MaxFileSize: 16},
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "file", "a.csv", []byte(previewCSV)) },
			status: http.StatusRequestEntityTooLarge,
			code:   "FILE001",
		},
		{
			name:   "empty file",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "file", "a.csv", nil) },
			status: http.StatusBadRequest,
			code:   "FILE005",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig(), tt.opts)
			rec := ts.do(tt.req(t))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			if resp := decodeError(t, rec); resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestPreview_HTMXErrorFragment(t *testing.T) {
	ts := newTestServer(t, testConfig(), core.Options{})

	req := uploadRequest(t, "file", "a.txt", []byte(previewCSV))
	req.Header.Set("HX-Request", "true")
	rec := ts.do(req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "FILE002") {
		t.Errorf("fragment missing code: %s", rec.Body)
	}
}

func TestConfirm(t *testing.T) {
	ts := newTestServer(t, testConfig(), core.Options{})

	rows := []core.ImportRow{
		{Row: 1, Data: core.GraduateFields{FirstName: "משה", TeudatZehut: "123456782"}},
		{Row: 2, Data: core.GraduateFields{FirstName: "שרה", TeudatZehut: "123456782"}},
	}
	req := confirmRequestBody(t, rows)
	req.Header.Set("User-Agent", "confirm-test")
	rec := ts.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var res core.ConfirmResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Imported != 1 || res.Failed != 1 || res.BatchID == "" {
		t.Errorf("result = %+v, want imported=1 failed=1 with a batch id", res)
	}
	if len(res.FailedRows) != 1 || res.FailedRows[0].Row != 2 {
		t.Errorf("FailedRows = %+v, want row 2", res.FailedRows)
	}

	n, err := ts.store.CountImportAudits(context.Background())
	if err != nil || n != 1 {
		t.Errorf("CountImportAudits = %d, %v; want 1", n, err)
	}
}

func TestConfirm_RequestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty rows", `{"rowsToImport":[]}`, "IMP001"},
		{"missing rows", `{}`, "IMP001"},
		{"malformed json", `{"rowsToImport":`, "VAL003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig(), core.Options{})
			req := httptest.NewRequest(http.MethodPost, "/api/graduates/import/confirm", strings.NewReader(tt.body))
			rec := ts.do(req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp := decodeError(t, rec); resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestSample(t *testing.T) {
	ts := newTestServer(t, testConfig(), core.Options{})

	for _, format := range []string{"csv", "xlsx"} {
		t.Run(format, func(t *testing.T) {
			rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/graduates/import/sample/"+format, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "graduates-sample."+format) {
				t.Errorf("Content-Disposition = %q", cd)
			}
			if rec.Body.Len() == 0 {
				t.Error("empty sample")
			}
		})
	}

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/graduates/import/sample/ods", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("ods status = %d, want 400", rec.Code)
	}
}

func TestGraduates_ListGetDelete(t *testing.T) {
	ts := newTestServer(t, testConfig(), core.Options{})
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		g, err := ts.store.InsertGraduate(ctx, database.InsertGraduateParams{FirstName: fmt.Sprintf("בוגר %d", i)})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, g.ID)
	}

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/graduates?page=2&pageSize=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var page graduatesPage
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || len(page.Graduates) != 1 || page.Graduates[0].ID != ids[2] {
		t.Errorf("page = %+v", page)
	}

	path := fmt.Sprintf("/api/graduates/%d", ids[0])
	if rec := ts.do(httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
	if rec := ts.do(httptest.NewRequest(http.MethodDelete, path, nil)); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, path, nil),
		httptest.NewRequest(http.MethodDelete, path, nil),
		httptest.NewRequest(http.MethodGet, "/api/graduates/abc", nil),
	} {
		rec := ts.do(req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", req.Method, req.URL.Path, rec.Code)
			continue
		}
		if resp := decodeError(t, rec); resp.Code != "IMP005" {
			t.Errorf("%s %s code = %q, want IMP005", req.Method, req.URL.Path, resp.Code)
		}
	}
}

func TestGraduates_ListPageBounds(t *testing.T) {
	ts := newTestServer(t, testConfig(), core.Options{})
	if _, err := ts.store.InsertGraduate(context.Background(), database.InsertGraduateParams{FirstName: "משה"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantSize  int
		wantItems int
	}{
		{"max int page", fmt.Sprintf("page=%d&pageSize=%d", math.MaxInt, maxPageSize), maxPage, maxPageSize, 0},
		{"max int page default size", fmt.Sprintf("page=%d", math.MaxInt), maxPage, defaultPageSize, 0},
		{"page beyond int", "page=99999999999999999999", 1, defaultPageSize, 1},
		{"huge page size", fmt.Sprintf("pageSize=%d", math.MaxInt), 1, maxPageSize, 1},
		{"negative page", "page=-3", 1, defaultPageSize, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/graduates?"+tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var page graduatesPage
			if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
				t.Fatal(err)
			}
			if page.Page != tt.wantPage || page.PageSize != tt.wantSize || len(page.Graduates) != tt.wantItems || page.Total != 1 {
				t.Errorf("page = %+v, want page %d size %d with %d items", page, tt.wantPage, tt.wantSize, tt.wantItems)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testConfig(), core.Options{MaxConcurrent: 3})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Imports.MaxConcurrent != 3 || resp.Imports.Available != 3 {
		t.Errorf("health = %+v", resp)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	ts := newTestServer(t, cfg, core.Options{})

	if rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/graduates", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/graduates", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := ts.do(req); rec.Code != http.StatusOK {
		t.Errorf("with key status = %d, want 200", rec.Code)
	}

	if rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200 without key", rec.Code)
	}
}

func TestImportRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportLimit: 1}
	ts := newTestServer(t, cfg, core.Options{})

	if rec := ts.do(uploadRequest(t, "file", "a.csv", []byte(previewCSV))); rec.Code != http.StatusOK {
		t.Fatalf("first preview status = %d", rec.Code)
	}

	rec := ts.do(uploadRequest(t, "file", "a.csv", []byte(previewCSV)))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second preview status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if resp := decodeError(t, rec); resp.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", resp.Code)
	}

	if rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/graduates", nil)); rec.Code != http.StatusOK {
		t.Errorf("list status = %d, import limit should not apply", rec.Code)
	}
}

func TestRateLimiter_Window(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		if ok, _ := rl.allow("1.2.3.4"); ok != want {
			t.Errorf("request %d allowed = %v, want %v", i+1, ok, want)
		}
	}
	if ok, _ := rl.allow("5.6.7.8"); !ok {
		t.Error("other client should not be limited")
	}

	now = now.Add(time.Minute)
	if ok, _ := rl.allow("1.2.3.4"); !ok {
		t.Error("request after window reset should be allowed")
	}

	now = now.Add(3 * time.Minute)
	rl.evict()
	rl.mu.Lock()
	n := len(rl.visitors)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("visitors after evict = %d, want 0", n)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", core.ErrFileTooLarge), http.StatusRequestEntityTooLarge},
		{core.ErrTooManyImports, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
