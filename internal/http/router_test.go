package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"hse-portal/internal/service"
	"hse-portal/internal/storage"
	"hse-portal/internal/uploads"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestRouter(t *testing.T, lenientTrainingDelete bool) http.Handler {
	t.Helper()

	backend, err := storage.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	store := storage.NewStore(backend, true)
	t.Cleanup(func() { _ = store.Close() })
	if err := service.RegisterDefaults(store, time.Now()); err != nil {
		t.Fatalf("RegisterDefaults() error = %v", err)
	}
	if err := store.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("EnsureDefaults() error = %v", err)
	}

	files, err := uploads.New(t.TempDir())
	if err != nil {
		t.Fatalf("uploads.New() error = %v", err)
	}

	ids := service.NewIDSource()
	return NewRouter(&Deps{
		Collections:           service.NewCollectionService(store, ids),
		Ledger:                service.NewLedgerService(store),
		Training:              service.NewTrainingService(store, ids),
		Factories:             service.NewFactoryService(store),
		Stats:                 service.NewStatsService(store),
		Auth:                  service.NewAuthService(store, "admin", "admin123"),
		Uploads:               files,
		Health:                store,
		MaxBodyBytes:          1 << 20,
		LenientTrainingDelete: lenientTrainingDelete,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, false)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "GET root", method: http.MethodGet, path: "/", wantStatus: http.StatusOK},
		{name: "GET api index", method: http.MethodGet, path: "/api", wantStatus: http.StatusOK},
		{name: "GET health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{name: "GET metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "GET notices", method: http.MethodGet, path: "/api/notices", wantStatus: http.StatusOK},
		{name: "GET seeded notice", method: http.MethodGet, path: "/api/notices/1", wantStatus: http.StatusOK},
		{name: "GET seeded notice page", method: http.MethodGet, path: "/api/notices/1/page", wantStatus: http.StatusOK},
		{name: "GET missing notice page", method: http.MethodGet, path: "/api/notices/2/page", wantStatus: http.StatusNotFound},
		{name: "GET chat", method: http.MethodGet, path: "/api/chat", wantStatus: http.StatusOK},
		{name: "GET ptw", method: http.MethodGet, path: "/api/ptw", wantStatus: http.StatusOK},
		{name: "GET ppe logs", method: http.MethodGet, path: "/api/ppe/logs", wantStatus: http.StatusOK},
		{name: "GET training", method: http.MethodGet, path: "/api/training", wantStatus: http.StatusOK},
		{name: "GET factories", method: http.MethodGet, path: "/api/factories", wantStatus: http.StatusOK},
		{name: "GET stats", method: http.MethodGet, path: "/api/stats", wantStatus: http.StatusOK},
		{name: "PUT missing report", method: http.MethodPut, path: "/api/reports/5", body: `{}`, wantStatus: http.StatusNotFound},
		{name: "DELETE non-numeric id", method: http.MethodDelete, path: "/api/reports/abc", wantStatus: http.StatusNotFound},
		{name: "GET login not allowed", method: http.MethodGet, path: "/api/auth/login", wantStatus: http.StatusMethodNotAllowed},
		{name: "PATCH notices not allowed", method: http.MethodPatch, path: "/api/notices/1", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/api/nothing", wantStatus: http.StatusNotFound},
		{name: "upload traversal", method: http.MethodGet, path: "/uploads/../secret", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_CollectionLifecycle(t *testing.T) {
	router := newTestRouter(t, false)

	first := decode[storage.Record](t, do(t, router, http.MethodPost, "/api/reports", `{"title":"Slip"}`))
	second := decode[storage.Record](t, do(t, router, http.MethodPost, "/api/reports", `{"title":"Trip"}`))
	firstID, _ := first.ID()
	secondID, _ := second.ID()
	if firstID == secondID {
		t.Fatalf("inserted records share id %v", firstID)
	}

	list := decode[[]storage.Record](t, do(t, router, http.MethodGet, "/api/reports", ""))
	if len(list) != 2 || list[0].String("title") != "Trip" {
		t.Fatalf("list = %v, want newest first", list)
	}

	path := "/api/reports/" + strconv.FormatFloat(firstID, 'f', -1, 64)
	updated := decode[storage.Record](t, do(t, router, http.MethodPut, path, `{"status":"closed","id":1}`))
	if updated.String("status") != "closed" || updated.String("title") != "Slip" || !updated.MatchesID(firstID) {
		t.Errorf("updated = %v", updated)
	}

	if w := do(t, router, http.MethodDelete, path, ""); w.Code != http.StatusOK {
		t.Errorf("DELETE status = %d, want %d", w.Code, http.StatusOK)
	}
	if w := do(t, router, http.MethodDelete, path, ""); w.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := do(t, router, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
		t.Errorf("GET deleted record status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRouter_PPELedger(t *testing.T) {
	router := newTestRouter(t, false)

	item := decode[storage.Record](t, do(t, router, http.MethodPost, "/api/ppe", `{"name":"Helmet","qty":10}`))
	id := strconv.FormatFloat(func() float64 { v, _ := item.ID(); return v }(), 'f', -1, 64)

	restocked := decode[storage.Record](t, do(t, router, http.MethodPost, "/api/ppe", `{"action":"restock","id":`+id+`,"qty":"5"}`))
	if qty, _ := storage.CoerceNumber(restocked["qty"]); qty != 15 {
		t.Errorf("qty after restock = %v, want 15", restocked["qty"])
	}

	issued := decode[service.IssueResult](t, do(t, router, http.MethodPost, "/api/ppe", `{"action":"issue","id":"`+id+`","qty":4,"to":"Ravi"}`))
	if !issued.OK {
		t.Error("issue response not ok")
	}
	if qty, _ := storage.CoerceNumber(issued.Item["qty"]); qty != 11 {
		t.Errorf("qty after issue = %v, want 11", issued.Item["qty"])
	}

	w := do(t, router, http.MethodPost, "/api/ppe", `{"action":"issue","id":`+id+`,"qty":12}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized issue status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = do(t, router, http.MethodPost, "/api/ppe", `{"action":"issue","id":424242,"qty":1}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("issue of missing item status = %d, want %d", w.Code, http.StatusNotFound)
	}

	logs := decode[[]storage.PPELogEntry](t, do(t, router, http.MethodGet, "/api/ppe/logs", ""))
	if len(logs) != 1 {
		t.Fatalf("logs = %v, want one entry", logs)
	}
	if logs[0].Item != "Helmet" || logs[0].Qty != 4 || logs[0].To != "Ravi" {
		t.Errorf("log entry = %+v", logs[0])
	}
}

func TestRouter_PPEStockCannotGoNegative(t *testing.T) {
	router := newTestRouter(t, false)

	if w := do(t, router, http.MethodPost, "/api/ppe", `{"id":1,"name":"Helmet","qty":10}`); w.Code != http.StatusOK {
		t.Fatalf("create item status = %d, want %d", w.Code, http.StatusOK)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "PUT negative qty", method: http.MethodPut, path: "/api/ppe/1", body: `{"qty":-50}`, wantStatus: http.StatusBadRequest},
		{name: "PUT fractional qty", method: http.MethodPut, path: "/api/ppe/1", body: `{"qty":2.5}`, wantStatus: http.StatusBadRequest},
		{name: "PUT non-numeric qty", method: http.MethodPut, path: "/api/ppe/1", body: `{"qty":"lots"}`, wantStatus: http.StatusBadRequest},
		{name: "POST item with negative qty", method: http.MethodPost, path: "/api/ppe", body: `{"name":"Boots","qty":-1}`, wantStatus: http.StatusBadRequest},
		{name: "issue fractional qty", method: http.MethodPost, path: "/api/ppe", body: `{"action":"issue","id":1,"qty":2.5}`, wantStatus: http.StatusBadRequest},
		{name: "PUT missing item", method: http.MethodPut, path: "/api/ppe/2", body: `{"qty":3}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, router, tt.method, tt.path, tt.body); w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}

	item := decode[storage.Record](t, do(t, router, http.MethodGet, "/api/ppe/1", ""))
	if qty, _ := storage.CoerceNumber(item["qty"]); qty != 10 {
		t.Errorf("qty after rejected writes = %v, want 10", item["qty"])
	}

	updated := decode[storage.Record](t, do(t, router, http.MethodPut, "/api/ppe/1", `{"qty":"7","size":"L"}`))
	if qty, _ := storage.CoerceNumber(updated["qty"]); qty != 7 || updated.String("size") != "L" {
		t.Errorf("updated item = %v, want qty 7 and size L", updated)
	}
}

func TestRouter_UploadServed(t *testing.T) {
	router := newTestRouter(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "site.png")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	_, _ = fw.Write([]byte("png bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/gallery", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, want %d", w.Code, http.StatusOK)
	}
	rec := decode[storage.Record](t, w)

	w = do(t, router, http.MethodGet, rec.String("url"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want %d", rec.String("url"), w.Code, http.StatusOK)
	}
	if w.Body.String() != "png bytes" {
		t.Errorf("served body = %q", w.Body.String())
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	router := newTestRouter(t, false)

	big := `{"title":"` + strings.Repeat("x", 2<<20) + `"}`
	if w := do(t, router, http.MethodPost, "/api/reports", big); w.Code != http.StatusBadRequest {
		t.Errorf("oversized body status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRouter_TrainingDeleteLeniency(t *testing.T) {
	if w := do(t, newTestRouter(t, false), http.MethodDelete, "/api/training/77", ""); w.Code != http.StatusNotFound {
		t.Errorf("strict training delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := do(t, newTestRouter(t, true), http.MethodDelete, "/api/training/77", ""); w.Code != http.StatusOK {
		t.Errorf("lenient training delete status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(t, router, http.MethodGet, "/api/notices", "")
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}

	w = do(t, router, http.MethodGet, "/metrics", "")
	if !strings.Contains(w.Body.String(), "hse_http_requests_total") {
		t.Error("metrics should include request counter")
	}
}
