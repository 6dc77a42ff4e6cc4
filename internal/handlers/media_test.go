package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hse-portal/internal/service"
	"hse-portal/internal/storage"
	"hse-portal/internal/uploads"
)

func newUploadsStore(t *testing.T) *uploads.Store {
	t.Helper()
	store, err := uploads.New(t.TempDir())
	if err != nil {
		t.Fatalf("uploads.New() error = %v", err)
	}
	return store
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeCreated(t *testing.T, w *httptest.ResponseRecorder) storage.Record {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}
	var rec storage.Record
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !rec.HasID() {
		t.Errorf("created record has no id: %v", rec)
	}
	return rec
}

func TestUploadHandler_Visitor(t *testing.T) {
	store := newTestStore(t)
	files := newUploadsStore(t)
	collections := service.NewCollectionService(store, service.NewIDSource())
	handler := NewVisitorUploadHandler(collections, files)

	body, contentType := multipartBody(t, map[string]string{
		"name": "Asha",
		"meta": `{"company":"Acme","name":"ignored"}`,
	}, "badge.JPG", []byte("jpeg bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/visitors", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	rec := decodeCreated(t, w)
	if rec.String("name") != "Asha" {
		t.Errorf("name = %q, want form field to win over meta", rec.String("name"))
	}
	if rec.String("company") != "Acme" {
		t.Errorf("company = %q, want value from meta", rec.String("company"))
	}
	if _, ok := rec["meta"]; ok {
		t.Error("meta should not be stored")
	}

	photo := rec.String("photo")
	if !strings.HasPrefix(photo, uploads.URLPrefix) || !strings.HasSuffix(photo, ".jpg") {
		t.Fatalf("photo = %q, want served .jpg path", photo)
	}
	path, err := files.Resolve(photo)
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", photo, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read uploaded file: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("uploaded content = %q", data)
	}

	list, err := collections.List(req.Context(), service.Visitors)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("visitors = %d, want 1", len(list))
	}
}

func TestUploadHandler_VisitorJSON(t *testing.T) {
	collections := service.NewCollectionService(newTestStore(t), service.NewIDSource())
	handler := NewVisitorUploadHandler(collections, newUploadsStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/visitors", strings.NewReader(`{"name":"Bo","photo":"data:image/png;base64,AA=="}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	rec := decodeCreated(t, w)
	if rec.String("photo") != "data:image/png;base64,AA==" {
		t.Errorf("photo = %q, want inline data kept", rec.String("photo"))
	}
}

func TestUploadHandler_Policy(t *testing.T) {
	collections := service.NewCollectionService(newTestStore(t), service.NewIDSource())
	files := newUploadsStore(t)
	handler := NewPolicyUploadHandler(collections, files)
	handler.now = func() time.Time { return time.UnixMilli(1700000000000) }

	t.Run("file upload without title", func(t *testing.T) {
		body, contentType := multipartBody(t, nil, "policy.pdf", []byte("%PDF"))
		req := httptest.NewRequest(http.MethodPost, "/api/policies", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		rec := decodeCreated(t, w)
		if rec.String("title") != "Policy 1700000000000" {
			t.Errorf("title = %q, want default title", rec.String("title"))
		}
		if filepath.Ext(rec.String("url")) != ".pdf" {
			t.Errorf("url = %q, want .pdf upload", rec.String("url"))
		}
		if _, ok := rec["data"]; ok {
			t.Error("data should be absent when a file is uploaded")
		}
	})

	t.Run("inline data", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/policies", strings.NewReader(`{"title":"PPE policy","data":"base64..."}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		rec := decodeCreated(t, w)
		if rec.String("title") != "PPE policy" || rec.String("data") != "base64..." {
			t.Errorf("record = %v", rec)
		}
		if _, ok := rec["url"]; ok {
			t.Error("url should be absent without a file")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/policies", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestUploadHandler_Gallery(t *testing.T) {
	collections := service.NewCollectionService(newTestStore(t), service.NewIDSource())
	handler := NewGalleryUploadHandler(collections, newUploadsStore(t))

	body, contentType := multipartBody(t, map[string]string{"caption": "drill"}, "site.png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/gallery", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	rec := decodeCreated(t, w)
	if !strings.HasPrefix(rec.String("url"), uploads.URLPrefix) {
		t.Errorf("url = %q, want served path", rec.String("url"))
	}
	if _, ok := rec["caption"]; ok {
		t.Error("gallery records keep only id and url or data")
	}
}
