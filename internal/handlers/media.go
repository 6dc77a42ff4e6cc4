package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/service"
	"hse-portal/internal/storage"
	"hse-portal/internal/uploads"
)

const maxMultipartMemory = 32 << 20

// buildFunc turns the submitted fields and the served path of an uploaded
// file ("" when none) into the record to insert.
type buildFunc func(fields storage.Record, fileURL string, now time.Time) storage.Record

// UploadHandler handles creates that may carry a file in the "file" form field.
type UploadHandler struct {
	collections service.CollectionService
	uploads     *uploads.Store
	name        string
	build       buildFunc
	now         func() time.Time
}

// NewVisitorUploadHandler creates the handler for POST /api/visitors.
func NewVisitorUploadHandler(collections service.CollectionService, store *uploads.Store) *UploadHandler {
	return newUploadHandler(collections, store, service.Visitors, buildVisitor)
}

// NewPolicyUploadHandler creates the handler for POST /api/policies.
func NewPolicyUploadHandler(collections service.CollectionService, store *uploads.Store) *UploadHandler {
	return newUploadHandler(collections, store, service.Policies, buildPolicy)
}

// NewGalleryUploadHandler creates the handler for POST /api/gallery.
func NewGalleryUploadHandler(collections service.CollectionService, store *uploads.Store) *UploadHandler {
	return newUploadHandler(collections, store, service.Gallery, buildGallery)
}

func newUploadHandler(collections service.CollectionService, store *uploads.Store, name string, build buildFunc) *UploadHandler {
	return &UploadHandler{
		collections: collections,
		uploads:     store,
		name:        name,
		build:       build,
		now:         time.Now,
	}
}

// ServeHTTP stores the optional file and inserts the record built from the request.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	fields, fileURL, err := h.readRequest(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid upload request", "collection", h.name, "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.collections.Insert(ctx, h.name, h.build(fields, fileURL, h.now()))
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, rec)
}

func (h *UploadHandler) readRequest(r *http.Request) (storage.Record, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, "", fmt.Errorf("parse multipart form: %w", err)
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		fields := formFields(r.MultipartForm.Value)

		file, header, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return fields, "", nil
		}
		if err != nil {
			return nil, "", fmt.Errorf("read file: %w", err)
		}
		defer file.Close()

		fileURL, err := h.uploads.Save(r.Context(), header.Filename, file)
		if err != nil {
			return nil, "", err
		}
		return fields, fileURL, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, "", fmt.Errorf("parse form: %w", err)
		}
		return formFields(r.PostForm), "", nil
	default:
		fields, err := decodeRecord(r)
		return fields, "", err
	}
}

func formFields(values map[string][]string) storage.Record {
	fields := make(storage.Record, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}

// buildVisitor keeps the submitted fields. With a file, a JSON "meta" field
// supplies defaults under the form fields and photo points at the upload.
func buildVisitor(fields storage.Record, fileURL string, _ time.Time) storage.Record {
	if fileURL == "" {
		return fields
	}

	rec := storage.Record{}
	if meta := fields.String("meta"); meta != "" {
		_ = json.Unmarshal([]byte(meta), &rec)
	}
	for k, v := range fields {
		rec[k] = v
	}
	delete(rec, "meta")
	rec["photo"] = fileURL
	return rec
}

// buildPolicy records a title and either the uploaded file or inline data.
func buildPolicy(fields storage.Record, fileURL string, now time.Time) storage.Record {
	title := fields.String("title")
	if title == "" {
		title = fmt.Sprintf("Policy %d", now.UnixMilli())
	}
	rec := storage.Record{"title": title}
	attach(rec, fields, fileURL)
	return rec
}

// buildGallery records either the uploaded file or inline data.
func buildGallery(fields storage.Record, fileURL string, _ time.Time) storage.Record {
	rec := storage.Record{}
	attach(rec, fields, fileURL)
	return rec
}

func attach(rec, fields storage.Record, fileURL string) {
	if fileURL != "" {
		rec["url"] = fileURL
		return
	}
	if data, ok := fields["data"]; ok && data != nil && data != "" {
		rec["data"] = data
	}
}
