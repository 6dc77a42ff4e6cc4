package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"hse-portal/internal/contextutil"
)

// URLPrefix is the path uploaded files are served under.
const URLPrefix = "/uploads/"

const maxExtLen = 10

// Store writes uploaded files into a directory under randomized names.
type Store struct {
	dir string
	now func() time.Time
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the uploads directory.
func (s *Store) Dir() string { return s.dir }

// Save copies r into a new file and returns the path it is served at.
// Only the extension of originalName is kept.
func (s *Store) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), safeExt(originalName))

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("write upload: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "upload stored", "file", name, "bytes", n)
	return URLPrefix + name, nil
}

// Resolve maps a served path back to a file inside the uploads directory.
func (s *Store) Resolve(servedPath string) (string, error) {
	rel := strings.TrimPrefix(servedPath, URLPrefix)
	if rel == servedPath {
		return "", errors.New("not an uploads path")
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+rel), "/")
	if cleaned != rel || cleaned == "" || cleaned == "." || strings.Contains(cleaned, "/") {
		return "", errors.New("invalid upload name")
	}
	return filepath.Join(s.dir, cleaned), nil
}

// safeExt keeps a short alphanumeric extension and drops anything else.
func safeExt(originalName string) string {
	ext := filepath.Ext(filepath.Base(originalName))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return strings.ToLower(ext)
}
