package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"hse-portal/internal/contextutil"
)

var (
	// ErrNoDocument is returned by a Backend when nothing is persisted under a name.
	ErrNoDocument = errors.New("document not found")
	// ErrStorageCorrupt is returned when a persisted document cannot be decoded.
	ErrStorageCorrupt = errors.New("storage corrupt")
	// ErrInvalidName is returned for document names outside [a-z0-9_].
	ErrInvalidName = errors.New("invalid document name")
)

// CorruptError identifies the document that failed to decode.
type CorruptError struct {
	Name string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("document %s is corrupt: %v", e.Name, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func (e *CorruptError) Is(target error) bool { return target == ErrStorageCorrupt }

// Backend persists raw document bytes by name.
type Backend interface {
	// Load returns the stored bytes, or ErrNoDocument.
	Load(ctx context.Context, name string) ([]byte, error)
	// Save replaces the stored bytes.
	Save(ctx context.Context, name string, data []byte) error
	// Names lists stored documents in name order.
	Names(ctx context.Context) ([]string, error)
	Close() error
}

// Store is the document store. Each document is guarded by its own mutex, so
// read-modify-write cycles through Update never lose a concurrent write.
type Store struct {
	backend Backend
	strict  bool

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	defaults map[string][]byte
}

// NewStore creates a Store over backend. When strict is false a corrupt
// document is logged and served as its default instead of failing the call.
func NewStore(backend Backend, strict bool) *Store {
	return &Store{
		backend:  backend,
		strict:   strict,
		locks:    make(map[string]*sync.Mutex),
		defaults: make(map[string][]byte),
	}
}

// Register sets the value a document is initialized with on first access.
// Unregistered documents default to an empty list.
func (s *Store) Register(name string, def any) error {
	if err := validateName(name); err != nil {
		return err
	}
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("encode default for %s: %w", name, err)
	}
	s.mu.Lock()
	s.defaults[name] = data
	s.mu.Unlock()
	return nil
}

// Registered returns the names with a registered default, sorted.
func (s *Store) Registered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnsureDefaults persists the default of every registered document that does not exist yet.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)
	for _, name := range s.Registered() {
		created, err := s.ensure(ctx, name)
		if err != nil {
			return err
		}
		if created {
			logger.InfoContext(ctx, "document initialized with default", "document", name)
		}
	}
	return nil
}

func (s *Store) ensure(ctx context.Context, name string) (bool, error) {
	unlock := s.lock(name)
	defer unlock()

	_, err := s.backend.Load(ctx, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNoDocument) {
		return false, fmt.Errorf("load %s: %w", name, err)
	}
	if err := s.backend.Save(ctx, name, s.defaultFor(name)); err != nil {
		return false, fmt.Errorf("initialize %s: %w", name, err)
	}
	return true, nil
}

// Read decodes the current value of the named document into dst, materializing
// the default first if nothing is stored.
func (s *Store) Read(ctx context.Context, name string, dst any) error {
	if err := validateName(name); err != nil {
		return err
	}
	unlock := s.lock(name)
	defer unlock()
	return s.read(ctx, name, dst)
}

// Write replaces the named document with v.
func (s *Store) Write(ctx context.Context, name string, v any) error {
	if err := validateName(name); err != nil {
		return err
	}
	unlock := s.lock(name)
	defer unlock()
	return s.write(ctx, name, v)
}

// Update reads the document into dst, calls fn, and writes dst back if fn
// returns nil. The document stays locked for the whole cycle.
func (s *Store) Update(ctx context.Context, name string, dst any, fn func() error) error {
	if err := validateName(name); err != nil {
		return err
	}
	unlock := s.lock(name)
	defer unlock()

	if err := s.read(ctx, name, dst); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return s.write(ctx, name, dst)
}

// Names lists the persisted documents.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	return s.backend.Names(ctx)
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) read(ctx context.Context, name string, dst any) error {
	data, err := s.backend.Load(ctx, name)
	if errors.Is(err, ErrNoDocument) {
		data = s.defaultFor(name)
		if err := s.backend.Save(ctx, name, data); err != nil {
			return fmt.Errorf("initialize %s: %w", name, err)
		}
	} else if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		data = s.defaultFor(name)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		if s.strict {
			return &CorruptError{Name: name, Err: err}
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "document is corrupt, serving default",
			"document", name, "error", err)
		resetValue(dst)
		return json.Unmarshal(s.defaultFor(name), dst)
	}
	return nil
}

func (s *Store) write(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.backend.Save(ctx, name, data); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (s *Store) defaultFor(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if def, ok := s.defaults[name]; ok {
		return def
	}
	return []byte("[]")
}

func (s *Store) lock(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// resetValue zeroes what dst points to, discarding a partial decode.
func resetValue(dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().SetZero()
	}
}

func validateName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}
