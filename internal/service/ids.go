package service

import (
	"sync"
	"time"
)

// IDSource hands out record ids derived from the wall clock in milliseconds.
// Ids are strictly increasing within a process even when two inserts land in
// the same millisecond.
type IDSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDSource creates an IDSource backed by time.Now.
func NewIDSource() *IDSource {
	return &IDSource{now: time.Now}
}

// Next returns the next id.
func (s *IDSource) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}
