package service

import (
	"testing"
	"time"
)

func TestIDSource_StrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	s := &IDSource{now: func() time.Time { return fixed }}

	a, b, c := s.Next(), s.Next(), s.Next()
	if a != fixed.UnixMilli() {
		t.Errorf("first id = %d, want clock value %d", a, fixed.UnixMilli())
	}
	if !(a < b && b < c) {
		t.Errorf("ids not increasing: %d %d %d", a, b, c)
	}
}

func TestIDSource_ClockGoesBackwards(t *testing.T) {
	now := time.UnixMilli(2_000)
	s := &IDSource{now: func() time.Time { return now }}

	first := s.Next()
	now = time.UnixMilli(1_000)
	if second := s.Next(); second <= first {
		t.Errorf("second id %d not after %d", second, first)
	}
}
