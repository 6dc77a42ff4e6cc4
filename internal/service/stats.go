package service

import (
	"context"

	"hse-portal/internal/storage"
)

// StatsService reads and replaces the dashboard counters.
type StatsService interface {
	Get(ctx context.Context) (storage.Stats, error)
	Replace(ctx context.Context, stats storage.Stats) (storage.Stats, error)
}

type statsService struct {
	store *storage.Store
}

// NewStatsService creates a StatsService over store.
func NewStatsService(store *storage.Store) StatsService {
	return &statsService{store: store}
}

func (s *statsService) Get(ctx context.Context) (storage.Stats, error) {
	var stats storage.Stats
	if err := s.store.Read(ctx, Stats, &stats); err != nil {
		return nil, WrapError(err, "failed to read stats")
	}
	if stats == nil {
		stats = storage.Stats{}
	}
	return stats, nil
}

func (s *statsService) Replace(ctx context.Context, stats storage.Stats) (storage.Stats, error) {
	if stats == nil {
		stats = storage.Stats{}
	}
	if err := s.store.Write(ctx, Stats, stats); err != nil {
		return nil, WrapError(err, "failed to write stats")
	}
	return stats, nil
}
