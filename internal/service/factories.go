package service

import (
	"context"
	"encoding/json"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/storage"
)

// FactoryEntry is one element of the list form accepted by ReplaceList.
type FactoryEntry struct {
	Name     string `json:"name"`
	Fire     int    `json:"fire"`
	FirstAid int    `json:"firstAid"`
	Manpower int    `json:"manpower"`
}

// UnmarshalJSON decodes the counts with the same coercion as the map form.
func (e *FactoryEntry) UnmarshalJSON(data []byte) error {
	var named struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	var counts storage.FactoryCounts
	if err := json.Unmarshal(data, &counts); err != nil {
		return err
	}
	*e = FactoryEntry{
		Name:     named.Name,
		Fire:     counts.Fire,
		FirstAid: counts.FirstAid,
		Manpower: counts.Manpower,
	}
	return nil
}

// FactoryService manages the factories map.
type FactoryService interface {
	Get(ctx context.Context) (storage.Factories, error)
	// Replace overwrites the whole map.
	Replace(ctx context.Context, factories storage.Factories) (storage.Factories, error)
	// ReplaceList folds entries into a map keyed by name and overwrites the
	// stored map with it. Factories absent from entries are dropped.
	ReplaceList(ctx context.Context, entries []FactoryEntry) (storage.Factories, error)
	// Delete removes one factory, or returns ErrNotFound.
	Delete(ctx context.Context, name string) error
}

type factoryService struct {
	store *storage.Store
}

// NewFactoryService creates a FactoryService over store.
func NewFactoryService(store *storage.Store) FactoryService {
	return &factoryService{store: store}
}

func (s *factoryService) Get(ctx context.Context) (storage.Factories, error) {
	var factories storage.Factories
	if err := s.store.Read(ctx, Factories, &factories); err != nil {
		return nil, WrapError(err, "failed to read factories")
	}
	if factories == nil {
		factories = storage.Factories{}
	}
	return factories, nil
}

func (s *factoryService) Replace(ctx context.Context, factories storage.Factories) (storage.Factories, error) {
	if factories == nil {
		factories = storage.Factories{}
	}
	if err := s.store.Write(ctx, Factories, factories); err != nil {
		return nil, WrapError(err, "failed to write factories")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "factories replaced", "count", len(factories))
	return factories, nil
}

func (s *factoryService) ReplaceList(ctx context.Context, entries []FactoryEntry) (storage.Factories, error) {
	factories := make(storage.Factories, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		factories[e.Name] = storage.FactoryCounts{Fire: e.Fire, FirstAid: e.FirstAid, Manpower: e.Manpower}
	}
	return s.Replace(ctx, factories)
}

func (s *factoryService) Delete(ctx context.Context, name string) error {
	var factories storage.Factories
	err := s.store.Update(ctx, Factories, &factories, func() error {
		if _, ok := factories[name]; !ok {
			return ErrNotFound
		}
		delete(factories, name)
		return nil
	})
	if err != nil {
		return WrapError(err, "failed to delete factory")
	}
	return nil
}
