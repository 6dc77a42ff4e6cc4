package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_collection_service.go -package=mocks hse-portal/internal/service CollectionService

import (
	"context"
	"errors"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/storage"
)

// CollectionService provides CRUD over list-shaped documents.
// Records are kept newest first.
type CollectionService interface {
	// List returns every record of the collection.
	List(ctx context.Context, name string) ([]storage.Record, error)
	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, name string, id float64) (storage.Record, error)
	// Insert assigns an id if the record has none and prepends it.
	Insert(ctx context.Context, name string, rec storage.Record) (storage.Record, error)
	// Update shallow-merges patch into the matching record, or returns ErrNotFound.
	Update(ctx context.Context, name string, id float64, patch storage.Record) (storage.Record, error)
	// Delete removes the matching record and reports whether one was removed.
	Delete(ctx context.Context, name string, id float64) (bool, error)
}

type collectionService struct {
	store *storage.Store
	ids   *IDSource
}

// NewCollectionService creates a CollectionService over store.
func NewCollectionService(store *storage.Store, ids *IDSource) CollectionService {
	return &collectionService{store: store, ids: ids}
}

func (s *collectionService) List(ctx context.Context, name string) ([]storage.Record, error) {
	var list []storage.Record
	if err := s.store.Read(ctx, name, &list); err != nil {
		return nil, WrapError(err, "failed to read "+name)
	}
	if list == nil {
		list = []storage.Record{}
	}
	return list, nil
}

func (s *collectionService) Get(ctx context.Context, name string, id float64) (storage.Record, error) {
	list, err := s.List(ctx, name)
	if err != nil {
		return nil, err
	}
	if i := indexOf(list, id); i >= 0 {
		return list[i], nil
	}
	return nil, ErrNotFound
}

func (s *collectionService) Insert(ctx context.Context, name string, rec storage.Record) (storage.Record, error) {
	if rec == nil {
		rec = storage.Record{}
	}
	if !rec.HasID() {
		rec.SetID(s.ids.Next())
	}

	var list []storage.Record
	err := s.store.Update(ctx, name, &list, func() error {
		list = append([]storage.Record{rec}, list...)
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to insert into "+name)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "record inserted", "collection", name, "id", rec["id"])
	return rec, nil
}

func (s *collectionService) Update(ctx context.Context, name string, id float64, patch storage.Record) (storage.Record, error) {
	var (
		list    []storage.Record
		updated storage.Record
	)
	err := s.store.Update(ctx, name, &list, func() error {
		i := indexOf(list, id)
		if i < 0 {
			return ErrNotFound
		}
		list[i] = list[i].Merge(patch)
		updated = list[i]
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to update "+name)
	}
	return updated, nil
}

func (s *collectionService) Delete(ctx context.Context, name string, id float64) (bool, error) {
	var list []storage.Record
	err := s.store.Update(ctx, name, &list, func() error {
		i := indexOf(list, id)
		if i < 0 {
			return ErrNotFound
		}
		list = append(list[:i], list[i+1:]...)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, WrapError(err, "failed to delete from "+name)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "record deleted", "collection", name, "id", id)
	return true, nil
}

func indexOf(list []storage.Record, id float64) int {
	for i, rec := range list {
		if rec.MatchesID(id) {
			return i
		}
	}
	return -1
}
