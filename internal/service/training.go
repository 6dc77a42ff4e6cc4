package service

import (
	"context"
	"fmt"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/storage"
)

// TrainingAction adds an entry to one of the training sequences.
type TrainingAction interface {
	trainingAction()
}

// AddModuleAction appends a training module.
type AddModuleAction struct {
	Module storage.Record
}

// AddRecordAction appends a training record.
type AddRecordAction struct {
	Record storage.Record
}

func (AddModuleAction) trainingAction() {}
func (AddRecordAction) trainingAction() {}

// ParseTrainingAction decodes a training POST body.
func ParseTrainingAction(body storage.Record) (TrainingAction, error) {
	switch body["action"] {
	case "addModule":
		m, ok := asRecord(body["module"])
		if !ok {
			return nil, &ValidationError{Field: "module", Message: "must be an object"}
		}
		return AddModuleAction{Module: m}, nil
	case "addRecord":
		r, ok := asRecord(body["record"])
		if !ok {
			return nil, &ValidationError{Field: "record", Message: "must be an object"}
		}
		return AddRecordAction{Record: r}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, body["action"])
	}
}

// TrainingService manages the training document.
type TrainingService interface {
	// Get returns the whole training document.
	Get(ctx context.Context) (storage.TrainingDocument, error)
	// Apply runs an add action and returns the resulting document.
	Apply(ctx context.Context, action TrainingAction) (storage.TrainingDocument, error)
	// Update merges patch into the first module, then record, with the id.
	Update(ctx context.Context, id float64, patch storage.Record) (storage.Record, error)
	// Delete removes the id from both sequences and reports whether anything was removed.
	Delete(ctx context.Context, id float64) (bool, error)
}

type trainingService struct {
	store *storage.Store
	ids   *IDSource
}

// NewTrainingService creates a TrainingService over store.
func NewTrainingService(store *storage.Store, ids *IDSource) TrainingService {
	return &trainingService{store: store, ids: ids}
}

func (s *trainingService) Get(ctx context.Context) (storage.TrainingDocument, error) {
	var doc storage.TrainingDocument
	if err := s.store.Read(ctx, Training, &doc); err != nil {
		return storage.TrainingDocument{}, WrapError(err, "failed to read training")
	}
	doc.Normalize()
	return doc, nil
}

func (s *trainingService) Apply(ctx context.Context, action TrainingAction) (storage.TrainingDocument, error) {
	var doc storage.TrainingDocument
	err := s.store.Update(ctx, Training, &doc, func() error {
		doc.Normalize()
		switch a := action.(type) {
		case AddModuleAction:
			doc.Modules = append(doc.Modules, s.withID(a.Module))
		case AddRecordAction:
			doc.Records = append(doc.Records, s.withID(a.Record))
		default:
			return fmt.Errorf("%w: %T", ErrInvalidAction, action)
		}
		return nil
	})
	if err != nil {
		return storage.TrainingDocument{}, WrapError(err, "failed to update training")
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "training updated",
		"action", fmt.Sprintf("%T", action), "modules", len(doc.Modules), "records", len(doc.Records))
	return doc, nil
}

func (s *trainingService) Update(ctx context.Context, id float64, patch storage.Record) (storage.Record, error) {
	var (
		doc     storage.TrainingDocument
		updated storage.Record
	)
	err := s.store.Update(ctx, Training, &doc, func() error {
		doc.Normalize()
		for _, seq := range [][]storage.Record{doc.Modules, doc.Records} {
			if i := indexOf(seq, id); i >= 0 {
				seq[i] = seq[i].Merge(patch)
				updated = seq[i]
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, WrapError(err, "failed to update training entry")
	}
	return updated, nil
}

func (s *trainingService) Delete(ctx context.Context, id float64) (bool, error) {
	var (
		doc     storage.TrainingDocument
		removed bool
	)
	err := s.store.Update(ctx, Training, &doc, func() error {
		doc.Normalize()
		var n int
		doc.Modules, n = without(doc.Modules, id)
		removed = n > 0
		doc.Records, n = without(doc.Records, id)
		removed = removed || n > 0
		return nil
	})
	if err != nil {
		return false, WrapError(err, "failed to delete training entry")
	}
	return removed, nil
}

func (s *trainingService) withID(rec storage.Record) storage.Record {
	if rec == nil {
		rec = storage.Record{}
	}
	if !rec.HasID() {
		rec.SetID(s.ids.Next())
	}
	return rec
}

// without filters out every record matching id and returns how many were dropped.
func without(list []storage.Record, id float64) ([]storage.Record, int) {
	kept := make([]storage.Record, 0, len(list))
	for _, rec := range list {
		if !rec.MatchesID(id) {
			kept = append(kept, rec)
		}
	}
	return kept, len(list) - len(kept)
}

func asRecord(v any) (storage.Record, bool) {
	switch m := v.(type) {
	case storage.Record:
		return m, true
	case map[string]any:
		return storage.Record(m), true
	}
	return nil, false
}
