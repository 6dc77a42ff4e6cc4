package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ledger_service.go -package=mocks hse-portal/internal/service LedgerService

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/storage"
)

// PPEAction is a stock movement requested through the PPE endpoint.
type PPEAction interface {
	ppeAction()
}

// RestockAction adds Qty units to the item with ID.
type RestockAction struct {
	ID  float64
	Qty float64
}

// IssueAction hands Qty units of the item with ID to To.
type IssueAction struct {
	ID  float64
	Qty float64
	To  string
}

func (RestockAction) ppeAction() {}
func (IssueAction) ppeAction()   {}

// IssueResult is returned by a successful issue.
type IssueResult struct {
	OK   bool           `json:"ok"`
	Item storage.Record `json:"item"`
}

// ParsePPEAction decodes the action discriminator of a PPE request body.
// It returns nil, nil when the body carries no action, meaning the body is a new item.
func ParsePPEAction(body storage.Record) (PPEAction, error) {
	if falsy(body["action"]) {
		return nil, nil
	}

	id := math.NaN()
	if v, ok := storage.CoerceNumber(body["id"]); ok {
		id = v
	}

	switch body["action"] {
	case "restock":
		qty, err := parseQty(body["qty"])
		if err != nil {
			return nil, err
		}
		return RestockAction{ID: id, Qty: qty}, nil
	case "issue":
		qty, err := parseQty(body["qty"])
		if err != nil {
			return nil, err
		}
		return IssueAction{ID: id, Qty: qty, To: body.String("to")}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, body["action"])
	}
}

// LedgerService moves PPE stock and keeps the issue log.
type LedgerService interface {
	// Restock increases the stock of an item.
	Restock(ctx context.Context, action RestockAction) (storage.Record, error)
	// Issue decreases the stock of an item and logs the issue.
	// It fails with ErrInsufficientStock without changing anything when stock is short.
	Issue(ctx context.Context, action IssueAction) (IssueResult, error)
	// Logs returns the issue log, newest first.
	Logs(ctx context.Context) ([]storage.PPELogEntry, error)
}

type ledgerService struct {
	store *storage.Store
	now   func() time.Time
}

// NewLedgerService creates a LedgerService over store.
func NewLedgerService(store *storage.Store) LedgerService {
	return &ledgerService{store: store, now: time.Now}
}

func (s *ledgerService) Restock(ctx context.Context, action RestockAction) (storage.Record, error) {
	var (
		items []storage.Record
		item  storage.Record
	)
	err := s.store.Update(ctx, PPE, &items, func() error {
		i := indexOf(items, action.ID)
		if i < 0 {
			return ErrNotFound
		}
		items[i]["qty"] = quantity(items[i]) + action.Qty
		item = items[i]
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to restock")
	}

	ppeUnitsTotal.WithLabelValues("restock").Add(action.Qty)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "ppe restocked",
		"id", item["id"], "item", item.String("name"), "qty", action.Qty, "stock", item["qty"])
	return item, nil
}

func (s *ledgerService) Issue(ctx context.Context, action IssueAction) (IssueResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		items []storage.Record
		item  storage.Record
	)
	err := s.store.Update(ctx, PPE, &items, func() error {
		i := indexOf(items, action.ID)
		if i < 0 {
			return ErrNotFound
		}
		stock := quantity(items[i])
		if stock < action.Qty {
			return ErrInsufficientStock
		}
		items[i]["qty"] = stock - action.Qty
		item = items[i]
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			logger.WarnContext(ctx, "ppe issue rejected", "id", action.ID, "qty", action.Qty)
		}
		return IssueResult{}, WrapError(err, "failed to issue")
	}

	entry := storage.PPELogEntry{
		Date: s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Item: item.String("name"),
		Qty:  action.Qty,
		To:   action.To,
	}
	var logs []storage.PPELogEntry
	err = s.store.Update(ctx, PPELogs, &logs, func() error {
		logs = append([]storage.PPELogEntry{entry}, logs...)
		return nil
	})
	if err != nil {
		// Stock has already moved; the log entry is lost.
		logger.ErrorContext(ctx, "failed to append ppe log", "item", entry.Item, "qty", entry.Qty, "error", err)
		return IssueResult{}, WrapError(err, "failed to append ppe log")
	}

	ppeUnitsTotal.WithLabelValues("issue").Add(action.Qty)
	logger.InfoContext(ctx, "ppe issued", "item", entry.Item, "qty", action.Qty, "to", action.To, "stock", item["qty"])
	return IssueResult{OK: true, Item: item}, nil
}

func (s *ledgerService) Logs(ctx context.Context) ([]storage.PPELogEntry, error) {
	var logs []storage.PPELogEntry
	if err := s.store.Read(ctx, PPELogs, &logs); err != nil {
		return nil, WrapError(err, "failed to read ppe logs")
	}
	if logs == nil {
		logs = []storage.PPELogEntry{}
	}
	return logs, nil
}

// quantity reads an item's stock; a missing or non-numeric qty counts as zero.
func quantity(item storage.Record) float64 {
	qty, ok := storage.CoerceNumber(item["qty"])
	if !ok {
		return 0
	}
	return qty
}

func parseQty(v any) (float64, error) {
	if falsy(v) {
		return 0, nil
	}
	qty, ok := storage.CoerceNumber(v)
	if !ok {
		return 0, &ValidationError{Field: "qty", Message: "must be a number"}
	}
	if qty < 0 {
		return 0, &ValidationError{Field: "qty", Message: "cannot be negative"}
	}
	if qty != math.Trunc(qty) {
		return 0, &ValidationError{Field: "qty", Message: "must be a whole number"}
	}
	return qty, nil
}

// NormalizePPEItem checks the qty of a new item or an item patch and stores
// it as a number. Records without qty are left alone.
func NormalizePPEItem(rec storage.Record) error {
	v, ok := rec["qty"]
	if !ok {
		return nil
	}
	qty, err := parseQty(v)
	if err != nil {
		return err
	}
	rec["qty"] = qty
	return nil
}

// falsy reports whether a decoded JSON value is absent, null, false, zero or empty.
func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case float64:
		return t == 0
	}
	return false
}
