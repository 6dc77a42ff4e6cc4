package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one addressable item of a list-shaped document.
// Every stored record carries a numeric "id"; all other fields are free-form.
type Record map[string]any

// ID returns the record id coerced to a number.
func (r Record) ID() (float64, bool) {
	return CoerceNumber(r["id"])
}

// HasID reports whether the record carries a usable, non-zero id.
func (r Record) HasID() bool {
	id, ok := r.ID()
	return ok && id != 0
}

// SetID assigns the record id.
func (r Record) SetID(id int64) {
	r["id"] = id
}

// MatchesID reports whether the record id equals id after numeric coercion,
// so "42" matches 42. NaN never matches.
func (r Record) MatchesID(id float64) bool {
	own, ok := r.ID()
	return ok && own == id
}

// Merge returns a copy of r with the fields of patch laid over it.
// The id of r is kept.
func (r Record) Merge(patch Record) Record {
	merged := make(Record, len(r)+len(patch))
	for k, v := range r {
		merged[k] = v
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		merged[k] = v
	}
	return merged
}

// String returns the field as a string, or "" when absent or not a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// CoerceNumber converts JSON-decoded numbers and numeric strings to float64.
func CoerceNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseID parses a path or body id. Unparseable ids yield NaN, which matches no record.
func ParseID(raw string) float64 {
	id, ok := CoerceNumber(raw)
	if !ok {
		return math.NaN()
	}
	return id
}

// PPELogEntry records one issue of PPE stock. Entries are never updated or deleted.
type PPELogEntry struct {
	Date string  `json:"date"`
	Item string  `json:"item"`
	Qty  float64 `json:"qty"`
	To   string  `json:"to"`
}

// TrainingDocument holds the two training sequences persisted as one document.
type TrainingDocument struct {
	Modules []Record `json:"modules"`
	Records []Record `json:"records"`
}

// Normalize replaces nil sequences with empty ones so they encode as [].
func (d *TrainingDocument) Normalize() {
	if d.Modules == nil {
		d.Modules = []Record{}
	}
	if d.Records == nil {
		d.Records = []Record{}
	}
}

// FactoryCounts are the safety headcounts tracked per factory.
type FactoryCounts struct {
	Fire     int `json:"fire"`
	FirstAid int `json:"firstAid"`
	Manpower int `json:"manpower"`
}

// UnmarshalJSON accepts numbers and numeric strings for each count. Missing,
// null and empty counts are zero. Fractional and negative counts are rejected.
func (c *FactoryCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var counts FactoryCounts
	fields := []struct {
		key string
		dst *int
	}{
		{"fire", &counts.Fire},
		{"firstAid", &counts.FirstAid},
		{"manpower", &counts.Manpower},
	}
	for _, f := range fields {
		n, err := countField(raw[f.key])
		if err != nil {
			return fmt.Errorf("factory %s: %w", f.key, err)
		}
		*f.dst = n
	}
	*c = counts
	return nil
}

func countField(v any) (int, error) {
	if v == nil || v == "" {
		return 0, nil
	}
	n, ok := CoerceNumber(v)
	if !ok {
		return 0, fmt.Errorf("%v is not a number", v)
	}
	if n < 0 || n != math.Trunc(n) {
		return 0, fmt.Errorf("%v is not a whole non-negative number", v)
	}
	return int(n), nil
}

// Factories maps a factory name to its counts.
type Factories map[string]FactoryCounts

// Stats holds free-form dashboard counters.
type Stats map[string]any

// User is read-only reference data used by the login check.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
