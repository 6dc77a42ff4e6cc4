package service

import (
	"time"

	"hse-portal/internal/storage"
)

// Document names.
const (
	Notices   = "notices"
	Reports   = "reports"
	PPE       = "ppe"
	PPELogs   = "ppe_logs"
	Training  = "training"
	Policies  = "policies"
	Gallery   = "gallery"
	Visitors  = "visitors"
	PTW       = "ptw"
	Chat      = "chat"
	Factories = "factories"
	Stats     = "stats"
	Users     = "users"
)

// Modules lists the collections advertised by the API root.
var Modules = []string{Notices, Factories, Reports, PPE, Training, Policies, Gallery, Visitors, PTW, Chat}

// RegisterDefaults registers the seed value of every known document.
// now stamps the welcome chat message.
func RegisterDefaults(s *storage.Store, now time.Time) error {
	zero := storage.FactoryCounts{}
	defaults := map[string]any{
		Users: []storage.User{
			{Username: "admin", Password: "admin123", Role: "admin"},
			{Username: "user1", Password: "user123", Role: "user"},
		},
		Factories: storage.Factories{
			"Jangalpur": zero,
			"Dhulagarh": zero,
			"Amta":      zero,
			"Panchla":   zero,
		},
		Notices: []storage.Record{
			{"id": 1, "title": "Welcome!", "content": "Use the menu above to navigate the HSE Portal.", "active": true},
		},
		Reports:  []storage.Record{},
		Stats:    storage.Stats{"accidents": 0, "last": nil},
		PPE:      []storage.Record{},
		PPELogs:  []storage.PPELogEntry{},
		Training: storage.TrainingDocument{Modules: []storage.Record{}, Records: []storage.Record{}},
		Policies: []storage.Record{},
		Gallery:  []storage.Record{},
		Chat: []storage.Record{
			{"id": 1, "user": "System", "text": "Welcome", "time": now.Format("1/2/2006, 3:04:05 PM")},
		},
		PTW:      []storage.Record{},
		Visitors: []storage.Record{},
	}

	for name, def := range defaults {
		if err := s.Register(name, def); err != nil {
			return err
		}
	}
	return nil
}
