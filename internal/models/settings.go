package models

// Settings holds application-wide preferences persisted by the store.
type Settings struct {
	NotificationsEnabled bool   `json:"notifications_enabled"`
	DefaultTime          string `json:"default_time"`     // HH:MM
	AdvanceMinutes       int    `json:"advance_minutes"`  // reminder lead time
	DefaultCategory      string `json:"default_category"` // category for new habits
}
