package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
}

// ActionStamp records who performed a lifecycle action and when.
// Unset actions are represented by a nil pointer, never a zero value.
type ActionStamp struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

// NewActionStamp builds an ActionStamp for the given actor at the given time.
func NewActionStamp(userID string, at time.Time) *ActionStamp {
	return &ActionStamp{By: userID, At: at.UTC()}
}

// DateOnly normalizes a timestamp to midnight UTC of its calendar day.
// Period-lock comparisons must be timezone-safe and date-only.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
