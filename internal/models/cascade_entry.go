package models

import (
	"fmt"
	"time"
)

// CascadeStatus is the lifecycle state of a journaled group cascade
type CascadeStatus string

const (
	CascadeStatusPending CascadeStatus = "pending"
	CascadeStatusApplied CascadeStatus = "applied"
	CascadeStatusFailed  CascadeStatus = "failed"
)

// CanTransitionTo reports whether moving from s to next is allowed
func (s CascadeStatus) CanTransitionTo(next CascadeStatus) bool {
	switch s {
	case CascadeStatusPending, CascadeStatusFailed:
		return next == CascadeStatusApplied || next == CascadeStatusFailed
	default:
		return false
	}
}

// CascadeEntry records a group rename/delete that touches the trip document and
// several itinerary items. Entries that are not applied get replayed.
type CascadeEntry struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TripID    string        `gorm:"type:varchar(128);index:idx_cascade_entries_trip_status,priority:1" json:"trip_id"`
	Kind      string        `gorm:"type:varchar(20)" json:"kind"` // "rename" or "delete"
	FromGroup string        `gorm:"type:varchar(255)" json:"from_group"`
	ToGroup   string        `gorm:"type:varchar(255)" json:"to_group"`
	Status    CascadeStatus `gorm:"type:varchar(20);index:idx_cascade_entries_trip_status,priority:2" json:"status"`
	Attempts  int           `json:"attempts"`
	LastError string        `gorm:"type:text" json:"last_error"`
	AppliedAt *time.Time    `json:"applied_at"`
}

// Transition moves the entry to next, recording the failure reason if any
func (e *CascadeEntry) Transition(next CascadeStatus, cause error) error {
	if !e.Status.CanTransitionTo(next) {
		return fmt.Errorf("cascade entry %s: cannot move from %s to %s", e.ID, e.Status, next)
	}
	e.Status = next
	e.Attempts++
	switch next {
	case CascadeStatusApplied:
		now := time.Now()
		e.AppliedAt = &now
		e.LastError = ""
	case CascadeStatusFailed:
		if cause != nil {
			e.LastError = cause.Error()
		}
	}
	return nil
}
