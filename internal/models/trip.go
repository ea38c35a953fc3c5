package models

import (
	"errors"
	"slices"
	"time"
)

// AllGroups is the virtual itinerary group that matches every item.
const AllGroups = "전체"

var ErrOwnerNotParticipant = errors.New("trip owner must be a participant")

// Trip is a shared travel plan stored at trips/{id}
type Trip struct {
	ID           string    `firestore:"-" json:"id"`
	Name         string    `firestore:"name" json:"name"`
	Date         string    `firestore:"date" json:"date"` // "2026.01.10 - 2026.01.13"
	Owner        string    `firestore:"owner" json:"owner"`
	Participants []string  `firestore:"participants" json:"participants"`
	Groups       []string  `firestore:"groups" json:"groups"`
	CreatedAt    time.Time `firestore:"createdAt" json:"created_at"`
}

// Validate checks the owner/participant invariant
func (t Trip) Validate() error {
	if t.Owner == "" || !slices.Contains(t.Participants, t.Owner) {
		return ErrOwnerNotParticipant
	}
	return nil
}

// HasParticipant reports whether uid belongs to the trip
func (t Trip) HasParticipant(uid string) bool {
	return slices.Contains(t.Participants, uid)
}

// SavedGroups returns the user-defined groups without the virtual AllGroups entry.
// Older trips were created with AllGroups persisted in the list.
func (t Trip) SavedGroups() []string {
	groups := make([]string, 0, len(t.Groups))
	for _, g := range t.Groups {
		if g != AllGroups {
			groups = append(groups, g)
		}
	}
	return groups
}
