package models

import "time"

// Participant is a trip member as seen by the settlement math
type Participant struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
}

// UserProfile is the profile document stored at users/{uid}
type UserProfile struct {
	UID         string    `firestore:"-" json:"uid"`
	DisplayName string    `firestore:"displayName" json:"display_name"`
	Email       string    `firestore:"email" json:"email"`
	PhotoURL    string    `firestore:"photoURL" json:"photo_url"`
	CreatedAt   time.Time `firestore:"createdAt" json:"created_at"`
}

// UnknownDisplayName is shown for participants whose profile is missing
const UnknownDisplayName = "알 수 없음"

// Participant converts the profile into a settlement participant
func (p UserProfile) Participant() Participant {
	name := p.DisplayName
	if name == "" {
		name = UnknownDisplayName
	}
	return Participant{UID: p.UID, DisplayName: name}
}
