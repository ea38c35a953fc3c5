// Package store is the persistence boundary for trips, their expenses and
// itinerary, and user profiles.
package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"tripmate/internal/itinerary"
	"tripmate/internal/models"
)

var ErrNotFound = errors.New("not found")

// Ptr returns a pointer to v, for building patches
func Ptr[T any](v T) *T {
	return &v
}

// TripPatch lists the trip fields to overwrite. Nil fields are left alone.
type TripPatch struct {
	Name   *string
	Date   *string
	Groups *[]string
}

// ExpensePatch lists the expense fields to overwrite. SettledChange adds or
// removes a single member of settled without rewriting the rest of it, and
// BumpRevision increments the stored revision instead of setting it.
type ExpensePatch struct {
	Item          *string
	Amount        *float64
	Currency      *models.Currency
	AmountKRW     *float64
	Payer         *string
	SplitWith     *[]string
	Settled       *[]string
	SettledChange *SettledChange
	Date          *time.Time
	Revision      *int64
	BumpRevision  bool
}

// SettledChange marks (Settled true) or unmarks one uid as settled
type SettledChange struct {
	UID     string
	Settled bool
}

type ItemPatch struct {
	Day      *string
	Time     *string
	Activity *string
	Location *string
	Group    *string
	Revision *int64
}

// ProfileStore holds users/{uid} documents
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (models.UserProfile, error)
	PutProfile(ctx context.Context, profile models.UserProfile) error
	SearchProfileByEmail(ctx context.Context, email string) (models.UserProfile, error)
	ListProfiles(ctx context.Context) ([]models.UserProfile, error)
}

// TripStore is every read and write the services issue. Each write is a
// single document write; last writer wins.
type TripStore interface {
	ProfileStore

	GetTrip(ctx context.Context, tripID string) (models.Trip, error)
	ListUserTrips(ctx context.Context, uid string) ([]models.Trip, error)
	CreateTrip(ctx context.Context, trip models.Trip) (models.Trip, error)
	PatchTrip(ctx context.Context, tripID string, patch TripPatch) error
	AddParticipant(ctx context.Context, tripID, uid string) error
	RemoveParticipant(ctx context.Context, tripID, uid string) error
	DeleteTrip(ctx context.Context, tripID string) error

	ListExpenses(ctx context.Context, tripID string) ([]models.Expense, error)
	CreateExpense(ctx context.Context, tripID string, expense models.Expense) (models.Expense, error)
	PatchExpense(ctx context.Context, tripID, expenseID string, patch ExpensePatch) error
	DeleteExpense(ctx context.Context, tripID, expenseID string) error

	ListItinerary(ctx context.Context, tripID string) ([]models.ItineraryItem, error)
	CreateItineraryItem(ctx context.Context, tripID string, item models.ItineraryItem) (models.ItineraryItem, error)
	PatchItineraryItem(ctx context.Context, tripID, itemID string, patch ItemPatch) error
	DeleteItineraryItem(ctx context.Context, tripID, itemID string) error
}

// CascadeApplier is implemented by stores that can write a group cascade
// atomically. The cascade is rebased on the state read inside the transaction.
type CascadeApplier interface {
	ApplyCascade(ctx context.Context, c itinerary.Cascade) (itinerary.Cascade, error)
}

func (p TripPatch) apply(t *models.Trip) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Groups != nil {
		t.Groups = append([]string(nil), (*p.Groups)...)
	}
}

func (p ExpensePatch) apply(e *models.Expense) {
	if p.Item != nil {
		e.Item = *p.Item
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Currency != nil {
		e.Currency = *p.Currency
	}
	if p.AmountKRW != nil {
		e.AmountKRW = *p.AmountKRW
	}
	if p.Payer != nil {
		e.Payer = *p.Payer
	}
	if p.SplitWith != nil {
		e.SplitWith = append([]string(nil), (*p.SplitWith)...)
	}
	if p.Settled != nil {
		e.Settled = append([]string(nil), (*p.Settled)...)
	}
	if c := p.SettledChange; c != nil {
		switch {
		case !c.Settled:
			e.Settled = slices.DeleteFunc(slices.Clone(e.Settled), func(uid string) bool { return uid == c.UID })
		case !slices.Contains(e.Settled, c.UID):
			e.Settled = append(slices.Clone(e.Settled), c.UID)
		}
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Revision != nil {
		e.Revision = *p.Revision
	}
	if p.BumpRevision {
		e.Revision++
	}
}

func (p ItemPatch) apply(item *models.ItineraryItem) {
	if p.Day != nil {
		item.Day = *p.Day
	}
	if p.Time != nil {
		item.Time = *p.Time
	}
	if p.Activity != nil {
		item.Activity = *p.Activity
	}
	if p.Location != nil {
		item.Location = *p.Location
	}
	if p.Group != nil {
		item.Group = *p.Group
	}
	if p.Revision != nil {
		item.Revision = *p.Revision
	}
}

// FullExpensePatch overwrites every editable field of an expense
func FullExpensePatch(e models.Expense) ExpensePatch {
	return ExpensePatch{
		Item:      &e.Item,
		Amount:    &e.Amount,
		Currency:  &e.Currency,
		AmountKRW: &e.AmountKRW,
		Payer:     &e.Payer,
		SplitWith: &e.SplitWith,
		Settled:   &e.Settled,
		Date:      &e.Date,
		Revision:  &e.Revision,
	}
}

func FullItemPatch(item models.ItineraryItem) ItemPatch {
	return ItemPatch{
		Day:      &item.Day,
		Time:     &item.Time,
		Activity: &item.Activity,
		Location: &item.Location,
		Group:    &item.Group,
		Revision: &item.Revision,
	}
}
