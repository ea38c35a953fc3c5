package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"tripmate/internal/cascade"
	"tripmate/internal/itinerary"
	"tripmate/internal/metrics"
	"tripmate/internal/models"
	"tripmate/internal/store"
)

var (
	ErrStoreWrite     = errors.New("store write failed")
	ErrPartialCascade = errors.New("group change was only partially saved")
	ErrForbidden      = errors.New("not a participant of this trip")
	ErrNotOwner       = errors.New("only the trip owner can do this")
	ErrOwnerEviction  = errors.New("the trip owner cannot be removed")
	ErrBlankTripName  = errors.New("trip name is blank")
)

// TripService orchestrates the store, the settlement engine and the
// itinerary scheduler for the HTTP handlers and the worker.
type TripService struct {
	store    store.TripStore
	profiles *ProfileDirectory
	cascades *cascade.Runner // nil when the store applies cascades itself

	mu      sync.Mutex
	ledgers *lru.Cache // trip id -> *settlement.Ledger
}

// ledgerCapacity bounds how many trips keep a ledger in memory. An evicted
// ledger is rebuilt from the store on the next read.
const ledgerCapacity = 512

// NewTripService wires the service. journal is only used when the store
// cannot apply cascades in a transaction.
func NewTripService(ts store.TripStore, profiles *ProfileDirectory, journal cascade.Journal) *TripService {
	s := &TripService{
		store:    ts,
		profiles: profiles,
		ledgers:  lru.New(ledgerCapacity),
	}
	if _, ok := ts.(store.CascadeApplier); !ok && journal != nil {
		s.cascades = cascade.NewRunner(journal, s.writeCascade)
	}
	return s
}

// writeFailed wraps a failed store write. Missing documents are reported as
// store.ErrNotFound rather than as a write failure.
func writeFailed(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	metrics.StoreWriteFailures.WithLabelValues(op).Inc()
	slog.Error("Store write failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w: %w", op, ErrStoreWrite, err)
}

// TripDetail is a trip with everything derived from it that the trip page needs
type TripDetail struct {
	Trip         models.Trip          `json:"trip"`
	Participants []models.Participant `json:"participants"`
	Days         []string             `json:"days"`
	Groups       []string             `json:"groups"`
}

// loadTrip fetches a trip the caller belongs to, finishing any journaled
// cascades left over from an earlier partial failure first.
func (s *TripService) loadTrip(ctx context.Context, uid, tripID string) (models.Trip, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	trip.ID = tripID
	if uid != "" && !trip.HasParticipant(uid) {
		return models.Trip{}, ErrForbidden
	}

	if s.cascades == nil {
		return trip, nil
	}
	n, err := s.cascades.ReplayTrip(ctx, tripID)
	if err != nil {
		slog.Warn("Cascade replay failed", "trip", tripID, "error", err)
	}
	if n == 0 {
		return trip, nil
	}
	slog.Info("Replayed group cascades", "trip", tripID, "count", n)
	trip, err = s.store.GetTrip(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	trip.ID = tripID
	return trip, nil
}

func (s *TripService) loadOwnedTrip(ctx context.Context, uid, tripID string) (models.Trip, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	if trip.Owner != uid {
		return models.Trip{}, ErrNotOwner
	}
	return trip, nil
}

func (s *TripService) ListTrips(ctx context.Context, uid string) ([]models.Trip, error) {
	return s.store.ListUserTrips(ctx, uid)
}

func (s *TripService) GetTrip(ctx context.Context, uid, tripID string) (TripDetail, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return TripDetail{}, err
	}
	participants, err := s.profiles.Participants(ctx, trip.Participants)
	if err != nil {
		return TripDetail{}, err
	}
	return TripDetail{
		Trip:         trip,
		Participants: participants,
		Days:         itinerary.DeriveDayLabels(trip.Date),
		Groups:       itinerary.DisplayGroups(trip.SavedGroups()),
	}, nil
}

// CreateTrip starts a trip with the owner as its only participant
func (s *TripService) CreateTrip(ctx context.Context, owner, name, date string) (models.Trip, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Trip{}, ErrBlankTripName
	}
	date = strings.TrimSpace(date)
	if err := itinerary.ValidateDateRange(date); err != nil {
		return models.Trip{}, err
	}

	trip := models.Trip{
		Name:         name,
		Date:         date,
		Owner:        owner,
		Participants: []string{owner},
		Groups:       []string{},
		CreatedAt:    time.Now(),
	}
	if err := trip.Validate(); err != nil {
		return models.Trip{}, err
	}

	created, err := s.store.CreateTrip(ctx, trip)
	if err != nil {
		return models.Trip{}, writeFailed("create_trip", err)
	}
	slog.Info("Trip created", "trip", created.ID, "owner", owner)
	return created, nil
}

// UpdateTrip edits the name and/or date range. Empty values are left unchanged.
func (s *TripService) UpdateTrip(ctx context.Context, uid, tripID, name, date string) (models.Trip, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return models.Trip{}, err
	}

	var patch store.TripPatch
	if name = strings.TrimSpace(name); name != "" {
		patch.Name = &name
		trip.Name = name
	}
	if date = strings.TrimSpace(date); date != "" {
		if err := itinerary.ValidateDateRange(date); err != nil {
			return models.Trip{}, err
		}
		patch.Date = &date
		trip.Date = date
	}

	if err := s.store.PatchTrip(ctx, tripID, patch); err != nil {
		return models.Trip{}, writeFailed("patch_trip", err)
	}
	return trip, nil
}

func (s *TripService) DeleteTrip(ctx context.Context, uid, tripID string) error {
	if _, err := s.loadOwnedTrip(ctx, uid, tripID); err != nil {
		return err
	}
	if err := s.store.DeleteTrip(ctx, tripID); err != nil {
		return writeFailed("delete_trip", err)
	}

	s.mu.Lock()
	s.ledgers.Remove(tripID)
	s.mu.Unlock()

	slog.Info("Trip deleted", "trip", tripID, "by", uid)
	return nil
}

// JoinTrip adds the caller to a trip they were invited to
func (s *TripService) JoinTrip(ctx context.Context, uid, tripID string) error {
	if _, err := s.loadTrip(ctx, "", tripID); err != nil {
		return err
	}
	if err := s.store.AddParticipant(ctx, tripID, uid); err != nil {
		return writeFailed("add_participant", err)
	}
	return nil
}

// AddMember lets a participant add another registered user to the trip
func (s *TripService) AddMember(ctx context.Context, uid, tripID, memberUID string) error {
	if _, err := s.loadTrip(ctx, uid, tripID); err != nil {
		return err
	}
	if _, err := s.profiles.Get(ctx, memberUID); err != nil {
		return err
	}
	if err := s.store.AddParticipant(ctx, tripID, memberUID); err != nil {
		return writeFailed("add_participant", err)
	}
	return nil
}

// RemoveMember evicts a participant. Only the owner may evict and the owner
// can never be evicted.
func (s *TripService) RemoveMember(ctx context.Context, uid, tripID, memberUID string) error {
	trip, err := s.loadOwnedTrip(ctx, uid, tripID)
	if err != nil {
		return err
	}
	if memberUID == trip.Owner {
		return ErrOwnerEviction
	}
	if err := s.store.RemoveParticipant(ctx, tripID, memberUID); err != nil {
		return writeFailed("remove_participant", err)
	}
	slog.Info("Member removed", "trip", tripID, "member", memberUID)
	return nil
}

// Profiles exposes the profile directory to handlers
func (s *TripService) Profiles() *ProfileDirectory {
	return s.profiles
}
