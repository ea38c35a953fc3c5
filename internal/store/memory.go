package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripmate/internal/models"
)

var _ TripStore = (*MemoryStore)(nil)

// MemoryStore keeps everything in process. It is used for local development
// and tests and offers no cascade transactions.
type MemoryStore struct {
	mu        sync.RWMutex
	trips     map[string]models.Trip
	expenses  map[string][]models.Expense
	itinerary map[string][]models.ItineraryItem
	profiles  map[string]models.UserProfile
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:     make(map[string]models.Trip),
		expenses:  make(map[string][]models.Expense),
		itinerary: make(map[string][]models.ItineraryItem),
		profiles:  make(map[string]models.UserProfile),
		now:       time.Now,
	}
}

func cloneTrip(t models.Trip) models.Trip {
	t.Participants = slices.Clone(t.Participants)
	t.Groups = slices.Clone(t.Groups)
	return t
}

func cloneExpense(e models.Expense) models.Expense {
	e.SplitWith = slices.Clone(e.SplitWith)
	e.Settled = slices.Clone(e.Settled)
	return e
}

func (s *MemoryStore) GetTrip(_ context.Context, tripID string) (models.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trips[tripID]
	if !ok {
		return models.Trip{}, ErrNotFound
	}
	return cloneTrip(t), nil
}

func (s *MemoryStore) ListUserTrips(_ context.Context, uid string) ([]models.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trips := []models.Trip{}
	for _, t := range s.trips {
		if t.HasParticipant(uid) {
			trips = append(trips, cloneTrip(t))
		}
	}
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].CreatedAt.Equal(trips[j].CreatedAt) {
			return trips[i].CreatedAt.After(trips[j].CreatedAt)
		}
		return trips[i].ID < trips[j].ID
	})
	return trips, nil
}

func (s *MemoryStore) CreateTrip(_ context.Context, trip models.Trip) (models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = s.now()
	}
	s.trips[trip.ID] = cloneTrip(trip)
	return cloneTrip(trip), nil
}

func (s *MemoryStore) PatchTrip(_ context.Context, tripID string, patch TripPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[tripID]
	if !ok {
		return ErrNotFound
	}
	patch.apply(&t)
	s.trips[tripID] = t
	return nil
}

func (s *MemoryStore) AddParticipant(_ context.Context, tripID, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[tripID]
	if !ok {
		return ErrNotFound
	}
	if !t.HasParticipant(uid) {
		t.Participants = append(slices.Clone(t.Participants), uid)
		s.trips[tripID] = t
	}
	return nil
}

func (s *MemoryStore) RemoveParticipant(_ context.Context, tripID, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[tripID]
	if !ok {
		return ErrNotFound
	}
	t.Participants = slices.DeleteFunc(slices.Clone(t.Participants), func(p string) bool { return p == uid })
	s.trips[tripID] = t
	return nil
}

func (s *MemoryStore) DeleteTrip(_ context.Context, tripID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[tripID]; !ok {
		return ErrNotFound
	}
	delete(s.trips, tripID)
	delete(s.expenses, tripID)
	delete(s.itinerary, tripID)
	return nil
}

// ListExpenses returns the newest expense first
func (s *MemoryStore) ListExpenses(_ context.Context, tripID string) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Expense, 0, len(s.expenses[tripID]))
	for _, e := range s.expenses[tripID] {
		out = append(out, cloneExpense(e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) CreateExpense(_ context.Context, tripID string, e models.Expense) (models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[tripID]; !ok {
		return models.Expense{}, ErrNotFound
	}
	e.ID = uuid.NewString()
	s.expenses[tripID] = append(s.expenses[tripID], cloneExpense(e))
	return cloneExpense(e), nil
}

func (s *MemoryStore) PatchExpense(_ context.Context, tripID, expenseID string, patch ExpensePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.expenses[tripID] {
		if e.ID == expenseID {
			patch.apply(&e)
			s.expenses[tripID][i] = e
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteExpense(_ context.Context, tripID, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.expenses[tripID]
	for i, e := range list {
		if e.ID == expenseID {
			s.expenses[tripID] = slices.Delete(slices.Clone(list), i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListItinerary(_ context.Context, tripID string) ([]models.ItineraryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.itinerary[tripID]), nil
}

func (s *MemoryStore) CreateItineraryItem(_ context.Context, tripID string, item models.ItineraryItem) (models.ItineraryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[tripID]; !ok {
		return models.ItineraryItem{}, ErrNotFound
	}
	item.ID = uuid.NewString()
	s.itinerary[tripID] = append(s.itinerary[tripID], item)
	return item, nil
}

func (s *MemoryStore) PatchItineraryItem(_ context.Context, tripID, itemID string, patch ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.itinerary[tripID] {
		if item.ID == itemID {
			patch.apply(&item)
			s.itinerary[tripID][i] = item
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteItineraryItem(_ context.Context, tripID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.itinerary[tripID]
	for i, item := range list {
		if item.ID == itemID {
			s.itinerary[tripID] = slices.Delete(slices.Clone(list), i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) GetProfile(_ context.Context, uid string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[uid]
	if !ok {
		return models.UserProfile{}, ErrNotFound
	}
	return p, nil
}

// PutProfile merges non-empty fields into the stored profile
func (s *MemoryStore) PutProfile(_ context.Context, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.UID]
	if !ok {
		if profile.CreatedAt.IsZero() {
			profile.CreatedAt = s.now()
		}
		s.profiles[profile.UID] = profile
		return nil
	}
	if profile.DisplayName != "" {
		existing.DisplayName = profile.DisplayName
	}
	if profile.Email != "" {
		existing.Email = profile.Email
	}
	if profile.PhotoURL != "" {
		existing.PhotoURL = profile.PhotoURL
	}
	s.profiles[profile.UID] = existing
	return nil
}

func (s *MemoryStore) SearchProfileByEmail(_ context.Context, email string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.TrimSpace(email)
	var match *models.UserProfile
	for _, p := range s.profiles {
		if p.Email == email && (match == nil || p.UID < match.UID) {
			p := p
			match = &p
		}
	}
	if match == nil {
		return models.UserProfile{}, ErrNotFound
	}
	return *match, nil
}

func (s *MemoryStore) ListProfiles(_ context.Context) ([]models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}
