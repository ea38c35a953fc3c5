// Package cascade journals group rename/delete cascades so that a cascade
// interrupted by a failed write is finished later instead of being left half
// applied.
package cascade

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripmate/internal/itinerary"
	"tripmate/internal/models"
)

// MaxAttempts is how many times an entry is tried before sweeps skip it
const MaxAttempts = 10

var ErrEntryNotFound = errors.New("cascade entry not found")

// Journal stores cascade intents and their outcome
type Journal interface {
	Record(ctx context.Context, c itinerary.Cascade) (models.CascadeEntry, error)
	MarkApplied(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error) error
	// Unapplied returns the trip's pending and failed entries, oldest first
	Unapplied(ctx context.Context, tripID string) ([]models.CascadeEntry, error)
	// Stale returns up to limit pending or failed entries across all trips
	Stale(ctx context.Context, limit int) ([]models.CascadeEntry, error)
}

func newEntry(c itinerary.Cascade) models.CascadeEntry {
	return models.CascadeEntry{
		ID:        uuid.NewString(),
		TripID:    c.TripID,
		Kind:      string(c.Kind),
		FromGroup: c.From,
		ToGroup:   c.To,
		Status:    models.CascadeStatusPending,
	}
}

// ToCascade rebuilds the cascade intent of an entry. Groups and ItemIDs are
// left empty; the cascade must be rebased before it is written.
func ToCascade(e models.CascadeEntry) itinerary.Cascade {
	return itinerary.Cascade{
		Kind:   itinerary.CascadeKind(e.Kind),
		TripID: e.TripID,
		From:   e.FromGroup,
		To:     e.ToGroup,
	}
}

var unappliedStatuses = []models.CascadeStatus{models.CascadeStatusPending, models.CascadeStatusFailed}

var _ Journal = (*GormJournal)(nil)

// GormJournal keeps the journal in the cascade_entries table
type GormJournal struct {
	db *gorm.DB
}

func NewGormJournal(db *gorm.DB) *GormJournal {
	return &GormJournal{db: db}
}

func (j *GormJournal) Record(ctx context.Context, c itinerary.Cascade) (models.CascadeEntry, error) {
	entry := newEntry(c)
	if err := j.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return models.CascadeEntry{}, err
	}
	return entry, nil
}

func (j *GormJournal) transition(ctx context.Context, id string, next models.CascadeStatus, cause error) error {
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.CascadeEntry
		if err := tx.First(&entry, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		if err := entry.Transition(next, cause); err != nil {
			return err
		}
		return tx.Save(&entry).Error
	})
}

func (j *GormJournal) MarkApplied(ctx context.Context, id string) error {
	return j.transition(ctx, id, models.CascadeStatusApplied, nil)
}

func (j *GormJournal) MarkFailed(ctx context.Context, id string, cause error) error {
	return j.transition(ctx, id, models.CascadeStatusFailed, cause)
}

func (j *GormJournal) Unapplied(ctx context.Context, tripID string) ([]models.CascadeEntry, error) {
	var entries []models.CascadeEntry
	err := j.db.WithContext(ctx).
		Where("trip_id = ? AND status IN ?", tripID, unappliedStatuses).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (j *GormJournal) Stale(ctx context.Context, limit int) ([]models.CascadeEntry, error) {
	var entries []models.CascadeEntry
	err := j.db.WithContext(ctx).
		Where("status IN ? AND attempts < ?", unappliedStatuses, MaxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

var _ Journal = (*MemoryJournal)(nil)

// MemoryJournal is the in-process journal used with the memory store
type MemoryJournal struct {
	mu      sync.Mutex
	seq     int
	entries map[string]*models.CascadeEntry
	order   map[string]int
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		entries: make(map[string]*models.CascadeEntry),
		order:   make(map[string]int),
	}
}

func (j *MemoryJournal) Record(_ context.Context, c itinerary.Cascade) (models.CascadeEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := newEntry(c)
	j.seq++
	j.entries[entry.ID] = &entry
	j.order[entry.ID] = j.seq
	return entry, nil
}

func (j *MemoryJournal) transition(id string, next models.CascadeStatus, cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	updated := *entry
	if err := updated.Transition(next, cause); err != nil {
		return err
	}
	*entry = updated
	return nil
}

func (j *MemoryJournal) MarkApplied(_ context.Context, id string) error {
	return j.transition(id, models.CascadeStatusApplied, nil)
}

func (j *MemoryJournal) MarkFailed(_ context.Context, id string, cause error) error {
	return j.transition(id, models.CascadeStatusFailed, cause)
}

func (j *MemoryJournal) filter(keep func(models.CascadeEntry) bool) []models.CascadeEntry {
	var out []models.CascadeEntry
	for _, e := range j.entries {
		if e.Status != models.CascadeStatusApplied && keep(*e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(a, b int) bool { return j.order[out[a].ID] < j.order[out[b].ID] })
	return out
}

func (j *MemoryJournal) Unapplied(_ context.Context, tripID string) ([]models.CascadeEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.filter(func(e models.CascadeEntry) bool { return e.TripID == tripID }), nil
}

func (j *MemoryJournal) Stale(_ context.Context, limit int) ([]models.CascadeEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := j.filter(func(e models.CascadeEntry) bool { return e.Attempts < MaxAttempts })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns a copy of an entry, mostly for tests and the admin view
func (j *MemoryJournal) Get(id string) (models.CascadeEntry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.entries[id]
	if !ok {
		return models.CascadeEntry{}, false
	}
	return *e, true
}
