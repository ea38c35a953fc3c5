package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tripmate/internal/itinerary"
	"tripmate/internal/metrics"
	"tripmate/internal/models"
)

// Applier rebases c on the current store state and issues its writes. It
// returns the cascade it actually wrote.
type Applier func(ctx context.Context, c itinerary.Cascade) (itinerary.Cascade, error)

// Runner journals a cascade before writing it so that partial failures can be
// replayed.
type Runner struct {
	journal Journal
	apply   Applier
}

func NewRunner(journal Journal, apply Applier) *Runner {
	return &Runner{journal: journal, apply: apply}
}

// Run records c as pending, applies it and marks the outcome. On failure the
// entry stays failed and the returned error wraps the write error.
func (r *Runner) Run(ctx context.Context, c itinerary.Cascade) (itinerary.Cascade, error) {
	entry, err := r.journal.Record(ctx, c)
	if err != nil {
		return itinerary.Cascade{}, fmt.Errorf("record cascade: %w", err)
	}
	return r.runEntry(ctx, entry, c)
}

func (r *Runner) runEntry(ctx context.Context, entry models.CascadeEntry, c itinerary.Cascade) (itinerary.Cascade, error) {
	applied, applyErr := r.apply(ctx, c)
	if applyErr != nil {
		metrics.CascadeOutcomes.WithLabelValues(entry.Kind, string(models.CascadeStatusFailed)).Inc()
		if err := r.journal.MarkFailed(ctx, entry.ID, applyErr); err != nil {
			slog.Error("Failed to mark cascade failed", "entry", entry.ID, "error", err)
		}
		return itinerary.Cascade{}, applyErr
	}

	metrics.CascadeOutcomes.WithLabelValues(entry.Kind, string(models.CascadeStatusApplied)).Inc()
	if err := r.journal.MarkApplied(ctx, entry.ID); err != nil {
		slog.Error("Failed to mark cascade applied", "entry", entry.ID, "error", err)
	}
	return applied, nil
}

// Replay re-applies entries in order. It stops at the first failure so later
// cascades on the same trip never overtake an earlier one.
func (r *Runner) Replay(ctx context.Context, entries []models.CascadeEntry) (int, error) {
	replayed := 0
	for _, entry := range entries {
		slog.Info("Replaying group cascade",
			"entry", entry.ID, "trip", entry.TripID, "kind", entry.Kind,
			"from", entry.FromGroup, "to", entry.ToGroup, "attempts", entry.Attempts)

		if _, err := r.runEntry(ctx, entry, ToCascade(entry)); err != nil {
			return replayed, fmt.Errorf("replay cascade %s: %w", entry.ID, err)
		}
		replayed++
	}
	return replayed, nil
}

// ReplayTrip finishes every unapplied cascade recorded for the trip
func (r *Runner) ReplayTrip(ctx context.Context, tripID string) (int, error) {
	entries, err := r.journal.Unapplied(ctx, tripID)
	if err != nil {
		return 0, err
	}
	return r.Replay(ctx, entries)
}

// Sweep replays up to limit stale entries across all trips. A failing trip
// does not block the others.
func (r *Runner) Sweep(ctx context.Context, limit int) (int, error) {
	entries, err := r.journal.Stale(ctx, limit)
	if err != nil {
		return 0, err
	}

	byTrip := make(map[string][]models.CascadeEntry)
	var trips []string
	for _, e := range entries {
		if _, ok := byTrip[e.TripID]; !ok {
			trips = append(trips, e.TripID)
		}
		byTrip[e.TripID] = append(byTrip[e.TripID], e)
	}

	total := 0
	var errs []error
	for _, tripID := range trips {
		n, err := r.Replay(ctx, byTrip[tripID])
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}
