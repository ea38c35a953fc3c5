package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"tripmate/internal/itinerary"
	"tripmate/internal/models"
	"tripmate/internal/store"
)

// ItemInput is an itinerary item as sent by a client. Clock is an optional
// 24h "HH:mm" value that takes precedence over Time.
type ItemInput struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Clock    string `json:"clock"`
	Activity string `json:"activity"`
	Location string `json:"location"`
	Group    string `json:"group"`
}

// ItineraryView is the itinerary page: day labels, groups and sorted items
type ItineraryView struct {
	Days   []string               `json:"days"`
	Groups []string               `json:"groups"`
	Filter string                 `json:"filter"`
	Items  []models.ItineraryItem `json:"items"`
}

// GroupChange is the outcome of a group rename or delete
type GroupChange struct {
	Cascade itinerary.Cascade `json:"cascade"`
	Groups  []string          `json:"groups"`
	Filter  string            `json:"filter"`
}

func (s *TripService) Itinerary(ctx context.Context, uid, tripID, filter string) (ItineraryView, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return ItineraryView{}, err
	}
	items, err := s.store.ListItinerary(ctx, tripID)
	if err != nil {
		return ItineraryView{}, err
	}
	if filter == "" {
		filter = models.AllGroups
	}

	sorted := itinerary.SortItems(itinerary.FilterByGroup(items, filter))
	return ItineraryView{
		Days:   itinerary.DeriveDayLabels(trip.Date),
		Groups: itinerary.DisplayGroups(trip.SavedGroups()),
		Filter: filter,
		Items:  sorted,
	}, nil
}

func buildItem(trip models.Trip, in ItemInput) (models.ItineraryItem, error) {
	item := models.ItineraryItem{
		Day:      in.Day,
		Time:     in.Time,
		Activity: in.Activity,
		Location: in.Location,
		Group:    in.Group,
	}
	if in.Clock != "" {
		t, err := itinerary.FormatClock(in.Clock)
		if err != nil {
			return models.ItineraryItem{}, err
		}
		item.Time = t
	}
	item = itinerary.NormalizeItem(item)
	if err := itinerary.ValidateItem(item, itinerary.DayCount(trip.Date), trip.SavedGroups()); err != nil {
		return models.ItineraryItem{}, err
	}
	return item, nil
}

func (s *TripService) CreateItem(ctx context.Context, uid, tripID string, in ItemInput) (models.ItineraryItem, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return models.ItineraryItem{}, err
	}
	item, err := buildItem(trip, in)
	if err != nil {
		return models.ItineraryItem{}, err
	}
	item.Revision = 1

	created, err := s.store.CreateItineraryItem(ctx, tripID, item)
	if err != nil {
		return models.ItineraryItem{}, writeFailed("create_item", err)
	}
	return created, nil
}

func (s *TripService) UpdateItem(ctx context.Context, uid, tripID, itemID string, in ItemInput) (models.ItineraryItem, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return models.ItineraryItem{}, err
	}
	items, err := s.store.ListItinerary(ctx, tripID)
	if err != nil {
		return models.ItineraryItem{}, err
	}
	var current *models.ItineraryItem
	for i := range items {
		if items[i].ID == itemID {
			current = &items[i]
			break
		}
	}
	if current == nil {
		return models.ItineraryItem{}, store.ErrNotFound
	}

	item, err := buildItem(trip, in)
	if err != nil {
		return models.ItineraryItem{}, err
	}
	item.ID = itemID
	item.Revision = current.Revision + 1

	if err := s.store.PatchItineraryItem(ctx, tripID, itemID, store.FullItemPatch(item)); err != nil {
		return models.ItineraryItem{}, writeFailed("patch_item", err)
	}
	return item, nil
}

func (s *TripService) DeleteItem(ctx context.Context, uid, tripID, itemID string) error {
	if _, err := s.loadTrip(ctx, uid, tripID); err != nil {
		return err
	}
	if err := s.store.DeleteItineraryItem(ctx, tripID, itemID); err != nil {
		return writeFailed("delete_item", err)
	}
	return nil
}

// Days returns the trip's day labels
func (s *TripService) Days(ctx context.Context, uid, tripID string) ([]string, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return nil, err
	}
	return itinerary.DeriveDayLabels(trip.Date), nil
}

func (s *TripService) AddGroup(ctx context.Context, uid, tripID, name string) ([]string, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return nil, err
	}
	groups, err := itinerary.PlanAddGroup(trip.SavedGroups(), name)
	if err != nil {
		return nil, err
	}
	if err := s.store.PatchTrip(ctx, tripID, store.TripPatch{Groups: &groups}); err != nil {
		return nil, writeFailed("patch_trip", err)
	}
	return itinerary.DisplayGroups(groups), nil
}

func (s *TripService) RenameGroup(ctx context.Context, uid, tripID, oldName, newName, filter string) (GroupChange, error) {
	trip, items, err := s.groupState(ctx, uid, tripID)
	if err != nil {
		return GroupChange{}, err
	}
	c, err := itinerary.PlanRename(trip.SavedGroups(), items, oldName, newName)
	if err != nil {
		return GroupChange{}, err
	}
	return s.runCascade(ctx, tripID, c, filter)
}

func (s *TripService) DeleteGroup(ctx context.Context, uid, tripID, name, filter string) (GroupChange, error) {
	trip, items, err := s.groupState(ctx, uid, tripID)
	if err != nil {
		return GroupChange{}, err
	}
	c, err := itinerary.PlanDelete(trip.SavedGroups(), items, name)
	if err != nil {
		return GroupChange{}, err
	}
	return s.runCascade(ctx, tripID, c, filter)
}

func (s *TripService) groupState(ctx context.Context, uid, tripID string) (models.Trip, []models.ItineraryItem, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return models.Trip{}, nil, err
	}
	items, err := s.store.ListItinerary(ctx, tripID)
	if err != nil {
		return models.Trip{}, nil, err
	}
	return trip, items, nil
}

// runCascade writes c in a transaction when the store supports it and
// through the cascade journal otherwise.
func (s *TripService) runCascade(ctx context.Context, tripID string, c itinerary.Cascade, filter string) (GroupChange, error) {
	c.TripID = tripID
	change := GroupChange{Cascade: c, Groups: itinerary.DisplayGroups(c.Groups), Filter: itinerary.ActiveFilterAfter(c, filter)}
	if c.Noop() {
		return change, nil
	}

	var applied itinerary.Cascade
	var err error
	switch {
	case s.cascades != nil:
		applied, err = s.cascades.Run(ctx, c)
	default:
		applied, err = s.writeCascade(ctx, c)
	}
	if err != nil {
		return GroupChange{}, err
	}

	slog.Info("Group cascade applied",
		"trip", tripID, "kind", c.Kind, "from", c.From, "to", c.To, "items", len(applied.ItemIDs))
	change.Cascade = applied
	change.Groups = itinerary.DisplayGroups(applied.Groups)
	return change, nil
}

// writeCascade rebases c on the stored trip and items and writes it. Without
// a transactional store the item writes run concurrently and the group list
// is written last; any failure is reported as ErrPartialCascade.
func (s *TripService) writeCascade(ctx context.Context, c itinerary.Cascade) (itinerary.Cascade, error) {
	if applier, ok := s.store.(store.CascadeApplier); ok {
		applied, err := applier.ApplyCascade(ctx, c)
		if err != nil {
			return itinerary.Cascade{}, writeFailed("apply_cascade", err)
		}
		return applied, nil
	}

	trip, err := s.store.GetTrip(ctx, c.TripID)
	if errors.Is(err, store.ErrNotFound) {
		// trip is gone, nothing left to repair
		return c, nil
	}
	if err != nil {
		return itinerary.Cascade{}, fmt.Errorf("%w: %w", ErrPartialCascade, err)
	}
	items, err := s.store.ListItinerary(ctx, c.TripID)
	if err != nil {
		return itinerary.Cascade{}, fmt.Errorf("%w: %w", ErrPartialCascade, err)
	}
	c = c.Rebase(trip.SavedGroups(), items)

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range c.ItemIDs {
		id := id
		g.Go(func() error {
			return s.store.PatchItineraryItem(gctx, c.TripID, id, store.ItemPatch{Group: &c.To})
		})
	}
	if err := g.Wait(); err != nil {
		return itinerary.Cascade{}, writeFailed("cascade_items", fmt.Errorf("%w: %w", ErrPartialCascade, err))
	}

	if err := s.store.PatchTrip(ctx, c.TripID, store.TripPatch{Groups: &c.Groups}); err != nil {
		return itinerary.Cascade{}, writeFailed("cascade_groups", fmt.Errorf("%w: %w", ErrPartialCascade, err))
	}
	return c, nil
}

// RepairCascades replays up to limit journaled cascades across all trips
func (s *TripService) RepairCascades(ctx context.Context, limit int) (int, error) {
	if s.cascades == nil {
		return 0, nil
	}
	return s.cascades.Sweep(ctx, limit)
}
