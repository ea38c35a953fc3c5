package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tripmate/internal/itinerary"
	"tripmate/internal/models"
)

const (
	tripsCollection     = "trips"
	expensesCollection  = "expenses"
	itineraryCollection = "itinerary"
	usersCollection     = "users"
)

var (
	_ TripStore      = (*FirestoreStore)(nil)
	_ CascadeApplier = (*FirestoreStore)(nil)
)

// FirestoreStore reads and writes the documents under trips/ and users/
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func mapErr(err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreStore) trip(tripID string) *firestore.DocumentRef {
	return s.client.Collection(tripsCollection).Doc(tripID)
}

func (s *FirestoreStore) expenses(tripID string) *firestore.CollectionRef {
	return s.trip(tripID).Collection(expensesCollection)
}

func (s *FirestoreStore) itinerary(tripID string) *firestore.CollectionRef {
	return s.trip(tripID).Collection(itineraryCollection)
}

// collect drains a document iterator, decoding every document with decode
func collect[T any](it *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer it.Stop()

	out := []T{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := decode(snap)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
		}
		out = append(out, v)
	}
}

func decodeTrip(snap *firestore.DocumentSnapshot) (models.Trip, error) {
	var t models.Trip
	if err := snap.DataTo(&t); err != nil {
		return models.Trip{}, err
	}
	t.ID = snap.Ref.ID
	return t, nil
}

func decodeExpense(snap *firestore.DocumentSnapshot) (models.Expense, error) {
	var e models.Expense
	if err := snap.DataTo(&e); err != nil {
		return models.Expense{}, err
	}
	e.ID = snap.Ref.ID
	return e, nil
}

func decodeItem(snap *firestore.DocumentSnapshot) (models.ItineraryItem, error) {
	var item models.ItineraryItem
	if err := snap.DataTo(&item); err != nil {
		return models.ItineraryItem{}, err
	}
	item.ID = snap.Ref.ID
	return item, nil
}

func decodeProfile(snap *firestore.DocumentSnapshot) (models.UserProfile, error) {
	var p models.UserProfile
	if err := snap.DataTo(&p); err != nil {
		return models.UserProfile{}, err
	}
	p.UID = snap.Ref.ID
	return p, nil
}

func (s *FirestoreStore) GetTrip(ctx context.Context, tripID string) (models.Trip, error) {
	snap, err := s.trip(tripID).Get(ctx)
	if err != nil {
		return models.Trip{}, mapErr(err)
	}
	return decodeTrip(snap)
}

func (s *FirestoreStore) ListUserTrips(ctx context.Context, uid string) ([]models.Trip, error) {
	q := s.client.Collection(tripsCollection).
		Where("participants", "array-contains", uid).
		OrderBy("createdAt", firestore.Desc)
	return collect(q.Documents(ctx), decodeTrip)
}

func (s *FirestoreStore) CreateTrip(ctx context.Context, trip models.Trip) (models.Trip, error) {
	ref, _, err := s.client.Collection(tripsCollection).Add(ctx, trip)
	if err != nil {
		return models.Trip{}, err
	}
	trip.ID = ref.ID
	return trip, nil
}

func tripUpdates(p TripPatch) []firestore.Update {
	var updates []firestore.Update
	if p.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *p.Name})
	}
	if p.Date != nil {
		updates = append(updates, firestore.Update{Path: "date", Value: *p.Date})
	}
	if p.Groups != nil {
		updates = append(updates, firestore.Update{Path: "groups", Value: *p.Groups})
	}
	return updates
}

func (s *FirestoreStore) PatchTrip(ctx context.Context, tripID string, patch TripPatch) error {
	updates := tripUpdates(patch)
	if len(updates) == 0 {
		return nil
	}
	_, err := s.trip(tripID).Update(ctx, updates)
	return mapErr(err)
}

func (s *FirestoreStore) AddParticipant(ctx context.Context, tripID, uid string) error {
	_, err := s.trip(tripID).Update(ctx, []firestore.Update{
		{Path: "participants", Value: firestore.ArrayUnion(uid)},
	})
	return mapErr(err)
}

func (s *FirestoreStore) RemoveParticipant(ctx context.Context, tripID, uid string) error {
	_, err := s.trip(tripID).Update(ctx, []firestore.Update{
		{Path: "participants", Value: firestore.ArrayRemove(uid)},
	})
	return mapErr(err)
}

// DeleteTrip removes the trip and its expense and itinerary subcollections
func (s *FirestoreStore) DeleteTrip(ctx context.Context, tripID string) error {
	bw := s.client.BulkWriter(ctx)
	for _, col := range []*firestore.CollectionRef{s.expenses(tripID), s.itinerary(tripID)} {
		refs, err := col.DocumentRefs(ctx).GetAll()
		if err != nil {
			bw.End()
			return err
		}
		for _, ref := range refs {
			if _, err := bw.Delete(ref); err != nil {
				bw.End()
				return err
			}
		}
	}
	bw.End()

	_, err := s.trip(tripID).Delete(ctx, firestore.Exists)
	return mapErr(err)
}

func (s *FirestoreStore) ListExpenses(ctx context.Context, tripID string) ([]models.Expense, error) {
	q := s.expenses(tripID).OrderBy("date", firestore.Desc)
	return collect(q.Documents(ctx), decodeExpense)
}

func (s *FirestoreStore) CreateExpense(ctx context.Context, tripID string, e models.Expense) (models.Expense, error) {
	ref, _, err := s.expenses(tripID).Add(ctx, e)
	if err != nil {
		return models.Expense{}, err
	}
	e.ID = ref.ID
	return e, nil
}

func expenseUpdates(p ExpensePatch) []firestore.Update {
	var updates []firestore.Update
	add := func(path string, ok bool, v func() any) {
		if ok {
			updates = append(updates, firestore.Update{Path: path, Value: v()})
		}
	}
	add("item", p.Item != nil, func() any { return *p.Item })
	add("amount", p.Amount != nil, func() any { return *p.Amount })
	add("currency", p.Currency != nil, func() any { return string(*p.Currency) })
	add("amountKRW", p.AmountKRW != nil, func() any { return *p.AmountKRW })
	add("payer", p.Payer != nil, func() any { return *p.Payer })
	add("splitWith", p.SplitWith != nil, func() any { return *p.SplitWith })
	add("settled", p.Settled != nil, func() any { return *p.Settled })
	add("settled", p.SettledChange != nil, func() any {
		if p.SettledChange.Settled {
			return firestore.ArrayUnion(p.SettledChange.UID)
		}
		return firestore.ArrayRemove(p.SettledChange.UID)
	})
	add("date", p.Date != nil, func() any { return *p.Date })
	add("revision", p.Revision != nil, func() any { return *p.Revision })
	add("revision", p.BumpRevision, func() any { return firestore.Increment(1) })
	return updates
}

func (s *FirestoreStore) PatchExpense(ctx context.Context, tripID, expenseID string, patch ExpensePatch) error {
	updates := expenseUpdates(patch)
	if len(updates) == 0 {
		return nil
	}
	_, err := s.expenses(tripID).Doc(expenseID).Update(ctx, updates)
	return mapErr(err)
}

func (s *FirestoreStore) DeleteExpense(ctx context.Context, tripID, expenseID string) error {
	_, err := s.expenses(tripID).Doc(expenseID).Delete(ctx, firestore.Exists)
	return mapErr(err)
}

func (s *FirestoreStore) ListItinerary(ctx context.Context, tripID string) ([]models.ItineraryItem, error) {
	return collect(s.itinerary(tripID).Documents(ctx), decodeItem)
}

func (s *FirestoreStore) CreateItineraryItem(ctx context.Context, tripID string, item models.ItineraryItem) (models.ItineraryItem, error) {
	ref, _, err := s.itinerary(tripID).Add(ctx, item)
	if err != nil {
		return models.ItineraryItem{}, err
	}
	item.ID = ref.ID
	return item, nil
}

func itemUpdates(p ItemPatch) []firestore.Update {
	var updates []firestore.Update
	for path, v := range map[string]*string{
		"day":      p.Day,
		"time":     p.Time,
		"activity": p.Activity,
		"location": p.Location,
		"group":    p.Group,
	} {
		if v != nil {
			updates = append(updates, firestore.Update{Path: path, Value: *v})
		}
	}
	if p.Revision != nil {
		updates = append(updates, firestore.Update{Path: "revision", Value: *p.Revision})
	}
	return updates
}

func (s *FirestoreStore) PatchItineraryItem(ctx context.Context, tripID, itemID string, patch ItemPatch) error {
	updates := itemUpdates(patch)
	if len(updates) == 0 {
		return nil
	}
	_, err := s.itinerary(tripID).Doc(itemID).Update(ctx, updates)
	return mapErr(err)
}

func (s *FirestoreStore) DeleteItineraryItem(ctx context.Context, tripID, itemID string) error {
	_, err := s.itinerary(tripID).Doc(itemID).Delete(ctx, firestore.Exists)
	return mapErr(err)
}

// ApplyCascade reads the trip and the affected items inside one transaction,
// rebases c on what it read and writes the group list and items together.
func (s *FirestoreStore) ApplyCascade(ctx context.Context, c itinerary.Cascade) (itinerary.Cascade, error) {
	var applied itinerary.Cascade
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		tripRef := s.trip(c.TripID)
		snap, err := tx.Get(tripRef)
		if err != nil {
			return mapErr(err)
		}
		trip, err := decodeTrip(snap)
		if err != nil {
			return err
		}

		items, err := collect(tx.Documents(s.itinerary(c.TripID).Where("group", "==", c.From)), decodeItem)
		if err != nil {
			return err
		}

		applied = c.Rebase(trip.SavedGroups(), items)
		if err := tx.Update(tripRef, []firestore.Update{{Path: "groups", Value: applied.Groups}}); err != nil {
			return err
		}
		for _, id := range applied.ItemIDs {
			if err := tx.Update(s.itinerary(c.TripID).Doc(id), []firestore.Update{{Path: "group", Value: c.To}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return itinerary.Cascade{}, fmt.Errorf("apply %s cascade: %w", c.Kind, err)
	}
	return applied, nil
}

func (s *FirestoreStore) GetProfile(ctx context.Context, uid string) (models.UserProfile, error) {
	snap, err := s.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		return models.UserProfile{}, mapErr(err)
	}
	return decodeProfile(snap)
}

// PutProfile merges the non-empty profile fields into users/{uid}
func (s *FirestoreStore) PutProfile(ctx context.Context, profile models.UserProfile) error {
	fields := map[string]any{}
	if profile.DisplayName != "" {
		fields["displayName"] = profile.DisplayName
	}
	if profile.Email != "" {
		fields["email"] = profile.Email
	}
	if profile.PhotoURL != "" {
		fields["photoURL"] = profile.PhotoURL
	}
	if !profile.CreatedAt.IsZero() {
		fields["createdAt"] = profile.CreatedAt
	}
	if len(fields) == 0 {
		return nil
	}
	_, err := s.client.Collection(usersCollection).Doc(profile.UID).Set(ctx, fields, firestore.MergeAll)
	return err
}

func (s *FirestoreStore) SearchProfileByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	q := s.client.Collection(usersCollection).Where("email", "==", strings.TrimSpace(email)).Limit(1)
	profiles, err := collect(q.Documents(ctx), decodeProfile)
	if err != nil {
		return models.UserProfile{}, err
	}
	if len(profiles) == 0 {
		return models.UserProfile{}, ErrNotFound
	}
	return profiles[0], nil
}

func (s *FirestoreStore) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	return collect(s.client.Collection(usersCollection).Documents(ctx), decodeProfile)
}
