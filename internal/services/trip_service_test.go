package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripmate/internal/cascade"
	"tripmate/internal/itinerary"
	"tripmate/internal/models"
	"tripmate/internal/settlement"
	"tripmate/internal/store"
)

const (
	owner  = "u-alice"
	member = "u-bob"
	guest  = "u-carol"
)

var errUnavailable = errors.New("rpc error: code = Unavailable")

// flakyStore fails selected writes
type flakyStore struct {
	*store.MemoryStore

	mu           sync.Mutex
	expenseWrite error
	itemWrite    map[string]error
	tripWrite    error
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore(), itemWrite: map[string]error{}}
}

func (f *flakyStore) PatchExpense(ctx context.Context, tripID, expenseID string, patch store.ExpensePatch) error {
	f.mu.Lock()
	err := f.expenseWrite
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.PatchExpense(ctx, tripID, expenseID, patch)
}

func (f *flakyStore) PatchItineraryItem(ctx context.Context, tripID, itemID string, patch store.ItemPatch) error {
	f.mu.Lock()
	err := f.itemWrite[itemID]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.PatchItineraryItem(ctx, tripID, itemID, patch)
}

func (f *flakyStore) PatchTrip(ctx context.Context, tripID string, patch store.TripPatch) error {
	f.mu.Lock()
	err := f.tripWrite
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.PatchTrip(ctx, tripID, patch)
}

func (f *flakyStore) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenseWrite = nil
	f.tripWrite = nil
	f.itemWrite = map[string]error{}
}

// txStore applies cascades in one step, like a transactional store
type txStore struct {
	*store.MemoryStore
	applied int
}

func (s *txStore) ApplyCascade(ctx context.Context, c itinerary.Cascade) (itinerary.Cascade, error) {
	s.applied++
	trip, err := s.GetTrip(ctx, c.TripID)
	if err != nil {
		return itinerary.Cascade{}, err
	}
	items, err := s.ListItinerary(ctx, c.TripID)
	if err != nil {
		return itinerary.Cascade{}, err
	}
	c = c.Rebase(trip.SavedGroups(), items)
	for _, id := range c.ItemIDs {
		if err := s.PatchItineraryItem(ctx, c.TripID, id, store.ItemPatch{Group: &c.To}); err != nil {
			return itinerary.Cascade{}, err
		}
	}
	return c, s.PatchTrip(ctx, c.TripID, store.TripPatch{Groups: &c.Groups})
}

// recordingStore keeps the trips handed to CreateTrip
type recordingStore struct {
	*store.MemoryStore
	created []models.Trip
}

func (r *recordingStore) CreateTrip(ctx context.Context, trip models.Trip) (models.Trip, error) {
	r.created = append(r.created, trip)
	return r.MemoryStore.CreateTrip(ctx, trip)
}

func seedProfiles(t *testing.T, ts store.TripStore) {
	t.Helper()
	ctx := context.Background()
	for uid, name := range map[string]string{owner: "앨리스", member: "밥", guest: "캐롤"} {
		require.NoError(t, ts.PutProfile(ctx, models.UserProfile{UID: uid, DisplayName: name, Email: uid + "@example.com"}))
	}
}

func newTestService(t *testing.T, ts store.TripStore) (*TripService, *cascade.MemoryJournal) {
	t.Helper()
	seedProfiles(t, ts)
	journal := cascade.NewMemoryJournal()
	return NewTripService(ts, NewProfileDirectory(ts, nil, 100, time.Minute), journal), journal
}

func newSharedTrip(t *testing.T, svc *TripService) models.Trip {
	t.Helper()
	ctx := context.Background()
	trip, err := svc.CreateTrip(ctx, owner, "홋카이도", "2026.01.10 - 2026.01.13")
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(ctx, owner, trip.ID, member))
	return trip
}

func TestCreateTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())

	trip, err := svc.CreateTrip(ctx, owner, " 홋카이도 ", "2026.01.10 - 2026.01.13")
	require.NoError(t, err)
	assert.Equal(t, "홋카이도", trip.Name)
	assert.Equal(t, []string{owner}, trip.Participants)
	assert.Empty(t, trip.Groups)

	detail, err := svc.GetTrip(ctx, owner, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1일차", "2일차", "3일차", "4일차"}, detail.Days)
	assert.Equal(t, []string{models.AllGroups}, detail.Groups)
	assert.Equal(t, []models.Participant{{UID: owner, DisplayName: "앨리스"}}, detail.Participants)

	_, err = svc.CreateTrip(ctx, owner, "", "2026.01.10 - 2026.01.13")
	assert.ErrorIs(t, err, ErrBlankTripName)
	_, err = svc.CreateTrip(ctx, owner, "trip", "soon")
	assert.ErrorIs(t, err, itinerary.ErrMalformedDateRange)

	_, err = svc.GetTrip(ctx, guest, trip.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateTripStampsCreatedAt(t *testing.T) {
	ctx := context.Background()
	rec := &recordingStore{MemoryStore: store.NewMemoryStore()}
	svc, _ := newTestService(t, rec)

	before := time.Now()
	_, err := svc.CreateTrip(ctx, owner, "홋카이도", "2026.01.10 - 2026.01.13")
	require.NoError(t, err)

	require.Len(t, rec.created, 1)
	assert.False(t, rec.created[0].CreatedAt.IsZero())
	assert.WithinDuration(t, before, rec.created[0].CreatedAt, time.Minute)
}

func TestMembership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)

	require.NoError(t, svc.JoinTrip(ctx, guest, trip.ID))
	assert.ErrorIs(t, svc.RemoveMember(ctx, member, trip.ID, guest), ErrNotOwner)
	assert.ErrorIs(t, svc.RemoveMember(ctx, owner, trip.ID, owner), ErrOwnerEviction)
	require.NoError(t, svc.RemoveMember(ctx, owner, trip.ID, guest))

	_, err := svc.GetTrip(ctx, guest, trip.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.AddMember(ctx, owner, trip.ID, "u-nobody"), store.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteTrip(ctx, member, trip.ID), ErrNotOwner)
	require.NoError(t, svc.DeleteTrip(ctx, owner, trip.ID))
}

func TestUpdateTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)

	updated, err := svc.UpdateTrip(ctx, member, trip.ID, "", "2026.01.10 - 01.11")
	require.NoError(t, err)
	assert.Equal(t, "홋카이도", updated.Name)

	days, err := svc.Days(ctx, owner, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1일차", "2일차"}, days)

	_, err = svc.UpdateTrip(ctx, owner, trip.ID, "", "2026.01.10 - 2025.01.11")
	assert.ErrorIs(t, err, itinerary.ErrMalformedDateRange)
}

func TestExpenseSplitDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)

	shared, err := svc.CreateExpense(ctx, owner, trip.ID, ExpenseInput{Item: "숙소", Amount: 200000})
	require.NoError(t, err)
	assert.Equal(t, []string{owner, member}, shared.SplitWith)
	assert.Equal(t, owner, shared.Payer)
	assert.Equal(t, models.CurrencyKRW, shared.Currency)
	assert.InDelta(t, 200000, shared.AmountKRW, 0.01)

	personal, err := svc.CreateExpense(ctx, member, trip.ID, ExpenseInput{Item: "기념품", Amount: 5000, Personal: true})
	require.NoError(t, err)
	assert.Equal(t, []string{member}, personal.SplitWith)

	_, err = svc.CreateExpense(ctx, owner, trip.ID, ExpenseInput{Item: "택시", Amount: 1000, SplitWith: []string{guest}})
	assert.ErrorIs(t, err, settlement.ErrUnknownParticipant)
	_, err = svc.CreateExpense(ctx, owner, trip.ID, ExpenseInput{Item: "라멘", Amount: 1000, Currency: models.CurrencyJPY})
	assert.ErrorIs(t, err, settlement.ErrMissingAmountKRW)

	_, report, err := svc.Settlement(ctx, owner, trip.ID)
	require.NoError(t, err)
	require.Len(t, report.Stats, 2)
	assert.InDelta(t, 200000, report.Stats[0].TotalSpent, 0.01)
	assert.InDelta(t, 100000, report.Stats[1].TotalDebt, 0.01)
	assert.Len(t, report.Stats[1].SpendingList, 1, "personal expense counts as spending")
	assert.Equal(t, settlement.StatusReceive, report.Balances[0].Status)
	assert.Equal(t, "-100000", report.Balances[1].Net.String())
}

func TestUpdateExpenseKeepsSettlement(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)

	e, err := svc.CreateExpense(ctx, owner, trip.ID, ExpenseInput{Item: "숙소", Amount: 200000})
	require.NoError(t, err)
	_, err = svc.ToggleSettlement(ctx, member, trip.ID, e.ID, "")
	require.NoError(t, err)

	edited, err := svc.UpdateExpense(ctx, owner, trip.ID, e.ID, ExpenseInput{Item: "숙소 (2박)", Amount: 240000})
	require.NoError(t, err)
	assert.Equal(t, []string{member}, edited.Settled)
	assert.Equal(t, int64(3), edited.Revision)

	expenses, err := svc.ListExpenses(ctx, owner, trip.ID)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "숙소 (2박)", expenses[0].Item)

	require.NoError(t, svc.DeleteExpense(ctx, owner, trip.ID, e.ID))
	_, err = svc.UpdateExpense(ctx, owner, trip.ID, e.ID, ExpenseInput{Item: "x", Amount: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggleSettlement(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)

	e, err := svc.CreateExpense(ctx, owner, trip.ID, ExpenseInput{Item: "숙소", Amount: 200000})
	require.NoError(t, err)

	toggled, err := svc.ToggleSettlement(ctx, member, trip.ID, e.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{member}, toggled.Settled)

	_, report, err := svc.Settlement(ctx, owner, trip.ID)
	require.NoError(t, err)
	assert.Zero(t, report.Stats[1].TotalDebt)
	assert.True(t, report.Stats[1].ToGiveList[0].IsSettled)
	assert.Empty(t, report.Conflicts)
	assert.Empty(t, report.Unconfirmed)

	back, err := svc.ToggleSettlement(ctx, owner, trip.ID, e.ID, member)
	require.NoError(t, err)
	assert.Empty(t, back.Settled)

	_, err = svc.ToggleSettlement(ctx, owner, trip.ID, e.ID, guest)
	assert.ErrorIs(t, err, settlement.ErrUnknownParticipant)
	_, err = svc.ToggleSettlement(ctx, owner, trip.ID, "missing", "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggleSettlementKeepsOtherInstancesMarks(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	svcA, _ := newTestService(t, ms)
	svcB := NewTripService(ms, NewProfileDirectory(ms, nil, 100, time.Minute), cascade.NewMemoryJournal())
	trip := newSharedTrip(t, svcA)
	require.NoError(t, svcA.AddMember(ctx, owner, trip.ID, guest))

	e, err := svcA.CreateExpense(ctx, owner, trip.ID, ExpenseInput{Item: "렌터카", Amount: 90000})
	require.NoError(t, err)

	// both instances hold a ledger before either toggles
	_, err = svcA.ListExpenses(ctx, owner, trip.ID)
	require.NoError(t, err)
	_, err = svcB.ListExpenses(ctx, owner, trip.ID)
	require.NoError(t, err)

	_, err = svcA.ToggleSettlement(ctx, member, trip.ID, e.ID, "")
	require.NoError(t, err)
	stale, err := svcB.ToggleSettlement(ctx, guest, trip.ID, e.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{guest}, stale.Settled)

	stored, err := ms.ListExpenses(ctx, trip.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{member, guest}, stored[0].Settled)
	assert.Equal(t, int64(3), stored[0].Revision)

	_, report, err := svcB.Settlement(ctx, owner, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
	require.Len(t, report.Stats, 3)
	assert.Zero(t, report.Stats[1].TotalDebt)
	assert.Zero(t, report.Stats[2].TotalDebt)
}

func TestLedgersAreBounded(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	svc.ledgers.MaxEntries = 1

	first := newSharedTrip(t, svc)
	second := newSharedTrip(t, svc)
	e, err := svc.CreateExpense(ctx, owner, first.ID, ExpenseInput{Item: "숙소", Amount: 200000})
	require.NoError(t, err)
	_, err = svc.ToggleSettlement(ctx, member, first.ID, e.ID, "")
	require.NoError(t, err)

	_, _, err = svc.Settlement(ctx, owner, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.ledgers.Len())
	_, kept := svc.ledgers.Get(second.ID)
	assert.True(t, kept)

	// an evicted ledger is rebuilt from the store
	_, report, err := svc.Settlement(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.Zero(t, report.Stats[1].TotalDebt)
	assert.Equal(t, 1, svc.ledgers.Len())
}

func TestToggleSettlementWriteFailure(t *testing.T) {
	ctx := context.Background()
	fs := newFlakyStore()
	svc, _ := newTestService(t, fs)
	trip := newSharedTrip(t, svc)

	e, err := svc.CreateExpense(ctx, owner, trip.ID, ExpenseInput{Item: "숙소", Amount: 200000})
	require.NoError(t, err)
	_, err = svc.ListExpenses(ctx, owner, trip.ID)
	require.NoError(t, err)

	fs.expenseWrite = errUnavailable
	optimistic, err := svc.ToggleSettlement(ctx, member, trip.ID, e.ID, "")
	assert.ErrorIs(t, err, ErrStoreWrite)
	assert.ErrorIs(t, err, errUnavailable)
	assert.Equal(t, []string{member}, optimistic.Settled, "optimistic state is returned")

	// the store never saw the change, so the next read surfaces the conflict
	fs.heal()
	_, report, err := svc.Settlement(ctx, owner, trip.ID)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, e.ID, report.Conflicts[0].ExpenseID)
	assert.Equal(t, []string{member}, report.Conflicts[0].Local)
	assert.InDelta(t, 100000, report.Stats[1].TotalDebt, 0.01)
}

func TestLegacyIdentitiesAreMigrated(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	svc, _ := newTestService(t, ms)
	trip := newSharedTrip(t, svc)

	_, err := ms.CreateExpense(ctx, trip.ID, models.Expense{
		Item: "저녁", Amount: 30000, AmountKRW: 30000, Currency: models.CurrencyKRW,
		Payer: "앨리스", SplitWith: []string{"앨리스", "밥"}, Settled: []string{"밥"},
	})
	require.NoError(t, err)

	expenses, err := svc.ListExpenses(ctx, owner, trip.ID)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, owner, expenses[0].Payer)
	assert.Equal(t, []string{owner, member}, expenses[0].SplitWith)
	assert.Equal(t, []string{member}, expenses[0].Settled)

	stored, err := ms.ListExpenses(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, stored[0].Payer)
	assert.Equal(t, []string{member}, stored[0].Settled)

	_, report, err := svc.Settlement(ctx, owner, trip.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, report.Stats[1].TotalDebt, 0.01, "the legacy mark still settles the debt")
}

func TestItinerary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)

	_, err := svc.AddGroup(ctx, owner, trip.ID, "스키팀")
	require.NoError(t, err)

	inputs := []ItemInput{
		{Day: "2일차", Clock: "09:00", Activity: "스키"},
		{Day: "1일차", Time: "오후 2:00", Activity: "체크인", Group: "스키팀"},
		{Day: "1일차", Clock: "10:00", Activity: "공항"},
	}
	for _, in := range inputs {
		_, err := svc.CreateItem(ctx, owner, trip.ID, in)
		require.NoError(t, err)
	}

	view, err := svc.Itinerary(ctx, member, trip.ID, "")
	require.NoError(t, err)
	require.Len(t, view.Items, 3)
	assert.Equal(t, []string{"공항", "체크인", "스키"}, []string{view.Items[0].Activity, view.Items[1].Activity, view.Items[2].Activity})
	assert.Equal(t, "오전 10:00", view.Items[0].Time)
	assert.Equal(t, []string{models.AllGroups, "스키팀"}, view.Groups)

	filtered, err := svc.Itinerary(ctx, member, trip.ID, "스키팀")
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, "체크인", filtered.Items[0].Activity)

	_, err = svc.CreateItem(ctx, owner, trip.ID, ItemInput{Day: "5일차", Activity: "없는 날"})
	assert.ErrorIs(t, err, itinerary.ErrDayOutOfRange)
	_, err = svc.CreateItem(ctx, owner, trip.ID, ItemInput{Day: "1일차", Activity: "x", Group: "없는팀"})
	assert.ErrorIs(t, err, itinerary.ErrUnknownGroup)

	updated, err := svc.UpdateItem(ctx, owner, trip.ID, view.Items[2].ID, ItemInput{Day: "3일차", Clock: "13:30", Activity: "스키"})
	require.NoError(t, err)
	assert.Equal(t, "오후 1:30", updated.Time)
	require.NoError(t, svc.DeleteItem(ctx, owner, trip.ID, updated.ID))
}

func seedGroupItems(t *testing.T, svc *TripService, tripID string, groups ...string) []models.ItineraryItem {
	t.Helper()
	ctx := context.Background()
	for _, g := range groups {
		if _, err := svc.AddGroup(ctx, owner, tripID, g); err != nil && !errors.Is(err, itinerary.ErrDuplicateGroupName) {
			require.NoError(t, err)
		}
	}
	var items []models.ItineraryItem
	for i, g := range groups {
		item, err := svc.CreateItem(ctx, owner, tripID, ItemInput{Day: "1일차", Activity: "활동" + string(rune('A'+i)), Group: g})
		require.NoError(t, err)
		items = append(items, item)
	}
	return items
}

func TestDeleteGroupCascades(t *testing.T) {
	ctx := context.Background()
	svc, journal := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)
	seedGroupItems(t, svc, trip.ID, "니세코", "니세코", "오타루")

	change, err := svc.DeleteGroup(ctx, owner, trip.ID, "니세코", "니세코")
	require.NoError(t, err)
	assert.Equal(t, models.AllGroups, change.Filter)
	assert.Len(t, change.Cascade.ItemIDs, 2)
	assert.Equal(t, []string{models.AllGroups, "오타루"}, change.Groups)

	view, err := svc.Itinerary(ctx, owner, trip.ID, "")
	require.NoError(t, err)
	groups := map[string]int{}
	for _, item := range view.Items {
		groups[item.Group]++
	}
	assert.Equal(t, map[string]int{models.AllGroups: 2, "오타루": 1}, groups)
	assert.Equal(t, []string{models.AllGroups, "오타루"}, view.Groups)

	_, err = svc.DeleteGroup(ctx, owner, trip.ID, models.AllGroups, "")
	assert.ErrorIs(t, err, itinerary.ErrReservedGroupName)

	unapplied, err := journal.Unapplied(ctx, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, unapplied)
}

func TestRenameGroupCollisionWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)
	seedGroupItems(t, svc, trip.ID, "A", "B")

	before, err := svc.Itinerary(ctx, owner, trip.ID, "")
	require.NoError(t, err)

	_, err = svc.RenameGroup(ctx, owner, trip.ID, "A", "B", "")
	assert.ErrorIs(t, err, itinerary.ErrDuplicateGroupName)

	after, err := svc.Itinerary(ctx, owner, trip.ID, "")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRenameGroupCascades(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)
	seedGroupItems(t, svc, trip.ID, "A", "A")

	change, err := svc.RenameGroup(ctx, owner, trip.ID, "A", "C", "A")
	require.NoError(t, err)
	assert.Equal(t, "C", change.Filter)

	view, err := svc.Itinerary(ctx, owner, trip.ID, "C")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, []string{models.AllGroups, "C"}, view.Groups)
}

func TestPartialCascadeIsRepairedOnLoad(t *testing.T) {
	ctx := context.Background()
	fs := newFlakyStore()
	svc, journal := newTestService(t, fs)
	trip := newSharedTrip(t, svc)
	items := seedGroupItems(t, svc, trip.ID, "니세코", "니세코")

	fs.itemWrite[items[1].ID] = errUnavailable
	_, err := svc.DeleteGroup(ctx, owner, trip.ID, "니세코", "")
	assert.ErrorIs(t, err, ErrPartialCascade)
	assert.ErrorIs(t, err, ErrStoreWrite)

	failed, err := journal.Unapplied(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, models.CascadeStatusFailed, failed[0].Status)

	fs.heal()
	view, err := svc.Itinerary(ctx, owner, trip.ID, "")
	require.NoError(t, err)
	for _, item := range view.Items {
		assert.Equal(t, models.AllGroups, item.Group)
	}
	assert.Equal(t, []string{models.AllGroups}, view.Groups)

	entry, ok := journal.Get(failed[0].ID)
	require.True(t, ok)
	assert.Equal(t, models.CascadeStatusApplied, entry.Status)
}

func TestRepairCascadesSweep(t *testing.T) {
	ctx := context.Background()
	fs := newFlakyStore()
	svc, _ := newTestService(t, fs)
	trip := newSharedTrip(t, svc)
	seedGroupItems(t, svc, trip.ID, "A")

	fs.tripWrite = errUnavailable
	_, err := svc.RenameGroup(ctx, owner, trip.ID, "A", "B", "")
	assert.ErrorIs(t, err, ErrPartialCascade)

	fs.heal()
	n, err := svc.RepairCascades(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := fs.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, stored.Groups)
}

func TestTransactionalStoreSkipsJournal(t *testing.T) {
	ctx := context.Background()
	ts := &txStore{MemoryStore: store.NewMemoryStore()}
	svc, journal := newTestService(t, ts)
	trip := newSharedTrip(t, svc)
	seedGroupItems(t, svc, trip.ID, "A")

	_, err := svc.RenameGroup(ctx, owner, trip.ID, "A", "B", "")
	require.NoError(t, err)
	assert.Equal(t, 1, ts.applied)

	stale, err := journal.Stale(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, stale)

	n, err := svc.RepairCascades(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReminders(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemoryStore())
	trip := newSharedTrip(t, svc)

	_, err := svc.CreateExpense(ctx, owner, trip.ID, ExpenseInput{Item: "숙소", Amount: 200000})
	require.NoError(t, err)
	settled, err := svc.CreateExpense(ctx, owner, trip.ID, ExpenseInput{Item: "택시", Amount: 10000})
	require.NoError(t, err)
	_, err = svc.ToggleSettlement(ctx, member, trip.ID, settled.ID, "")
	require.NoError(t, err)

	_, reminders, err := svc.Reminders(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, member, reminders[0].Participant.UID)
	assert.Equal(t, member+"@example.com", reminders[0].Email)
	require.Len(t, reminders[0].Owed, 1)
	assert.Equal(t, "앨리스", reminders[0].Owed[0].Receiver)
	assert.InDelta(t, 100000, reminders[0].Owed[0].Amount, 0.01)
}
