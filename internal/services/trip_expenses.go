package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"tripmate/internal/metrics"
	"tripmate/internal/models"
	"tripmate/internal/settlement"
	"tripmate/internal/store"
)

// ExpenseInput is what a client sends to create or edit an expense
type ExpenseInput struct {
	Item      string          `json:"item"`
	Amount    float64         `json:"amount"`
	Currency  models.Currency `json:"currency"`
	AmountKRW float64         `json:"amount_krw"`
	Payer     string          `json:"payer"`
	SplitWith []string        `json:"split_with"`
	Personal  bool            `json:"personal"`
	Date      time.Time       `json:"date"`
}

// SettlementReport is the full settlement view of a trip
type SettlementReport struct {
	Participants []models.Participant  `json:"participants"`
	Expenses     []models.Expense      `json:"expenses"`
	Stats        []settlement.Stats    `json:"stats"`
	Balances     []settlement.Balance  `json:"balances"`
	Conflicts    []settlement.Conflict `json:"conflicts"`
	Unconfirmed  []string              `json:"unconfirmed"`
}

func (s *TripService) ledger(tripID string) (*settlement.Ledger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.ledgers.Get(tripID); ok {
		return v.(*settlement.Ledger), true
	}
	l := settlement.NewLedger(nil)
	s.ledgers.Add(tripID, l)
	return l, false
}

// fetchExpenses lists the trip's expenses with legacy display-name references
// mapped to uids. Rewritten expenses are saved back on a best-effort basis.
func (s *TripService) fetchExpenses(ctx context.Context, trip models.Trip, participants []models.Participant) ([]models.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, trip.ID)
	if err != nil {
		return nil, err
	}

	resolved, changed := settlement.ResolveIdentities(expenses, participants)
	if len(changed) == 0 {
		return resolved, nil
	}

	byID := make(map[string]models.Expense, len(resolved))
	for _, e := range resolved {
		byID[e.ID] = e
	}
	for _, id := range changed {
		e := byID[id]
		patch := store.ExpensePatch{Payer: &e.Payer, SplitWith: &e.SplitWith, Settled: &e.Settled}
		if err := s.store.PatchExpense(ctx, trip.ID, id, patch); err != nil {
			slog.Warn("Failed to migrate expense identities", "trip", trip.ID, "expense", id, "error", err)
		}
	}
	slog.Info("Migrated legacy expense identities", "trip", trip.ID, "count", len(changed))
	return resolved, nil
}

// reconcile refreshes the trip's ledger from the store
func (s *TripService) reconcile(ctx context.Context, trip models.Trip, participants []models.Participant) (*settlement.Ledger, []settlement.Conflict, error) {
	fetched, err := s.fetchExpenses(ctx, trip, participants)
	if err != nil {
		return nil, nil, err
	}
	l, _ := s.ledger(trip.ID)
	conflicts := l.Reconcile(fetched)
	if len(conflicts) > 0 {
		metrics.SettlementConflicts.Add(float64(len(conflicts)))
		slog.Warn("Settlement changes lost to the stored state", "trip", trip.ID, "count", len(conflicts))
	}
	return l, conflicts, nil
}

func (s *TripService) ListExpenses(ctx context.Context, uid, tripID string) ([]models.Expense, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return nil, err
	}
	participants, err := s.profiles.Participants(ctx, trip.Participants)
	if err != nil {
		return nil, err
	}
	l, _, err := s.reconcile(ctx, trip, participants)
	if err != nil {
		return nil, err
	}
	return l.Expenses(), nil
}

func (s *TripService) settlementReport(ctx context.Context, trip models.Trip) (SettlementReport, error) {
	participants, err := s.profiles.Participants(ctx, trip.Participants)
	if err != nil {
		return SettlementReport{}, err
	}
	l, conflicts, err := s.reconcile(ctx, trip, participants)
	if err != nil {
		return SettlementReport{}, err
	}

	expenses := l.Expenses()
	return SettlementReport{
		Participants: participants,
		Expenses:     expenses,
		Stats:        settlement.Aggregate(participants, expenses),
		Balances:     settlement.SummarizeAll(participants, expenses),
		Conflicts:    conflicts,
		Unconfirmed:  l.Diverged(),
	}, nil
}

// Settlement computes every participant's stats and balance
func (s *TripService) Settlement(ctx context.Context, uid, tripID string) (models.Trip, SettlementReport, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return models.Trip{}, SettlementReport{}, err
	}
	report, err := s.settlementReport(ctx, trip)
	return trip, report, err
}

func (s *TripService) buildExpense(trip models.Trip, uid string, in ExpenseInput) (models.Expense, error) {
	payer := in.Payer
	if payer == "" {
		payer = uid
	}
	e := settlement.NormalizeExpense(models.Expense{
		Item:      in.Item,
		Amount:    in.Amount,
		Currency:  in.Currency,
		AmountKRW: in.AmountKRW,
		Payer:     payer,
		SplitWith: settlement.DefaultSplit(payer, in.Personal, in.SplitWith, trip.Participants),
		Date:      in.Date,
	})
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	if err := settlement.ValidateExpense(e); err != nil {
		return models.Expense{}, err
	}
	if err := settlement.ValidateMembers(e, trip.Participants); err != nil {
		return models.Expense{}, err
	}
	return e, nil
}

func (s *TripService) CreateExpense(ctx context.Context, uid, tripID string, in ExpenseInput) (models.Expense, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return models.Expense{}, err
	}
	e, err := s.buildExpense(trip, uid, in)
	if err != nil {
		return models.Expense{}, err
	}
	e.Settled = []string{}
	e.Revision = 1

	created, err := s.store.CreateExpense(ctx, tripID, e)
	if err != nil {
		return models.Expense{}, writeFailed("create_expense", err)
	}
	if l, existed := s.ledger(tripID); existed {
		l.Upsert(created)
	}
	return created, nil
}

// UpdateExpense replaces the editable fields of an expense. Settlement marks
// are kept.
func (s *TripService) UpdateExpense(ctx context.Context, uid, tripID, expenseID string, in ExpenseInput) (models.Expense, error) {
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return models.Expense{}, err
	}
	current, err := s.findExpense(ctx, trip, expenseID)
	if err != nil {
		return models.Expense{}, err
	}
	e, err := s.buildExpense(trip, uid, in)
	if err != nil {
		return models.Expense{}, err
	}
	e.ID = expenseID
	e.Settled = current.Settled
	e.Revision = current.Revision + 1

	if err := s.store.PatchExpense(ctx, tripID, expenseID, store.FullExpensePatch(e)); err != nil {
		return models.Expense{}, writeFailed("patch_expense", err)
	}
	l, _ := s.ledger(tripID)
	l.Upsert(e)
	return e, nil
}

func (s *TripService) DeleteExpense(ctx context.Context, uid, tripID, expenseID string) error {
	if _, err := s.loadTrip(ctx, uid, tripID); err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, tripID, expenseID); err != nil {
		return writeFailed("delete_expense", err)
	}
	l, _ := s.ledger(tripID)
	l.Remove(expenseID)
	return nil
}

// findExpense returns the ledger's view of an expense, refreshing the ledger
// once when the expense is not in it yet.
func (s *TripService) findExpense(ctx context.Context, trip models.Trip, expenseID string) (models.Expense, error) {
	lookup := func(l *settlement.Ledger) (models.Expense, bool) {
		for _, e := range l.Expenses() {
			if e.ID == expenseID {
				return e, true
			}
		}
		return models.Expense{}, false
	}

	l, _ := s.ledger(trip.ID)
	if e, ok := lookup(l); ok {
		return e, nil
	}
	participants, err := s.profiles.Participants(ctx, trip.Participants)
	if err != nil {
		return models.Expense{}, err
	}
	if l, _, err = s.reconcile(ctx, trip, participants); err != nil {
		return models.Expense{}, err
	}
	if e, ok := lookup(l); ok {
		return e, nil
	}
	return models.Expense{}, store.ErrNotFound
}

// ToggleSettlement flips target's settled mark on an expense. The change is
// applied to the trip's ledger before it is written and stays there if the
// write fails; the next reconcile reports it as a conflict. Only target's mark
// is written, so marks other instances set meanwhile are kept.
func (s *TripService) ToggleSettlement(ctx context.Context, uid, tripID, expenseID, target string) (models.Expense, error) {
	if target == "" {
		target = uid
	}
	trip, err := s.loadTrip(ctx, uid, tripID)
	if err != nil {
		return models.Expense{}, err
	}
	if !trip.HasParticipant(target) {
		return models.Expense{}, settlement.ErrUnknownParticipant
	}
	if _, err := s.findExpense(ctx, trip, expenseID); err != nil {
		return models.Expense{}, err
	}

	l, _ := s.ledger(tripID)
	e, err := l.Toggle(expenseID, target)
	if errors.Is(err, settlement.ErrUnknownExpense) {
		return models.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return models.Expense{}, err
	}

	patch := store.ExpensePatch{
		SettledChange: &store.SettledChange{UID: target, Settled: slices.Contains(e.Settled, target)},
		BumpRevision:  true,
	}
	if err := s.store.PatchExpense(ctx, tripID, expenseID, patch); err != nil {
		l.Fail(expenseID, e.Revision, err)
		metrics.SettlementToggles.WithLabelValues("failed").Inc()
		return e, writeFailed("toggle_settlement", err)
	}
	l.Confirm(expenseID, e.Revision)
	metrics.SettlementToggles.WithLabelValues("ok").Inc()
	return e, nil
}

// Reminder lists what one participant still owes, for the reminder email
type Reminder struct {
	Participant models.Participant `json:"participant"`
	Email       string             `json:"email"`
	Owed        []settlement.Owed  `json:"owed"` // receivers are display names
}

// Reminders builds a reminder for every participant with unsettled debts
func (s *TripService) Reminders(ctx context.Context, tripID string) (models.Trip, []Reminder, error) {
	trip, err := s.loadTrip(ctx, "", tripID)
	if err != nil {
		return models.Trip{}, nil, err
	}
	report, err := s.settlementReport(ctx, trip)
	if err != nil {
		return models.Trip{}, nil, err
	}
	names := settlement.DisplayNames(report.Participants)

	var reminders []Reminder
	for _, stats := range report.Stats {
		owed := settlement.Outstanding(stats)
		if len(owed) == 0 {
			continue
		}
		for i := range owed {
			if name, ok := names[owed[i].Receiver]; ok {
				owed[i].Receiver = name
			}
		}
		profile, err := s.profiles.Get(ctx, stats.Participant.UID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return models.Trip{}, nil, err
		}
		reminders = append(reminders, Reminder{
			Participant: stats.Participant,
			Email:       profile.Email,
			Owed:        owed,
		})
	}
	return trip, reminders, nil
}
