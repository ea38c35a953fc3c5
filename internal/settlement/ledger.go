package settlement

import (
	"errors"
	"slices"
	"sync"

	"tripmate/internal/models"
)

var ErrUnknownExpense = errors.New("expense not in ledger")

// Conflict reports a local settlement change that lost to the stored state
type Conflict struct {
	ExpenseID string   `json:"expense_id"`
	Local     []string `json:"local"`
	Stored    []string `json:"stored"`
	Reason    string   `json:"reason"`
}

type writeState int

const (
	writeInFlight writeState = iota + 1
	writeFailed
)

type pendingWrite struct {
	revision int64
	state    writeState
	err      error
}

// Ledger is the optimistic view of a trip's expenses. Settlement toggles are
// applied locally before they are written and are never reverted on failure;
// Reconcile brings the view back in line with the store on the next fetch.
type Ledger struct {
	mu       sync.Mutex
	order    []string
	expenses map[string]models.Expense
	pending  map[string]pendingWrite
}

func NewLedger(expenses []models.Expense) *Ledger {
	l := &Ledger{
		expenses: make(map[string]models.Expense, len(expenses)),
		pending:  make(map[string]pendingWrite),
	}
	for _, e := range expenses {
		l.order = append(l.order, e.ID)
		l.expenses[e.ID] = e
	}
	return l
}

// Expenses returns the local view in store order
func (l *Ledger) Expenses() []models.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Expense, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.expenses[id])
	}
	return out
}

// Toggle flips uid's settled state locally and bumps the expense revision.
// The returned expense is what the caller should write.
func (l *Ledger) Toggle(expenseID, uid string) (models.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.expenses[expenseID]
	if !ok {
		return models.Expense{}, ErrUnknownExpense
	}
	e.Settled = ToggleSettlement(e, uid)
	e.Revision++
	l.expenses[expenseID] = e
	l.pending[expenseID] = pendingWrite{revision: e.Revision, state: writeInFlight}
	return e, nil
}

// Confirm records that the write of revision succeeded
func (l *Ledger) Confirm(expenseID string, revision int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.pending[expenseID]; ok && p.revision == revision {
		delete(l.pending, expenseID)
	}
}

// Fail records that the write of revision failed. The local state is kept.
func (l *Ledger) Fail(expenseID string, revision int64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.pending[expenseID]; ok && p.revision == revision {
		l.pending[expenseID] = pendingWrite{revision: revision, state: writeFailed, err: err}
	}
}

// Diverged returns the ids whose local state has not been confirmed by the store
func (l *Ledger) Diverged() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ids []string
	for _, id := range l.order {
		if _, ok := l.pending[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Upsert replaces or appends an expense after a successful full write
func (l *Ledger) Upsert(e models.Expense) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.expenses[e.ID]; !ok {
		l.order = append(l.order, e.ID)
	}
	l.expenses[e.ID] = e
	delete(l.pending, e.ID)
}

func (l *Ledger) Remove(expenseID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.expenses, expenseID)
	delete(l.pending, expenseID)
	l.order = slices.DeleteFunc(l.order, func(id string) bool { return id == expenseID })
}

// Reconcile adopts the fetched expenses as the new view, last writer wins by
// revision. An in-flight toggle whose revision the store has not caught up
// with yet is kept. Failed toggles, and in-flight toggles the store has
// overtaken with different settled members, are discarded and reported.
func (l *Ledger) Reconcile(fetched []models.Expense) []Conflict {
	l.mu.Lock()
	defer l.mu.Unlock()

	var conflicts []Conflict
	order := make([]string, 0, len(fetched))
	expenses := make(map[string]models.Expense, len(fetched))
	pending := make(map[string]pendingWrite)

	for _, stored := range fetched {
		order = append(order, stored.ID)
		expenses[stored.ID] = stored

		local, hasLocal := l.expenses[stored.ID]
		p, isPending := l.pending[stored.ID]
		if !hasLocal || !isPending {
			continue
		}

		switch {
		case p.state == writeInFlight && local.Revision > stored.Revision:
			expenses[stored.ID] = local
			pending[stored.ID] = p
		case p.state == writeFailed:
			if !slices.Equal(local.Settled, stored.Settled) {
				reason := "write failed"
				if p.err != nil {
					reason = p.err.Error()
				}
				conflicts = append(conflicts, Conflict{
					ExpenseID: stored.ID,
					Local:     local.Settled,
					Stored:    stored.Settled,
					Reason:    reason,
				})
			}
		case !slices.Equal(local.Settled, stored.Settled):
			conflicts = append(conflicts, Conflict{
				ExpenseID: stored.ID,
				Local:     local.Settled,
				Stored:    stored.Settled,
				Reason:    "overwritten by a newer revision",
			})
		}
	}

	l.order = order
	l.expenses = expenses
	l.pending = pending
	return conflicts
}
