package settlement

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"tripmate/internal/models"
)

var (
	ErrEmptySplitGroup    = errors.New("expense must be split with at least one participant")
	ErrBlankItem          = errors.New("expense item is blank")
	ErrNonPositiveAmount  = errors.New("expense amount must be positive")
	ErrUnknownCurrency    = errors.New("unsupported currency")
	ErrMissingAmountKRW   = errors.New("foreign currency expense needs a KRW amount")
	ErrMissingPayer       = errors.New("expense has no payer")
	ErrUnknownParticipant = errors.New("not a participant of this trip")
)

func cleanList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// NormalizeExpense trims names, drops duplicate members and keeps AmountKRW in
// step with Amount for KRW expenses.
func NormalizeExpense(e models.Expense) models.Expense {
	e.Item = strings.TrimSpace(e.Item)
	e.Payer = strings.TrimSpace(e.Payer)
	e.SplitWith = cleanList(e.SplitWith)
	e.Settled = cleanList(e.Settled)
	if e.Currency == "" {
		e.Currency = models.CurrencyKRW
	}
	if e.Currency == models.CurrencyKRW {
		e.AmountKRW = e.Amount
	}
	return e
}

// ValidateExpense rejects expenses that cannot be settled. It runs before any
// write is issued.
func ValidateExpense(e models.Expense) error {
	switch {
	case e.Item == "":
		return ErrBlankItem
	case e.Amount <= 0:
		return ErrNonPositiveAmount
	case !e.Currency.Valid():
		return fmt.Errorf("%w: %q", ErrUnknownCurrency, e.Currency)
	case e.Currency != models.CurrencyKRW && e.AmountKRW <= 0:
		return ErrMissingAmountKRW
	case e.Payer == "":
		return ErrMissingPayer
	case len(e.SplitWith) == 0:
		return ErrEmptySplitGroup
	}
	return nil
}

// ValidateMembers checks that the payer and every split member belong to the trip
func ValidateMembers(e models.Expense, participants []string) error {
	if !slices.Contains(participants, e.Payer) {
		return fmt.Errorf("payer %q: %w", e.Payer, ErrUnknownParticipant)
	}
	for _, uid := range e.SplitWith {
		if !slices.Contains(participants, uid) {
			return fmt.Errorf("split member %q: %w", uid, ErrUnknownParticipant)
		}
	}
	return nil
}

// DefaultSplit picks the split group for a new expense. A personal expense is
// split with the payer alone and an empty selection means everyone.
func DefaultSplit(payer string, personal bool, selected, participants []string) []string {
	if personal {
		return []string{payer}
	}
	if len(cleanList(selected)) == 0 {
		return append([]string(nil), participants...)
	}
	return cleanList(selected)
}
