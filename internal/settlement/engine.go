// Package settlement computes who paid what, who owes whom and which shares
// have already been paid back for a trip's expenses.
//
// Payer, SplitWith and Settled are all matched by participant uid.
package settlement

import (
	"strings"

	"tripmate/internal/models"
)

// Debt is one participant's share of an expense someone else paid
type Debt struct {
	Expense   models.Expense `json:"expense"`
	Share     float64        `json:"share"`
	Receiver  string         `json:"receiver"`
	IsSettled bool           `json:"is_settled"`
}

// Stats is the settlement view of a single participant
type Stats struct {
	Participant  models.Participant `json:"participant"`
	TotalSpent   float64            `json:"total_spent"`
	TotalDebt    float64            `json:"total_debt"` // unsettled shares only
	SpendingList []models.Expense   `json:"spending_list"`
	ToGiveList   []Debt             `json:"to_give_list"`
}

// Share returns the per-member share of e, or 0 when nobody splits it
func Share(e models.Expense) float64 {
	if len(e.SplitWith) == 0 {
		return 0
	}
	return e.CanonicalAmount() / float64(len(e.SplitWith))
}

func containsTrimmed(list []string, s string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}

// ComputeParticipantStats walks expenses in order. An expense p paid for only
// ever counts as spending, even when p is also in its split group. Expenses
// with an empty split group are skipped.
func ComputeParticipantStats(p models.Participant, expenses []models.Expense) Stats {
	uid := strings.TrimSpace(p.UID)
	stats := Stats{
		Participant:  p,
		SpendingList: []models.Expense{},
		ToGiveList:   []Debt{},
	}

	for _, e := range expenses {
		if strings.TrimSpace(e.Payer) == uid {
			stats.TotalSpent += e.CanonicalAmount()
			stats.SpendingList = append(stats.SpendingList, e)
			continue
		}

		if len(e.SplitWith) == 0 || !containsTrimmed(e.SplitWith, uid) {
			continue
		}

		share := Share(e)
		settled := containsTrimmed(e.Settled, uid)
		if !settled {
			stats.TotalDebt += share
		}
		stats.ToGiveList = append(stats.ToGiveList, Debt{
			Expense:   e,
			Share:     share,
			Receiver:  e.Payer,
			IsSettled: settled,
		})
	}

	return stats
}

// ToggleSettlement flips uid's membership in e.Settled. The expense is not
// modified; applying the toggle twice restores the starting set.
func ToggleSettlement(e models.Expense, uid string) []string {
	next := make([]string, 0, len(e.Settled)+1)
	found := false
	for _, s := range e.Settled {
		if s == uid {
			found = true
			continue
		}
		next = append(next, s)
	}
	if !found {
		next = append(next, uid)
	}
	return next
}

// Aggregate returns one Stats per participant, in participant order
func Aggregate(participants []models.Participant, expenses []models.Expense) []Stats {
	all := make([]Stats, len(participants))
	for i, p := range participants {
		all[i] = ComputeParticipantStats(p, expenses)
	}
	return all
}

// Owed is an outstanding amount a participant still has to pay Receiver
type Owed struct {
	Receiver string  `json:"receiver"`
	Amount   float64 `json:"amount"`
}

// Outstanding groups a participant's unsettled debts by receiver, in the
// order receivers first appear.
func Outstanding(stats Stats) []Owed {
	var owed []Owed
	index := make(map[string]int)
	for _, d := range stats.ToGiveList {
		if d.IsSettled {
			continue
		}
		i, ok := index[d.Receiver]
		if !ok {
			i = len(owed)
			index[d.Receiver] = i
			owed = append(owed, Owed{Receiver: d.Receiver})
		}
		owed[i].Amount += d.Share
	}
	return owed
}
