package settlement

import (
	"slices"
	"strings"

	"tripmate/internal/models"
)

// ResolveIdentities rewrites legacy expenses that recorded payer, split
// members and settlement marks by display name so they reference uids instead. A name is only
// resolved when exactly one participant carries it; anything else is left as
// is and simply matches nobody. It returns the rewritten expenses and the ids
// of those that changed.
func ResolveIdentities(expenses []models.Expense, participants []models.Participant) ([]models.Expense, []string) {
	uids := make(map[string]bool, len(participants))
	byName := make(map[string]string, len(participants))
	ambiguous := make(map[string]bool)
	for _, p := range participants {
		uids[p.UID] = true
		name := strings.TrimSpace(p.DisplayName)
		if name == "" {
			continue
		}
		if _, seen := byName[name]; seen {
			ambiguous[name] = true
			continue
		}
		byName[name] = p.UID
	}

	resolve := func(v string) string {
		v = strings.TrimSpace(v)
		if uids[v] || ambiguous[v] {
			return v
		}
		if uid, ok := byName[v]; ok {
			return uid
		}
		return v
	}

	out := make([]models.Expense, len(expenses))
	var changed []string
	for i, e := range expenses {
		r := e
		r.Payer = resolve(e.Payer)
		r.SplitWith = make([]string, len(e.SplitWith))
		for j, v := range e.SplitWith {
			r.SplitWith[j] = resolve(v)
		}
		r.Settled = make([]string, len(e.Settled))
		for j, v := range e.Settled {
			r.Settled[j] = resolve(v)
		}

		if r.Payer != e.Payer || !slices.Equal(r.SplitWith, e.SplitWith) || !slices.Equal(r.Settled, e.Settled) {
			changed = append(changed, e.ID)
		}
		out[i] = r
	}
	return out, changed
}

// DisplayNames maps uids to display names for presentation
func DisplayNames(participants []models.Participant) map[string]string {
	names := make(map[string]string, len(participants))
	for _, p := range participants {
		names[p.UID] = p.DisplayName
	}
	return names
}
