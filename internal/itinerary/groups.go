package itinerary

import (
	"errors"
	"slices"
	"strings"

	"tripmate/internal/models"
)

var (
	ErrReservedGroupName  = errors.New("group name is reserved")
	ErrDuplicateGroupName = errors.New("group already exists")
	ErrBlankGroupName     = errors.New("group name is blank")
	ErrUnknownGroup       = errors.New("unknown group")
)

type CascadeKind string

const (
	CascadeRename CascadeKind = "rename"
	CascadeDelete CascadeKind = "delete"
)

// Cascade describes every write a group rename or delete implies: the trip's
// new saved group list and the items whose group must change.
type Cascade struct {
	Kind    CascadeKind `json:"kind"`
	TripID  string      `json:"tripId"`
	From    string      `json:"from"`
	To      string      `json:"to"`
	Groups  []string    `json:"groups"`
	ItemIDs []string    `json:"itemIds"`
}

// Noop reports whether applying the cascade changes nothing
func (c Cascade) Noop() bool {
	return c.Kind == CascadeRename && c.From == c.To
}

// DisplayGroups prepends the virtual "전체" group to the saved groups
func DisplayGroups(groups []string) []string {
	display := make([]string, 0, len(groups)+1)
	display = append(display, models.AllGroups)
	for _, g := range groups {
		if g != models.AllGroups {
			display = append(display, g)
		}
	}
	return display
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBlankGroupName
	}
	if name == models.AllGroups {
		return "", ErrReservedGroupName
	}
	return name, nil
}

// PlanAddGroup returns the saved group list with name appended
func PlanAddGroup(groups []string, name string) ([]string, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}
	if slices.Contains(groups, name) {
		return nil, ErrDuplicateGroupName
	}
	next := make([]string, 0, len(groups)+1)
	next = append(next, groups...)
	return append(next, name), nil
}

// PlanRename plans renaming oldName to newName across the group list and every
// item that references it. Renaming a group to its own name is a no-op.
func PlanRename(groups []string, items []models.ItineraryItem, oldName, newName string) (Cascade, error) {
	if oldName == models.AllGroups {
		return Cascade{}, ErrReservedGroupName
	}
	newName, err := checkName(newName)
	if err != nil {
		return Cascade{}, err
	}
	if !slices.Contains(groups, oldName) {
		return Cascade{}, ErrUnknownGroup
	}

	c := Cascade{Kind: CascadeRename, From: oldName, To: newName}
	if newName == oldName {
		c.Groups = append([]string(nil), groups...)
		return c, nil
	}
	if slices.Contains(groups, newName) {
		return Cascade{}, ErrDuplicateGroupName
	}
	return c.Rebase(groups, items), nil
}

// PlanDelete plans removing name from the group list and moving its items back
// to "전체". Names that only survive on stale items may still be deleted.
func PlanDelete(groups []string, items []models.ItineraryItem, name string) (Cascade, error) {
	if name == models.AllGroups {
		return Cascade{}, ErrReservedGroupName
	}
	c := Cascade{Kind: CascadeDelete, From: name, To: models.AllGroups}.Rebase(groups, items)
	if !slices.Contains(groups, name) && len(c.ItemIDs) == 0 {
		return Cascade{}, ErrUnknownGroup
	}
	return c, nil
}

// Rebase recomputes the cascade's writes against the current groups and items.
// Replaying a rebased cascade that was already applied yields no item writes.
func (c Cascade) Rebase(groups []string, items []models.ItineraryItem) Cascade {
	next := make([]string, 0, len(groups))
	for _, g := range groups {
		switch {
		case g != c.From:
			next = append(next, g)
		case c.Kind == CascadeRename && !slices.Contains(groups, c.To):
			next = append(next, c.To)
		}
	}

	var ids []string
	if !c.Noop() {
		for _, item := range items {
			if item.Group == c.From {
				ids = append(ids, item.ID)
			}
		}
	}

	c.Groups = next
	c.ItemIDs = ids
	return c
}

// Apply returns the groups and items as they look once the cascade has been
// written. Inputs are not modified.
func (c Cascade) Apply(groups []string, items []models.ItineraryItem) ([]string, []models.ItineraryItem) {
	rebased := c.Rebase(groups, items)
	out := make([]models.ItineraryItem, len(items))
	copy(out, items)
	if c.Noop() {
		return rebased.Groups, out
	}
	for i := range out {
		if out[i].Group == c.From {
			out[i].Group = c.To
		}
	}
	return rebased.Groups, out
}

// ActiveFilterAfter returns the group filter to show once c is applied
func ActiveFilterAfter(c Cascade, filter string) string {
	if filter != c.From {
		return filter
	}
	if c.Kind == CascadeDelete {
		return models.AllGroups
	}
	return c.To
}
