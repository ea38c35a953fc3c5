package itinerary

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"tripmate/internal/models"
)

var (
	ErrDayOutOfRange = errors.New("day is outside the trip")
	ErrBlankActivity = errors.New("activity is blank")
)

// NormalizeItem trims user input and defaults the group to "전체"
func NormalizeItem(item models.ItineraryItem) models.ItineraryItem {
	item.Day = strings.TrimSpace(item.Day)
	item.Time = strings.TrimSpace(item.Time)
	item.Activity = strings.TrimSpace(item.Activity)
	item.Location = strings.TrimSpace(item.Location)
	item.Group = strings.TrimSpace(item.Group)
	if item.Group == "" {
		item.Group = models.AllGroups
	}
	return item
}

// ValidateItem checks an item before it is written. Existing items are never
// re-validated, so stale group names already in the store stay readable.
func ValidateItem(item models.ItineraryItem, dayCount int, groups []string) error {
	if item.Activity == "" {
		return ErrBlankActivity
	}
	if d := DayIndex(item.Day); d < 1 || d > dayCount {
		return fmt.Errorf("%w: %q", ErrDayOutOfRange, item.Day)
	}
	if item.Time != "" {
		if _, _, err := parseMeridiem(item.Time); err != nil {
			return err
		}
	}
	if item.Group != models.AllGroups && !slices.Contains(groups, item.Group) {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, item.Group)
	}
	return nil
}
