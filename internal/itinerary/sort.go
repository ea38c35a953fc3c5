package itinerary

import (
	"sort"

	"tripmate/internal/models"
)

// SortItems orders items by day, then by time of day. The input is not modified
// and items with equal keys keep their relative order.
func SortItems(items []models.ItineraryItem) []models.ItineraryItem {
	sorted := make([]models.ItineraryItem, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := DayIndex(sorted[i].Day), DayIndex(sorted[j].Day)
		if di != dj {
			return di < dj
		}
		return Minutes(sorted[i].Time) < Minutes(sorted[j].Time)
	})
	return sorted
}

// FilterByGroup keeps the items shown under filter. AllGroups shows everything.
func FilterByGroup(items []models.ItineraryItem, filter string) []models.ItineraryItem {
	if filter == "" || filter == models.AllGroups {
		return items
	}
	filtered := make([]models.ItineraryItem, 0, len(items))
	for _, item := range items {
		if item.Group == filter {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
