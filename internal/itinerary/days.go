// Package itinerary derives day labels from a trip's date range, orders itinerary
// items for display and plans group rename/delete cascades.
package itinerary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dayLabelSuffix = "일차"
	rangeSeparator = " - "
	dateLayout     = "2006.1.2"
)

// MaxTripDays bounds how long a trip date range may be when it is edited
const MaxTripDays = 366

var (
	ErrMalformedDateRange = errors.New("malformed trip date range")
	ErrTripTooLong        = fmt.Errorf("trip spans more than %d days", MaxTripDays)
)

// DayLabel returns the label for the n-th (1-indexed) day of the trip
func DayLabel(n int) string {
	return strconv.Itoa(n) + dayLabelSuffix
}

// DayIndex extracts the day number from a label like "3일차".
// Labels that do not parse yield 0.
func DayIndex(label string) int {
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), dayLabelSuffix)))
	if err != nil {
		return 0
	}
	return n
}

// ParseDateRange parses "yyyy.MM.dd - yyyy.MM.dd". The end date may omit the
// year ("MM.dd"), in which case the start year is used.
func ParseDateRange(date string) (time.Time, time.Time, error) {
	parts := strings.Split(date, rangeSeparator)
	if len(parts) < 2 {
		return time.Time{}, time.Time{}, ErrMalformedDateRange
	}

	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])

	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", ErrMalformedDateRange, startStr)
	}

	end, err := time.Parse(dateLayout, endStr)
	if err != nil && strings.Count(endStr, ".") == 1 {
		end, err = time.Parse(dateLayout, fmt.Sprintf("%d.%s", start.Year(), endStr))
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", ErrMalformedDateRange, endStr)
	}

	return start, end, nil
}

// DayCount returns the inclusive number of days in the range, at least 1.
// Malformed ranges count as a single day.
func DayCount(date string) int {
	start, end, err := ParseDateRange(date)
	if err != nil {
		return 1
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// DeriveDayLabels returns ["1일차", ..., "N일차"] for the trip date range
func DeriveDayLabels(date string) []string {
	n := DayCount(date)
	labels := make([]string, n)
	for i := range labels {
		labels[i] = DayLabel(i + 1)
	}
	return labels
}

// ValidateDateRange is used when a trip's dates are created or edited
func ValidateDateRange(date string) error {
	start, end, err := ParseDateRange(date)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end before start", ErrMalformedDateRange)
	}
	if int(end.Sub(start).Hours()/24)+1 > MaxTripDays {
		return ErrTripTooLong
	}
	return nil
}

// FormatDateRange renders two dates the way trips store them
func FormatDateRange(start, end time.Time) string {
	return start.Format("2006.01.02") + rangeSeparator + end.Format("2006.01.02")
}
