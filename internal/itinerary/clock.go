package itinerary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	meridiemAM = "오전"
	meridiemPM = "오후"
)

var ErrMalformedTime = errors.New("malformed itinerary time")

// Minutes converts "오전 9:30" / "오후 2:05" to minutes since midnight.
// Missing or malformed values yield 0 so they sort first within a day.
func Minutes(t string) int {
	fields := strings.Fields(t)
	if len(fields) < 2 {
		return 0
	}

	hm := strings.SplitN(fields[1], ":", 2)
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0
	}
	minute := 0
	if len(hm) == 2 {
		if m, err := strconv.Atoi(hm[1]); err == nil {
			minute = m
		}
	}

	switch fields[0] {
	case meridiemPM:
		if hour != 12 {
			hour += 12
		}
	case meridiemAM:
		if hour == 12 {
			hour = 0
		}
	}
	return hour*60 + minute
}

// parseMeridiem strictly parses "<오전|오후> H:MM"
func parseMeridiem(t string) (int, int, error) {
	fields := strings.Fields(t)
	if len(fields) != 2 || (fields[0] != meridiemAM && fields[0] != meridiemPM) {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, t)
	}
	hm := strings.Split(fields[1], ":")
	if len(hm) != 2 || len(hm[1]) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, t)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, t)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, t)
	}
	return hour, minute, nil
}

// FormatClock converts a 24h "HH:mm" value (as sent by time inputs) to the
// stored "<오전|오후> H:MM" form.
func FormatClock(clock string) (string, error) {
	hm := strings.Split(strings.TrimSpace(clock), ":")
	if len(hm) != 2 {
		return "", fmt.Errorf("%w: %q", ErrMalformedTime, clock)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("%w: %q", ErrMalformedTime, clock)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: %q", ErrMalformedTime, clock)
	}

	meridiem := meridiemAM
	if hour >= 12 {
		meridiem = meridiemPM
	}
	display := hour
	switch {
	case hour > 12:
		display = hour - 12
	case hour == 0:
		display = 12
	}
	return fmt.Sprintf("%s %d:%02d", meridiem, display, minute), nil
}

// Clock converts a stored "<오전|오후> H:MM" time back to 24h "HH:mm"
func Clock(t string) (string, error) {
	if _, _, err := parseMeridiem(t); err != nil {
		return "", err
	}
	m := Minutes(t)
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}
