package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDayLabels(t *testing.T) {
	tests := []struct {
		name string
		date string
		want []string
	}{
		{"three days", "2024.05.01 - 2024.05.03", []string{"1일차", "2일차", "3일차"}},
		{"single day", "2024.05.01 - 2024.05.01", []string{"1일차"}},
		{"across month end", "2024.02.28 - 2024.03.01", []string{"1일차", "2일차", "3일차"}},
		{"end before start floors to one", "2024.05.03 - 2024.05.01", []string{"1일차"}},
		{"missing separator", "2024.05.01", []string{"1일차"}},
		{"garbage", "next week sometime - soon", []string{"1일차"}},
		{"empty", "", []string{"1일차"}},
		{"short end borrows start year", "2024.12.30 - 01.01", []string{"1일차"}},
		{"short end same year", "2024.05.01 - 05.02", []string{"1일차", "2일차"}},
		{"unpadded", "2024.5.1 - 2024.5.2", []string{"1일차", "2일차"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveDayLabels(tt.date))
		})
	}
}

func TestDeriveDayLabelsCountMatchesRange(t *testing.T) {
	labels := DeriveDayLabels("2023.12.25 - 2024.01.08")
	require.Len(t, labels, 15)
	for i, label := range labels {
		assert.Equal(t, i+1, DayIndex(label))
	}
}

func TestDayIndex(t *testing.T) {
	assert.Equal(t, 1, DayIndex("1일차"))
	assert.Equal(t, 12, DayIndex("12일차"))
	assert.Equal(t, 2, DayIndex(" 2일차 "))
	assert.Equal(t, 0, DayIndex("day one"))
	assert.Equal(t, 0, DayIndex(""))
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("2024.05.01 - 2024.05.03")
	require.NoError(t, err)
	assert.Equal(t, 2024, start.Year())
	assert.Equal(t, 3, end.Day())

	_, _, err = ParseDateRange("2024/05/01 - 2024/05/03")
	assert.ErrorIs(t, err, ErrMalformedDateRange)
}

func TestValidateDateRange(t *testing.T) {
	assert.NoError(t, ValidateDateRange("2024.05.01 - 2024.05.03"))
	assert.ErrorIs(t, ValidateDateRange("2024.05.03 - 2024.05.01"), ErrMalformedDateRange)
	assert.ErrorIs(t, ValidateDateRange("2020.01.01 - 2024.01.01"), ErrTripTooLong)
	assert.ErrorIs(t, ValidateDateRange("whenever"), ErrMalformedDateRange)
}
