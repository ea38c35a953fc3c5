package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"오전 12:00", 0},
		{"오전 12:30", 30},
		{"오전 9:05", 9*60 + 5},
		{"오후 12:00", 12 * 60},
		{"오후 12:15", 12*60 + 15},
		{"오후 1:00", 13 * 60},
		{"오후 11:59", 23*60 + 59},
		{"", 0},
		{"9:00", 0},
		{"오후 noon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Minutes(tt.in))
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00:00", "오전 12:00"},
		{"09:05", "오전 9:05"},
		{"12:00", "오후 12:00"},
		{"14:05", "오후 2:05"},
		{"23:59", "오후 11:59"},
	}

	for _, tt := range tests {
		got, err := FormatClock(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)

		back, err := Clock(got)
		require.NoError(t, err)
		assert.Equal(t, tt.in, back)
	}

	_, err := FormatClock("24:00")
	assert.ErrorIs(t, err, ErrMalformedTime)
	_, err = Clock("오후 13:00")
	assert.ErrorIs(t, err, ErrMalformedTime)
	_, err = Clock("저녁 7:00")
	assert.ErrorIs(t, err, ErrMalformedTime)
}
