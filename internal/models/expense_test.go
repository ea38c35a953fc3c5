package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalAmount(t *testing.T) {
	assert.Equal(t, 9000.0, Expense{Amount: 1000, AmountKRW: 9000}.CanonicalAmount())
	assert.Equal(t, 1000.0, Expense{Amount: 1000}.CanonicalAmount())
}
