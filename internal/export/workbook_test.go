package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tripmate/internal/models"
	"tripmate/internal/settlement"
)

func sampleReport() Report {
	participants := []models.Participant{
		{UID: "u1", DisplayName: "앨리스"},
		{UID: "u2", DisplayName: "밥"},
	}
	expenses := []models.Expense{{
		ID: "e1", Item: "숙소", Amount: 200000, Currency: models.CurrencyKRW, AmountKRW: 200000,
		Payer: "u1", SplitWith: []string{"u1", "u2"}, Settled: []string{"u2"},
		Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}}
	return Report{
		Trip:         models.Trip{ID: "t1", Name: "홋카이도"},
		Participants: participants,
		Expenses:     expenses,
		Stats:        settlement.Aggregate(participants, expenses),
		Balances:     settlement.SummarizeAll(participants, expenses),
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ExpenseSheet, SettlementSheet}, f.GetSheetList())

	rows, err := f.GetRows(ExpenseSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "날짜", rows[0][0])
	assert.Equal(t, "2026.01.10", rows[1][0])
	assert.Equal(t, "숙소", rows[1][1])
	assert.Equal(t, "앨리스", rows[1][5])
	assert.Equal(t, "앨리스, 밥", rows[1][6])
	assert.Equal(t, "밥", rows[1][7])

	rows, err = f.GetRows(SettlementSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "앨리스", rows[1][0])
	assert.Equal(t, "받을 돈", rows[1][6])
	assert.Equal(t, "밥", rows[2][0])
	assert.Equal(t, "보낼 돈", rows[2][6])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "홋카이도 정산.xlsx", Filename(models.Trip{Name: "홋카이도"}))
	assert.Equal(t, "a_b 정산.xlsx", Filename(models.Trip{Name: "a/b"}))
	assert.Equal(t, "trip 정산.xlsx", Filename(models.Trip{}))
}
