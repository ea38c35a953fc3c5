package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripmate/internal/models"
)

func TestResolveIdentities(t *testing.T) {
	twin := models.Participant{UID: "u-twin", DisplayName: "밥"}
	legacy := []models.Expense{
		{ID: "legacy", Payer: " 앨리스", SplitWith: []string{"앨리스", "캐롤", "u-bob"}, Settled: []string{"u-carol"}},
		{ID: "modern", Payer: "u-bob", SplitWith: []string{"u-alice"}},
		{ID: "ambiguous", Payer: "밥", SplitWith: []string{"밥", "모르는사람"}},
		{ID: "settled-by-name", Payer: "u-alice", SplitWith: []string{"u-alice", "u-carol"}, Settled: []string{"캐롤"}},
	}

	resolved, changed := ResolveIdentities(legacy, []models.Participant{alice, bob, carol, twin})

	require.Len(t, resolved, 4)
	assert.Equal(t, []string{"legacy", "settled-by-name"}, changed)
	assert.Equal(t, "u-alice", resolved[0].Payer)
	assert.Equal(t, []string{"u-alice", "u-carol", "u-bob"}, resolved[0].SplitWith)
	assert.Equal(t, []string{"u-carol"}, resolved[0].Settled)
	assert.Equal(t, legacy[1], resolved[1])
	assert.Equal(t, "밥", resolved[2].Payer)
	assert.Equal(t, " 앨리스", legacy[0].Payer, "input must not be mutated")
	assert.Equal(t, []string{"u-carol"}, resolved[3].Settled)
	assert.Equal(t, []string{"캐롤"}, legacy[3].Settled)

	stats := ComputeParticipantStats(alice, resolved[:3])
	assert.Len(t, stats.SpendingList, 1)

	carolStats := ComputeParticipantStats(carol, resolved[3:])
	require.Len(t, carolStats.ToGiveList, 1)
	assert.True(t, carolStats.ToGiveList[0].IsSettled)
	assert.Zero(t, carolStats.TotalDebt)
}

func TestDisplayNames(t *testing.T) {
	names := DisplayNames([]models.Participant{alice, bob})
	assert.Equal(t, "앨리스", names["u-alice"])
	assert.Equal(t, "밥", names["u-bob"])
}
