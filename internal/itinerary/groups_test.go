package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripmate/internal/models"
)

func groupItems() []models.ItineraryItem {
	return []models.ItineraryItem{
		{ID: "1", Group: "A조"},
		{ID: "2", Group: "B조"},
		{ID: "3", Group: "A조"},
		{ID: "4", Group: models.AllGroups},
	}
}

func TestPlanAddGroup(t *testing.T) {
	groups, err := PlanAddGroup([]string{"A조"}, " B조 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"A조", "B조"}, groups)

	_, err = PlanAddGroup([]string{"A조"}, "A조")
	assert.ErrorIs(t, err, ErrDuplicateGroupName)
	_, err = PlanAddGroup(nil, models.AllGroups)
	assert.ErrorIs(t, err, ErrReservedGroupName)
	_, err = PlanAddGroup(nil, "  ")
	assert.ErrorIs(t, err, ErrBlankGroupName)
}

func TestPlanRename(t *testing.T) {
	groups := []string{"A조", "B조"}

	c, err := PlanRename(groups, groupItems(), "A조", "C조")
	require.NoError(t, err)
	assert.Equal(t, CascadeRename, c.Kind)
	assert.Equal(t, []string{"C조", "B조"}, c.Groups)
	assert.Equal(t, []string{"1", "3"}, c.ItemIDs)

	nextGroups, nextItems := c.Apply(groups, groupItems())
	assert.Equal(t, c.Groups, nextGroups)
	for _, item := range nextItems {
		assert.NotEqual(t, "A조", item.Group)
	}
	assert.Equal(t, "C조", nextItems[0].Group)
	assert.Equal(t, "B조", nextItems[1].Group)
}

func TestPlanRenameRejections(t *testing.T) {
	groups := []string{"A조", "B조"}

	_, err := PlanRename(groups, nil, "A조", models.AllGroups)
	assert.ErrorIs(t, err, ErrReservedGroupName)
	_, err = PlanRename(groups, nil, models.AllGroups, "C조")
	assert.ErrorIs(t, err, ErrReservedGroupName)
	_, err = PlanRename(groups, nil, "A조", "B조")
	assert.ErrorIs(t, err, ErrDuplicateGroupName)
	_, err = PlanRename(groups, nil, "Z조", "C조")
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestPlanRenameToSelfIsNoop(t *testing.T) {
	c, err := PlanRename([]string{"A조"}, groupItems(), "A조", "A조")
	require.NoError(t, err)
	assert.True(t, c.Noop())
	assert.Empty(t, c.ItemIDs)
	assert.Equal(t, []string{"A조"}, c.Groups)
}

func TestPlanDelete(t *testing.T) {
	groups := []string{"A조", "B조"}

	c, err := PlanDelete(groups, groupItems(), "A조")
	require.NoError(t, err)
	assert.Equal(t, []string{"B조"}, c.Groups)
	assert.Equal(t, []string{"1", "3"}, c.ItemIDs)

	_, items := c.Apply(groups, groupItems())
	assert.Equal(t, models.AllGroups, items[0].Group)
	assert.Equal(t, models.AllGroups, items[2].Group)
	assert.Equal(t, "B조", items[1].Group)

	_, err = PlanDelete(groups, groupItems(), models.AllGroups)
	assert.ErrorIs(t, err, ErrReservedGroupName)
	_, err = PlanDelete(groups, groupItems(), "Z조")
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestPlanDeleteStaleGroup(t *testing.T) {
	items := []models.ItineraryItem{{ID: "9", Group: "old"}}
	c, err := PlanDelete([]string{"A조"}, items, "old")
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, c.ItemIDs)
	assert.Equal(t, []string{"A조"}, c.Groups)
}

func TestCascadeRebaseIsIdempotent(t *testing.T) {
	groups := []string{"A조", "B조"}
	c, err := PlanRename(groups, groupItems(), "A조", "C조")
	require.NoError(t, err)

	appliedGroups, appliedItems := c.Apply(groups, groupItems())
	replay := c.Rebase(appliedGroups, appliedItems)
	assert.Empty(t, replay.ItemIDs)
	assert.Equal(t, appliedGroups, replay.Groups)

	twiceGroups, twiceItems := c.Apply(appliedGroups, appliedItems)
	assert.Equal(t, appliedGroups, twiceGroups)
	assert.Equal(t, appliedItems, twiceItems)
}

func TestCascadeRebaseAfterConcurrentAdd(t *testing.T) {
	c, err := PlanRename([]string{"A조"}, nil, "A조", "C조")
	require.NoError(t, err)

	rebased := c.Rebase([]string{"A조", "C조"}, nil)
	assert.Equal(t, []string{"C조"}, rebased.Groups)
}

func TestActiveFilterAfter(t *testing.T) {
	rename := Cascade{Kind: CascadeRename, From: "A조", To: "C조"}
	del := Cascade{Kind: CascadeDelete, From: "A조", To: models.AllGroups}

	assert.Equal(t, "C조", ActiveFilterAfter(rename, "A조"))
	assert.Equal(t, "B조", ActiveFilterAfter(rename, "B조"))
	assert.Equal(t, models.AllGroups, ActiveFilterAfter(del, "A조"))
	assert.Equal(t, "B조", ActiveFilterAfter(del, "B조"))
}

func TestDisplayGroups(t *testing.T) {
	assert.Equal(t, []string{models.AllGroups, "A조"}, DisplayGroups([]string{models.AllGroups, "A조"}))
	assert.Equal(t, []string{models.AllGroups}, DisplayGroups(nil))
}
