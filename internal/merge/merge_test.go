package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/wins-exporter/internal/types"
)

func str(s string) *string { return &s }

func day(n int) *time.Time {
	t := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n-1)
	return &t
}

func TestMerge_DetailFillsAbsentField(t *testing.T) {
	base := []types.BaseRecord{{Identity: "a", Title: "A"}}
	details := []types.DetailResult{{Price: str("0.5")}}

	merged := Merge(base, details)

	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].Price)
	assert.Equal(t, "0.5", *merged[0].Price)
}

func TestMerge_EmptyStringCountsAsAbsent(t *testing.T) {
	base := []types.BaseRecord{{Identity: "a", Price: str("")}}
	merged := Merge(base, []types.DetailResult{{Price: str("0.5")}})
	assert.Equal(t, "0.5", *merged[0].Price)
}

func TestMerge_FeedValueWins(t *testing.T) {
	base := []types.BaseRecord{{Identity: "a", Price: str("1.2")}}
	details := []types.DetailResult{{Price: str("9.9")}}

	merged := Merge(base, details)

	assert.Equal(t, "1.2", *merged[0].Price)
}

func TestMerge_EveryKnownFieldIsPreserved(t *testing.T) {
	base := types.BaseRecord{
		Identity:     "a",
		Title:        "A",
		Category:     "ETH",
		PrimaryDate:  day(3),
		Quantity:     str("100"),
		Price:        str("0.1"),
		ExternalLink: str("https://x.com/a"),
	}
	detail := types.DetailResult{
		PrimaryDate:  day(9),
		Quantity:     str("999"),
		Price:        str("9.9"),
		ExternalLink: str("https://x.com/other"),
	}

	merged := Merge([]types.BaseRecord{base}, []types.DetailResult{detail})

	assert.Equal(t, base, merged[0])
}

func TestMerge_AllAbsentDetailLeavesRecordUnchanged(t *testing.T) {
	base := []types.BaseRecord{{Identity: "a", Title: "A", Category: "SOL"}}
	merged := Merge(base, []types.DetailResult{{}})
	assert.Equal(t, base, merged)
}

func TestMerge_LengthMismatch(t *testing.T) {
	base := []types.BaseRecord{{Identity: "a"}, {Identity: "b"}}

	short := Merge(base, []types.DetailResult{{Price: str("1")}})
	require.Len(t, short, 2)
	assert.Equal(t, "1", *short[0].Price)
	assert.Nil(t, short[1].Price)

	long := Merge(base[:1], []types.DetailResult{{Price: str("1")}, {Price: str("2")}})
	require.Len(t, long, 1)
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	base := []types.BaseRecord{{Identity: "a"}}
	_ = Merge(base, []types.DetailResult{{Price: str("1")}})
	assert.Nil(t, base[0].Price)
}

func TestFilter_RetentionHorizon(t *testing.T) {
	now := *day(10)
	records := []types.BaseRecord{
		{Identity: "old", PrimaryDate: day(2)},
		{Identity: "recent", PrimaryDate: day(5)},
		{Identity: "unknown"},
		{Identity: "boundary", PrimaryDate: day(3)},
		{Identity: "future", PrimaryDate: day(20)},
	}

	kept := Filter(records, 7, now)

	ids := make([]string, len(kept))
	for i, r := range kept {
		ids[i] = r.Identity
	}
	assert.Equal(t, []string{"recent", "unknown", "boundary", "future"}, ids)
}

func TestFilter_JustPastHorizonIsDropped(t *testing.T) {
	now := *day(10)
	justBefore := day(3).Add(-time.Second)
	kept := Filter([]types.BaseRecord{{Identity: "a", PrimaryDate: &justBefore}}, 7, now)
	assert.Empty(t, kept)
}

func TestFilter_Empty(t *testing.T) {
	kept := Filter(nil, 7, time.Now())
	assert.NotNil(t, kept)
	assert.Empty(t, kept)
}

func TestMergeAndFilter_DetailDateDecidesRetention(t *testing.T) {
	now := *day(10)
	base := []types.BaseRecord{
		{Identity: "a", Title: "A"},
		{Identity: "b", Title: "B"},
		{Identity: "c", Title: "C", PrimaryDate: day(9)},
	}
	details := []types.DetailResult{
		{PrimaryDate: day(1)},
		{PrimaryDate: day(8), Price: str("0.2")},
		{PrimaryDate: day(1)},
	}

	out := MergeAndFilter(base, details, DefaultRetentionDays, now)

	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Identity)
	assert.Equal(t, "0.2", *out[0].Price)
	assert.Equal(t, "c", out[1].Identity)
	assert.Equal(t, *day(9), *out[1].PrimaryDate)
}
