package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func item(kind ItemKind, title string, when time.Time) Item {
	return Item{Kind: kind, ID: uuid.New(), Title: title, Date: when}
}

func TestBucketByWeek_MondayStart(t *testing.T) {
	start := date(2024, time.January, 1)
	items := []Item{
		item(KindSession, "intro", date(2024, time.January, 3)),
		item(KindAssignment, "hw1", date(2024, time.January, 8)),
		item(KindQuiz, "q1", date(2024, time.January, 7).Add(23*time.Hour)),
	}

	groups := BucketByWeek(start, items)
	require.Len(t, groups, 2)

	assert.Equal(t, "Week 1", groups[0].Label)
	require.Len(t, groups[0].Items, 2)
	assert.Equal(t, "intro", groups[0].Items[0].Title)
	assert.Equal(t, "q1", groups[0].Items[1].Title)

	assert.Equal(t, "Week 2", groups[1].Label)
	require.Len(t, groups[1].Items, 1)
	assert.Equal(t, "hw1", groups[1].Items[0].Title)
}

func TestBucketByWeek_ExcludesMissingAndEarlyDates(t *testing.T) {
	start := date(2024, time.January, 1)
	items := []Item{
		item(KindAssignment, "no due date", time.Time{}),
		item(KindSession, "before start", date(2023, time.December, 30)),
		item(KindQuiz, "week three", date(2024, time.January, 15)),
	}

	groups := BucketByWeek(start, items)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Index)
	assert.Equal(t, "Week 3", groups[0].Label)
	assert.Equal(t, "week three", groups[0].Items[0].Title)
}

func TestBucketByWeek_OrderedBySparseIndex(t *testing.T) {
	start := date(2024, time.January, 1)
	items := []Item{
		item(KindQuiz, "late", date(2024, time.February, 20)),
		item(KindQuiz, "early", date(2024, time.January, 2)),
	}

	groups := BucketByWeek(start, items)
	require.Len(t, groups, 2)
	assert.Equal(t, "Week 1", groups[0].Label)
	assert.Equal(t, "Week 8", groups[1].Label)
}

func TestBucketByWeek_Empty(t *testing.T) {
	assert.Empty(t, BucketByWeek(date(2024, time.January, 1), nil))
	assert.Empty(t, BucketByWeek(time.Time{}, []Item{item(KindSession, "x", date(2024, time.January, 2))}))
}

func TestWeekIndex_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, time.January, 1, 18, 30, 0, 0, time.UTC)
	idx, ok := WeekIndex(start, time.Date(2024, time.January, 8, 6, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}
