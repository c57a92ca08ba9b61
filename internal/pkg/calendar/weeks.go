// Package calendar groups dated course items into numbered weeks.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

const week = 7 * 24 * time.Hour

// ItemKind names the source table of an item.
type ItemKind string

const (
	KindSession    ItemKind = "session"
	KindAssignment ItemKind = "assignment"
	KindQuiz       ItemKind = "quiz"
)

// Item is anything with a date that shows up on a course calendar.
type Item struct {
	Kind  ItemKind  `json:"kind"`
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// WeekGroup is one "Week N" bucket. Index is zero-based, Label is one-based.
type WeekGroup struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Items []Item `json:"items"`
}

// WeekIndex returns floor((date - start) / 7 days) with both dates truncated
// to UTC midnight. ok is false for zero dates and dates before start.
func WeekIndex(start, date time.Time) (int, bool) {
	if start.IsZero() || date.IsZero() {
		return 0, false
	}
	diff := day(date).Sub(day(start))
	if diff < 0 {
		return 0, false
	}
	return int(diff / week), true
}

// BucketByWeek groups items by week relative to start. Groups come back in
// increasing week order and items keep their input order inside a group.
// Items without a usable date are left out.
func BucketByWeek(start time.Time, items []Item) []WeekGroup {
	byIndex := make(map[int][]Item)
	for _, it := range items {
		idx, ok := WeekIndex(start, it.Date)
		if !ok {
			continue
		}
		byIndex[idx] = append(byIndex[idx], it)
	}

	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	groups := make([]WeekGroup, 0, len(indexes))
	for _, idx := range indexes {
		groups = append(groups, WeekGroup{
			Index: idx,
			Label: Label(idx),
			Items: byIndex[idx],
		})
	}
	return groups
}

// Label renders a zero-based week index as "Week N".
func Label(index int) string {
	return fmt.Sprintf("Week %d", index+1)
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
