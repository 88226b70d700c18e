// Package analytics derives dashboard figures from a user's entries.
// Every function is pure and takes "today" explicitly.
package analytics

import (
	"time"

	"github.com/limbo/journal/pkg/entity"
)

func dateSet(entries []entity.Entry) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(entries))
	for _, e := range entries {
		set[entity.Day(e.Date)] = struct{}{}
	}
	return set
}

// Streak counts consecutive written days walking back from today.
// If today has no entry yet but yesterday does, the walk starts from
// yesterday, so an open streak is not reset before the day is over.
func Streak(entries []entity.Entry, today time.Time) int {
	days := dateSet(entries)
	has := func(d time.Time) bool {
		_, ok := days[d]
		return ok
	}
	cursor := entity.Day(today)
	count := 0
	if has(cursor) {
		count++
		cursor = cursor.AddDate(0, 0, -1)
	} else if has(cursor.AddDate(0, 0, -1)) {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for has(cursor) {
		count++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return count
}

// LastWeek maps each of the 7 days ending today to whether it has an entry.
func LastWeek(entries []entity.Entry, today time.Time) map[time.Time]bool {
	days := dateSet(entries)
	start := entity.Day(today)
	week := make(map[time.Time]bool, 7)
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, -i)
		_, ok := days[d]
		week[d] = ok
	}
	return week
}

type DayActivity struct {
	Date    time.Time `json:"date"`
	Written bool      `json:"written"`
}

// Week is LastWeek as a slice, oldest day first.
func Week(entries []entity.Entry, today time.Time) []DayActivity {
	week := LastWeek(entries, today)
	start := entity.Day(today)
	out := make([]DayActivity, 0, 7)
	for i := 6; i >= 0; i-- {
		d := start.AddDate(0, 0, -i)
		out = append(out, DayActivity{Date: d, Written: week[d]})
	}
	return out
}
