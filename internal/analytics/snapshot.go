package analytics

import (
	"strings"
	"time"

	"github.com/limbo/journal/pkg/entity"
)

// RecentLimit is how many entries the dashboard previews.
const RecentLimit = 3

type Snapshot struct {
	Streak       int                `json:"streak"`
	LastWeek     map[time.Time]bool `json:"-"`
	Week         []DayActivity      `json:"week"`
	WeeklyMood   string             `json:"weekly_mood"`
	MoodCategory MoodCategory       `json:"mood_category"`
	TotalEntries int                `json:"total_entries"`
	Recent       []entity.Entry     `json:"recent"`
}

func Compute(entries []entity.Entry, today time.Time) Snapshot {
	mood := WeeklyMood(entries, today)
	return Snapshot{
		Streak:       Streak(entries, today),
		LastWeek:     LastWeek(entries, today),
		Week:         Week(entries, today),
		WeeklyMood:   mood,
		MoodCategory: Categorize(mood),
		TotalEntries: Total(entries),
		Recent:       Recent(entries, RecentLimit),
	}
}

func Total(entries []entity.Entry) int {
	return len(entries)
}

// Recent returns up to n entries, newest first, with full content.
func Recent(entries []entity.Entry, n int) []entity.Entry {
	if n < 0 {
		n = 0
	}
	sorted := byDateDesc(entries)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SortByDateDesc is the ordering used by entry listings.
func SortByDateDesc(entries []entity.Entry) []entity.Entry {
	return byDateDesc(entries)
}

// Preview flattens line breaks and cuts content to max runes, adding "..."
// when something was cut.
func Preview(content string, max int) string {
	flat := strings.ReplaceAll(content, "\r\n", " ")
	flat = strings.ReplaceAll(flat, "\n", " ")
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	return string(runes[:max]) + "..."
}
