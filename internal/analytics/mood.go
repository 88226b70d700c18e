package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/limbo/journal/pkg/entity"
)

type MoodCategory string

const (
	CategoryVeryPositive MoodCategory = "very positive"
	CategoryPositive     MoodCategory = "positive"
	CategoryNegative     MoodCategory = "negative"
	CategoryNeutral      MoodCategory = "neutral"
)

// Categorize buckets an open-vocabulary mood label. Order matters:
// "Very Positive" contains "positive" and "Very Negative" contains "negative".
func Categorize(mood string) MoodCategory {
	m := strings.ToLower(mood)
	switch {
	case strings.Contains(m, "very positive"):
		return CategoryVeryPositive
	case strings.Contains(m, "positive"):
		return CategoryPositive
	case strings.Contains(m, "negative"):
		return CategoryNegative
	default:
		return CategoryNeutral
	}
}

// byDateDesc returns a copy of entries sorted newest first. Entries on the
// same day keep their relative input order.
func byDateDesc(entries []entity.Entry) []entity.Entry {
	sorted := make([]entity.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return entity.Day(sorted[i].Date).After(entity.Day(sorted[j].Date))
	})
	return sorted
}

// WeeklyMood returns the most frequent mood among entries dated after
// today minus 7 days. A tie goes to the label seen first in date-descending
// order, i.e. the most recent one. Without entries in range it is "Neutral".
func WeeklyMood(entries []entity.Entry, today time.Time) string {
	cutoff := entity.Day(today).AddDate(0, 0, -7)
	recent := make([]entity.Entry, 0, len(entries))
	for _, e := range entries {
		if entity.Day(e.Date).After(cutoff) {
			recent = append(recent, e)
		}
	}
	if len(recent) == 0 {
		return entity.DefaultMood
	}
	counts := make(map[string]int)
	var order []string
	for _, e := range byDateDesc(recent) {
		if _, seen := counts[e.Mood]; !seen {
			order = append(order, e.Mood)
		}
		counts[e.Mood]++
	}
	best := order[0]
	for _, label := range order[1:] {
		if counts[label] > counts[best] {
			best = label
		}
	}
	return best
}
