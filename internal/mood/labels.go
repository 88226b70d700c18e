// Package mood turns free text into a mood label.
package mood

import "strings"

const (
	VeryNegative = "Very Negative"
	Negative     = "Negative"
	Neutral      = "Neutral"
	Positive     = "Positive"
	VeryPositive = "Very Positive"
)

var labels = []string{VeryNegative, Negative, Neutral, Positive, VeryPositive}

// Normalize maps loosely formatted answers such as "very_positive" or
// "positive." onto a canonical label. Anything else is returned trimmed.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	key := strings.ToLower(strings.Trim(s, " .!\"'`*"))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	key = strings.Join(strings.Fields(key), " ")
	for _, l := range labels {
		if key == strings.ToLower(l) {
			return l
		}
	}
	return s
}
