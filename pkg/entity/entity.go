package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Mood stored when classification gives nothing usable
	DefaultMood = "Neutral"
	// Weather stored when the lookup failed or never finished
	UnknownWeather = "Unknown"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Entry is a single journal record. Date has day granularity, see Day.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"uid"`
	Date      time.Time `json:"date"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood"`
	Weather   string    `json:"weather"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Day drops the time of day, keeping t's calendar date as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether both times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}
