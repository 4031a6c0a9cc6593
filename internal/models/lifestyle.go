package models

import "time"

// LifestyleEntry is a dated wellness snapshot (sleep, exercise, meals)
type LifestyleEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"` // "2006-01-02"
	SleepHours float64   `json:"sleep_hours"`
	Exercise   string    `json:"exercise,omitempty"`
	Meals      string    `json:"meals,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Habit is a recurring habit with a maintained streak counter.
// Streak is recomputed from habit logs on every toggle and by the
// nightly refresh job.
type Habit struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Frequency string    `json:"frequency"` // "daily", "weekly"
	Streak    int       `json:"streak"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompletedToday bool `json:"completed_today"`
}

// HabitLog marks a habit done on one date
type HabitLog struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"` // "2006-01-02"
	CreatedAt time.Time `json:"created_at"`
}
