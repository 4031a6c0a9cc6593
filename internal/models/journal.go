package models

import "time"

// JournalEntry is a free-form dated note with an optional mood tag
type JournalEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"` // "great", "good", "okay", "bad", "awful"
	Tags      string    `json:"tags,omitempty"` // comma separated
	Date      string    `json:"date"`           // "2006-01-02"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
