package models

import "time"

// Assignment statuses. Stored values are not constrained to a state machine;
// the 3-cycle applies only to the dedicated toggle operation.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusLate       = "late"
)

// NextToggleStatus advances through the closed cycle
// pending -> in-progress -> completed -> pending.
// Unknown statuses (including "late") reset to pending.
func NextToggleStatus(status string) string {
	switch status {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// Assignment is a task, optionally linked to a course and/or an exam
type Assignment struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	CourseID          string     `json:"course_id,omitempty"`
	ExamID            string     `json:"exam_id,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	EstimatedHours    float64    `json:"estimated_hours"`
	Status            string     `json:"status"`
	Priority          int        `json:"priority"` // 1 (highest) - 5
	AIGenerated       bool       `json:"ai_generated"`
	SyllabusGenerated bool       `json:"syllabus_generated"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Exam is a scheduled exam for a course
type Exam struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	CourseID  string     `json:"course_id,omitempty"`
	Title     string     `json:"title"`
	Date      *time.Time `json:"date,omitempty"`
	Location  string     `json:"location,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
