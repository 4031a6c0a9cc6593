package models

import "time"

// Skill is a learning goal with an ordered milestone roadmap.
// Progress is always the recomputed function of the skill's milestones.
type Skill struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"` // "Technical", "Creative", "Soft Skills", "Business", "Language", "Other"
	Level          string    `json:"level"`    // "beginner", "intermediate", "advanced", "expert"
	Description    string    `json:"description,omitempty"`
	GoalStatement  string    `json:"goal_statement,omitempty"`
	DurationMonths int       `json:"duration_months"`
	EstimatedHours float64   `json:"estimated_hours"`
	StartDate      string    `json:"start_date,omitempty"` // "2006-01-02"
	EndDate        string    `json:"end_date,omitempty"`
	Progress       float64   `json:"progress"` // 0-100, derived
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Milestones []Milestone        `json:"milestones,omitempty"`
	Resources  []LearningResource `json:"resources,omitempty"`
}

// Milestone is one ordered step of a skill roadmap.
// Status is authoritative; the legacy Completed flag is maintained on writes
// and only consulted for rows that predate the status column.
type Milestone struct {
	ID             string    `json:"id"`
	SkillID        string    `json:"skill_id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	SortOrder      int       `json:"order"`
	Status         string    `json:"status"`
	Completed      bool      `json:"completed"`
	EstimatedHours float64   `json:"estimated_hours"`
	StartDate      string    `json:"start_date,omitempty"`
	DueDate        string    `json:"due_date,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsCompleted applies the completion rule: status wins, the legacy flag only
// counts when status was never set.
func (m *Milestone) IsCompleted() bool {
	if m.Status != "" {
		return m.Status == StatusCompleted
	}
	return m.Completed
}

// LearningResource is a study resource attached to a skill
type LearningResource struct {
	ID          string    `json:"id"`
	SkillID     string    `json:"skill_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Type        string    `json:"type"` // "link", "video", "note"
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
