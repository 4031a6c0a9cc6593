package models

import "time"

// Plan sources
const (
	PlanSourceManual    = "manual"
	PlanSourceChat      = "chat"
	PlanSourceRebalance = "rebalance"
)

// AIPlan is one generated daily plan. Payload holds the raw plan JSON
// (schedule blocks, suggestions, metadata) exactly as returned by the
// AI service; Summary is denormalized for list views.
type AIPlan struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"` // "2006-01-02"
	Source    string    `json:"source"`
	Summary   string    `json:"summary"`
	Payload   string    `json:"payload"` // JSON
	CreatedAt time.Time `json:"created_at"`
}

// PlanBlock is one scheduled block inside a plan payload
type PlanBlock struct {
	Start    string `json:"start"` // "09:00"
	End      string `json:"end"`
	Activity string `json:"activity"`
	Type     string `json:"type,omitempty"` // "study", "class", "break", "personal"
	TaskID   string `json:"task_id,omitempty"`
}

// PlanPayload is the decoded shape of AIPlan.Payload
type PlanPayload struct {
	Summary         string                 `json:"summary"`
	Schedule        []PlanBlock            `json:"schedule"`
	Suggestions     []string               `json:"suggestions,omitempty"`
	RebalancedTasks []string               `json:"rebalanced_tasks,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}
