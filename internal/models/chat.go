package models

import "encoding/json"

// ChatAction is one structured action emitted by the AI service alongside
// its conversational reply. Data stays raw until the dispatcher decodes it
// against the action's expected shape.
type ChatAction struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ActionResult reports the outcome of dispatching one action. A failed
// action never aborts its siblings; Error carries the reason instead.
type ActionResult struct {
	Type    string      `json:"type"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Entity  interface{} `json:"entity,omitempty"`
}

// ChatRequest is the inbound user message
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is what the chat endpoint returns to the client: the AI
// reply plus the per-action dispatch results.
type ChatResponse struct {
	Success        bool           `json:"success"`
	Response       string         `json:"response"`
	ConversationID string         `json:"conversation_id"`
	ActionResults  []ActionResult `json:"action_results"`
}

// ChatTurn is one prior message replayed to the AI service for continuity
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AIChatRequest is the payload forwarded to the AI service
type AIChatRequest struct {
	UserID              string      `json:"user_id"`
	UserName            string      `json:"user_name,omitempty"`
	Message             string      `json:"message"`
	ConversationID      string      `json:"conversation_id,omitempty"`
	ConversationHistory []ChatTurn  `json:"conversation_history,omitempty"`
	Context             string      `json:"context,omitempty"`
	Settings            interface{} `json:"settings,omitempty"` // snapshot of the hot-reloadable AI settings
}

// AIChatResponse is the AI service's chat reply
type AIChatResponse struct {
	Response       string       `json:"response"`
	ConversationID string       `json:"conversation_id"`
	Actions        []ChatAction `json:"actions"`
}

// AIPlanRequest asks the AI service for a daily plan
type AIPlanRequest struct {
	UserID   string      `json:"user_id"`
	Date     string      `json:"date,omitempty"`
	Context  string      `json:"context,omitempty"`
	Source   string      `json:"source,omitempty"`
	Settings interface{} `json:"settings,omitempty"`
}

// AIPlanResponse is the AI service's plan payload
type AIPlanResponse struct {
	Summary         string                 `json:"summary"`
	Schedule        []PlanBlock            `json:"schedule"`
	Suggestions     []string               `json:"suggestions,omitempty"`
	RebalancedTasks []string               `json:"rebalanced_tasks,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// AICompleteRequest reports a task outcome so the plan can adapt
type AICompleteRequest struct {
	UserID        string `json:"user_id"`
	TaskID        string `json:"task_id"`
	Outcome       string `json:"outcome"` // "done", "partial", "missed"
	ActualMinutes int    `json:"actual_minutes,omitempty"`
	Context       string `json:"context,omitempty"`
}

// OnboardingAnswerRequest carries one answer in the staged onboarding flow
type OnboardingAnswerRequest struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Answer         string `json:"answer"`
}

// OnboardingResponse is one turn of the onboarding conversation. When
// Completed is true, StructuredData holds the extracted profile facts.
type OnboardingResponse struct {
	ConversationID string          `json:"conversation_id"`
	Question       string          `json:"question,omitempty"`
	Completed      bool            `json:"completed"`
	StructuredData json.RawMessage `json:"structured_data,omitempty"`
}

// OnboardingData is the decoded shape of OnboardingResponse.StructuredData
type OnboardingData struct {
	Education struct {
		Level       string `json:"level"`
		Institution string `json:"institution"`
		Major       string `json:"major"`
		Year        int    `json:"year"`
		StudyGroup  string `json:"study_group"`
	} `json:"education"`
	Courses []struct {
		Name    string `json:"name"`
		Code    string `json:"code"`
		Credits int    `json:"credits"`
	} `json:"courses"`
	Skills []struct {
		Name     string `json:"name"`
		Category string `json:"category"`
		Level    string `json:"level"`
	} `json:"skills"`
	Finances struct {
		MonthlyBudget float64 `json:"monthly_budget"`
		Income        float64 `json:"income"`
	} `json:"finances"`
	FreeText string `json:"free_text,omitempty"`
}

// SkillSuggestion is one AI-proposed skill for the user's profile
type SkillSuggestion struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Reason      string `json:"reason,omitempty"`
	Description string `json:"description,omitempty"`
}

// RoadmapMilestone is one AI-generated milestone for a skill roadmap
type RoadmapMilestone struct {
	Name           string  `json:"name"`
	Order          int     `json:"order"`
	EstimatedHours float64 `json:"estimatedHours"`
	StartDate      string  `json:"startDate,omitempty"`
	DueDate        string  `json:"dueDate,omitempty"`
}

// RoadmapResource is one AI-suggested resource for a skill roadmap
type RoadmapResource struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// SkillRoadmap is the AI service's generated roadmap for one skill
type SkillRoadmap struct {
	Milestones []RoadmapMilestone `json:"milestones"`
	Resources  []RoadmapResource  `json:"resources,omitempty"`
}
