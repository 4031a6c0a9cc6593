package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"momentum/internal/config"
	"momentum/internal/models"

	"github.com/sirupsen/logrus"
)

// AIClient handles communication with the AI microservice. The service owns
// the language model; this client only forwards context and decodes the
// structured responses.
type AIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	settings   *config.AISettingsStore
}

// NewAIClient creates a new AI service client
func NewAIClient(baseURL string, timeout time.Duration) *AIClient {
	if timeout == 0 {
		timeout = 3 * time.Minute
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	client := &AIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}

	client.logger.WithField("baseURL", baseURL).Info("AI client initialized")
	return client
}

// SetSettingsStore attaches the hot-reloadable settings snapshot source.
// Subsequent chat and plan requests carry the current settings.
func (c *AIClient) SetSettingsStore(store *config.AISettingsStore) {
	c.settings = store
}

func (c *AIClient) settingsSnapshot() interface{} {
	if c.settings == nil {
		return nil
	}
	return c.settings.Get()
}

// HealthCheck checks if the AI service is reachable
func (c *AIClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check failed: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return nil
}

// Chat forwards a user message with assembled context and returns the reply
// plus any structured actions.
func (c *AIClient) Chat(ctx context.Context, req *models.AIChatRequest) (*models.AIChatResponse, error) {
	c.logger.WithFields(logrus.Fields{
		"user_id":         req.UserID,
		"message_length":  len(req.Message),
		"context_length":  len(req.Context),
		"conversation_id": req.ConversationID,
	}).Info("Forwarding chat message")

	req.Settings = c.settingsSnapshot()

	var result models.AIChatResponse
	if err := c.postJSON(ctx, "/chat", req, &result); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"user_id":      req.UserID,
		"action_count": len(result.Actions),
	}).Info("Chat response received")

	return &result, nil
}

// GeneratePlan asks the AI service for a daily plan
func (c *AIClient) GeneratePlan(ctx context.Context, req *models.AIPlanRequest) (*models.AIPlanResponse, error) {
	c.logger.WithFields(logrus.Fields{
		"user_id": req.UserID,
		"date":    req.Date,
		"source":  req.Source,
	}).Info("Requesting plan generation")

	req.Settings = c.settingsSnapshot()

	var result models.AIPlanResponse
	if err := c.postJSON(ctx, "/plan", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Rebalance asks the AI service to redistribute the remaining day after a
// task outcome changed the picture.
func (c *AIClient) Rebalance(ctx context.Context, req *models.AIPlanRequest) (*models.AIPlanResponse, error) {
	req.Settings = c.settingsSnapshot()

	var result models.AIPlanResponse
	if err := c.postJSON(ctx, "/rebalance", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReportCompletion reports a task outcome (done, partial, missed)
func (c *AIClient) ReportCompletion(ctx context.Context, req *models.AICompleteRequest) (*models.AIPlanResponse, error) {
	var result models.AIPlanResponse
	if err := c.postJSON(ctx, "/complete", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartOnboarding begins the staged onboarding conversation
func (c *AIClient) StartOnboarding(ctx context.Context, userID string) (*models.OnboardingResponse, error) {
	var result models.OnboardingResponse
	payload := map[string]string{"user_id": userID}
	if err := c.postJSON(ctx, "/onboarding/start", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnswerOnboarding submits one onboarding answer. When the returned response
// has Completed set, StructuredData carries the extracted profile.
func (c *AIClient) AnswerOnboarding(ctx context.Context, req *models.OnboardingAnswerRequest) (*models.OnboardingResponse, error) {
	var result models.OnboardingResponse
	if err := c.postJSON(ctx, "/onboarding/answer", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateSkillSuggestions asks for skills matching the user's profile
func (c *AIClient) GenerateSkillSuggestions(ctx context.Context, userID, context_ string) ([]models.SkillSuggestion, error) {
	payload := map[string]string{"user_id": userID, "context": context_}

	var result struct {
		Suggestions []models.SkillSuggestion `json:"suggestions"`
	}
	if err := c.postJSON(ctx, "/generate-skill-suggestions", payload, &result); err != nil {
		return nil, err
	}
	return result.Suggestions, nil
}

// GenerateSkillRoadmap asks for a milestone roadmap for one skill
func (c *AIClient) GenerateSkillRoadmap(ctx context.Context, userID string, skill *models.Skill) (*models.SkillRoadmap, error) {
	payload := map[string]interface{}{
		"user_id":         userID,
		"skill_name":      skill.Name,
		"category":        skill.Category,
		"level":           skill.Level,
		"goal_statement":  skill.GoalStatement,
		"duration_months": skill.DurationMonths,
	}

	c.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"skill":   skill.Name,
	}).Info("Requesting skill roadmap")

	var result models.SkillRoadmap
	if err := c.postJSON(ctx, "/generate-skill-roadmap", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GeneratedTask is one study task derived from a syllabus
type GeneratedTask struct {
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	DueDate        string  `json:"due_date,omitempty"` // "2006-01-02"
	EstimatedHours float64 `json:"estimated_hours"`
	Priority       int     `json:"priority"`
}

// GenerateCourseTasks asks the AI service to derive study tasks from a
// course syllabus.
func (c *AIClient) GenerateCourseTasks(ctx context.Context, userID, courseID, syllabus string, planMonths int) ([]GeneratedTask, error) {
	payload := map[string]interface{}{
		"user_id":              userID,
		"course_id":            courseID,
		"syllabus":             syllabus,
		"plan_duration_months": planMonths,
	}

	var result struct {
		Tasks []GeneratedTask `json:"tasks"`
	}
	if err := c.postJSON(ctx, "/generate-course-tasks", payload, &result); err != nil {
		return nil, err
	}
	return result.Tasks, nil
}

func (c *AIClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("AI service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("AI service returned an error")
		return fmt.Errorf("AI service error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
