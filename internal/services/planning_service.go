package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"momentum/internal/models"
)

// PlanningService generates, stores and adapts daily plans, and pushes the
// results to connected clients.
type PlanningService struct {
	ai      *AIClient
	builder *ContextBuilder
	plans   *PlanService
	tasks   *TaskService
	conns   *ConnectionManager
}

// NewPlanningService creates a new planning service
func NewPlanningService(ai *AIClient, builder *ContextBuilder, plans *PlanService, tasks *TaskService, conns *ConnectionManager) *PlanningService {
	return &PlanningService{
		ai:      ai,
		builder: builder,
		plans:   plans,
		tasks:   tasks,
		conns:   conns,
	}
}

// GeneratePlan produces and stores a plan for one day
func (s *PlanningService) GeneratePlan(ctx context.Context, userID, date, source string) (*models.AIPlan, error) {
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	if source == "" {
		source = models.PlanSourceManual
	}

	snapshot, err := s.builder.Build(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble context: %w", err)
	}

	aiResp, err := s.ai.GeneratePlan(ctx, &models.AIPlanRequest{
		UserID:  userID,
		Date:    date,
		Context: snapshot,
		Source:  source,
	})
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.SavePlan(ctx, userID, date, source, payloadFrom(aiResp))
	if err != nil {
		return nil, err
	}

	s.push(userID, models.EventPlan, plan)
	return plan, nil
}

// CompleteTask records a task outcome, tells the AI service, and stores the
// rebalanced plan it returns for the rest of the day.
func (s *PlanningService) CompleteTask(ctx context.Context, userID, taskID, outcome string, actualMinutes int) (*models.AIPlan, error) {
	switch outcome {
	case "done", "partial", "missed":
	default:
		return nil, fmt.Errorf("outcome must be done, partial or missed")
	}

	task, err := s.tasks.GetAssignment(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	// Reflect the outcome on the task itself
	status := models.StatusCompleted
	if outcome != "done" {
		status = models.StatusInProgress
	}
	if _, err := s.tasks.UpdateAssignment(ctx, userID, taskID, AssignmentUpdate{Status: &status}); err != nil {
		return nil, err
	}
	s.builder.Invalidate(userID)

	snapshot, err := s.builder.Build(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble context: %w", err)
	}

	aiResp, err := s.ai.ReportCompletion(ctx, &models.AICompleteRequest{
		UserID:        userID,
		TaskID:        taskID,
		Outcome:       outcome,
		ActualMinutes: actualMinutes,
		Context:       snapshot,
	})
	if err != nil {
		// The outcome is already recorded; adaptation can wait
		log.Printf("⚠️  Completion report failed for task %s: %v", taskID, err)
		s.push(userID, models.EventComplete, map[string]string{"task_id": taskID, "outcome": outcome, "title": task.Title})
		return nil, nil
	}

	plan, err := s.plans.SavePlan(ctx, userID, time.Now().UTC().Format("2006-01-02"), models.PlanSourceRebalance, payloadFrom(aiResp))
	if err != nil {
		return nil, err
	}

	s.push(userID, models.EventComplete, map[string]string{"task_id": taskID, "outcome": outcome, "title": task.Title})
	s.push(userID, models.EventRebalance, plan)
	return plan, nil
}

// Rebalance asks the AI service to redistribute the remaining day
func (s *PlanningService) Rebalance(ctx context.Context, userID string) (*models.AIPlan, error) {
	snapshot, err := s.builder.Build(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble context: %w", err)
	}

	date := time.Now().UTC().Format("2006-01-02")
	aiResp, err := s.ai.Rebalance(ctx, &models.AIPlanRequest{
		UserID:  userID,
		Date:    date,
		Context: snapshot,
		Source:  models.PlanSourceRebalance,
	})
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.SavePlan(ctx, userID, date, models.PlanSourceRebalance, payloadFrom(aiResp))
	if err != nil {
		return nil, err
	}

	s.push(userID, models.EventRebalance, plan)
	return plan, nil
}

func (s *PlanningService) push(userID, event string, payload interface{}) {
	if s.conns == nil {
		return
	}
	s.conns.SendToUser(userID, models.ServerMessage{Type: event, Payload: payload})
}

func payloadFrom(resp *models.AIPlanResponse) *models.PlanPayload {
	return &models.PlanPayload{
		Summary:         resp.Summary,
		Schedule:        resp.Schedule,
		Suggestions:     resp.Suggestions,
		RebalancedTasks: resp.RebalancedTasks,
		Metadata:        resp.Metadata,
	}
}
