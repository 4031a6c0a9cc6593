package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"momentum/internal/database"
	"momentum/internal/models"

	"github.com/google/uuid"
)

// PlanService stores generated daily plans. Multiple plans may exist for one
// day; the canonical plan for a day is the one created last.
type PlanService struct {
	db *database.DB
}

// NewPlanService creates a new plan service
func NewPlanService(db *database.DB) *PlanService {
	return &PlanService{db: db}
}

// SavePlan persists one generated plan
func (s *PlanService) SavePlan(ctx context.Context, userID, date, source string, payload *models.PlanPayload) (*models.AIPlan, error) {
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	if source == "" {
		source = models.PlanSourceManual
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan payload: %w", err)
	}

	plan := &models.AIPlan{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      date,
		Source:    source,
		Summary:   payload.Summary,
		Payload:   string(raw),
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ai_plans (id, user_id, date, source, summary, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, userID, date, source, plan.Summary, plan.Payload, plan.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	return plan, nil
}

// GetPlanForDate returns the canonical plan for one day: the latest created
func (s *PlanService) GetPlanForDate(ctx context.Context, userID, date string) (*models.AIPlan, error) {
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	var p models.AIPlan
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, source, summary, payload, created_at
		FROM ai_plans WHERE user_id = ? AND date = ?
		ORDER BY created_at DESC LIMIT 1`, userID, date).Scan(
		&p.ID, &p.UserID, &p.Date, &p.Source, &p.Summary, &p.Payload, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &p, nil
}

// ListRecentPlans returns the canonical plan of each of the most recent days
func (s *PlanService) ListRecentPlans(ctx context.Context, userID string, limit int) ([]*models.AIPlan, error) {
	if limit <= 0 {
		limit = 7
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, source, summary, payload, created_at
		FROM ai_plans WHERE user_id = ?
		ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []*models.AIPlan{}
	seen := map[string]bool{}
	for rows.Next() {
		var p models.AIPlan
		if err := rows.Scan(&p.ID, &p.UserID, &p.Date, &p.Source, &p.Summary, &p.Payload, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		// Only the newest plan per day is canonical
		if seen[p.Date] {
			continue
		}
		seen[p.Date] = true
		plans = append(plans, &p)
		if len(plans) >= limit {
			break
		}
	}
	return plans, rows.Err()
}

// DeleteOldPlans removes plans older than the retention window. Returns the
// number of rows deleted.
func (s *PlanService) DeleteOldPlans(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02")

	result, err := s.db.ExecContext(ctx, `DELETE FROM ai_plans WHERE date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old plans: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		log.Printf("🧹 Deleted %d plans older than %s", deleted, cutoff)
	}
	return deleted, nil
}

// DecodePayload parses a stored plan payload
func DecodePayload(plan *models.AIPlan) (*models.PlanPayload, error) {
	var payload models.PlanPayload
	if err := json.Unmarshal([]byte(plan.Payload), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode plan payload: %w", err)
	}
	return &payload, nil
}
