package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"momentum/internal/database"
	"momentum/internal/models"

	"github.com/google/uuid"
)

// SkillService handles skills, milestones and learning resources.
// A skill's progress percentage is always recomputed from its milestones
// inside the same statement batch that changed them.
type SkillService struct {
	db *database.DB
}

// NewSkillService creates a new skill service
func NewSkillService(db *database.DB) *SkillService {
	return &SkillService{db: db}
}

const skillColumns = `id, user_id, name, category, level, description, goal_statement,
	duration_months, estimated_hours, start_date, end_date, progress, created_at, updated_at`

// CreateSkill inserts a new skill, or converts the create into an update when
// the user already has a skill with the same name (case-insensitive exact
// match). The returned bool is true when an existing skill was updated.
// On a merge, empty fields keep their stored values and the existing roadmap
// survives; only provided milestones and resources replace the children.
func (s *SkillService) CreateSkill(ctx context.Context, userID string, skill *models.Skill) (*models.Skill, bool, error) {
	if strings.TrimSpace(skill.Name) == "" {
		return nil, false, fmt.Errorf("skill name %w", ErrValidation)
	}

	existing, err := s.findSkillByExactName(ctx, userID, skill.Name)
	if err != nil && err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("failed to check existing skill: %w", err)
	}
	updated := existing != ""

	if updated {
		skill.ID = existing
		current, err := s.GetSkill(ctx, userID, existing)
		if err != nil {
			return nil, false, err
		}
		mergeSkillFields(skill, current)
	} else {
		if skill.Category == "" {
			skill.Category = "Other"
		}
		if skill.Level == "" {
			skill.Level = "beginner"
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	if updated {
		_, err = tx.ExecContext(ctx, `
			UPDATE skills SET name = ?, category = ?, level = ?, description = ?, goal_statement = ?,
				duration_months = ?, estimated_hours = ?, start_date = ?, end_date = ?, updated_at = ?
			WHERE id = ?`,
			skill.Name, skill.Category, skill.Level, skill.Description, skill.GoalStatement,
			skill.DurationMonths, skill.EstimatedHours, skill.StartDate, skill.EndDate, now, skill.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update skill: %w", err)
		}
	} else {
		skill.ID = uuid.NewString()
		skill.UserID = userID
		skill.CreatedAt = now
		skill.UpdatedAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO skills (id, user_id, name, category, level, description, goal_statement,
				duration_months, estimated_hours, start_date, end_date, progress, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			skill.ID, userID, skill.Name, skill.Category, skill.Level, skill.Description,
			skill.GoalStatement, skill.DurationMonths, skill.EstimatedHours, skill.StartDate,
			skill.EndDate, now, now)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create skill: %w", err)
		}
	}

	// Provided children replace what was there before; a merge without any
	// keeps the existing roadmap.
	if len(skill.Milestones) > 0 || len(skill.Resources) > 0 {
		if err := s.replaceChildrenTx(ctx, tx, userID, skill.ID, skill.Milestones, skill.Resources); err != nil {
			return nil, false, err
		}
	}
	if err := recomputeProgressTx(ctx, tx, skill.ID); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit skill: %w", err)
	}

	full, err := s.GetSkill(ctx, userID, skill.ID)
	if err != nil {
		return nil, false, err
	}
	return full, updated, nil
}

// mergeSkillFields fills a merge request's empty fields from the stored skill
// so a sparse update never re-defaults what it did not mention.
func mergeSkillFields(skill, current *models.Skill) {
	if skill.Category == "" {
		skill.Category = current.Category
	}
	if skill.Level == "" {
		skill.Level = current.Level
	}
	if skill.Description == "" {
		skill.Description = current.Description
	}
	if skill.GoalStatement == "" {
		skill.GoalStatement = current.GoalStatement
	}
	if skill.DurationMonths == 0 {
		skill.DurationMonths = current.DurationMonths
	}
	if skill.EstimatedHours == 0 {
		skill.EstimatedHours = current.EstimatedHours
	}
	if skill.StartDate == "" {
		skill.StartDate = current.StartDate
	}
	if skill.EndDate == "" {
		skill.EndDate = current.EndDate
	}
}

func (s *SkillService) findSkillByExactName(ctx context.Context, userID, name string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM skills WHERE user_id = ? AND LOWER(name) = LOWER(?)`, userID, name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindSkillByName resolves a skill reference by case-insensitive substring
// match against the user's skill names. The first match in creation order
// wins, so resolution is deterministic.
func (s *SkillService) FindSkillByName(ctx context.Context, userID, name string) (*models.Skill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM skills WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	needle := strings.ToLower(strings.TrimSpace(name))
	for rows.Next() {
		var id, skillName string
		if err := rows.Scan(&id, &skillName); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		if strings.Contains(strings.ToLower(skillName), needle) {
			return s.GetSkill(ctx, userID, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("skill %q %w", name, ErrNotFound)
}

// GetSkill retrieves one skill with its milestones and resources
func (s *SkillService) GetSkill(ctx context.Context, userID, skillID string) (*models.Skill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE id = ? AND user_id = ?`, skillID, userID)

	skill, err := scanSkill(row)
	if err != nil {
		return nil, err
	}

	skill.Milestones, err = s.listMilestones(ctx, skillID)
	if err != nil {
		return nil, err
	}
	skill.Resources, err = s.listResources(ctx, skillID)
	if err != nil {
		return nil, err
	}
	return skill, nil
}

// ListSkills returns all skills for the user with their children, newest first
func (s *SkillService) ListSkills(ctx context.Context, userID string) ([]*models.Skill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	skills := []*models.Skill{}
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sk := range skills {
		if sk.Milestones, err = s.listMilestones(ctx, sk.ID); err != nil {
			return nil, err
		}
		if sk.Resources, err = s.listResources(ctx, sk.ID); err != nil {
			return nil, err
		}
	}
	return skills, nil
}

func scanSkill(row rowScanner) (*models.Skill, error) {
	var sk models.Skill
	err := row.Scan(&sk.ID, &sk.UserID, &sk.Name, &sk.Category, &sk.Level, &sk.Description,
		&sk.GoalStatement, &sk.DurationMonths, &sk.EstimatedHours, &sk.StartDate, &sk.EndDate,
		&sk.Progress, &sk.CreatedAt, &sk.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("skill %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan skill: %w", err)
	}
	return &sk, nil
}

// SkillUpdate holds the mutable skill fields. Nil pointers are left unchanged.
type SkillUpdate struct {
	Name           *string  `json:"name"`
	Category       *string  `json:"category"`
	Level          *string  `json:"level"`
	Description    *string  `json:"description"`
	GoalStatement  *string  `json:"goal_statement"`
	DurationMonths *int     `json:"duration_months"`
	EstimatedHours *float64 `json:"estimated_hours"`
	StartDate      *string  `json:"start_date"`
	EndDate        *string  `json:"end_date"`
}

// UpdateSkill applies a partial update to a skill
func (s *SkillService) UpdateSkill(ctx context.Context, userID, skillID string, upd SkillUpdate) (*models.Skill, error) {
	sets := []string{}
	args := []interface{}{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Level != nil {
		add("level", *upd.Level)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.GoalStatement != nil {
		add("goal_statement", *upd.GoalStatement)
	}
	if upd.DurationMonths != nil {
		add("duration_months", *upd.DurationMonths)
	}
	if upd.EstimatedHours != nil {
		add("estimated_hours", *upd.EstimatedHours)
	}
	if upd.StartDate != nil {
		add("start_date", *upd.StartDate)
	}
	if upd.EndDate != nil {
		add("end_date", *upd.EndDate)
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, skillID, userID)

		query := "UPDATE skills SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update skill: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return nil, fmt.Errorf("skill %w", ErrNotFound)
		}
	}

	return s.GetSkill(ctx, userID, skillID)
}

// DeleteSkill removes a skill and all its milestones and resources
func (s *SkillService) DeleteSkill(ctx context.Context, userID, skillID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM skills WHERE id = ? AND user_id = ?`, skillID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("skill %w", ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM milestones WHERE skill_id = ?`, skillID); err != nil {
		return fmt.Errorf("failed to delete milestones: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM learning_resources WHERE skill_id = ?`, skillID); err != nil {
		return fmt.Errorf("failed to delete resources: %w", err)
	}

	return tx.Commit()
}

// ReplaceRoadmap replaces a skill's milestones and resources wholesale and
// refreshes its progress. Used by AI roadmap generation.
func (s *SkillService) ReplaceRoadmap(ctx context.Context, userID, skillID string, milestones []models.Milestone, resources []models.LearningResource) (*models.Skill, error) {
	if _, err := s.GetSkill(ctx, userID, skillID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.replaceChildrenTx(ctx, tx, userID, skillID, milestones, resources); err != nil {
		return nil, err
	}
	if err := recomputeProgressTx(ctx, tx, skillID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit roadmap: %w", err)
	}

	return s.GetSkill(ctx, userID, skillID)
}

func (s *SkillService) replaceChildrenTx(ctx context.Context, tx *sql.Tx, userID, skillID string, milestones []models.Milestone, resources []models.LearningResource) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM milestones WHERE skill_id = ?`, skillID); err != nil {
		return fmt.Errorf("failed to clear milestones: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM learning_resources WHERE skill_id = ?`, skillID); err != nil {
		return fmt.Errorf("failed to clear resources: %w", err)
	}

	now := time.Now().UTC()
	for i, m := range milestones {
		if m.Status == "" {
			m.Status = models.StatusPending
		}
		if m.SortOrder == 0 {
			m.SortOrder = i + 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO milestones (id, skill_id, user_id, name, sort_order, status, completed,
				estimated_hours, start_date, due_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), skillID, userID, m.Name, m.SortOrder, m.Status,
			boolToInt(m.Status == models.StatusCompleted), m.EstimatedHours, m.StartDate, m.DueDate, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert milestone: %w", err)
		}
	}

	for _, r := range resources {
		if r.Type == "" {
			r.Type = "link"
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO learning_resources (id, skill_id, user_id, title, type, url, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), skillID, userID, r.Title, r.Type, r.URL, r.Description, now)
		if err != nil {
			return fmt.Errorf("failed to insert resource: %w", err)
		}
	}

	return nil
}

// AddMilestone appends one milestone to a skill
func (s *SkillService) AddMilestone(ctx context.Context, userID string, m *models.Milestone) (*models.Milestone, error) {
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("milestone name %w", ErrValidation)
	}
	if _, err := s.GetSkill(ctx, userID, m.SkillID); err != nil {
		return nil, err
	}
	if m.Status == "" {
		m.Status = models.StatusPending
	}
	if m.SortOrder == 0 {
		var max sql.NullInt64
		if err := s.db.QueryRowContext(ctx,
			`SELECT MAX(sort_order) FROM milestones WHERE skill_id = ?`, m.SkillID).Scan(&max); err != nil {
			return nil, fmt.Errorf("failed to compute sort order: %w", err)
		}
		m.SortOrder = int(max.Int64) + 1
	}

	now := time.Now().UTC()
	m.ID = uuid.NewString()
	m.UserID = userID
	m.Completed = m.Status == models.StatusCompleted
	m.CreatedAt = now
	m.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO milestones (id, skill_id, user_id, name, sort_order, status, completed,
			estimated_hours, start_date, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SkillID, userID, m.Name, m.SortOrder, m.Status, boolToInt(m.Completed),
		m.EstimatedHours, m.StartDate, m.DueDate, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to add milestone: %w", err)
	}

	if err := recomputeProgressTx(ctx, tx, m.SkillID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit milestone: %w", err)
	}

	return m, nil
}

// MilestoneUpdate holds the mutable milestone fields. Nil pointers are left unchanged.
type MilestoneUpdate struct {
	Name           *string  `json:"name"`
	SortOrder      *int     `json:"order"`
	Status         *string  `json:"status"`
	EstimatedHours *float64 `json:"estimated_hours"`
	StartDate      *string  `json:"start_date"`
	DueDate        *string  `json:"due_date"`
}

// UpdateMilestone applies a partial update to a milestone and refreshes the
// parent skill's progress. Setting status keeps the legacy completed flag in
// sync.
func (s *SkillService) UpdateMilestone(ctx context.Context, userID, milestoneID string, upd MilestoneUpdate) (*models.Milestone, error) {
	skillID, err := s.milestoneSkill(ctx, userID, milestoneID)
	if err != nil {
		return nil, err
	}

	sets := []string{}
	args := []interface{}{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.SortOrder != nil {
		add("sort_order", *upd.SortOrder)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
		add("completed", boolToInt(*upd.Status == models.StatusCompleted))
	}
	if upd.EstimatedHours != nil {
		add("estimated_hours", *upd.EstimatedHours)
	}
	if upd.StartDate != nil {
		add("start_date", *upd.StartDate)
	}
	if upd.DueDate != nil {
		add("due_date", *upd.DueDate)
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, milestoneID)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		query := "UPDATE milestones SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update milestone: %w", err)
		}
		if err := recomputeProgressTx(ctx, tx, skillID); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit milestone: %w", err)
		}
	}

	return s.getMilestone(ctx, milestoneID)
}

// ToggleMilestone advances the milestone's status through the cycle
// pending -> in-progress -> completed -> pending and refreshes the parent
// skill's progress.
func (s *SkillService) ToggleMilestone(ctx context.Context, userID, milestoneID string) (*models.Milestone, error) {
	skillID, err := s.milestoneSkill(ctx, userID, milestoneID)
	if err != nil {
		return nil, err
	}

	m, err := s.getMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	// Legacy rows with no status start the cycle from their completed flag
	current := m.Status
	if current == "" && m.Completed {
		current = models.StatusCompleted
	}
	next := models.NextToggleStatus(current)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE milestones SET status = ?, completed = ?, updated_at = ? WHERE id = ?`,
		next, boolToInt(next == models.StatusCompleted), time.Now().UTC(), milestoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle milestone: %w", err)
	}

	if err := recomputeProgressTx(ctx, tx, skillID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit milestone: %w", err)
	}

	m.Status = next
	m.Completed = next == models.StatusCompleted
	return m, nil
}

// DeleteMilestone removes a milestone and refreshes the parent skill's progress
func (s *SkillService) DeleteMilestone(ctx context.Context, userID, milestoneID string) error {
	skillID, err := s.milestoneSkill(ctx, userID, milestoneID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, milestoneID); err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	if err := recomputeProgressTx(ctx, tx, skillID); err != nil {
		return err
	}
	return tx.Commit()
}

// AddResource attaches a learning resource to a skill
func (s *SkillService) AddResource(ctx context.Context, userID string, r *models.LearningResource) (*models.LearningResource, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, fmt.Errorf("resource title %w", ErrValidation)
	}
	if _, err := s.GetSkill(ctx, userID, r.SkillID); err != nil {
		return nil, err
	}
	if r.Type == "" {
		r.Type = "link"
	}

	r.ID = uuid.NewString()
	r.UserID = userID
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_resources (id, skill_id, user_id, title, type, url, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SkillID, userID, r.Title, r.Type, r.URL, r.Description, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}

	return r, nil
}

// DeleteResource removes a learning resource
func (s *SkillService) DeleteResource(ctx context.Context, userID, resourceID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM learning_resources WHERE id = ? AND user_id = ?`, resourceID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("resource %w", ErrNotFound)
	}
	return nil
}

func (s *SkillService) milestoneSkill(ctx context.Context, userID, milestoneID string) (string, error) {
	var skillID string
	err := s.db.QueryRowContext(ctx,
		`SELECT skill_id FROM milestones WHERE id = ? AND user_id = ?`, milestoneID, userID).Scan(&skillID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("milestone %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up milestone: %w", err)
	}
	return skillID, nil
}

func (s *SkillService) getMilestone(ctx context.Context, milestoneID string) (*models.Milestone, error) {
	var m models.Milestone
	err := s.db.QueryRowContext(ctx, `
		SELECT id, skill_id, user_id, name, sort_order, status, completed, estimated_hours,
			start_date, due_date, created_at, updated_at
		FROM milestones WHERE id = ?`, milestoneID).Scan(
		&m.ID, &m.SkillID, &m.UserID, &m.Name, &m.SortOrder, &m.Status, &m.Completed,
		&m.EstimatedHours, &m.StartDate, &m.DueDate, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("milestone %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return &m, nil
}

func (s *SkillService) listMilestones(ctx context.Context, skillID string) ([]models.Milestone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, skill_id, user_id, name, sort_order, status, completed, estimated_hours,
			start_date, due_date, created_at, updated_at
		FROM milestones WHERE skill_id = ? ORDER BY sort_order, created_at`, skillID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	milestones := []models.Milestone{}
	for rows.Next() {
		var m models.Milestone
		if err := rows.Scan(&m.ID, &m.SkillID, &m.UserID, &m.Name, &m.SortOrder, &m.Status,
			&m.Completed, &m.EstimatedHours, &m.StartDate, &m.DueDate, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func (s *SkillService) listResources(ctx context.Context, skillID string) ([]models.LearningResource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, skill_id, user_id, title, type, url, description, created_at
		FROM learning_resources WHERE skill_id = ? ORDER BY created_at`, skillID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	resources := []models.LearningResource{}
	for rows.Next() {
		var r models.LearningResource
		if err := rows.Scan(&r.ID, &r.SkillID, &r.UserID, &r.Title, &r.Type, &r.URL, &r.Description, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// recomputeProgressTx refreshes a skill's progress percentage:
// 100 * completed / total, 0 when there are no milestones. A milestone counts
// as completed when its status says so, or for legacy rows with no status,
// when the completed flag is set.
func recomputeProgressTx(ctx context.Context, tx execer, skillID string) error {
	var total, done int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE
				WHEN status = 'completed' THEN 1
				WHEN status = '' AND completed = 1 THEN 1
				ELSE 0 END), 0)
		FROM milestones WHERE skill_id = ?`, skillID).Scan(&total, &done)
	if err != nil {
		return fmt.Errorf("failed to count milestones: %w", err)
	}

	progress := 0.0
	if total > 0 {
		progress = 100 * float64(done) / float64(total)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE skills SET progress = ?, updated_at = ? WHERE id = ?`,
		progress, time.Now().UTC(), skillID); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}
