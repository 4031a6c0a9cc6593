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

// TaskService handles assignments and exams
type TaskService struct {
	db *database.DB
}

// NewTaskService creates a new task service
func NewTaskService(db *database.DB) *TaskService {
	return &TaskService{db: db}
}

const assignmentColumns = `id, user_id, course_id, exam_id, title, description, due_date,
	estimated_hours, status, priority, ai_generated, syllabus_generated, created_at, updated_at`

// CreateAssignment inserts a new assignment. A linked course must belong to
// the same user.
func (s *TaskService) CreateAssignment(ctx context.Context, userID string, a *models.Assignment) (*models.Assignment, error) {
	if strings.TrimSpace(a.Title) == "" {
		return nil, fmt.Errorf("assignment title %w", ErrValidation)
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	if a.Priority == 0 {
		a.Priority = 3
	}

	if a.CourseID != "" {
		if err := s.checkCourseOwnership(ctx, userID, a.CourseID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	a.ID = uuid.NewString()
	a.UserID = userID
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assignments (id, user_id, course_id, exam_id, title, description, due_date,
			estimated_hours, status, priority, ai_generated, syllabus_generated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, userID, a.CourseID, a.ExamID, a.Title, a.Description, a.DueDate,
		a.EstimatedHours, a.Status, a.Priority, boolToInt(a.AIGenerated), boolToInt(a.SyllabusGenerated), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	return a, nil
}

// GetAssignment retrieves one assignment owned by the user
func (s *TaskService) GetAssignment(ctx context.Context, userID, assignmentID string) (*models.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = ? AND user_id = ?`, assignmentID, userID)
	return scanAssignment(row)
}

// ListAssignments returns the user's assignments, optionally filtered by
// course and/or status, due-soonest first.
func (s *TaskService) ListAssignments(ctx context.Context, userID, courseID, status string) ([]*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE user_id = ?`
	args := []interface{}{userID}

	if courseID != "" {
		query += ` AND course_id = ?`
		args = append(args, courseID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY due_date IS NULL, due_date, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	assignments := []*models.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func scanAssignment(row rowScanner) (*models.Assignment, error) {
	var a models.Assignment
	var dueDate sql.NullTime
	err := row.Scan(&a.ID, &a.UserID, &a.CourseID, &a.ExamID, &a.Title, &a.Description, &dueDate,
		&a.EstimatedHours, &a.Status, &a.Priority, &a.AIGenerated, &a.SyllabusGenerated,
		&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assignment %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	if dueDate.Valid {
		a.DueDate = &dueDate.Time
	}
	return &a, nil
}

// AssignmentUpdate holds the mutable assignment fields. Nil pointers are left unchanged.
type AssignmentUpdate struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	DueDate        *time.Time `json:"due_date"`
	EstimatedHours *float64   `json:"estimated_hours"`
	Status         *string    `json:"status"`
	Priority       *int       `json:"priority"`
	CourseID       *string    `json:"course_id"`
}

// UpdateAssignment applies a partial update to an assignment
func (s *TaskService) UpdateAssignment(ctx context.Context, userID, assignmentID string, upd AssignmentUpdate) (*models.Assignment, error) {
	sets := []string{}
	args := []interface{}{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.DueDate != nil {
		add("due_date", *upd.DueDate)
	}
	if upd.EstimatedHours != nil {
		add("estimated_hours", *upd.EstimatedHours)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Priority != nil {
		add("priority", *upd.Priority)
	}
	if upd.CourseID != nil {
		if *upd.CourseID != "" {
			if err := s.checkCourseOwnership(ctx, userID, *upd.CourseID); err != nil {
				return nil, err
			}
		}
		add("course_id", *upd.CourseID)
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, assignmentID, userID)

		query := "UPDATE assignments SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update assignment: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return nil, fmt.Errorf("assignment %w", ErrNotFound)
		}
	}

	return s.GetAssignment(ctx, userID, assignmentID)
}

// ToggleAssignment advances the assignment's status through the cycle
// pending -> in-progress -> completed -> pending.
func (s *TaskService) ToggleAssignment(ctx context.Context, userID, assignmentID string) (*models.Assignment, error) {
	a, err := s.GetAssignment(ctx, userID, assignmentID)
	if err != nil {
		return nil, err
	}

	next := models.NextToggleStatus(a.Status)
	_, err = s.db.ExecContext(ctx,
		`UPDATE assignments SET status = ?, updated_at = ? WHERE id = ?`,
		next, time.Now().UTC(), assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle assignment: %w", err)
	}

	a.Status = next
	return a, nil
}

// DeleteAssignment removes an assignment
func (s *TaskService) DeleteAssignment(ctx context.Context, userID, assignmentID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM assignments WHERE id = ? AND user_id = ?`, assignmentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("assignment %w", ErrNotFound)
	}
	return nil
}

// DeleteSyllabusAssignments removes all syllabus-generated assignments for a
// course. Used when a syllabus is replaced and its plan regenerated.
func (s *TaskService) DeleteSyllabusAssignments(ctx context.Context, userID, courseID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM assignments WHERE course_id = ? AND user_id = ? AND syllabus_generated = 1`,
		courseID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete syllabus assignments: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// CreateExam inserts a new exam
func (s *TaskService) CreateExam(ctx context.Context, userID string, e *models.Exam) (*models.Exam, error) {
	if strings.TrimSpace(e.Title) == "" {
		return nil, fmt.Errorf("exam title %w", ErrValidation)
	}
	if e.CourseID != "" {
		if err := s.checkCourseOwnership(ctx, userID, e.CourseID); err != nil {
			return nil, err
		}
	}

	e.ID = uuid.NewString()
	e.UserID = userID
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exams (id, user_id, course_id, title, date, location, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, e.CourseID, e.Title, e.Date, e.Location, e.Notes, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	return e, nil
}

// ListExams returns the user's exams, soonest first
func (s *TaskService) ListExams(ctx context.Context, userID, courseID string) ([]*models.Exam, error) {
	query := `SELECT id, user_id, course_id, title, date, location, notes, created_at
		FROM exams WHERE user_id = ?`
	args := []interface{}{userID}

	if courseID != "" {
		query += ` AND course_id = ?`
		args = append(args, courseID)
	}
	query += ` ORDER BY date IS NULL, date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	defer rows.Close()

	exams := []*models.Exam{}
	for rows.Next() {
		var e models.Exam
		var date sql.NullTime
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Title, &date, &e.Location, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exam: %w", err)
		}
		if date.Valid {
			e.Date = &date.Time
		}
		exams = append(exams, &e)
	}
	return exams, rows.Err()
}

// ExamUpdate holds the mutable exam fields. Nil pointers are left unchanged.
type ExamUpdate struct {
	Title    *string    `json:"title"`
	CourseID *string    `json:"course_id"`
	Date     *time.Time `json:"date"`
	Location *string    `json:"location"`
	Notes    *string    `json:"notes"`
}

// UpdateExam applies a partial update to an exam
func (s *TaskService) UpdateExam(ctx context.Context, userID, examID string, upd ExamUpdate) (*models.Exam, error) {
	sets := []string{}
	args := []interface{}{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, fmt.Errorf("exam title %w", ErrValidation)
		}
		add("title", *upd.Title)
	}
	if upd.CourseID != nil {
		if *upd.CourseID != "" {
			if err := s.checkCourseOwnership(ctx, userID, *upd.CourseID); err != nil {
				return nil, err
			}
		}
		add("course_id", *upd.CourseID)
	}
	if upd.Date != nil {
		add("date", *upd.Date)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Notes != nil {
		add("notes", *upd.Notes)
	}

	if len(sets) > 0 {
		args = append(args, examID, userID)

		query := "UPDATE exams SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update exam: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return nil, fmt.Errorf("exam %w", ErrNotFound)
		}
	}

	var e models.Exam
	var date sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, course_id, title, date, location, notes, created_at
		FROM exams WHERE id = ? AND user_id = ?`, examID, userID).
		Scan(&e.ID, &e.UserID, &e.CourseID, &e.Title, &date, &e.Location, &e.Notes, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("exam %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if date.Valid {
		e.Date = &date.Time
	}
	return &e, nil
}

// DeleteExam removes an exam and unlinks its assignments
func (s *TaskService) DeleteExam(ctx context.Context, userID, examID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM exams WHERE id = ? AND user_id = ?`, examID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("exam %w", ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE assignments SET exam_id = '' WHERE exam_id = ?`, examID); err != nil {
		return fmt.Errorf("failed to unlink assignments: %w", err)
	}

	return tx.Commit()
}

func (s *TaskService) checkCourseOwnership(ctx context.Context, userID, courseID string) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM courses WHERE id = ? AND user_id = ?`, courseID, userID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check course: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("course %w", ErrNotFound)
	}
	return nil
}
