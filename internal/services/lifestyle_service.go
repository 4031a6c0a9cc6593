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

// LifestyleService handles wellness snapshots and habits with streaks
type LifestyleService struct {
	db *database.DB
}

// NewLifestyleService creates a new lifestyle service
func NewLifestyleService(db *database.DB) *LifestyleService {
	return &LifestyleService{db: db}
}

// CreateEntry inserts a lifestyle snapshot for one date
func (s *LifestyleService) CreateEntry(ctx context.Context, userID string, e *models.LifestyleEntry) (*models.LifestyleEntry, error) {
	if e.Date == "" {
		e.Date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", e.Date)
	}

	e.ID = uuid.NewString()
	e.UserID = userID
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lifestyle_entries (id, user_id, date, sleep_hours, exercise, meals, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, e.Date, e.SleepHours, e.Exercise, e.Meals, e.Notes, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create lifestyle entry: %w", err)
	}

	return e, nil
}

// ListEntries returns the user's lifestyle snapshots, newest first
func (s *LifestyleService) ListEntries(ctx context.Context, userID string, limit int) ([]*models.LifestyleEntry, error) {
	query := `SELECT id, user_id, date, sleep_hours, exercise, meals, notes, created_at
		FROM lifestyle_entries WHERE user_id = ? ORDER BY date DESC, created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list lifestyle entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.LifestyleEntry{}
	for rows.Next() {
		var e models.LifestyleEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.SleepHours, &e.Exercise,
			&e.Meals, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lifestyle entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// DeleteEntry removes a lifestyle snapshot
func (s *LifestyleService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM lifestyle_entries WHERE id = ? AND user_id = ?`, entryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete lifestyle entry: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("lifestyle entry %w", ErrNotFound)
	}
	return nil
}

// CreateHabit inserts a habit
func (s *LifestyleService) CreateHabit(ctx context.Context, userID string, h *models.Habit) (*models.Habit, error) {
	if strings.TrimSpace(h.Name) == "" {
		return nil, fmt.Errorf("habit name %w", ErrValidation)
	}
	if h.Frequency == "" {
		h.Frequency = "daily"
	}

	now := time.Now().UTC()
	h.ID = uuid.NewString()
	h.UserID = userID
	h.CreatedAt = now
	h.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (id, user_id, name, frequency, streak, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		h.ID, userID, h.Name, h.Frequency, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	return h, nil
}

// ListHabits returns the user's habits with their completion state for today
func (s *LifestyleService) ListHabits(ctx context.Context, userID string) ([]*models.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, frequency, streak, created_at, updated_at
		FROM habits WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	habits := []*models.Habit{}
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Frequency, &h.Streak,
			&h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	today := time.Now().UTC().Format("2006-01-02")
	for _, h := range habits {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM habit_logs WHERE habit_id = ? AND date = ?`, h.ID, today).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to check habit log: %w", err)
		}
		h.CompletedToday = count > 0
	}
	return habits, nil
}

// ToggleHabit marks or unmarks a habit for a date (today when empty) and
// recounts the streak.
func (s *LifestyleService) ToggleHabit(ctx context.Context, userID, habitID, date string) (*models.Habit, error) {
	h, err := s.getHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var logged int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM habit_logs WHERE habit_id = ? AND date = ?`, habitID, date).Scan(&logged); err != nil {
		return nil, fmt.Errorf("failed to check habit log: %w", err)
	}

	if logged > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM habit_logs WHERE habit_id = ? AND date = ?`, habitID, date); err != nil {
			return nil, fmt.Errorf("failed to remove habit log: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO habit_logs (id, habit_id, user_id, date, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), habitID, userID, date, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("failed to add habit log: %w", err)
		}
	}

	streak, err := recountStreakTx(ctx, tx, habitID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit habit toggle: %w", err)
	}

	h.Streak = streak
	h.CompletedToday = logged == 0 && date == time.Now().UTC().Format("2006-01-02")
	return h, nil
}

// DeleteHabit removes a habit and its logs
func (s *LifestyleService) DeleteHabit(ctx context.Context, userID, habitID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE id = ? AND user_id = ?`, habitID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("habit %w", ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_logs WHERE habit_id = ?`, habitID); err != nil {
		return fmt.Errorf("failed to delete habit logs: %w", err)
	}

	return tx.Commit()
}

// RefreshStreaks recounts every habit streak for the user. The nightly job
// runs this for all users so streaks decay when a day is missed.
func (s *LifestyleService) RefreshStreaks(ctx context.Context, userID string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM habits WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan habit: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, id := range ids {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if _, err := recountStreakTx(ctx, tx, id, now); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit streak refresh: %w", err)
		}
	}
	return nil
}

// AllUserIDsWithHabits returns the distinct users that have habits
func (s *LifestyleService) AllUserIDsWithHabits(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM habits`)
	if err != nil {
		return nil, fmt.Errorf("failed to list habit users: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *LifestyleService) getHabit(ctx context.Context, userID, habitID string) (*models.Habit, error) {
	var h models.Habit
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, frequency, streak, created_at, updated_at
		FROM habits WHERE id = ? AND user_id = ?`, habitID, userID).Scan(
		&h.ID, &h.UserID, &h.Name, &h.Frequency, &h.Streak, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("habit %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return &h, nil
}

// recountStreakTx counts consecutive logged days ending today or yesterday.
// A habit not yet logged today keeps its streak alive until the day passes.
func recountStreakTx(ctx context.Context, tx *sql.Tx, habitID string, now time.Time) (int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT date FROM habit_logs WHERE habit_id = ? ORDER BY date DESC`, habitID)
	if err != nil {
		return 0, fmt.Errorf("failed to list habit logs: %w", err)
	}
	defer rows.Close()

	dates := map[string]bool{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return 0, fmt.Errorf("failed to scan habit log: %w", err)
		}
		dates[d] = true
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	day := now
	if !dates[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for dates[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE habits SET streak = ?, updated_at = ? WHERE id = ?`,
		streak, now, habitID); err != nil {
		return 0, fmt.Errorf("failed to update streak: %w", err)
	}
	return streak, nil
}
