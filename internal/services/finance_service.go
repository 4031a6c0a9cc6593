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

// FinanceService handles the income/expense ledger, savings goals and
// monthly budgets
type FinanceService struct {
	db *database.DB
}

// NewFinanceService creates a new finance service
func NewFinanceService(db *database.DB) *FinanceService {
	return &FinanceService{db: db}
}

// CreateEntry inserts one ledger row
func (s *FinanceService) CreateEntry(ctx context.Context, userID string, f *models.Finance) (*models.Finance, error) {
	if f.Type != models.FinanceIncome && f.Type != models.FinanceExpense {
		return nil, fmt.Errorf("type must be income or expense")
	}
	if f.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if f.Date == "" {
		f.Date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", f.Date); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", f.Date)
	}

	f.ID = uuid.NewString()
	f.UserID = userID
	f.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO finances (id, user_id, type, amount, category, note, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, userID, f.Type, f.Amount, f.Category, f.Note, f.Date, f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create finance entry: %w", err)
	}

	return f, nil
}

// ListEntries returns ledger rows for the user, optionally restricted to one
// month ("2006-01"), newest first.
func (s *FinanceService) ListEntries(ctx context.Context, userID, month string) ([]*models.Finance, error) {
	query := `SELECT id, user_id, type, amount, category, note, date, created_at
		FROM finances WHERE user_id = ?`
	args := []interface{}{userID}

	if month != "" {
		query += ` AND date >= ? AND date < ?`
		start, end, err := monthBounds(month)
		if err != nil {
			return nil, err
		}
		args = append(args, start, end)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list finances: %w", err)
	}
	defer rows.Close()

	entries := []*models.Finance{}
	for rows.Next() {
		var f models.Finance
		if err := rows.Scan(&f.ID, &f.UserID, &f.Type, &f.Amount, &f.Category, &f.Note, &f.Date, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan finance entry: %w", err)
		}
		entries = append(entries, &f)
	}
	return entries, rows.Err()
}

// FinanceUpdate holds the mutable ledger fields. Nil pointers are left unchanged.
type FinanceUpdate struct {
	Type     *string  `json:"type"`
	Amount   *float64 `json:"amount"`
	Category *string  `json:"category"`
	Note     *string  `json:"note"`
	Date     *string  `json:"date"`
}

// UpdateEntry applies a partial update to a ledger row
func (s *FinanceService) UpdateEntry(ctx context.Context, userID, entryID string, upd FinanceUpdate) (*models.Finance, error) {
	sets := []string{}
	args := []interface{}{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Type != nil {
		if *upd.Type != models.FinanceIncome && *upd.Type != models.FinanceExpense {
			return nil, fmt.Errorf("type must be income or expense")
		}
		add("type", *upd.Type)
	}
	if upd.Amount != nil {
		if *upd.Amount <= 0 {
			return nil, fmt.Errorf("amount must be positive")
		}
		add("amount", *upd.Amount)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Note != nil {
		add("note", *upd.Note)
	}
	if upd.Date != nil {
		if _, err := time.Parse("2006-01-02", *upd.Date); err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", *upd.Date)
		}
		add("date", *upd.Date)
	}

	if len(sets) > 0 {
		args = append(args, entryID, userID)
		query := "UPDATE finances SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update finance entry: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return nil, fmt.Errorf("finance entry %w", ErrNotFound)
		}
	}

	var f models.Finance
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, amount, category, note, date, created_at
		FROM finances WHERE id = ? AND user_id = ?`, entryID, userID).Scan(
		&f.ID, &f.UserID, &f.Type, &f.Amount, &f.Category, &f.Note, &f.Date, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("finance entry %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finance entry: %w", err)
	}
	return &f, nil
}

// DeleteEntry removes a ledger row
func (s *FinanceService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM finances WHERE id = ? AND user_id = ?`, entryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete finance entry: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("finance entry %w", ErrNotFound)
	}
	return nil
}

// Summary aggregates the user's ledger for one month (or all time when month
// is empty) and attaches the month's budget if one is set.
func (s *FinanceService) Summary(ctx context.Context, userID, month string) (*models.FinanceSummary, error) {
	entries, err := s.ListEntries(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	summary := &models.FinanceSummary{
		Month:      month,
		ByCategory: map[string]float64{},
	}
	for _, e := range entries {
		if e.Type == models.FinanceIncome {
			summary.TotalIncome += e.Amount
		} else {
			summary.TotalExpenses += e.Amount
			category := e.Category
			if category == "" {
				category = "uncategorized"
			}
			summary.ByCategory[category] += e.Amount
		}
	}
	summary.Balance = summary.TotalIncome - summary.TotalExpenses

	if month != "" {
		budget, err := s.GetBudget(ctx, userID, month)
		if err == nil {
			summary.Budget = budget
		}
	}

	return summary, nil
}

// CreateSavingsGoal inserts a savings goal
func (s *FinanceService) CreateSavingsGoal(ctx context.Context, userID string, g *models.SavingsGoal) (*models.SavingsGoal, error) {
	if strings.TrimSpace(g.Name) == "" {
		return nil, fmt.Errorf("goal name %w", ErrValidation)
	}
	if g.TargetAmount <= 0 {
		return nil, fmt.Errorf("target amount must be positive")
	}

	now := time.Now().UTC()
	g.ID = uuid.NewString()
	g.UserID = userID
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO savings_goals (id, user_id, name, target_amount, saved_amount, deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, userID, g.Name, g.TargetAmount, g.SavedAmount, g.Deadline, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create savings goal: %w", err)
	}

	return g, nil
}

// ListSavingsGoals returns the user's savings goals
func (s *FinanceService) ListSavingsGoals(ctx context.Context, userID string) ([]*models.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, target_amount, saved_amount, deadline, created_at, updated_at
		FROM savings_goals WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}
	defer rows.Close()

	goals := []*models.SavingsGoal{}
	for rows.Next() {
		var g models.SavingsGoal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount,
			&g.Deadline, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan savings goal: %w", err)
		}
		goals = append(goals, &g)
	}
	return goals, rows.Err()
}

// UpdateSavedAmount sets the saved amount on a goal
func (s *FinanceService) UpdateSavedAmount(ctx context.Context, userID, goalID string, saved float64) error {
	if saved < 0 {
		return fmt.Errorf("saved amount cannot be negative")
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE savings_goals SET saved_amount = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		saved, time.Now().UTC(), goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to update savings goal: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("savings goal %w", ErrNotFound)
	}
	return nil
}

// DeleteSavingsGoal removes a savings goal
func (s *FinanceService) DeleteSavingsGoal(ctx context.Context, userID, goalID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete savings goal: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("savings goal %w", ErrNotFound)
	}
	return nil
}

// SetBudget creates or replaces the budget for a month
func (s *FinanceService) SetBudget(ctx context.Context, userID, month string, amount float64) (*models.MonthlyBudget, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, fmt.Errorf("invalid month %q: expected YYYY-MM", month)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("budget amount must be positive")
	}

	// Upsert by delete-then-insert, portable across drivers
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM monthly_budgets WHERE user_id = ? AND month = ?`, userID, month); err != nil {
		return nil, fmt.Errorf("failed to replace budget: %w", err)
	}

	b := &models.MonthlyBudget{
		ID:        uuid.NewString(),
		UserID:    userID,
		Month:     month,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monthly_budgets (id, user_id, month, amount, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, userID, month, amount, b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set budget: %w", err)
	}

	return b, nil
}

// GetBudget returns the budget for one month
func (s *FinanceService) GetBudget(ctx context.Context, userID, month string) (*models.MonthlyBudget, error) {
	var b models.MonthlyBudget
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, month, amount, created_at
		FROM monthly_budgets WHERE user_id = ? AND month = ?`, userID, month).Scan(
		&b.ID, &b.UserID, &b.Month, &b.Amount, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("budget %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return &b, nil
}

// monthBounds converts "2006-01" into [first day, first day of next month)
func monthBounds(month string) (string, string, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: expected YYYY-MM", month)
	}
	return t.Format("2006-01-02"), t.AddDate(0, 1, 0).Format("2006-01-02"), nil
}
