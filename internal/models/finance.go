package models

import "time"

// Finance row types
const (
	FinanceIncome  = "income"
	FinanceExpense = "expense"
)

// Finance is one ledger row (income or expense)
type Finance struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category,omitempty"`
	Note      string    `json:"note,omitempty"`
	Date      string    `json:"date"` // "2006-01-02"
	CreatedAt time.Time `json:"created_at"`
}

// SavingsGoal tracks a named savings target
type SavingsGoal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	TargetAmount float64   `json:"target_amount"`
	SavedAmount  float64   `json:"saved_amount"`
	Deadline     string    `json:"deadline,omitempty"` // "2006-01-02"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MonthlyBudget is the spending cap for one (user, month)
type MonthlyBudget struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Month     string    `json:"month"` // "2006-01"
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// FinanceSummary is the read-time aggregation returned by the summary endpoint
type FinanceSummary struct {
	Month         string             `json:"month,omitempty"`
	TotalIncome   float64            `json:"total_income"`
	TotalExpenses float64            `json:"total_expenses"`
	Balance       float64            `json:"balance"`
	ByCategory    map[string]float64 `json:"by_category"`
	Budget        *MonthlyBudget     `json:"budget,omitempty"`
}
