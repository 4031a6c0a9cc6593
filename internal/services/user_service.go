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

// UserService handles user accounts and profile updates
type UserService struct {
	db *database.DB
}

// NewUserService creates a new user service
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// CreateUser inserts a new user. The email must be unique.
func (s *UserService) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email %w", ErrValidation)
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("email %w", ErrConflict)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, education_level,
			institution, major, year, study_group, unstructured_context, onboarded, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '', '', '', 0, '', '', 0, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, education_level,
			institution, major, year, study_group, unstructured_context, onboarded, created_at, updated_at
		FROM users WHERE id = ?`, userID))
}

// GetUserByEmail retrieves a user by email (login path)
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, education_level,
			institution, major, year, study_group, unstructured_context, onboarded, created_at, updated_at
		FROM users WHERE email = ?`, email))
}

func (s *UserService) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.EducationLevel,
		&u.Institution, &u.Major, &u.Year, &u.StudyGroup, &u.UnstructuredContext, &u.Onboarded,
		&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UserUpdate holds the mutable profile fields. Nil pointers are left unchanged.
type UserUpdate struct {
	FirstName           *string `json:"first_name"`
	LastName            *string `json:"last_name"`
	EducationLevel      *string `json:"education_level"`
	Institution         *string `json:"institution"`
	Major               *string `json:"major"`
	Year                *int    `json:"year"`
	StudyGroup          *string `json:"study_group"`
	UnstructuredContext *string `json:"unstructured_context"`
	Onboarded           *bool   `json:"onboarded"`
}

// UpdateUser applies a partial update to a user's profile
func (s *UserService) UpdateUser(ctx context.Context, userID string, upd UserUpdate) (*models.User, error) {
	sets := []string{}
	args := []interface{}{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.EducationLevel != nil {
		add("education_level", *upd.EducationLevel)
	}
	if upd.Institution != nil {
		add("institution", *upd.Institution)
	}
	if upd.Major != nil {
		add("major", *upd.Major)
	}
	if upd.Year != nil {
		add("year", *upd.Year)
	}
	if upd.StudyGroup != nil {
		add("study_group", *upd.StudyGroup)
	}
	if upd.UnstructuredContext != nil {
		add("unstructured_context", *upd.UnstructuredContext)
	}
	if upd.Onboarded != nil {
		add("onboarded", boolToInt(*upd.Onboarded))
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, userID)

		query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
	}

	return s.GetUserByID(ctx, userID)
}

// AppendContext appends free-text notes to the user's unstructured context
func (s *UserService) AppendContext(ctx context.Context, userID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	combined := user.UnstructuredContext
	if combined != "" {
		combined += "\n"
	}
	combined += text

	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET unstructured_context = ?, updated_at = ? WHERE id = ?`,
		combined, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to append context: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (s *UserService) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
