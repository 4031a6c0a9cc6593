package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"momentum/internal/database"
	"momentum/internal/models"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// JournalService handles journal entries. Content is stored as markdown and
// rendered to HTML on demand.
type JournalService struct {
	db       *database.DB
	markdown goldmark.Markdown
}

// NewJournalService creates a new journal service
func NewJournalService(db *database.DB) *JournalService {
	return &JournalService{
		db: db,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// CreateEntry inserts a journal entry
func (s *JournalService) CreateEntry(ctx context.Context, userID string, e *models.JournalEntry) (*models.JournalEntry, error) {
	if strings.TrimSpace(e.Content) == "" {
		return nil, fmt.Errorf("journal content %w", ErrValidation)
	}
	if e.Date == "" {
		e.Date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", e.Date)
	}

	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.UserID = userID
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (id, user_id, title, content, mood, tags, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, e.Title, e.Content, e.Mood, e.Tags, e.Date, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}

	return e, nil
}

// GetEntry retrieves one journal entry
func (s *JournalService) GetEntry(ctx context.Context, userID, entryID string) (*models.JournalEntry, error) {
	var e models.JournalEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, content, mood, tags, date, created_at, updated_at
		FROM journal_entries WHERE id = ? AND user_id = ?`, entryID, userID).Scan(
		&e.ID, &e.UserID, &e.Title, &e.Content, &e.Mood, &e.Tags, &e.Date, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("journal entry %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}
	return &e, nil
}

// ListEntries returns the user's journal entries, newest first
func (s *JournalService) ListEntries(ctx context.Context, userID string, limit int) ([]*models.JournalEntry, error) {
	query := `SELECT id, user_id, title, content, mood, tags, date, created_at, updated_at
		FROM journal_entries WHERE user_id = ? ORDER BY date DESC, created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.JournalEntry{}
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &e.Mood, &e.Tags,
			&e.Date, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// JournalUpdate holds the mutable journal fields. Nil pointers are left unchanged.
type JournalUpdate struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Mood    *string `json:"mood"`
	Tags    *string `json:"tags"`
	Date    *string `json:"date"`
}

// UpdateEntry applies a partial update to a journal entry
func (s *JournalService) UpdateEntry(ctx context.Context, userID, entryID string, upd JournalUpdate) (*models.JournalEntry, error) {
	sets := []string{}
	args := []interface{}{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Content != nil {
		add("content", *upd.Content)
	}
	if upd.Mood != nil {
		add("mood", *upd.Mood)
	}
	if upd.Tags != nil {
		add("tags", *upd.Tags)
	}
	if upd.Date != nil {
		if _, err := time.Parse("2006-01-02", *upd.Date); err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", *upd.Date)
		}
		add("date", *upd.Date)
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, entryID, userID)

		query := "UPDATE journal_entries SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update journal entry: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return nil, fmt.Errorf("journal entry %w", ErrNotFound)
		}
	}

	return s.GetEntry(ctx, userID, entryID)
}

// DeleteEntry removes a journal entry
func (s *JournalService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = ? AND user_id = ?`, entryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("journal entry %w", ErrNotFound)
	}
	return nil
}

// RenderHTML renders an entry's markdown content to HTML
func (s *JournalService) RenderHTML(ctx context.Context, userID, entryID string) (string, error) {
	entry, err := s.GetEntry(ctx, userID, entryID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(entry.Content), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
