package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"momentum/internal/database"
	"momentum/internal/models"

	"github.com/google/uuid"
)

// MemoryService records which documents have been pushed to the vector
// store. The rows are the source of truth for re-ingestion; the vector store
// itself is treated as a cache that can be rebuilt.
type MemoryService struct {
	db *database.DB
}

// NewMemoryService creates a new memory service
func NewMemoryService(db *database.DB) *MemoryService {
	return &MemoryService{db: db}
}

// RecordIngest stores one ingested document reference. Re-ingesting the same
// doc ID replaces the previous record.
func (s *MemoryService) RecordIngest(ctx context.Context, userID, docID, memType string, metadata map[string]interface{}) (*models.AIMemory, error) {
	if docID == "" {
		return nil, fmt.Errorf("doc ID is required")
	}

	var meta string
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		meta = string(raw)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM ai_memories WHERE user_id = ? AND doc_id = ?`, userID, docID); err != nil {
		return nil, fmt.Errorf("failed to replace memory record: %w", err)
	}

	m := &models.AIMemory{
		ID:        uuid.NewString(),
		UserID:    userID,
		DocID:     docID,
		Type:      memType,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_memories (id, user_id, doc_id, type, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, userID, docID, memType, meta, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record memory: %w", err)
	}

	return m, nil
}

// ListMemories returns the user's memory records, optionally by type
func (s *MemoryService) ListMemories(ctx context.Context, userID, memType string) ([]*models.AIMemory, error) {
	query := `SELECT id, user_id, doc_id, type, metadata, created_at
		FROM ai_memories WHERE user_id = ?`
	args := []interface{}{userID}
	if memType != "" {
		query += ` AND type = ?`
		args = append(args, memType)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	memories := []*models.AIMemory{}
	for rows.Next() {
		var m models.AIMemory
		if err := rows.Scan(&m.ID, &m.UserID, &m.DocID, &m.Type, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, &m)
	}
	return memories, rows.Err()
}

// DeleteByDocID removes the record for one document
func (s *MemoryService) DeleteByDocID(ctx context.Context, userID, docID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM ai_memories WHERE user_id = ? AND doc_id = ?`, userID, docID)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("memory %w", ErrNotFound)
	}
	return nil
}

// AllUserIDs returns the distinct users with recorded memories
func (s *MemoryService) AllUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM ai_memories`)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory users: %w", err)
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
