package models

import "time"

// Memory document types
const (
	MemoryTypeSyllabus = "syllabus"
	MemoryTypeContext  = "context"
	MemoryTypeNote     = "note"
)

// AIMemory records a document pushed to the vector store, so ingests can
// be verified and re-driven without asking the store what it holds.
type AIMemory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	DocID     string    `json:"doc_id"`
	Type      string    `json:"type"`
	Metadata  string    `json:"metadata,omitempty"` // JSON
	CreatedAt time.Time `json:"created_at"`
}
