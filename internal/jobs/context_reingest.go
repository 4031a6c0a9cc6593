package jobs

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"momentum/internal/models"
	"momentum/internal/services"
)

// ContextReingestJob re-pushes recorded documents into the vector store.
// Vector writes during normal operation are best-effort; this nightly pass
// converges the store back to what the database says it should hold.
type ContextReingestJob struct {
	memory   *services.MemoryService
	syllabus *services.SyllabusService
	vector   *services.VectorClient
	builder  *services.ContextBuilder
}

// NewContextReingestJob creates a new re-ingest job
func NewContextReingestJob(memory *services.MemoryService, syllabus *services.SyllabusService, vector *services.VectorClient, builder *services.ContextBuilder) *ContextReingestJob {
	return &ContextReingestJob{
		memory:   memory,
		syllabus: syllabus,
		vector:   vector,
		builder:  builder,
	}
}

// Run re-ingests every recorded document
func (j *ContextReingestJob) Run(ctx context.Context) error {
	userIDs, err := j.memory.AllUserIDs(ctx)
	if err != nil {
		return err
	}

	var pushed, failed int
	for _, userID := range userIDs {
		memories, err := j.memory.ListMemories(ctx, userID, "")
		if err != nil {
			log.Printf("⚠️  [REINGEST] Failed to list memories for %s: %v", userID, err)
			continue
		}

		for _, m := range memories {
			if err := j.reingest(ctx, userID, m); err != nil {
				log.Printf("⚠️  [REINGEST] %s failed for %s: %v", m.DocID, userID, err)
				failed++
				continue
			}
			pushed++
		}
	}

	log.Printf("🔄 [REINGEST] Re-ingested %d documents (%d failures)", pushed, failed)
	return nil
}

func (j *ContextReingestJob) reingest(ctx context.Context, userID string, m *models.AIMemory) error {
	switch m.Type {
	case models.MemoryTypeSyllabus:
		courseID := strings.TrimPrefix(m.DocID, "syllabus_")
		return j.syllabus.Reingest(ctx, userID, courseID)
	case models.MemoryTypeContext:
		snapshot, err := j.builder.Build(ctx, userID)
		if err != nil {
			return err
		}
		var meta map[string]interface{}
		if m.Metadata != "" {
			_ = json.Unmarshal([]byte(m.Metadata), &meta)
		}
		return j.vector.Ingest(ctx, &services.IngestRequest{
			UserID:   userID,
			DocID:    m.DocID,
			Text:     snapshot,
			Metadata: meta,
		})
	default:
		// Notes and other ad-hoc documents have no regeneration source
		return nil
	}
}
