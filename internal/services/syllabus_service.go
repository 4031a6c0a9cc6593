package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"momentum/internal/database"
	"momentum/internal/models"
)

// SyllabusService handles syllabus uploads. A syllabus is fingerprinted so
// that re-uploading identical text is a no-op; real changes replace the
// stored text, regenerate the study plan and refresh the vector store.
type SyllabusService struct {
	db      *database.DB
	courses *CourseService
	tasks   *TaskService
	ai      *AIClient
	vector  *VectorClient
	memory  *MemoryService
}

// NewSyllabusService creates a new syllabus service
func NewSyllabusService(db *database.DB, courses *CourseService, tasks *TaskService, ai *AIClient, vector *VectorClient, memory *MemoryService) *SyllabusService {
	return &SyllabusService{
		db:      db,
		courses: courses,
		tasks:   tasks,
		ai:      ai,
		vector:  vector,
		memory:  memory,
	}
}

// Fingerprint derives the stored syllabus hash: the trimmed length and the
// first 16 hex chars of the SHA-256 of the trimmed text.
func Fingerprint(syllabus string) string {
	trimmed := strings.TrimSpace(syllabus)
	if trimmed == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(trimmed))
	return fmt.Sprintf("%d_%s", len(trimmed), hex.EncodeToString(sum[:])[:16])
}

// UploadResult reports what a syllabus upload did
type UploadResult struct {
	Course         *models.Course `json:"course"`
	Changed        bool           `json:"changed"`
	TasksGenerated int            `json:"tasks_generated"`
	TasksRemoved   int64          `json:"tasks_removed"`
}

// Upload stores a syllabus on a course. When neither the fingerprint nor the
// requested plan duration changed the upload is a no-op. Otherwise previously
// generated tasks are replaced with a fresh plan and the vector store is
// re-ingested; both of those are best-effort and never fail the upload.
func (s *SyllabusService) Upload(ctx context.Context, userID, courseID, syllabus string) (*UploadResult, error) {
	if strings.TrimSpace(syllabus) == "" {
		return nil, fmt.Errorf("syllabus text %w", ErrValidation)
	}

	course, err := s.courses.GetCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	hash := Fingerprint(syllabus)
	if course.SyllabusHash == hash && course.SyllabusPlanMonths == course.PlanDurationMonths {
		log.Printf("📄 Syllabus unchanged for course %s, skipping regeneration", courseID)
		return &UploadResult{Course: course, Changed: false}, nil
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE courses SET syllabus = ?, syllabus_hash = ?, syllabus_plan_months = ?, updated_at = ? WHERE id = ?`,
		syllabus, hash, course.PlanDurationMonths, now, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to store syllabus: %w", err)
	}

	result := &UploadResult{Changed: true}

	// Replace the generated study plan
	removed, err := s.tasks.DeleteSyllabusAssignments(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	result.TasksRemoved = removed

	generated, err := s.ai.GenerateCourseTasks(ctx, userID, courseID, syllabus, course.PlanDurationMonths)
	if err != nil {
		log.Printf("⚠️  Task generation failed for course %s: %v", courseID, err)
	} else {
		for _, t := range generated {
			a := &models.Assignment{
				CourseID:          courseID,
				Title:             t.Title,
				Description:       t.Description,
				EstimatedHours:    t.EstimatedHours,
				Priority:          t.Priority,
				AIGenerated:       true,
				SyllabusGenerated: true,
			}
			if t.DueDate != "" {
				if due, err := time.Parse("2006-01-02", t.DueDate); err == nil {
					a.DueDate = &due
				}
			}
			if _, err := s.tasks.CreateAssignment(ctx, userID, a); err != nil {
				log.Printf("⚠️  Failed to save generated task %q: %v", t.Title, err)
				continue
			}
			result.TasksGenerated++
		}
	}

	// Refresh the vector store, best-effort
	if err := s.vector.IngestSyllabus(ctx, userID, courseID, course.Name, syllabus); err != nil {
		log.Printf("⚠️  Syllabus ingest failed for course %s: %v", courseID, err)
	} else {
		docID := "syllabus_" + courseID
		if _, err := s.memory.RecordIngest(ctx, userID, docID, models.MemoryTypeSyllabus, map[string]interface{}{
			"course_id":   courseID,
			"course_name": course.Name,
			"hash":        hash,
		}); err != nil {
			log.Printf("⚠️  Failed to record syllabus ingest: %v", err)
		}
	}

	result.Course, err = s.courses.GetCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a course's syllabus, its generated tasks and its vector
// store chunks.
func (s *SyllabusService) Delete(ctx context.Context, userID, courseID string) error {
	course, err := s.courses.GetCourse(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if course.Syllabus == "" {
		return fmt.Errorf("syllabus %w", ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE courses SET syllabus = '', syllabus_hash = '', syllabus_plan_months = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), courseID)
	if err != nil {
		return fmt.Errorf("failed to clear syllabus: %w", err)
	}

	if _, err := s.tasks.DeleteSyllabusAssignments(ctx, userID, courseID); err != nil {
		return err
	}

	if err := s.vector.DeleteSyllabus(ctx, userID, courseID); err != nil {
		log.Printf("⚠️  Syllabus delete failed in vector store for course %s: %v", courseID, err)
	}
	if err := s.memory.DeleteByDocID(ctx, userID, "syllabus_"+courseID); err != nil && !isNotFound(err) {
		log.Printf("⚠️  Failed to delete syllabus memory record: %v", err)
	}

	return nil
}

// Verify reports whether the course's syllabus chunks are present in the
// vector store.
func (s *SyllabusService) Verify(ctx context.Context, userID, courseID string) (*SyllabusStatus, error) {
	if _, err := s.courses.GetCourse(ctx, userID, courseID); err != nil {
		return nil, err
	}
	return s.vector.VerifySyllabus(ctx, userID, courseID)
}

// Reingest pushes the stored syllabus back into the vector store. Used by
// the nightly convergence job to repair missed best-effort writes.
func (s *SyllabusService) Reingest(ctx context.Context, userID, courseID string) error {
	course, err := s.courses.GetCourse(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if course.Syllabus == "" {
		return nil
	}
	return s.vector.IngestSyllabus(ctx, userID, courseID, course.Name, course.Syllabus)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
