package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"momentum/internal/database"
	"momentum/internal/models"
)

// newSyllabusService wires a syllabus service against unreachable AI and
// vector endpoints. Task generation and ingest are best-effort, so the
// upload flow itself still works.
func newSyllabusService(t *testing.T, db *database.DB) (*SyllabusService, *CourseService, *TaskService) {
	t.Helper()
	courses := NewCourseService(db)
	tasks := NewTaskService(db)
	ai := NewAIClient("http://127.0.0.1:1", 100*time.Millisecond)
	vector := NewVectorClient("http://127.0.0.1:1", 100*time.Millisecond)
	return NewSyllabusService(db, courses, tasks, ai, vector, NewMemoryService(db)), courses, tasks
}

func TestFingerprint(t *testing.T) {
	text := "Week 1: Introduction\nWeek 2: Sorting"

	a := Fingerprint(text)
	b := Fingerprint("  " + text + "\n\n")
	if a == "" {
		t.Fatal("Expected non-empty fingerprint")
	}
	if a != b {
		t.Errorf("Expected whitespace-insensitive fingerprint, got %q vs %q", a, b)
	}

	if got := Fingerprint(text + "!"); got == a {
		t.Error("Expected different content to produce a different fingerprint")
	}

	// "<trimmed length>_<16 hex chars>"
	parts := strings.SplitN(a, "_", 2)
	if len(parts) != 2 {
		t.Fatalf("Unexpected fingerprint shape %q", a)
	}
	if parts[0] != "36" {
		t.Errorf("Expected length prefix 36, got %q", parts[0])
	}
	if len(parts[1]) != 16 {
		t.Errorf("Expected 16 hex chars, got %d", len(parts[1]))
	}
}

func TestFingerprint_EmptyIsEmpty(t *testing.T) {
	for _, s := range []string{"", "   ", "\n\t"} {
		if got := Fingerprint(s); got != "" {
			t.Errorf("Fingerprint(%q) = %q, want empty", s, got)
		}
	}
}

func TestUpload_ReplacesGeneratedTasks(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	syllabi, courses, tasks := newSyllabusService(t, db)
	ctx := context.Background()

	course, err := courses.CreateCourse(ctx, userID, &models.Course{Name: "Algorithms", PlanDurationMonths: 3})
	if err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}
	if _, err := tasks.CreateAssignment(ctx, userID, &models.Assignment{
		CourseID: course.ID, Title: "Stale plan task", SyllabusGenerated: true,
	}); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if _, err := tasks.CreateAssignment(ctx, userID, &models.Assignment{
		CourseID: course.ID, Title: "Manual homework",
	}); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	text := "Week 1: Big-O\nWeek 2: Sorting"
	res, err := syllabi.Upload(ctx, userID, course.ID, text)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !res.Changed {
		t.Error("Expected first upload to report a change")
	}
	if res.TasksRemoved != 1 {
		t.Errorf("Expected 1 generated task removed, got %d", res.TasksRemoved)
	}
	if res.Course.SyllabusHash != Fingerprint(text) {
		t.Errorf("Expected stored hash %q, got %q", Fingerprint(text), res.Course.SyllabusHash)
	}

	remaining, err := tasks.ListAssignments(ctx, userID, course.ID, "")
	if err != nil {
		t.Fatalf("ListAssignments failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Title != "Manual homework" {
		t.Errorf("Expected only the manual assignment to survive, got %d assignments", len(remaining))
	}
}

func TestUpload_IdenticalTextIsNoOp(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	syllabi, courses, tasks := newSyllabusService(t, db)
	ctx := context.Background()

	course, err := courses.CreateCourse(ctx, userID, &models.Course{Name: "Databases", PlanDurationMonths: 3})
	if err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}

	text := "Week 1: Relational model"
	if _, err := syllabi.Upload(ctx, userID, course.ID, text); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, err := tasks.CreateAssignment(ctx, userID, &models.Assignment{
		CourseID: course.ID, Title: "Read chapter 1", SyllabusGenerated: true,
	}); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	res, err := syllabi.Upload(ctx, userID, course.ID, text)
	if err != nil {
		t.Fatalf("Re-upload failed: %v", err)
	}
	if res.Changed {
		t.Error("Expected identical re-upload to be a no-op")
	}
	if res.TasksRemoved != 0 {
		t.Errorf("Expected no tasks removed on no-op, got %d", res.TasksRemoved)
	}

	remaining, err := tasks.ListAssignments(ctx, userID, course.ID, "")
	if err != nil {
		t.Fatalf("ListAssignments failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("Expected the generated task to survive a no-op upload, got %d assignments", len(remaining))
	}
}

func TestUpload_PlanDurationChangeRegenerates(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	syllabi, courses, _ := newSyllabusService(t, db)
	ctx := context.Background()

	course, err := courses.CreateCourse(ctx, userID, &models.Course{Name: "Linear Algebra", PlanDurationMonths: 3})
	if err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}

	text := "Week 1: Vectors\nWeek 2: Matrices"
	first, err := syllabi.Upload(ctx, userID, course.ID, text)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !first.Changed {
		t.Fatal("Expected first upload to report a change")
	}
	if first.Course.SyllabusPlanMonths != 3 {
		t.Errorf("Expected plan generated for 3 months, got %d", first.Course.SyllabusPlanMonths)
	}

	months := 6
	if _, err := courses.UpdateCourse(ctx, userID, course.ID, CourseUpdate{PlanDurationMonths: &months}); err != nil {
		t.Fatalf("UpdateCourse failed: %v", err)
	}

	// Same text, new duration: the plan no longer matches what it was
	// generated for, so the upload must regenerate.
	second, err := syllabi.Upload(ctx, userID, course.ID, text)
	if err != nil {
		t.Fatalf("Re-upload failed: %v", err)
	}
	if !second.Changed {
		t.Error("Expected duration change to trigger regeneration")
	}
	if second.Course.SyllabusPlanMonths != 6 {
		t.Errorf("Expected plan months recorded as 6, got %d", second.Course.SyllabusPlanMonths)
	}

	third, err := syllabi.Upload(ctx, userID, course.ID, text)
	if err != nil {
		t.Fatalf("Re-upload failed: %v", err)
	}
	if third.Changed {
		t.Error("Expected upload after regeneration to be a no-op")
	}
}

func TestUpload_EmptyTextRejected(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	syllabi, courses, _ := newSyllabusService(t, db)
	ctx := context.Background()

	course, err := courses.CreateCourse(ctx, userID, &models.Course{Name: "Physics"})
	if err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}

	_, err = syllabi.Upload(ctx, userID, course.ID, "   \n")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for blank syllabus, got %v", err)
	}
}
