package services

import (
	"context"
	"errors"
	"testing"

	"momentum/internal/models"
)

func TestToggleAssignment_Cycle(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	tasks := NewTaskService(db)
	ctx := context.Background()

	a, err := tasks.CreateAssignment(ctx, userID, &models.Assignment{Title: "Read chapter 3"})
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if a.Status != models.StatusPending {
		t.Fatalf("Expected new assignment to be pending, got %q", a.Status)
	}

	want := []string{models.StatusInProgress, models.StatusCompleted, models.StatusPending, models.StatusInProgress}
	for i, expected := range want {
		toggled, err := tasks.ToggleAssignment(ctx, userID, a.ID)
		if err != nil {
			t.Fatalf("Toggle %d failed: %v", i, err)
		}
		if toggled.Status != expected {
			t.Errorf("Toggle %d: expected %q, got %q", i, expected, toggled.Status)
		}
	}
}

func TestToggleAssignment_LateResetsToPending(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	tasks := NewTaskService(db)
	ctx := context.Background()

	a, err := tasks.CreateAssignment(ctx, userID, &models.Assignment{Title: "Late essay"})
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	late := models.StatusLate
	if _, err := tasks.UpdateAssignment(ctx, userID, a.ID, AssignmentUpdate{Status: &late}); err != nil {
		t.Fatalf("UpdateAssignment failed: %v", err)
	}

	toggled, err := tasks.ToggleAssignment(ctx, userID, a.ID)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if toggled.Status != models.StatusPending {
		t.Errorf("Expected late assignment to reset to pending, got %q", toggled.Status)
	}
}

func TestGetAssignment_OtherUserIsNotFound(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	tasks := NewTaskService(db)
	ctx := context.Background()

	other, err := NewUserService(db).CreateUser(ctx, "other@example.com", "hash", "Other", "User")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	a, err := tasks.CreateAssignment(ctx, userID, &models.Assignment{Title: "Private task"})
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	// Ownership failures are indistinguishable from missing rows
	if _, err := tasks.GetAssignment(ctx, other.ID, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for other user's assignment, got %v", err)
	}
}

func TestUpdateExam(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	tasks := NewTaskService(db)
	ctx := context.Background()

	exam, err := tasks.CreateExam(ctx, userID, &models.Exam{Title: "Midterm"})
	if err != nil {
		t.Fatalf("CreateExam failed: %v", err)
	}

	title := "Final"
	location := "Hall B"
	updated, err := tasks.UpdateExam(ctx, userID, exam.ID, ExamUpdate{Title: &title, Location: &location})
	if err != nil {
		t.Fatalf("UpdateExam failed: %v", err)
	}
	if updated.Title != "Final" || updated.Location != "Hall B" {
		t.Errorf("Expected updated exam fields, got %q at %q", updated.Title, updated.Location)
	}

	empty := "  "
	if _, err := tasks.UpdateExam(ctx, userID, exam.ID, ExamUpdate{Title: &empty}); err == nil {
		t.Error("Expected error for blank title")
	}

	if _, err := tasks.UpdateExam(ctx, userID, "missing", ExamUpdate{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing exam, got %v", err)
	}
}

func TestListAssignments_Filters(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	tasks := NewTaskService(db)
	courses := NewCourseService(db)
	ctx := context.Background()

	course, err := courses.CreateCourse(ctx, userID, &models.Course{Name: "Algorithms"})
	if err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}

	if _, err := tasks.CreateAssignment(ctx, userID, &models.Assignment{Title: "Standalone"}); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	linked, err := tasks.CreateAssignment(ctx, userID, &models.Assignment{Title: "Course task", CourseID: course.ID})
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if _, err := tasks.ToggleAssignment(ctx, userID, linked.ID); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	byCourse, err := tasks.ListAssignments(ctx, userID, course.ID, "")
	if err != nil {
		t.Fatalf("ListAssignments failed: %v", err)
	}
	if len(byCourse) != 1 || byCourse[0].ID != linked.ID {
		t.Errorf("Expected only the course-linked assignment, got %d", len(byCourse))
	}

	inProgress, err := tasks.ListAssignments(ctx, userID, "", models.StatusInProgress)
	if err != nil {
		t.Fatalf("ListAssignments failed: %v", err)
	}
	if len(inProgress) != 1 || inProgress[0].ID != linked.ID {
		t.Errorf("Expected one in-progress assignment, got %d", len(inProgress))
	}
}
