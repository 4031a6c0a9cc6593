package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"momentum/internal/models"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, string) {
	t.Helper()

	db := newTestDB(t)
	userID := newTestUser(t, db)

	users := NewUserService(db)
	courses := NewCourseService(db)
	tasks := NewTaskService(db)
	skills := NewSkillService(db)
	finances := NewFinanceService(db)
	journals := NewJournalService(db)
	lifestyle := NewLifestyleService(db)

	d := NewDispatcher(users, courses, tasks, skills, finances, journals, lifestyle, nil)
	return d, userID
}

func action(t *testing.T, actionType string, data interface{}) models.ChatAction {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal action data: %v", err)
	}
	return models.ChatAction{Type: actionType, Data: raw}
}

func TestDispatch_FailedActionDoesNotAbortSiblings(t *testing.T) {
	d, userID := newTestDispatcher(t)
	ctx := context.Background()

	actions := []models.ChatAction{
		action(t, "add_course", map[string]string{"name": "Databases"}),
		action(t, "update_course", map[string]string{"name": "No Such Course", "status": "completed"}),
		action(t, "add_assignment", map[string]string{"title": "Normalize schema"}),
	}

	results := d.Dispatch(ctx, userID, actions)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	if !results[0].Success {
		t.Errorf("Expected add_course to succeed: %s", results[0].Error)
	}
	if results[1].Success {
		t.Error("Expected update_course on missing course to fail")
	}
	if results[1].Error == "" {
		t.Error("Expected failed action to carry an error message")
	}
	if !results[2].Success {
		t.Errorf("Expected add_assignment after a failure to succeed: %s", results[2].Error)
	}
}

func TestDispatch_UnknownActionType(t *testing.T) {
	d, userID := newTestDispatcher(t)

	results := d.Dispatch(context.Background(), userID, []models.ChatAction{
		action(t, "launch_rocket", map[string]string{}),
	})
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Success {
		t.Fatal("Expected unknown action type to fail")
	}
	if !strings.Contains(results[0].Error, "unknown action type") {
		t.Errorf("Expected unknown-type error, got %q", results[0].Error)
	}
}

func TestDispatch_EmptyActionData(t *testing.T) {
	d, userID := newTestDispatcher(t)

	results := d.Dispatch(context.Background(), userID, []models.ChatAction{
		{Type: "add_course"},
	})
	if results[0].Success {
		t.Fatal("Expected action with no data to fail")
	}
}

func TestDispatch_AddSkillMergeReportsAsUpdate(t *testing.T) {
	d, userID := newTestDispatcher(t)
	ctx := context.Background()

	first := d.Dispatch(ctx, userID, []models.ChatAction{
		action(t, "add_skill", map[string]string{"name": "Public Speaking"}),
	})
	if !first[0].Success || first[0].Type != "add_skill" {
		t.Fatalf("Expected clean add_skill, got type=%q success=%v", first[0].Type, first[0].Success)
	}

	second := d.Dispatch(ctx, userID, []models.ChatAction{
		action(t, "add_skill", map[string]string{"name": "public speaking", "level": "intermediate"}),
	})
	if !second[0].Success {
		t.Fatalf("Expected merged add_skill to succeed: %s", second[0].Error)
	}
	if second[0].Type != "update_skill" {
		t.Errorf("Expected merge to report as update_skill, got %q", second[0].Type)
	}

	all, err := d.skills.ListSkills(ctx, userID)
	if err != nil {
		t.Fatalf("ListSkills failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 skill after merged add, got %d", len(all))
	}
}

func TestDispatch_FuzzyCourseResolution(t *testing.T) {
	d, userID := newTestDispatcher(t)
	ctx := context.Background()

	for _, name := range []string{"Intro to Databases", "Advanced Databases"} {
		results := d.Dispatch(ctx, userID, []models.ChatAction{
			action(t, "add_course", map[string]string{"name": name}),
		})
		if !results[0].Success {
			t.Fatalf("add_course(%s) failed: %s", name, results[0].Error)
		}
		time.Sleep(5 * time.Millisecond) // distinct created_at for ordering
	}

	results := d.Dispatch(ctx, userID, []models.ChatAction{
		action(t, "update_course", map[string]string{"name": "databases", "status": "completed"}),
	})
	if !results[0].Success {
		t.Fatalf("update_course failed: %s", results[0].Error)
	}

	// The first course in creation order wins the substring match
	updated, ok := results[0].Entity.(*models.Course)
	if !ok {
		t.Fatalf("Expected *models.Course entity, got %T", results[0].Entity)
	}
	if updated.Name != "Intro to Databases" {
		t.Errorf("Expected first created match, got %q", updated.Name)
	}
	if updated.Status != models.CourseStatusCompleted {
		t.Errorf("Expected status completed, got %q", updated.Status)
	}
}

func TestDispatch_UpdateCourseNameIsReferenceNotRename(t *testing.T) {
	d, userID := newTestDispatcher(t)
	ctx := context.Background()

	if results := d.Dispatch(ctx, userID, []models.ChatAction{
		action(t, "add_course", map[string]string{"name": "Organic Chemistry"}),
	}); !results[0].Success {
		t.Fatalf("add_course failed: %s", results[0].Error)
	}

	results := d.Dispatch(ctx, userID, []models.ChatAction{
		action(t, "update_course", map[string]interface{}{"name": "organic", "credits": 4}),
	})
	if !results[0].Success {
		t.Fatalf("update_course failed: %s", results[0].Error)
	}

	updated := results[0].Entity.(*models.Course)
	if updated.Name != "Organic Chemistry" {
		t.Errorf("Expected name to stay %q, got %q", "Organic Chemistry", updated.Name)
	}
	if updated.Credits != 4 {
		t.Errorf("Expected credits 4, got %d", updated.Credits)
	}
}
