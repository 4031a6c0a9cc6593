package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"momentum/internal/models"
)

func TestCreateSkill_MergesOnCaseInsensitiveName(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	skills := NewSkillService(db)
	ctx := context.Background()

	first, merged, err := skills.CreateSkill(ctx, userID, &models.Skill{Name: "Python Programming"})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if merged {
		t.Fatal("Expected first create not to merge")
	}

	second, merged, err := skills.CreateSkill(ctx, userID, &models.Skill{
		Name:        "python programming",
		Description: "Updated description",
	})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if !merged {
		t.Fatal("Expected create with matching name to merge")
	}
	if second.ID != first.ID {
		t.Errorf("Expected merge to reuse skill %s, got %s", first.ID, second.ID)
	}
	if second.Description != "Updated description" {
		t.Errorf("Expected merged skill to carry new description, got %q", second.Description)
	}

	all, err := skills.ListSkills(ctx, userID)
	if err != nil {
		t.Fatalf("ListSkills failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 skill after merge, got %d", len(all))
	}
}

func TestCreateSkill_SparseMergeKeepsRoadmapAndFields(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	skills := NewSkillService(db)
	ctx := context.Background()

	first, _, err := skills.CreateSkill(ctx, userID, &models.Skill{
		Name:           "Go",
		Category:       "Technology",
		Level:          "intermediate",
		Description:    "Backend development",
		DurationMonths: 6,
		Milestones: []models.Milestone{
			{Name: "Basics", SortOrder: 1, Status: models.StatusCompleted, Completed: true},
			{Name: "Concurrency", SortOrder: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	assertProgress(t, skills, userID, first.ID, 50)

	// A name-only duplicate must merge without touching the roadmap or
	// re-defaulting the fields it did not mention.
	merged, wasMerge, err := skills.CreateSkill(ctx, userID, &models.Skill{Name: "go"})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if !wasMerge {
		t.Fatal("Expected duplicate name to merge")
	}
	if merged.ID != first.ID {
		t.Fatalf("Expected merge into skill %s, got %s", first.ID, merged.ID)
	}
	if len(merged.Milestones) != 2 {
		t.Errorf("Expected milestones to survive the merge, got %d", len(merged.Milestones))
	}
	if merged.Category != "Technology" {
		t.Errorf("Expected category preserved, got %q", merged.Category)
	}
	if merged.Level != "intermediate" {
		t.Errorf("Expected level preserved, got %q", merged.Level)
	}
	if merged.Description != "Backend development" {
		t.Errorf("Expected description preserved, got %q", merged.Description)
	}
	if merged.DurationMonths != 6 {
		t.Errorf("Expected duration preserved, got %d", merged.DurationMonths)
	}
	assertProgress(t, skills, userID, first.ID, 50)
}

func TestCreateSkill_MergeWithChildrenReplacesRoadmap(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	skills := NewSkillService(db)
	ctx := context.Background()

	first, _, err := skills.CreateSkill(ctx, userID, &models.Skill{
		Name: "Rust",
		Milestones: []models.Milestone{
			{Name: "Ownership", SortOrder: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	merged, wasMerge, err := skills.CreateSkill(ctx, userID, &models.Skill{
		Name: "rust",
		Milestones: []models.Milestone{
			{Name: "Borrow checker", SortOrder: 1},
			{Name: "Async", SortOrder: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if !wasMerge || merged.ID != first.ID {
		t.Fatalf("Expected merge into skill %s", first.ID)
	}
	if len(merged.Milestones) != 2 || merged.Milestones[0].Name != "Borrow checker" {
		t.Errorf("Expected provided milestones to replace the roadmap, got %d", len(merged.Milestones))
	}
}

func TestCreateSkill_EmptyNameIsValidationError(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	skills := NewSkillService(db)

	_, _, err := skills.CreateSkill(context.Background(), userID, &models.Skill{Name: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for blank name, got %v", err)
	}
}

func TestMilestoneToggle_RecomputesProgress(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	skills := NewSkillService(db)
	ctx := context.Background()

	skill, _, err := skills.CreateSkill(ctx, userID, &models.Skill{Name: "Spanish"})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	var milestones []*models.Milestone
	for _, name := range []string{"Alphabet", "Greetings", "Numbers", "Basic verbs"} {
		m, err := skills.AddMilestone(ctx, userID, &models.Milestone{SkillID: skill.ID, Name: name})
		if err != nil {
			t.Fatalf("AddMilestone(%s) failed: %v", name, err)
		}
		milestones = append(milestones, m)
	}

	// pending -> in-progress does not count as completed
	if _, err := skills.ToggleMilestone(ctx, userID, milestones[0].ID); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	assertProgress(t, skills, userID, skill.ID, 0)

	// in-progress -> completed counts
	if _, err := skills.ToggleMilestone(ctx, userID, milestones[0].ID); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	assertProgress(t, skills, userID, skill.ID, 25)

	completed := models.StatusCompleted
	if _, err := skills.UpdateMilestone(ctx, userID, milestones[1].ID, MilestoneUpdate{Status: &completed}); err != nil {
		t.Fatalf("UpdateMilestone failed: %v", err)
	}
	assertProgress(t, skills, userID, skill.ID, 50)

	// Deleting a pending milestone shrinks the denominator
	if err := skills.DeleteMilestone(ctx, userID, milestones[3].ID); err != nil {
		t.Fatalf("DeleteMilestone failed: %v", err)
	}
	assertProgress(t, skills, userID, skill.ID, 100.0*2/3)
}

func TestAddMilestone_DilutesProgress(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	skills := NewSkillService(db)
	ctx := context.Background()

	skill, _, err := skills.CreateSkill(ctx, userID, &models.Skill{
		Name: "Chess",
		Milestones: []models.Milestone{
			{Name: "Openings", SortOrder: 1, Status: models.StatusCompleted, Completed: true},
			{Name: "Endgames", SortOrder: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	assertProgress(t, skills, userID, skill.ID, 50)

	if _, err := skills.AddMilestone(ctx, userID, &models.Milestone{SkillID: skill.ID, Name: "Tactics"}); err != nil {
		t.Fatalf("AddMilestone failed: %v", err)
	}
	assertProgress(t, skills, userID, skill.ID, 100.0/3)
}

func assertProgress(t *testing.T, skills *SkillService, userID, skillID string, want float64) {
	t.Helper()
	skill, err := skills.GetSkill(context.Background(), userID, skillID)
	if err != nil {
		t.Fatalf("GetSkill failed: %v", err)
	}
	if math.Abs(skill.Progress-want) > 0.01 {
		t.Errorf("Expected progress %.2f, got %.2f", want, skill.Progress)
	}
}

func TestMilestoneIsCompleted_StatusWins(t *testing.T) {
	cases := []struct {
		name      string
		status    string
		completed bool
		want      bool
	}{
		{"status completed", models.StatusCompleted, false, true},
		{"status pending overrides legacy flag", models.StatusPending, true, false},
		{"legacy row with flag", "", true, true},
		{"legacy row without flag", "", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := models.Milestone{Status: tc.status, Completed: tc.completed}
			if got := m.IsCompleted(); got != tc.want {
				t.Errorf("IsCompleted() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFindSkillByName_FirstInCreationOrder(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	skills := NewSkillService(db)
	ctx := context.Background()

	for _, name := range []string{"Guitar Basics", "Guitar Theory", "Jazz Guitar"} {
		if _, _, err := skills.CreateSkill(ctx, userID, &models.Skill{Name: name}); err != nil {
			t.Fatalf("CreateSkill(%s) failed: %v", name, err)
		}
		time.Sleep(5 * time.Millisecond) // distinct created_at for ordering
	}

	found, err := skills.FindSkillByName(ctx, userID, "guitar")
	if err != nil {
		t.Fatalf("FindSkillByName failed: %v", err)
	}
	if found.Name != "Guitar Basics" {
		t.Errorf("Expected first created match, got %q", found.Name)
	}
}

func TestReplaceRoadmap(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	skills := NewSkillService(db)
	ctx := context.Background()

	skill, _, err := skills.CreateSkill(ctx, userID, &models.Skill{
		Name: "Photography",
		Milestones: []models.Milestone{
			{Name: "Old milestone", SortOrder: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	updated, err := skills.ReplaceRoadmap(ctx, userID, skill.ID,
		[]models.Milestone{
			{Name: "Exposure triangle", SortOrder: 1},
			{Name: "Composition", SortOrder: 2},
		},
		[]models.LearningResource{
			{Title: "Manual", Type: "link", URL: "https://example.com/manual"},
		})
	if err != nil {
		t.Fatalf("ReplaceRoadmap failed: %v", err)
	}

	if len(updated.Milestones) != 2 {
		t.Fatalf("Expected 2 milestones after replace, got %d", len(updated.Milestones))
	}
	if updated.Milestones[0].Name != "Exposure triangle" {
		t.Errorf("Expected milestones in sort order, got %q first", updated.Milestones[0].Name)
	}
	if len(updated.Resources) != 1 {
		t.Errorf("Expected 1 resource, got %d", len(updated.Resources))
	}
	if updated.Progress != 0 {
		t.Errorf("Expected fresh roadmap progress 0, got %.2f", updated.Progress)
	}
}
