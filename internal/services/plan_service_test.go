package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"momentum/internal/models"
)

func TestGetPlanForDate_NewestIsCanonical(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	plans := NewPlanService(db)
	ctx := context.Background()

	first, err := plans.SavePlan(ctx, userID, "2026-08-20", models.PlanSourceManual,
		&models.PlanPayload{Summary: "Morning plan"})
	if err != nil {
		t.Fatalf("SavePlan failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // distinct created_at

	second, err := plans.SavePlan(ctx, userID, "2026-08-20", models.PlanSourceRebalance,
		&models.PlanPayload{Summary: "Rebalanced plan"})
	if err != nil {
		t.Fatalf("SavePlan failed: %v", err)
	}

	got, err := plans.GetPlanForDate(ctx, userID, "2026-08-20")
	if err != nil {
		t.Fatalf("GetPlanForDate failed: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("Expected newest plan %s to be canonical, got %s", second.ID, got.ID)
	}
	if got.ID == first.ID {
		t.Error("Superseded plan returned as canonical")
	}
	if got.Source != models.PlanSourceRebalance {
		t.Errorf("Expected source rebalance, got %q", got.Source)
	}
}

func TestGetPlanForDate_NotFound(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	plans := NewPlanService(db)

	if _, err := plans.GetPlanForDate(context.Background(), userID, "2026-08-21"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a day with no plan, got %v", err)
	}
}

func TestSavePlan_RejectsBadDate(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	plans := NewPlanService(db)

	if _, err := plans.SavePlan(context.Background(), userID, "21/08/2026", "",
		&models.PlanPayload{Summary: "x"}); err == nil {
		t.Error("Expected error for malformed date")
	}
}

func TestListRecentPlans_OnePerDay(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	plans := NewPlanService(db)
	ctx := context.Background()

	saves := []struct {
		date    string
		summary string
	}{
		{"2026-08-18", "Monday"},
		{"2026-08-19", "Tuesday v1"},
		{"2026-08-19", "Tuesday v2"},
		{"2026-08-20", "Wednesday"},
	}
	for _, s := range saves {
		if _, err := plans.SavePlan(ctx, userID, s.date, "", &models.PlanPayload{Summary: s.summary}); err != nil {
			t.Fatalf("SavePlan(%s) failed: %v", s.summary, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	recent, err := plans.ListRecentPlans(ctx, userID, 7)
	if err != nil {
		t.Fatalf("ListRecentPlans failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 canonical plans, got %d", len(recent))
	}
	if recent[0].Date != "2026-08-20" {
		t.Errorf("Expected newest day first, got %s", recent[0].Date)
	}
	if recent[1].Summary != "Tuesday v2" {
		t.Errorf("Expected newest plan of the day, got %q", recent[1].Summary)
	}
}

func TestDeleteOldPlans(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	plans := NewPlanService(db)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -45).Format("2006-01-02")
	recent := time.Now().UTC().Format("2006-01-02")
	for _, date := range []string{old, recent} {
		if _, err := plans.SavePlan(ctx, userID, date, "", &models.PlanPayload{Summary: date}); err != nil {
			t.Fatalf("SavePlan failed: %v", err)
		}
	}

	deleted, err := plans.DeleteOldPlans(ctx, 30)
	if err != nil {
		t.Fatalf("DeleteOldPlans failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted plan, got %d", deleted)
	}

	if _, err := plans.GetPlanForDate(ctx, userID, recent); err != nil {
		t.Errorf("Expected recent plan to survive retention: %v", err)
	}
}
