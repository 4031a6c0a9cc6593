package jobs

import (
	"context"
	"log"

	"momentum/internal/services"
)

// PlanCleanupJob removes daily plans older than the retention window
type PlanCleanupJob struct {
	plans         *services.PlanService
	retentionDays int
}

// NewPlanCleanupJob creates a new plan cleanup job
func NewPlanCleanupJob(plans *services.PlanService, retentionDays int) *PlanCleanupJob {
	return &PlanCleanupJob{plans: plans, retentionDays: retentionDays}
}

// Run deletes expired plans
func (j *PlanCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.plans.DeleteOldPlans(ctx, j.retentionDays)
	if err != nil {
		return err
	}
	log.Printf("🧹 [PLAN-CLEANUP] Removed %d expired plans", deleted)
	return nil
}
