package jobs

import (
	"context"
	"log"

	"momentum/internal/services"
)

// StreakRefreshJob recounts habit streaks shortly after midnight so a missed
// day resets the streak without waiting for the next toggle.
type StreakRefreshJob struct {
	lifestyle *services.LifestyleService
}

// NewStreakRefreshJob creates a new streak refresh job
func NewStreakRefreshJob(lifestyle *services.LifestyleService) *StreakRefreshJob {
	return &StreakRefreshJob{lifestyle: lifestyle}
}

// Run refreshes streaks for every user with habits
func (j *StreakRefreshJob) Run(ctx context.Context) error {
	userIDs, err := j.lifestyle.AllUserIDsWithHabits(ctx)
	if err != nil {
		return err
	}

	refreshed := 0
	for _, userID := range userIDs {
		if err := j.lifestyle.RefreshStreaks(ctx, userID); err != nil {
			log.Printf("⚠️  [STREAK-REFRESH] Failed for user %s: %v", userID, err)
			continue
		}
		refreshed++
	}

	log.Printf("🔥 [STREAK-REFRESH] Refreshed streaks for %d users", refreshed)
	return nil
}
