package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// SchedulerService runs the recurring maintenance jobs (plan retention,
// streak refresh, vector store convergence). A Redis lock keyed to the
// execution window keeps multi-instance deployments from running the same
// job twice; without Redis every instance runs everything.
type SchedulerService struct {
	scheduler  gocron.Scheduler
	redis      *RedisService
	instanceID string
	mu         sync.Mutex
	jobs       map[string]gocron.Job
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(redis *RedisService) (*SchedulerService, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &SchedulerService{
		scheduler:  scheduler,
		redis:      redis,
		instanceID: uuid.NewString(),
		jobs:       make(map[string]gocron.Job),
	}, nil
}

// RegisterCron registers a named job on a standard 5-field cron expression
func (s *SchedulerService) RegisterCron(name, cronExpr string, task func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q for job %s: %w", cronExpr, name, err)
	}

	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			s.runLocked(name, task)
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}

	s.jobs[name] = job
	log.Printf("📅 Registered job %s (cron: %s)", name, cronExpr)
	return nil
}

// runLocked executes a job under a per-window instance lock
func (s *SchedulerService) runLocked(name string, task func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if s.redis != nil {
		// Minute-level window so restarts can't double-run within it
		lockKey := fmt.Sprintf("job-lock:%s:%d", name, time.Now().Unix()/60)

		acquired, err := s.redis.AcquireLock(ctx, lockKey, s.instanceID, 10*time.Minute)
		if err != nil {
			log.Printf("❌ Failed to acquire lock for job %s: %v", name, err)
			return
		}
		if !acquired {
			log.Printf("⏭️  Job %s already running on another instance", name)
			return
		}
		defer func() {
			if _, err := s.redis.ReleaseLock(context.Background(), lockKey, s.instanceID); err != nil {
				log.Printf("⚠️  Failed to release lock for job %s: %v", name, err)
			}
		}()
	}

	log.Printf("▶️  Running job: %s", name)
	start := time.Now()

	if err := task(ctx); err != nil {
		log.Printf("❌ Job %s failed: %v", name, err)
		return
	}

	log.Printf("✅ Job %s completed in %v", name, time.Since(start))
}

// Start begins running registered jobs
func (s *SchedulerService) Start() {
	s.scheduler.Start()
	log.Printf("⏰ Scheduler started with %d jobs", len(s.jobs))
}

// Stop shuts the scheduler down, waiting for running jobs
func (s *SchedulerService) Stop() error {
	log.Println("⏹️  Stopping scheduler...")
	return s.scheduler.Shutdown()
}
