package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"momentum/internal/models"
)

// OnboardingService drives the staged onboarding conversation and, on
// completion, applies the extracted profile facts to the user's records.
type OnboardingService struct {
	ai       *AIClient
	users    *UserService
	courses  *CourseService
	skills   *SkillService
	finances *FinanceService
	memory   *MemoryService
	vector   *VectorClient
	builder  *ContextBuilder
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(ai *AIClient, users *UserService, courses *CourseService, skills *SkillService, finances *FinanceService, memory *MemoryService, vector *VectorClient, builder *ContextBuilder) *OnboardingService {
	return &OnboardingService{
		ai:       ai,
		users:    users,
		courses:  courses,
		skills:   skills,
		finances: finances,
		memory:   memory,
		vector:   vector,
		builder:  builder,
	}
}

// Start begins onboarding and returns the first question
func (s *OnboardingService) Start(ctx context.Context, userID string) (*models.OnboardingResponse, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Onboarded {
		return nil, fmt.Errorf("user already onboarded")
	}
	return s.ai.StartOnboarding(ctx, userID)
}

// Answer submits one onboarding answer. When the AI marks the conversation
// complete, the extracted facts are written to the user's records before the
// response is returned.
func (s *OnboardingService) Answer(ctx context.Context, userID string, req *models.OnboardingAnswerRequest) (*models.OnboardingResponse, error) {
	if req.Answer == "" {
		return nil, fmt.Errorf("answer %w", ErrValidation)
	}
	req.UserID = userID

	resp, err := s.ai.AnswerOnboarding(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.Completed && len(resp.StructuredData) > 0 {
		var data models.OnboardingData
		if err := json.Unmarshal(resp.StructuredData, &data); err != nil {
			return nil, fmt.Errorf("failed to parse onboarding data: %w", err)
		}
		if err := s.apply(ctx, userID, &data); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// apply writes the extracted facts. Profile and record writes must succeed;
// the vector push is best-effort and converges via the nightly re-ingest.
func (s *OnboardingService) apply(ctx context.Context, userID string, data *models.OnboardingData) error {
	onboarded := true
	upd := UserUpdate{Onboarded: &onboarded}
	if data.Education.Level != "" {
		upd.EducationLevel = &data.Education.Level
	}
	if data.Education.Institution != "" {
		upd.Institution = &data.Education.Institution
	}
	if data.Education.Major != "" {
		upd.Major = &data.Education.Major
	}
	if data.Education.Year > 0 {
		upd.Year = &data.Education.Year
	}
	if data.Education.StudyGroup != "" {
		upd.StudyGroup = &data.Education.StudyGroup
	}
	if _, err := s.users.UpdateUser(ctx, userID, upd); err != nil {
		return fmt.Errorf("failed to apply profile: %w", err)
	}

	for _, c := range data.Courses {
		if c.Name == "" {
			continue
		}
		_, err := s.courses.CreateCourse(ctx, userID, &models.Course{
			Name:    c.Name,
			Code:    c.Code,
			Credits: c.Credits,
		})
		if err != nil {
			log.Printf("⚠️  Onboarding: failed to create course %q for %s: %v", c.Name, userID, err)
		}
	}

	for _, sk := range data.Skills {
		if sk.Name == "" {
			continue
		}
		_, _, err := s.skills.CreateSkill(ctx, userID, &models.Skill{
			Name:     sk.Name,
			Category: sk.Category,
			Level:    sk.Level,
		})
		if err != nil {
			log.Printf("⚠️  Onboarding: failed to create skill %q for %s: %v", sk.Name, userID, err)
		}
	}

	month := time.Now().UTC().Format("2006-01")
	if data.Finances.MonthlyBudget > 0 {
		if _, err := s.finances.SetBudget(ctx, userID, month, data.Finances.MonthlyBudget); err != nil {
			log.Printf("⚠️  Onboarding: failed to set budget for %s: %v", userID, err)
		}
	}
	if data.Finances.Income > 0 {
		_, err := s.finances.CreateEntry(ctx, userID, &models.Finance{
			Type:     models.FinanceIncome,
			Amount:   data.Finances.Income,
			Category: "allowance",
			Note:     "Monthly income from onboarding",
			Date:     time.Now().UTC().Format("2006-01-02"),
		})
		if err != nil {
			log.Printf("⚠️  Onboarding: failed to record income for %s: %v", userID, err)
		}
	}

	if data.FreeText != "" {
		if err := s.users.AppendContext(ctx, userID, data.FreeText); err != nil {
			log.Printf("⚠️  Onboarding: failed to append context for %s: %v", userID, err)
		}
	}

	s.builder.Invalidate(userID)
	s.ingestProfile(ctx, userID)

	log.Printf("✅ Onboarding completed for user %s (%d courses, %d skills)", userID, len(data.Courses), len(data.Skills))
	return nil
}

// ingestProfile pushes the freshly assembled context into the vector store
func (s *OnboardingService) ingestProfile(ctx context.Context, userID string) {
	snapshot, err := s.builder.Build(ctx, userID)
	if err != nil {
		log.Printf("⚠️  Onboarding: failed to assemble context for %s: %v", userID, err)
		return
	}

	docID := fmt.Sprintf("context_%s", userID)
	err = s.vector.Ingest(ctx, &IngestRequest{
		UserID:   userID,
		DocID:    docID,
		Text:     snapshot,
		Metadata: map[string]interface{}{"source": "onboarding"},
	})
	if err != nil {
		log.Printf("⚠️  Onboarding: vector ingest failed for %s: %v", userID, err)
		return
	}

	if _, err := s.memory.RecordIngest(ctx, userID, docID, models.MemoryTypeContext, map[string]interface{}{"source": "onboarding"}); err != nil {
		log.Printf("⚠️  Onboarding: failed to record ingest for %s: %v", userID, err)
	}
}
