package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"momentum/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

// Section caps keep the assembled context inside the AI service's prompt
// budget. Sections are independent: one failing section is omitted, never
// fatal.
const (
	contextMaxCourses   = 10
	contextMaxSkills    = 10
	contextMaxFinances  = 20
	contextMaxJournals  = 3
	contextMaxLifestyle = 5
	contextMaxHabits    = 10
	contextMaxPlans     = 3

	contextCacheTTL = 5 * time.Minute
)

// ContextBuilder assembles the user snapshot that accompanies every chat and
// planning request. Assembled snapshots are cached briefly and invalidated
// whenever a dispatched action changes the user's data.
type ContextBuilder struct {
	users     *UserService
	courses   *CourseService
	tasks     *TaskService
	skills    *SkillService
	finances  *FinanceService
	journals  *JournalService
	lifestyle *LifestyleService
	plans     *PlanService
	cache     *gocache.Cache
}

// NewContextBuilder creates a new context builder
func NewContextBuilder(users *UserService, courses *CourseService, tasks *TaskService, skills *SkillService, finances *FinanceService, journals *JournalService, lifestyle *LifestyleService, plans *PlanService) *ContextBuilder {
	return &ContextBuilder{
		users:     users,
		courses:   courses,
		tasks:     tasks,
		skills:    skills,
		finances:  finances,
		journals:  journals,
		lifestyle: lifestyle,
		plans:     plans,
		cache:     gocache.New(contextCacheTTL, 10*time.Minute),
	}
}

// Invalidate drops the cached snapshot for a user
func (b *ContextBuilder) Invalidate(userID string) {
	b.cache.Delete(userID)
}

// Build assembles the context snapshot for a user. Section order is fixed:
// education, courses, skills, finances, journals, lifestyle, habits, recent
// plans, free-text notes.
func (b *ContextBuilder) Build(ctx context.Context, userID string) (string, error) {
	if cached, found := b.cache.Get(userID); found {
		return cached.(string), nil
	}

	user, err := b.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	b.writeEducation(&sb, user)
	b.writeCourses(ctx, &sb, userID)
	b.writeSkills(ctx, &sb, userID)
	b.writeFinances(ctx, &sb, userID)
	b.writeJournals(ctx, &sb, userID)
	b.writeLifestyle(ctx, &sb, userID)
	b.writeHabits(ctx, &sb, userID)
	b.writePlans(ctx, &sb, userID)

	if notes := strings.TrimSpace(user.UnstructuredContext); notes != "" {
		sb.WriteString("## Notes\n")
		sb.WriteString(notes)
		sb.WriteString("\n")
	}

	snapshot := sb.String()
	b.cache.Set(userID, snapshot, contextCacheTTL)
	return snapshot, nil
}

func (b *ContextBuilder) writeEducation(sb *strings.Builder, user *models.User) {
	sb.WriteString("## Student\n")
	if name := user.FullName(); name != "" {
		fmt.Fprintf(sb, "Name: %s\n", name)
	}
	if user.EducationLevel != "" {
		fmt.Fprintf(sb, "Level: %s", user.EducationLevel)
		if user.StudyGroup != "" {
			fmt.Fprintf(sb, " (%s)", user.StudyGroup)
		}
		sb.WriteString("\n")
	}
	if user.Institution != "" {
		fmt.Fprintf(sb, "Institution: %s\n", user.Institution)
	}
	if user.Major != "" {
		fmt.Fprintf(sb, "Major: %s", user.Major)
		if user.Year > 0 {
			fmt.Fprintf(sb, ", year %d", user.Year)
		}
		sb.WriteString("\n")
	}
}

func (b *ContextBuilder) writeCourses(ctx context.Context, sb *strings.Builder, userID string) {
	courses, err := b.courses.ListCourses(ctx, userID)
	if err != nil {
		log.Printf("⚠️  Context: courses section failed for %s: %v", userID, err)
		return
	}
	if len(courses) == 0 {
		return
	}
	if len(courses) > contextMaxCourses {
		courses = courses[:contextMaxCourses]
	}

	sb.WriteString("## Courses\n")
	for _, c := range courses {
		fmt.Fprintf(sb, "- %s", c.Name)
		if c.Code != "" {
			fmt.Fprintf(sb, " (%s)", c.Code)
		}
		fmt.Fprintf(sb, ": %s, attendance %.0f%%\n", c.Status, c.Attendance)

		tasks, err := b.tasks.ListAssignments(ctx, userID, c.ID, models.StatusPending)
		if err != nil {
			continue
		}
		for i, t := range tasks {
			if i >= 3 {
				break
			}
			fmt.Fprintf(sb, "  - due: %s", t.Title)
			if t.DueDate != nil {
				fmt.Fprintf(sb, " (%s)", t.DueDate.Format("2006-01-02"))
			}
			sb.WriteString("\n")
		}
	}
}

func (b *ContextBuilder) writeSkills(ctx context.Context, sb *strings.Builder, userID string) {
	skills, err := b.skills.ListSkills(ctx, userID)
	if err != nil {
		log.Printf("⚠️  Context: skills section failed for %s: %v", userID, err)
		return
	}
	if len(skills) == 0 {
		return
	}
	if len(skills) > contextMaxSkills {
		skills = skills[:contextMaxSkills]
	}

	sb.WriteString("## Skills\n")
	for _, sk := range skills {
		fmt.Fprintf(sb, "- %s (%s, %s): %.0f%% done, %d milestones\n",
			sk.Name, sk.Category, sk.Level, sk.Progress, len(sk.Milestones))
	}
}

func (b *ContextBuilder) writeFinances(ctx context.Context, sb *strings.Builder, userID string) {
	month := time.Now().UTC().Format("2006-01")
	entries, err := b.finances.ListEntries(ctx, userID, month)
	if err != nil {
		log.Printf("⚠️  Context: finances section failed for %s: %v", userID, err)
		return
	}
	if len(entries) == 0 {
		return
	}
	if len(entries) > contextMaxFinances {
		entries = entries[:contextMaxFinances]
	}

	sb.WriteString("## Finances (this month)\n")
	for _, e := range entries {
		fmt.Fprintf(sb, "- %s %s: %.2f", e.Date, e.Type, e.Amount)
		if e.Category != "" {
			fmt.Fprintf(sb, " (%s)", e.Category)
		}
		sb.WriteString("\n")
	}
	if budget, err := b.finances.GetBudget(ctx, userID, month); err == nil {
		fmt.Fprintf(sb, "Budget: %.2f\n", budget.Amount)
	}
}

func (b *ContextBuilder) writeJournals(ctx context.Context, sb *strings.Builder, userID string) {
	entries, err := b.journals.ListEntries(ctx, userID, contextMaxJournals)
	if err != nil {
		log.Printf("⚠️  Context: journals section failed for %s: %v", userID, err)
		return
	}
	if len(entries) == 0 {
		return
	}

	sb.WriteString("## Recent journal\n")
	for _, e := range entries {
		fmt.Fprintf(sb, "- %s", e.Date)
		if e.Mood != "" {
			fmt.Fprintf(sb, " [%s]", e.Mood)
		}
		content := truncateRunes(e.Content, 200)
		if content != e.Content {
			content += "…"
		}
		fmt.Fprintf(sb, ": %s\n", strings.ReplaceAll(content, "\n", " "))
	}
}

func (b *ContextBuilder) writeLifestyle(ctx context.Context, sb *strings.Builder, userID string) {
	entries, err := b.lifestyle.ListEntries(ctx, userID, contextMaxLifestyle)
	if err != nil {
		log.Printf("⚠️  Context: lifestyle section failed for %s: %v", userID, err)
		return
	}
	if len(entries) == 0 {
		return
	}

	sb.WriteString("## Lifestyle\n")
	for _, e := range entries {
		fmt.Fprintf(sb, "- %s: sleep %.1fh", e.Date, e.SleepHours)
		if e.Exercise != "" {
			fmt.Fprintf(sb, ", exercise: %s", e.Exercise)
		}
		sb.WriteString("\n")
	}
}

func (b *ContextBuilder) writeHabits(ctx context.Context, sb *strings.Builder, userID string) {
	habits, err := b.lifestyle.ListHabits(ctx, userID)
	if err != nil {
		log.Printf("⚠️  Context: habits section failed for %s: %v", userID, err)
		return
	}
	if len(habits) == 0 {
		return
	}
	if len(habits) > contextMaxHabits {
		habits = habits[:contextMaxHabits]
	}

	sb.WriteString("## Habits\n")
	for _, h := range habits {
		fmt.Fprintf(sb, "- %s (%s): streak %d", h.Name, h.Frequency, h.Streak)
		if h.CompletedToday {
			sb.WriteString(", done today")
		}
		sb.WriteString("\n")
	}
}

// truncateRunes cuts s to at most n runes, never splitting a multi-byte
// character the way a byte slice would.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func (b *ContextBuilder) writePlans(ctx context.Context, sb *strings.Builder, userID string) {
	plans, err := b.plans.ListRecentPlans(ctx, userID, contextMaxPlans)
	if err != nil {
		log.Printf("⚠️  Context: plans section failed for %s: %v", userID, err)
		return
	}
	if len(plans) == 0 {
		return
	}

	sb.WriteString("## Recent plans\n")
	for _, p := range plans {
		summary := truncateRunes(p.Summary, 200)
		if summary != p.Summary {
			summary += "…"
		}
		fmt.Fprintf(sb, "- %s (%s): %s\n", p.Date, p.Source, summary)
	}
}
