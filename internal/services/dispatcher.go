package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"momentum/internal/models"
)

// actionTimeout bounds a single action, including multi-statement groups
// like a skill created together with its roadmap.
const actionTimeout = 30 * time.Second

// Dispatcher applies the structured actions the AI service emits alongside
// chat replies. The action vocabulary is closed: unknown types are rejected,
// never guessed at. Actions are isolated from each other, so one failure
// never aborts its siblings, and the batch itself always succeeds.
type Dispatcher struct {
	users     *UserService
	courses   *CourseService
	tasks     *TaskService
	skills    *SkillService
	finances  *FinanceService
	journals  *JournalService
	lifestyle *LifestyleService
	builder   *ContextBuilder
}

// NewDispatcher creates a new action dispatcher
func NewDispatcher(users *UserService, courses *CourseService, tasks *TaskService, skills *SkillService, finances *FinanceService, journals *JournalService, lifestyle *LifestyleService, builder *ContextBuilder) *Dispatcher {
	return &Dispatcher{
		users:     users,
		courses:   courses,
		tasks:     tasks,
		skills:    skills,
		finances:  finances,
		journals:  journals,
		lifestyle: lifestyle,
		builder:   builder,
	}
}

// Dispatch applies a batch of actions for one user. Every action gets a
// result; the context snapshot is invalidated when at least one action
// succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, actions []models.ChatAction) []models.ActionResult {
	results := make([]models.ActionResult, 0, len(actions))
	anySucceeded := false

	for i, action := range actions {
		actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
		entity, err := d.apply(actionCtx, userID, action)
		cancel()

		result := models.ActionResult{Type: action.Type, Success: err == nil}
		if err != nil {
			result.Error = err.Error()
			log.Printf("❌ Action %d (%s) failed for user %s: %v", i, action.Type, userID, err)
		} else {
			result.Entity = entity
			anySucceeded = true
			// add_skill reports as update_skill when it merged into an
			// existing skill
			if tagged, ok := entity.(taggedEntity); ok {
				result.Type = tagged.actionType
				result.Entity = tagged.entity
			}
		}
		results = append(results, result)
	}

	if anySucceeded && d.builder != nil {
		d.builder.Invalidate(userID)
	}
	return results
}

type taggedEntity struct {
	actionType string
	entity     interface{}
}

func (d *Dispatcher) apply(ctx context.Context, userID string, action models.ChatAction) (interface{}, error) {
	switch action.Type {
	case "update_user":
		return d.applyUpdateUser(ctx, userID, action.Data)
	case "add_course":
		return d.applyAddCourse(ctx, userID, action.Data)
	case "update_course":
		return d.applyUpdateCourse(ctx, userID, action.Data)
	case "delete_course":
		return d.applyDeleteCourse(ctx, userID, action.Data)
	case "add_schedule":
		return d.applyAddSchedule(ctx, userID, action.Data)
	case "mark_attendance":
		return d.applyMarkAttendance(ctx, userID, action.Data)
	case "add_assignment":
		return d.applyAddAssignment(ctx, userID, action.Data)
	case "update_assignment":
		return d.applyUpdateAssignment(ctx, userID, action.Data)
	case "delete_assignment":
		return d.applyDeleteAssignment(ctx, userID, action.Data)
	case "add_exam":
		return d.applyAddExam(ctx, userID, action.Data)
	case "add_skill":
		return d.applyAddSkill(ctx, userID, action.Data)
	case "update_skill":
		return d.applyUpdateSkill(ctx, userID, action.Data)
	case "delete_skill":
		return d.applyDeleteSkill(ctx, userID, action.Data)
	case "add_milestone":
		return d.applyAddMilestone(ctx, userID, action.Data)
	case "update_milestone":
		return d.applyUpdateMilestone(ctx, userID, action.Data)
	case "toggle_milestone":
		return d.applyToggleMilestone(ctx, userID, action.Data)
	case "add_resource":
		return d.applyAddResource(ctx, userID, action.Data)
	case "add_expense":
		return d.applyAddFinance(ctx, userID, action.Data, models.FinanceExpense)
	case "add_income":
		return d.applyAddFinance(ctx, userID, action.Data, models.FinanceIncome)
	case "update_finance":
		return d.applyUpdateFinance(ctx, userID, action.Data)
	case "delete_finance":
		return d.applyDeleteFinance(ctx, userID, action.Data)
	case "add_savings_goal":
		return d.applyAddSavingsGoal(ctx, userID, action.Data)
	case "add_journal":
		return d.applyAddJournal(ctx, userID, action.Data)
	case "add_lifestyle":
		return d.applyAddLifestyle(ctx, userID, action.Data)
	case "add_habit":
		return d.applyAddHabit(ctx, userID, action.Data)
	case "toggle_habit":
		return d.applyToggleHabit(ctx, userID, action.Data)
	case "delete_habit":
		return d.applyDeleteHabit(ctx, userID, action.Data)
	default:
		return nil, fmt.Errorf("unknown action type %q", action.Type)
	}
}

func decode(data json.RawMessage, out interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("action data is empty")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid action data: %w", err)
	}
	return nil
}

// resolveCourse finds a course by ID, or by case-insensitive substring match
// on name when no ID is given. The first match in creation order wins.
func (d *Dispatcher) resolveCourse(ctx context.Context, userID, id, name string) (*models.Course, error) {
	if id != "" {
		return d.courses.GetCourse(ctx, userID, id)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("course reference is required")
	}

	courses, err := d.courses.ListCourses(ctx, userID)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	// ListCourses is newest-first; match in creation order
	for i := len(courses) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(courses[i].Name), needle) {
			return courses[i], nil
		}
	}
	return nil, fmt.Errorf("course %q %w", name, ErrNotFound)
}

func (d *Dispatcher) resolveSkill(ctx context.Context, userID, id, name string) (*models.Skill, error) {
	if id != "" {
		return d.skills.GetSkill(ctx, userID, id)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("skill reference is required")
	}
	return d.skills.FindSkillByName(ctx, userID, name)
}

func (d *Dispatcher) resolveMilestone(ctx context.Context, userID, id, skillRef, name string) (*models.Milestone, error) {
	if id != "" {
		skill, err := d.resolveSkillOfMilestone(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		for i := range skill.Milestones {
			if skill.Milestones[i].ID == id {
				return &skill.Milestones[i], nil
			}
		}
		return nil, fmt.Errorf("milestone %w", ErrNotFound)
	}

	skill, err := d.resolveSkill(ctx, userID, "", skillRef)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	for i := range skill.Milestones {
		if strings.Contains(strings.ToLower(skill.Milestones[i].Name), needle) {
			return &skill.Milestones[i], nil
		}
	}
	return nil, fmt.Errorf("milestone %q %w", name, ErrNotFound)
}

func (d *Dispatcher) resolveSkillOfMilestone(ctx context.Context, userID, milestoneID string) (*models.Skill, error) {
	skills, err := d.skills.ListSkills(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, sk := range skills {
		for i := range sk.Milestones {
			if sk.Milestones[i].ID == milestoneID {
				return sk, nil
			}
		}
	}
	return nil, fmt.Errorf("milestone %w", ErrNotFound)
}

func (d *Dispatcher) resolveHabit(ctx context.Context, userID, id, name string) (*models.Habit, error) {
	habits, err := d.lifestyle.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	if id != "" {
		for _, h := range habits {
			if h.ID == id {
				return h, nil
			}
		}
		return nil, fmt.Errorf("habit %w", ErrNotFound)
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, fmt.Errorf("habit reference is required")
	}
	for _, h := range habits {
		if strings.Contains(strings.ToLower(h.Name), needle) {
			return h, nil
		}
	}
	return nil, fmt.Errorf("habit %q %w", name, ErrNotFound)
}

func (d *Dispatcher) resolveAssignment(ctx context.Context, userID, id, title string) (*models.Assignment, error) {
	if id != "" {
		return d.tasks.GetAssignment(ctx, userID, id)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("assignment reference is required")
	}

	assignments, err := d.tasks.ListAssignments(ctx, userID, "", "")
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(title))
	for _, a := range assignments {
		if strings.Contains(strings.ToLower(a.Title), needle) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("assignment %q %w", title, ErrNotFound)
}

func (d *Dispatcher) applyUpdateUser(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var upd UserUpdate
	if err := decode(data, &upd); err != nil {
		return nil, err
	}
	return d.users.UpdateUser(ctx, userID, upd)
}

func (d *Dispatcher) applyAddCourse(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var course models.Course
	if err := decode(data, &course); err != nil {
		return nil, err
	}
	return d.courses.CreateCourse(ctx, userID, &course)
}

func (d *Dispatcher) applyUpdateCourse(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		CourseUpdate
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	course, err := d.resolveCourse(ctx, userID, payload.ID, payload.Name)
	if err != nil {
		return nil, err
	}
	// The name field identified the course; it is not a rename
	payload.CourseUpdate.Name = nil
	return d.courses.UpdateCourse(ctx, userID, course.ID, payload.CourseUpdate)
}

func (d *Dispatcher) applyDeleteCourse(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	course, err := d.resolveCourse(ctx, userID, payload.ID, payload.Name)
	if err != nil {
		return nil, err
	}
	if err := d.courses.DeleteCourse(ctx, userID, course.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": course.ID, "name": course.Name}, nil
}

func (d *Dispatcher) applyAddSchedule(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		CourseID   string `json:"course_id"`
		CourseName string `json:"course_name"`
		models.ClassSchedule
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	course, err := d.resolveCourse(ctx, userID, payload.CourseID, payload.CourseName)
	if err != nil {
		return nil, err
	}
	payload.ClassSchedule.CourseID = course.ID
	return d.courses.AddSchedule(ctx, userID, &payload.ClassSchedule)
}

func (d *Dispatcher) applyMarkAttendance(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ScheduleID string `json:"schedule_id"`
		CourseID   string `json:"course_id"`
		CourseName string `json:"course_name"`
		Date       string `json:"date"`
		Status     string `json:"status"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	scheduleID := payload.ScheduleID
	if scheduleID == "" {
		// Resolve by course and day of week of the given date
		course, err := d.resolveCourse(ctx, userID, payload.CourseID, payload.CourseName)
		if err != nil {
			return nil, err
		}
		date := payload.Date
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", payload.Date)
		}
		schedules, err := d.courses.ListSchedules(ctx, userID, course.ID)
		if err != nil {
			return nil, err
		}
		for _, sc := range schedules {
			if sc.DayOfWeek == int(day.Weekday()) {
				scheduleID = sc.ID
				break
			}
		}
		if scheduleID == "" {
			return nil, fmt.Errorf("no class scheduled for %s on %s", course.Name, date)
		}
		payload.Date = date
	}

	record := &models.AttendanceRecord{
		ScheduleID: scheduleID,
		Date:       payload.Date,
		Status:     payload.Status,
	}
	if record.Date == "" {
		record.Date = time.Now().UTC().Format("2006-01-02")
	}
	return d.courses.MarkAttendance(ctx, userID, record)
}

func (d *Dispatcher) applyAddAssignment(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		CourseName string `json:"course_name"`
		DueDate    string `json:"due_date"`
		models.Assignment
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	a := payload.Assignment
	if a.CourseID == "" && payload.CourseName != "" {
		course, err := d.resolveCourse(ctx, userID, "", payload.CourseName)
		if err != nil {
			return nil, err
		}
		a.CourseID = course.ID
	}
	if payload.DueDate != "" && a.DueDate == nil {
		due, err := parseDueDate(payload.DueDate)
		if err != nil {
			return nil, err
		}
		a.DueDate = due
	}
	a.AIGenerated = true
	return d.tasks.CreateAssignment(ctx, userID, &a)
}

func (d *Dispatcher) applyUpdateAssignment(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		DueDate string `json:"due_date"`
		AssignmentUpdate
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	a, err := d.resolveAssignment(ctx, userID, payload.ID, payload.Title)
	if err != nil {
		return nil, err
	}
	payload.AssignmentUpdate.Title = nil
	if payload.DueDate != "" && payload.AssignmentUpdate.DueDate == nil {
		due, err := parseDueDate(payload.DueDate)
		if err != nil {
			return nil, err
		}
		payload.AssignmentUpdate.DueDate = due
	}
	return d.tasks.UpdateAssignment(ctx, userID, a.ID, payload.AssignmentUpdate)
}

func (d *Dispatcher) applyDeleteAssignment(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	a, err := d.resolveAssignment(ctx, userID, payload.ID, payload.Title)
	if err != nil {
		return nil, err
	}
	if err := d.tasks.DeleteAssignment(ctx, userID, a.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": a.ID, "title": a.Title}, nil
}

func (d *Dispatcher) applyAddExam(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		CourseName string `json:"course_name"`
		Date       string `json:"date"`
		models.Exam
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	e := payload.Exam
	if e.CourseID == "" && payload.CourseName != "" {
		course, err := d.resolveCourse(ctx, userID, "", payload.CourseName)
		if err != nil {
			return nil, err
		}
		e.CourseID = course.ID
	}
	if payload.Date != "" && e.Date == nil {
		date, err := parseDueDate(payload.Date)
		if err != nil {
			return nil, err
		}
		e.Date = date
	}
	return d.tasks.CreateExam(ctx, userID, &e)
}

func (d *Dispatcher) applyAddSkill(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var skill models.Skill
	if err := decode(data, &skill); err != nil {
		return nil, err
	}

	created, merged, err := d.skills.CreateSkill(ctx, userID, &skill)
	if err != nil {
		return nil, err
	}
	if merged {
		return taggedEntity{actionType: "update_skill", entity: created}, nil
	}
	return created, nil
}

func (d *Dispatcher) applyUpdateSkill(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		SkillUpdate
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	skill, err := d.resolveSkill(ctx, userID, payload.ID, payload.Name)
	if err != nil {
		return nil, err
	}
	payload.SkillUpdate.Name = nil
	return d.skills.UpdateSkill(ctx, userID, skill.ID, payload.SkillUpdate)
}

func (d *Dispatcher) applyDeleteSkill(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	skill, err := d.resolveSkill(ctx, userID, payload.ID, payload.Name)
	if err != nil {
		return nil, err
	}
	if err := d.skills.DeleteSkill(ctx, userID, skill.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": skill.ID, "name": skill.Name}, nil
}

func (d *Dispatcher) applyAddMilestone(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		SkillID   string `json:"skill_id"`
		SkillName string `json:"skill_name"`
		models.Milestone
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	skill, err := d.resolveSkill(ctx, userID, payload.SkillID, payload.SkillName)
	if err != nil {
		return nil, err
	}
	m := payload.Milestone
	m.SkillID = skill.ID
	return d.skills.AddMilestone(ctx, userID, &m)
}

func (d *Dispatcher) applyUpdateMilestone(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID        string `json:"id"`
		SkillName string `json:"skill_name"`
		Name      string `json:"name"`
		MilestoneUpdate
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	m, err := d.resolveMilestone(ctx, userID, payload.ID, payload.SkillName, payload.Name)
	if err != nil {
		return nil, err
	}
	payload.MilestoneUpdate.Name = nil
	return d.skills.UpdateMilestone(ctx, userID, m.ID, payload.MilestoneUpdate)
}

func (d *Dispatcher) applyToggleMilestone(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID        string `json:"id"`
		SkillName string `json:"skill_name"`
		Name      string `json:"name"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	m, err := d.resolveMilestone(ctx, userID, payload.ID, payload.SkillName, payload.Name)
	if err != nil {
		return nil, err
	}
	return d.skills.ToggleMilestone(ctx, userID, m.ID)
}

func (d *Dispatcher) applyAddResource(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		SkillID   string `json:"skill_id"`
		SkillName string `json:"skill_name"`
		models.LearningResource
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	skill, err := d.resolveSkill(ctx, userID, payload.SkillID, payload.SkillName)
	if err != nil {
		return nil, err
	}
	r := payload.LearningResource
	r.SkillID = skill.ID
	return d.skills.AddResource(ctx, userID, &r)
}

func (d *Dispatcher) applyAddFinance(ctx context.Context, userID string, data json.RawMessage, financeType string) (interface{}, error) {
	var f models.Finance
	if err := decode(data, &f); err != nil {
		return nil, err
	}
	f.Type = financeType
	return d.finances.CreateEntry(ctx, userID, &f)
}

func (d *Dispatcher) applyUpdateFinance(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID string `json:"id"`
		FinanceUpdate
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("finance entry ID is required")
	}
	return d.finances.UpdateEntry(ctx, userID, payload.ID, payload.FinanceUpdate)
}

func (d *Dispatcher) applyDeleteFinance(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("finance entry ID is required")
	}
	if err := d.finances.DeleteEntry(ctx, userID, payload.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": payload.ID}, nil
}

func (d *Dispatcher) applyAddSavingsGoal(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var g models.SavingsGoal
	if err := decode(data, &g); err != nil {
		return nil, err
	}
	return d.finances.CreateSavingsGoal(ctx, userID, &g)
}

func (d *Dispatcher) applyAddJournal(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var e models.JournalEntry
	if err := decode(data, &e); err != nil {
		return nil, err
	}
	return d.journals.CreateEntry(ctx, userID, &e)
}

func (d *Dispatcher) applyAddLifestyle(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var e models.LifestyleEntry
	if err := decode(data, &e); err != nil {
		return nil, err
	}
	return d.lifestyle.CreateEntry(ctx, userID, &e)
}

func (d *Dispatcher) applyAddHabit(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var h models.Habit
	if err := decode(data, &h); err != nil {
		return nil, err
	}
	return d.lifestyle.CreateHabit(ctx, userID, &h)
}

func (d *Dispatcher) applyToggleHabit(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Date string `json:"date"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	h, err := d.resolveHabit(ctx, userID, payload.ID, payload.Name)
	if err != nil {
		return nil, err
	}
	return d.lifestyle.ToggleHabit(ctx, userID, h.ID, payload.Date)
}

func (d *Dispatcher) applyDeleteHabit(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	var payload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	h, err := d.resolveHabit(ctx, userID, payload.ID, payload.Name)
	if err != nil {
		return nil, err
	}
	if err := d.lifestyle.DeleteHabit(ctx, userID, h.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": h.ID, "name": h.Name}, nil
}

// parseDueDate accepts a bare date or a full timestamp
func parseDueDate(value string) (*time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", value)
}
