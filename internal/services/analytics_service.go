package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"momentum/internal/models"

	"github.com/xuri/excelize/v2"
)

// AnalyticsService builds aggregate views over a user's records and exports
// them as an Excel workbook.
type AnalyticsService struct {
	courses   *CourseService
	tasks     *TaskService
	skills    *SkillService
	finances  *FinanceService
	lifestyle *LifestyleService
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(courses *CourseService, tasks *TaskService, skills *SkillService, finances *FinanceService, lifestyle *LifestyleService) *AnalyticsService {
	return &AnalyticsService{
		courses:   courses,
		tasks:     tasks,
		skills:    skills,
		finances:  finances,
		lifestyle: lifestyle,
	}
}

// Overview is the dashboard aggregate
type Overview struct {
	ActiveCourses     int     `json:"active_courses"`
	AverageAttendance float64 `json:"average_attendance"`
	PendingTasks      int     `json:"pending_tasks"`
	OverdueTasks      int     `json:"overdue_tasks"`
	SkillsInProgress  int     `json:"skills_in_progress"`
	AverageProgress   float64 `json:"average_progress"`
	ActiveStreaks     int     `json:"active_streaks"`
	MonthBalance      float64 `json:"month_balance"`
}

// Overview computes the dashboard numbers for one user
func (s *AnalyticsService) Overview(ctx context.Context, userID string) (*Overview, error) {
	out := &Overview{}

	courses, err := s.courses.ListCourses(ctx, userID)
	if err != nil {
		return nil, err
	}
	var attendanceSum float64
	for _, c := range courses {
		if c.Status == models.CourseStatusActive {
			out.ActiveCourses++
			attendanceSum += c.Attendance
		}
	}
	if out.ActiveCourses > 0 {
		out.AverageAttendance = attendanceSum / float64(out.ActiveCourses)
	}

	tasks, err := s.tasks.ListAssignments(ctx, userID, "", "")
	if err != nil {
		return nil, err
	}
	today := time.Now().UTC()
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			continue
		}
		out.PendingTasks++
		if t.DueDate != nil && t.DueDate.Before(today) {
			out.OverdueTasks++
		}
	}

	skills, err := s.skills.ListSkills(ctx, userID)
	if err != nil {
		return nil, err
	}
	var progressSum float64
	for _, sk := range skills {
		if sk.Progress < 100 {
			out.SkillsInProgress++
		}
		progressSum += sk.Progress
	}
	if len(skills) > 0 {
		out.AverageProgress = progressSum / float64(len(skills))
	}

	habits, err := s.lifestyle.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, h := range habits {
		if h.Streak > 0 {
			out.ActiveStreaks++
		}
	}

	summary, err := s.finances.Summary(ctx, userID, today.Format("2006-01"))
	if err != nil {
		return nil, err
	}
	out.MonthBalance = summary.Balance

	return out, nil
}

// ExportWorkbook writes the user's records into an Excel workbook, one sheet
// per record family, and returns the serialized file.
func (s *AnalyticsService) ExportWorkbook(ctx context.Context, userID string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeCoursesSheet(ctx, f, userID); err != nil {
		return nil, err
	}
	if err := s.writeTasksSheet(ctx, f, userID); err != nil {
		return nil, err
	}
	if err := s.writeSkillsSheet(ctx, f, userID); err != nil {
		return nil, err
	}
	if err := s.writeFinancesSheet(ctx, f, userID); err != nil {
		return nil, err
	}
	if err := s.writeHabitsSheet(ctx, f, userID); err != nil {
		return nil, err
	}

	// Drop the default sheet left over from NewFile
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	log.Printf("📊 [EXPORT] Built workbook for user %s (%d bytes)", userID, buf.Len())
	return buf.Bytes(), nil
}

func (s *AnalyticsService) writeCoursesSheet(ctx context.Context, f *excelize.File, userID string) error {
	courses, err := s.courses.ListCourses(ctx, userID)
	if err != nil {
		return err
	}

	sheet := "Courses"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]string{"Name", "Code", "Credits", "Status", "Attendance %", "Progress %"}); err != nil {
		return err
	}
	for i, c := range courses {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{c.Name, c.Code, c.Credits, c.Status, c.Attendance, c.Progress}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *AnalyticsService) writeTasksSheet(ctx context.Context, f *excelize.File, userID string) error {
	tasks, err := s.tasks.ListAssignments(ctx, userID, "", "")
	if err != nil {
		return err
	}

	sheet := "Tasks"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]string{"Title", "Status", "Priority", "Due Date", "Course", "AI Generated"}); err != nil {
		return err
	}
	for i, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{t.Title, t.Status, t.Priority, due, t.CourseID, t.AIGenerated}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *AnalyticsService) writeSkillsSheet(ctx context.Context, f *excelize.File, userID string) error {
	skills, err := s.skills.ListSkills(ctx, userID)
	if err != nil {
		return err
	}

	sheet := "Skills"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]string{"Name", "Category", "Level", "Progress %", "Milestones", "Completed"}); err != nil {
		return err
	}
	for i, sk := range skills {
		completed := 0
		for j := range sk.Milestones {
			if sk.Milestones[j].IsCompleted() {
				completed++
			}
		}
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{sk.Name, sk.Category, sk.Level, sk.Progress, len(sk.Milestones), completed}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *AnalyticsService) writeFinancesSheet(ctx context.Context, f *excelize.File, userID string) error {
	entries, err := s.finances.ListEntries(ctx, userID, "")
	if err != nil {
		return err
	}

	sheet := "Finances"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]string{"Date", "Type", "Amount", "Category", "Note"}); err != nil {
		return err
	}
	for i, e := range entries {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{e.Date, e.Type, e.Amount, e.Category, e.Note}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *AnalyticsService) writeHabitsSheet(ctx context.Context, f *excelize.File, userID string) error {
	habits, err := s.lifestyle.ListHabits(ctx, userID)
	if err != nil {
		return err
	}

	sheet := "Habits"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]string{"Name", "Frequency", "Streak", "Completed Today"}); err != nil {
		return err
	}
	for i, h := range habits {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{h.Name, h.Frequency, h.Streak, h.CompletedToday}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
