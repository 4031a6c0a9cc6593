package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"momentum/internal/database"
	"momentum/internal/models"

	"github.com/google/uuid"
)

// CourseService handles courses, weekly class schedules and attendance.
// A course's attendance percentage is always recomputed from its attendance
// records inside the same statement batch that changed them.
type CourseService struct {
	db *database.DB
}

// NewCourseService creates a new course service
func NewCourseService(db *database.DB) *CourseService {
	return &CourseService{db: db}
}

const courseColumns = `id, user_id, name, code, credits, status, progress, attendance,
	syllabus, syllabus_hash, syllabus_plan_months, plan_duration_months, created_at, updated_at`

// CreateCourse inserts a new course for the user
func (s *CourseService) CreateCourse(ctx context.Context, userID string, course *models.Course) (*models.Course, error) {
	if strings.TrimSpace(course.Name) == "" {
		return nil, fmt.Errorf("course name %w", ErrValidation)
	}
	if course.Status == "" {
		course.Status = models.CourseStatusActive
	}

	now := time.Now().UTC()
	course.ID = uuid.NewString()
	course.UserID = userID
	course.CreatedAt = now
	course.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, user_id, name, code, credits, status, progress, attendance,
			syllabus, syllabus_hash, syllabus_plan_months, plan_duration_months, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, '', 0, ?, ?, ?)`,
		course.ID, userID, course.Name, course.Code, course.Credits, course.Status,
		course.Progress, course.Syllabus, course.PlanDurationMonths, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	return course, nil
}

// GetCourse retrieves one course owned by the user
func (s *CourseService) GetCourse(ctx context.Context, userID, courseID string) (*models.Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = ? AND user_id = ?`, courseID, userID)
	return scanCourse(row)
}

// ListCourses returns all courses for the user, newest first
func (s *CourseService) ListCourses(ctx context.Context, userID string) ([]*models.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Code, &c.Credits, &c.Status, &c.Progress,
		&c.Attendance, &c.Syllabus, &c.SyllabusHash, &c.SyllabusPlanMonths, &c.PlanDurationMonths,
		&c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	return &c, nil
}

// CourseUpdate holds the mutable course fields. Nil pointers are left unchanged.
type CourseUpdate struct {
	Name               *string  `json:"name"`
	Code               *string  `json:"code"`
	Credits            *int     `json:"credits"`
	Status             *string  `json:"status"`
	Progress           *float64 `json:"progress"`
	PlanDurationMonths *int     `json:"plan_duration_months"`
}

// UpdateCourse applies a partial update to a course
func (s *CourseService) UpdateCourse(ctx context.Context, userID, courseID string, upd CourseUpdate) (*models.Course, error) {
	sets := []string{}
	args := []interface{}{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Code != nil {
		add("code", *upd.Code)
	}
	if upd.Credits != nil {
		add("credits", *upd.Credits)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Progress != nil {
		add("progress", *upd.Progress)
	}
	if upd.PlanDurationMonths != nil {
		add("plan_duration_months", *upd.PlanDurationMonths)
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, courseID, userID)

		query := "UPDATE courses SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update course: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return nil, fmt.Errorf("course %w", ErrNotFound)
		}
	}

	return s.GetCourse(ctx, userID, courseID)
}

// DeleteCourse removes a course and all its dependent rows
func (s *CourseService) DeleteCourse(ctx context.Context, userID, courseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = ? AND user_id = ?`, courseID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("course %w", ErrNotFound)
	}

	// Cascade: schedules, attendance, course-linked tasks and exams
	if _, err := tx.ExecContext(ctx, `DELETE FROM class_schedules WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to delete schedules: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exams WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to delete exams: %w", err)
	}

	return tx.Commit()
}

// AddSchedule adds a recurring weekly class slot to a course
func (s *CourseService) AddSchedule(ctx context.Context, userID string, schedule *models.ClassSchedule) (*models.ClassSchedule, error) {
	if schedule.DayOfWeek < 0 || schedule.DayOfWeek > 6 {
		return nil, fmt.Errorf("day_of_week must be 0-6")
	}

	// Course must exist and belong to the user
	if _, err := s.GetCourse(ctx, userID, schedule.CourseID); err != nil {
		return nil, err
	}

	schedule.ID = uuid.NewString()
	schedule.UserID = userID
	schedule.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO class_schedules (id, course_id, user_id, day_of_week, start_time, end_time, type, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.ID, schedule.CourseID, userID, schedule.DayOfWeek, schedule.StartTime,
		schedule.EndTime, schedule.Type, schedule.Location, schedule.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add schedule: %w", err)
	}

	return schedule, nil
}

// ListSchedules returns all class slots for a course
func (s *CourseService) ListSchedules(ctx context.Context, userID, courseID string) ([]*models.ClassSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, course_id, user_id, day_of_week, start_time, end_time, type, location, created_at
		FROM class_schedules WHERE course_id = ? AND user_id = ?
		ORDER BY day_of_week, start_time`, courseID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	schedules := []*models.ClassSchedule{}
	for rows.Next() {
		var sc models.ClassSchedule
		if err := rows.Scan(&sc.ID, &sc.CourseID, &sc.UserID, &sc.DayOfWeek, &sc.StartTime,
			&sc.EndTime, &sc.Type, &sc.Location, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, &sc)
	}
	return schedules, rows.Err()
}

// ScheduleUpdate holds the mutable class slot fields. Nil pointers are left unchanged.
type ScheduleUpdate struct {
	DayOfWeek *int    `json:"day_of_week"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Type      *string `json:"type"`
	Location  *string `json:"location"`
}

// UpdateSchedule applies a partial update to a class slot
func (s *CourseService) UpdateSchedule(ctx context.Context, userID, scheduleID string, upd ScheduleUpdate) (*models.ClassSchedule, error) {
	if upd.DayOfWeek != nil && (*upd.DayOfWeek < 0 || *upd.DayOfWeek > 6) {
		return nil, fmt.Errorf("day_of_week must be 0-6")
	}

	sets := []string{}
	args := []interface{}{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.DayOfWeek != nil {
		add("day_of_week", *upd.DayOfWeek)
	}
	if upd.StartTime != nil {
		add("start_time", *upd.StartTime)
	}
	if upd.EndTime != nil {
		add("end_time", *upd.EndTime)
	}
	if upd.Type != nil {
		add("type", *upd.Type)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}

	if len(sets) > 0 {
		args = append(args, scheduleID, userID)

		query := "UPDATE class_schedules SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update schedule: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return nil, fmt.Errorf("schedule %w", ErrNotFound)
		}
	}

	var sc models.ClassSchedule
	err := s.db.QueryRowContext(ctx, `
		SELECT id, course_id, user_id, day_of_week, start_time, end_time, type, location, created_at
		FROM class_schedules WHERE id = ? AND user_id = ?`, scheduleID, userID).
		Scan(&sc.ID, &sc.CourseID, &sc.UserID, &sc.DayOfWeek, &sc.StartTime,
			&sc.EndTime, &sc.Type, &sc.Location, &sc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("schedule %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &sc, nil
}

// DeleteSchedule removes a class slot and its attendance records
func (s *CourseService) DeleteSchedule(ctx context.Context, userID, scheduleID string) error {
	var courseID string
	err := s.db.QueryRowContext(ctx,
		`SELECT course_id FROM class_schedules WHERE id = ? AND user_id = ?`, scheduleID, userID).Scan(&courseID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("schedule %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up schedule: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM class_schedules WHERE id = ?`, scheduleID); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE schedule_id = ?`, scheduleID); err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if err := recomputeAttendanceTx(ctx, tx, courseID); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkAttendance records attendance for a (schedule, date) pair and refreshes
// the course's attendance percentage. Marking the same pair twice is a conflict.
func (s *CourseService) MarkAttendance(ctx context.Context, userID string, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	switch record.Status {
	case models.AttendancePresent, models.AttendanceAbsent, models.AttendanceLate:
	default:
		return nil, fmt.Errorf("invalid attendance status %q", record.Status)
	}
	if _, err := time.Parse("2006-01-02", record.Date); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", record.Date)
	}

	var courseID string
	err := s.db.QueryRowContext(ctx,
		`SELECT course_id FROM class_schedules WHERE id = ? AND user_id = ?`, record.ScheduleID, userID).Scan(&courseID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("schedule %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up schedule: %w", err)
	}

	var existing int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance_records WHERE schedule_id = ? AND date = ?`,
		record.ScheduleID, record.Date).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check attendance: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("attendance for this class and date %w", ErrConflict)
	}

	record.ID = uuid.NewString()
	record.CourseID = courseID
	record.UserID = userID
	record.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attendance_records (id, schedule_id, course_id, user_id, date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.ScheduleID, courseID, userID, record.Date, record.Status, record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}

	if err := recomputeAttendanceTx(ctx, tx, courseID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit attendance: %w", err)
	}

	return record, nil
}

// ListAttendance returns all attendance records for a course
func (s *CourseService) ListAttendance(ctx context.Context, userID, courseID string) ([]*models.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schedule_id, course_id, user_id, date, status, created_at
		FROM attendance_records WHERE course_id = ? AND user_id = ?
		ORDER BY date DESC`, courseID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	records := []*models.AttendanceRecord{}
	for rows.Next() {
		var r models.AttendanceRecord
		if err := rows.Scan(&r.ID, &r.ScheduleID, &r.CourseID, &r.UserID, &r.Date, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// recomputeAttendanceTx refreshes a course's attendance percentage:
// 100 * (present + late) / total, 0 when there are no records.
func recomputeAttendanceTx(ctx context.Context, tx execer, courseID string) error {
	var total, attended int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status IN ('present', 'late') THEN 1 ELSE 0 END), 0)
		FROM attendance_records WHERE course_id = ?`, courseID).Scan(&total, &attended)
	if err != nil {
		return fmt.Errorf("failed to count attendance: %w", err)
	}

	percentage := 0.0
	if total > 0 {
		percentage = 100 * float64(attended) / float64(total)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE courses SET attendance = ?, updated_at = ? WHERE id = ?`,
		percentage, time.Now().UTC(), courseID); err != nil {
		return fmt.Errorf("failed to update attendance percentage: %w", err)
	}
	return nil
}
