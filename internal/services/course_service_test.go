package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"momentum/internal/models"
)

func setupCourseWithSchedule(t *testing.T) (*CourseService, string, *models.Course, *models.ClassSchedule) {
	t.Helper()

	db := newTestDB(t)
	userID := newTestUser(t, db)
	courses := NewCourseService(db)
	ctx := context.Background()

	course, err := courses.CreateCourse(ctx, userID, &models.Course{Name: "Linear Algebra", Code: "MATH201"})
	if err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}

	schedule, err := courses.AddSchedule(ctx, userID, &models.ClassSchedule{
		CourseID:  course.ID,
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "10:30",
		Type:      "lecture",
	})
	if err != nil {
		t.Fatalf("AddSchedule failed: %v", err)
	}
	return courses, userID, course, schedule
}

func TestMarkAttendance_RecomputesPercentage(t *testing.T) {
	courses, userID, course, schedule := setupCourseWithSchedule(t)
	ctx := context.Background()

	// Present and late both count as attended
	marks := []struct {
		date   string
		status string
	}{
		{"2026-01-05", models.AttendancePresent},
		{"2026-01-12", models.AttendanceLate},
		{"2026-01-19", models.AttendanceAbsent},
	}
	for _, m := range marks {
		if _, err := courses.MarkAttendance(ctx, userID, &models.AttendanceRecord{
			ScheduleID: schedule.ID,
			Date:       m.date,
			Status:     m.status,
		}); err != nil {
			t.Fatalf("MarkAttendance(%s) failed: %v", m.date, err)
		}
	}

	got, err := courses.GetCourse(ctx, userID, course.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	want := 100.0 * 2 / 3
	if math.Abs(got.Attendance-want) > 0.01 {
		t.Errorf("Expected attendance %.2f, got %.2f", want, got.Attendance)
	}

	// A fourth mark lands on 3 attended of 4
	if _, err := courses.MarkAttendance(ctx, userID, &models.AttendanceRecord{
		ScheduleID: schedule.ID,
		Date:       "2026-01-26",
		Status:     models.AttendancePresent,
	}); err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}

	got, err = courses.GetCourse(ctx, userID, course.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if got.Attendance != 75 {
		t.Errorf("Expected attendance 75, got %.2f", got.Attendance)
	}
}

func TestUpdateSchedule(t *testing.T) {
	courses, userID, _, schedule := setupCourseWithSchedule(t)
	ctx := context.Background()

	day := 3
	location := "Room 204"
	updated, err := courses.UpdateSchedule(ctx, userID, schedule.ID, ScheduleUpdate{
		DayOfWeek: &day,
		Location:  &location,
	})
	if err != nil {
		t.Fatalf("UpdateSchedule failed: %v", err)
	}
	if updated.DayOfWeek != 3 {
		t.Errorf("Expected day_of_week 3, got %d", updated.DayOfWeek)
	}
	if updated.Location != "Room 204" {
		t.Errorf("Expected location updated, got %q", updated.Location)
	}
	if updated.StartTime != "09:00" {
		t.Errorf("Expected untouched start_time, got %q", updated.StartTime)
	}

	bad := 9
	if _, err := courses.UpdateSchedule(ctx, userID, schedule.ID, ScheduleUpdate{DayOfWeek: &bad}); err == nil {
		t.Error("Expected error for day_of_week out of range")
	}

	if _, err := courses.UpdateSchedule(ctx, userID, "missing", ScheduleUpdate{Location: &location}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing schedule, got %v", err)
	}
}

func TestMarkAttendance_DuplicateDateConflicts(t *testing.T) {
	courses, userID, _, schedule := setupCourseWithSchedule(t)
	ctx := context.Background()

	record := &models.AttendanceRecord{
		ScheduleID: schedule.ID,
		Date:       "2026-01-05",
		Status:     models.AttendancePresent,
	}
	if _, err := courses.MarkAttendance(ctx, userID, record); err != nil {
		t.Fatalf("First MarkAttendance failed: %v", err)
	}

	dup := &models.AttendanceRecord{
		ScheduleID: schedule.ID,
		Date:       "2026-01-05",
		Status:     models.AttendanceAbsent,
	}
	if _, err := courses.MarkAttendance(ctx, userID, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate (schedule, date), got %v", err)
	}
}

func TestMarkAttendance_Validation(t *testing.T) {
	courses, userID, _, schedule := setupCourseWithSchedule(t)
	ctx := context.Background()

	if _, err := courses.MarkAttendance(ctx, userID, &models.AttendanceRecord{
		ScheduleID: schedule.ID,
		Date:       "2026-01-05",
		Status:     "skipped",
	}); err == nil {
		t.Error("Expected error for invalid status")
	}

	if _, err := courses.MarkAttendance(ctx, userID, &models.AttendanceRecord{
		ScheduleID: schedule.ID,
		Date:       "05/01/2026",
		Status:     models.AttendancePresent,
	}); err == nil {
		t.Error("Expected error for invalid date format")
	}

	if _, err := courses.MarkAttendance(ctx, userID, &models.AttendanceRecord{
		ScheduleID: "missing",
		Date:       "2026-01-05",
		Status:     models.AttendancePresent,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing schedule, got %v", err)
	}
}

func TestDeleteSchedule_RecomputesAttendance(t *testing.T) {
	courses, userID, course, schedule := setupCourseWithSchedule(t)
	ctx := context.Background()

	if _, err := courses.MarkAttendance(ctx, userID, &models.AttendanceRecord{
		ScheduleID: schedule.ID,
		Date:       "2026-01-05",
		Status:     models.AttendanceAbsent,
	}); err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}

	got, err := courses.GetCourse(ctx, userID, course.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if got.Attendance != 0 {
		t.Fatalf("Expected 0%% attendance, got %.2f", got.Attendance)
	}

	if _, err := courses.MarkAttendance(ctx, userID, &models.AttendanceRecord{
		ScheduleID: schedule.ID,
		Date:       "2026-01-12",
		Status:     models.AttendancePresent,
	}); err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}

	got, err = courses.GetCourse(ctx, userID, course.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if got.Attendance != 50 {
		t.Fatalf("Expected 50%% attendance, got %.2f", got.Attendance)
	}

	// Dropping the schedule drops its records and recomputes
	if err := courses.DeleteSchedule(ctx, userID, schedule.ID); err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}

	got, err = courses.GetCourse(ctx, userID, course.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if got.Attendance != 0 {
		t.Errorf("Expected attendance 0 with no records left, got %.2f", got.Attendance)
	}
}
