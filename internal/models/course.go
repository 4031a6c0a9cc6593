package models

import "time"

// Course statuses
const (
	CourseStatusActive    = "active"
	CourseStatusCompleted = "completed"
	CourseStatusDropped   = "dropped"
)

// Attendance statuses
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
)

// Course represents one enrolled course.
// Attendance is always the recomputed function of the course's attendance
// records; it is never cached independently of them.
type Course struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Name               string    `json:"name"`
	Code               string    `json:"code"`
	Credits            int       `json:"credits"`
	Status             string    `json:"status"`
	Progress           float64   `json:"progress"`   // 0-100
	Attendance         float64   `json:"attendance"` // 0-100, derived
	Syllabus           string    `json:"syllabus,omitempty"`
	SyllabusHash       string    `json:"syllabus_hash,omitempty"`
	SyllabusPlanMonths int       `json:"syllabus_plan_months,omitempty"` // duration the current plan was generated for
	PlanDurationMonths int       `json:"plan_duration_months"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ClassSchedule is a recurring weekly class slot
type ClassSchedule struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	UserID    string    `json:"user_id"`
	DayOfWeek int       `json:"day_of_week"` // 0 = Sunday
	StartTime string    `json:"start_time"`  // "09:00"
	EndTime   string    `json:"end_time"`    // "10:30"
	Type      string    `json:"type"` // "lecture", "lab", "tutorial"
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceRecord is one attendance mark for a (schedule, date) pair
type AttendanceRecord struct {
	ID         string    `json:"id"`
	ScheduleID string    `json:"schedule_id"`
	CourseID   string    `json:"course_id"`
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"` // "2006-01-02"
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
