package handlers

import (
	"context"
	"io"
	"log"

	"momentum/internal/document"
	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CourseHandler handles courses, schedules, attendance and syllabi
type CourseHandler struct {
	courses  *services.CourseService
	syllabus *services.SyllabusService
	builder  *services.ContextBuilder
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courses *services.CourseService, syllabus *services.SyllabusService, builder *services.ContextBuilder) *CourseHandler {
	return &CourseHandler{courses: courses, syllabus: syllabus, builder: builder}
}

// List returns all courses for the user
// GET /api/courses
func (h *CourseHandler) List(c *fiber.Ctx) error {
	courses, err := h.courses.ListCourses(context.Background(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(courses)
}

// Get returns one course
// GET /api/courses/:id
func (h *CourseHandler) Get(c *fiber.Ctx) error {
	course, err := h.courses.GetCourse(context.Background(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(course)
}

// Create adds a new course
// POST /api/courses
func (h *CourseHandler) Create(c *fiber.Ctx) error {
	var course models.Course
	if err := c.BodyParser(&course); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if course.Name == "" {
		return badRequest(c, "Course name is required")
	}

	userID := middleware.UserID(c)
	created, err := h.courses.CreateCourse(context.Background(), userID, &course)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update applies a partial update to a course
// PATCH /api/courses/:id
func (h *CourseHandler) Update(c *fiber.Ctx) error {
	var upd services.CourseUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	course, err := h.courses.UpdateCourse(context.Background(), userID, c.Params("id"), upd)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(course)
}

// Delete removes a course and everything attached to it
// DELETE /api/courses/:id
func (h *CourseHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.courses.DeleteCourse(context.Background(), userID, c.Params("id")); err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(fiber.Map{"message": "Course deleted"})
}

// AddSchedule attaches a weekly class slot to a course
// POST /api/courses/:id/schedules
func (h *CourseHandler) AddSchedule(c *fiber.Ctx) error {
	var schedule models.ClassSchedule
	if err := c.BodyParser(&schedule); err != nil {
		return badRequest(c, "Invalid request body")
	}
	schedule.CourseID = c.Params("id")

	created, err := h.courses.AddSchedule(context.Background(), middleware.UserID(c), &schedule)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListSchedules returns a course's weekly slots
// GET /api/courses/:id/schedules
func (h *CourseHandler) ListSchedules(c *fiber.Ctx) error {
	schedules, err := h.courses.ListSchedules(context.Background(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(schedules)
}

// UpdateSchedule applies a partial update to one weekly slot
// PUT /api/schedules/:id
func (h *CourseHandler) UpdateSchedule(c *fiber.Ctx) error {
	var upd services.ScheduleUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	schedule, err := h.courses.UpdateSchedule(context.Background(), middleware.UserID(c), c.Params("id"), upd)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(schedule)
}

// DeleteSchedule removes one weekly slot and its attendance records
// DELETE /api/schedules/:id
func (h *CourseHandler) DeleteSchedule(c *fiber.Ctx) error {
	if err := h.courses.DeleteSchedule(context.Background(), middleware.UserID(c), c.Params("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Schedule deleted"})
}

// MarkAttendance records attendance for one (schedule, date)
// POST /api/schedules/:id/attendance
func (h *CourseHandler) MarkAttendance(c *fiber.Ctx) error {
	var record models.AttendanceRecord
	if err := c.BodyParser(&record); err != nil {
		return badRequest(c, "Invalid request body")
	}
	record.ScheduleID = c.Params("id")

	userID := middleware.UserID(c)
	created, err := h.courses.MarkAttendance(context.Background(), userID, &record)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListAttendance returns a course's attendance history
// GET /api/courses/:id/attendance
func (h *CourseHandler) ListAttendance(c *fiber.Ctx) error {
	records, err := h.courses.ListAttendance(context.Background(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(records)
}

// SyllabusUploadRequest carries syllabus text directly
type SyllabusUploadRequest struct {
	Syllabus string `json:"syllabus"`
}

// UploadSyllabus stores a course syllabus. Accepts either a multipart file
// (PDF or plain text) under "file" or a JSON body with the text. Re-uploading
// identical content is a no-op.
// POST /api/courses/:id/syllabus
func (h *CourseHandler) UploadSyllabus(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	courseID := c.Params("id")

	text, err := h.syllabusText(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if text == "" {
		return badRequest(c, "Syllabus content is required")
	}

	result, err := h.syllabus.Upload(context.Background(), userID, courseID, text)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(result)
}

func (h *CourseHandler) syllabusText(c *fiber.Ctx) (string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// No file part, fall back to the JSON body
		var req SyllabusUploadRequest
		if err := c.BodyParser(&req); err != nil {
			return "", err
		}
		return req.Syllabus, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, 20*1024*1024))
	if err != nil {
		return "", err
	}

	extraction, err := document.ExtractSyllabus(fileHeader.Filename, data)
	if err != nil {
		return "", err
	}

	log.Printf("📄 Extracted syllabus from %s (%d words)", fileHeader.Filename, extraction.WordCount)
	return extraction.Text, nil
}

// DeleteSyllabus removes a course's syllabus and derived tasks
// DELETE /api/courses/:id/syllabus
func (h *CourseHandler) DeleteSyllabus(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.syllabus.Delete(context.Background(), userID, c.Params("id")); err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(fiber.Map{"message": "Syllabus deleted"})
}

// VerifySyllabus reports whether the vector store holds the course syllabus
// GET /api/courses/:id/syllabus/verify
func (h *CourseHandler) VerifySyllabus(c *fiber.Ctx) error {
	status, err := h.syllabus.Verify(context.Background(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(status)
}
