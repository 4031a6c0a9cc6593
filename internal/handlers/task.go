package handlers

import (
	"context"

	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles assignments and exams
type TaskHandler struct {
	tasks   *services.TaskService
	builder *services.ContextBuilder
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *services.TaskService, builder *services.ContextBuilder) *TaskHandler {
	return &TaskHandler{tasks: tasks, builder: builder}
}

// List returns the user's assignments, optionally filtered by course/status
// GET /api/tasks?course_id=&status=
func (h *TaskHandler) List(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListAssignments(context.Background(), middleware.UserID(c),
		c.Query("course_id"), c.Query("status"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(tasks)
}

// Get returns one assignment
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	task, err := h.tasks.GetAssignment(context.Background(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(task)
}

// Create adds a new assignment
// POST /api/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var task models.Assignment
	if err := c.BodyParser(&task); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if task.Title == "" {
		return badRequest(c, "Task title is required")
	}

	userID := middleware.UserID(c)
	created, err := h.tasks.CreateAssignment(context.Background(), userID, &task)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update applies a partial update to an assignment
// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	var upd services.AssignmentUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	task, err := h.tasks.UpdateAssignment(context.Background(), userID, c.Params("id"), upd)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(task)
}

// Toggle advances an assignment through pending -> in-progress -> completed
// POST /api/tasks/:id/toggle
func (h *TaskHandler) Toggle(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	task, err := h.tasks.ToggleAssignment(context.Background(), userID, c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(task)
}

// Delete removes an assignment
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.tasks.DeleteAssignment(context.Background(), userID, c.Params("id")); err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(fiber.Map{"message": "Task deleted"})
}

// CreateExam schedules an exam
// POST /api/tasks/exams
func (h *TaskHandler) CreateExam(c *fiber.Ctx) error {
	var exam models.Exam
	if err := c.BodyParser(&exam); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if exam.Title == "" {
		return badRequest(c, "Exam title is required")
	}

	created, err := h.tasks.CreateExam(context.Background(), middleware.UserID(c), &exam)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListExams returns the user's exams, optionally filtered by course
// GET /api/tasks/exams?course_id=
func (h *TaskHandler) ListExams(c *fiber.Ctx) error {
	exams, err := h.tasks.ListExams(context.Background(), middleware.UserID(c), c.Query("course_id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(exams)
}

// UpdateExam applies a partial update to an exam
// PATCH /api/tasks/exams/:id
func (h *TaskHandler) UpdateExam(c *fiber.Ctx) error {
	var upd services.ExamUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	exam, err := h.tasks.UpdateExam(context.Background(), middleware.UserID(c), c.Params("id"), upd)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(exam)
}

// DeleteExam removes an exam and unlinks its assignments
// DELETE /api/tasks/exams/:id
func (h *TaskHandler) DeleteExam(c *fiber.Ctx) error {
	if err := h.tasks.DeleteExam(context.Background(), middleware.UserID(c), c.Params("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Exam deleted"})
}
