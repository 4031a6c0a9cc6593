package handlers

import (
	"context"
	"strconv"

	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// LifestyleHandler handles wellness snapshots and habits
type LifestyleHandler struct {
	lifestyle *services.LifestyleService
	builder   *services.ContextBuilder
}

// NewLifestyleHandler creates a new lifestyle handler
func NewLifestyleHandler(lifestyle *services.LifestyleService, builder *services.ContextBuilder) *LifestyleHandler {
	return &LifestyleHandler{lifestyle: lifestyle, builder: builder}
}

// ListEntries returns wellness snapshots, newest first
// GET /api/lifestyle?limit=
func (h *LifestyleHandler) ListEntries(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "30"))
	entries, err := h.lifestyle.ListEntries(context.Background(), middleware.UserID(c), limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(entries)
}

// CreateEntry adds a wellness snapshot
// POST /api/lifestyle
func (h *LifestyleHandler) CreateEntry(c *fiber.Ctx) error {
	var entry models.LifestyleEntry
	if err := c.BodyParser(&entry); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	created, err := h.lifestyle.CreateEntry(context.Background(), userID, &entry)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// DeleteEntry removes a wellness snapshot
// DELETE /api/lifestyle/:id
func (h *LifestyleHandler) DeleteEntry(c *fiber.Ctx) error {
	if err := h.lifestyle.DeleteEntry(context.Background(), middleware.UserID(c), c.Params("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Entry deleted"})
}

// ListHabits returns the user's habits with streaks
// GET /api/habits
func (h *LifestyleHandler) ListHabits(c *fiber.Ctx) error {
	habits, err := h.lifestyle.ListHabits(context.Background(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(habits)
}

// CreateHabit adds a habit
// POST /api/habits
func (h *LifestyleHandler) CreateHabit(c *fiber.Ctx) error {
	var habit models.Habit
	if err := c.BodyParser(&habit); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if habit.Name == "" {
		return badRequest(c, "Habit name is required")
	}

	userID := middleware.UserID(c)
	created, err := h.lifestyle.CreateHabit(context.Background(), userID, &habit)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ToggleHabit logs or unlogs a habit for a date (today by default)
// POST /api/habits/:id/toggle?date=
func (h *LifestyleHandler) ToggleHabit(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	habit, err := h.lifestyle.ToggleHabit(context.Background(), userID, c.Params("id"), c.Query("date"))
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(habit)
}

// DeleteHabit removes a habit and its log
// DELETE /api/habits/:id
func (h *LifestyleHandler) DeleteHabit(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.lifestyle.DeleteHabit(context.Background(), userID, c.Params("id")); err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(fiber.Map{"message": "Habit deleted"})
}
