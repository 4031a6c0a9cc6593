package handlers

import (
	"context"
	"strconv"

	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// JournalHandler handles markdown journal entries
type JournalHandler struct {
	journals *services.JournalService
	builder  *services.ContextBuilder
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(journals *services.JournalService, builder *services.ContextBuilder) *JournalHandler {
	return &JournalHandler{journals: journals, builder: builder}
}

// List returns journal entries, newest first
// GET /api/journals?limit=
func (h *JournalHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	entries, err := h.journals.ListEntries(context.Background(), middleware.UserID(c), limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(entries)
}

// Get returns one journal entry
// GET /api/journals/:id
func (h *JournalHandler) Get(c *fiber.Ctx) error {
	entry, err := h.journals.GetEntry(context.Background(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(entry)
}

// Create adds a journal entry
// POST /api/journals
func (h *JournalHandler) Create(c *fiber.Ctx) error {
	var entry models.JournalEntry
	if err := c.BodyParser(&entry); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	created, err := h.journals.CreateEntry(context.Background(), userID, &entry)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update applies a partial update to a journal entry
// PATCH /api/journals/:id
func (h *JournalHandler) Update(c *fiber.Ctx) error {
	var upd services.JournalUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	entry, err := h.journals.UpdateEntry(context.Background(), userID, c.Params("id"), upd)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(entry)
}

// Delete removes a journal entry
// DELETE /api/journals/:id
func (h *JournalHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.journals.DeleteEntry(context.Background(), userID, c.Params("id")); err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(fiber.Map{"message": "Entry deleted"})
}

// Render returns the entry's markdown rendered as HTML
// GET /api/journals/:id/html
func (h *JournalHandler) Render(c *fiber.Ctx) error {
	html, err := h.journals.RenderHTML(context.Background(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}
