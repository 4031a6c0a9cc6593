package handlers

import (
	"context"
	"log"

	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"
	"momentum/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles profile endpoints
type UserHandler struct {
	userService *services.UserService
	builder     *services.ContextBuilder
	vector      *services.VectorClient
	memory      *services.MemoryService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, builder *services.ContextBuilder, vector *services.VectorClient, memory *services.MemoryService) *UserHandler {
	return &UserHandler{userService: userService, builder: builder, vector: vector, memory: memory}
}

// GetProfile returns the authenticated user's profile
// GET /api/user/profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.userService.GetUserByID(context.Background(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile applies a partial update to the profile. Changing the
// unstructured context re-ingests the fresh snapshot into the vector store.
// PUT /api/user/profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var upd services.UserUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	user, err := h.userService.UpdateUser(context.Background(), userID, upd)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	if upd.UnstructuredContext != nil {
		h.ingestContext(userID)
	}
	return c.JSON(user)
}

// ingestContext pushes the rebuilt context snapshot to the vector store.
// Failures are logged; the profile write has already succeeded.
func (h *UserHandler) ingestContext(userID string) {
	ctx := context.Background()
	snapshot, err := h.builder.Build(ctx, userID)
	if err != nil {
		log.Printf("⚠️  Failed to assemble context for %s: %v", userID, err)
		return
	}

	docID := "context_" + userID
	err = h.vector.Ingest(ctx, &services.IngestRequest{
		UserID:   userID,
		DocID:    docID,
		Text:     snapshot,
		Metadata: map[string]interface{}{"source": "profile"},
	})
	if err != nil {
		log.Printf("⚠️  Vector ingest failed for %s: %v", userID, err)
		return
	}

	if _, err := h.memory.RecordIngest(ctx, userID, docID, models.MemoryTypeContext, map[string]interface{}{"source": "profile"}); err != nil {
		log.Printf("⚠️  Failed to record ingest for %s: %v", userID, err)
	}
}

// AppendContextRequest carries free-text notes for the AI's context
type AppendContextRequest struct {
	Text string `json:"text"`
}

// AppendContext appends free-text notes to the user's context
// POST /api/user/context
func (h *UserHandler) AppendContext(c *fiber.Ctx) error {
	var req AppendContextRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Text == "" {
		return badRequest(c, "text is required")
	}

	userID := middleware.UserID(c)
	if err := h.userService.AppendContext(context.Background(), userID, req.Text); err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	h.ingestContext(userID)
	return c.JSON(fiber.Map{"message": "Context updated"})
}

// ChangePasswordRequest is the request body for password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the user's password after verifying the old one
// POST /api/user/password
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := context.Background()
	userID := middleware.UserID(c)

	user, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		return serviceError(c, err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil || !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Current password is incorrect",
		})
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to change password",
		})
	}

	if err := h.userService.UpdatePassword(ctx, userID, newHash); err != nil {
		return serviceError(c, err)
	}

	log.Printf("✅ Password changed for user %s", userID)
	return c.JSON(fiber.Map{"message": "Password changed"})
}
