package handlers

import (
	"strconv"
	"time"

	"momentum/internal/logging"
	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler handles the chat endpoint and stored conversations
type ChatHandler struct {
	chat          *services.ChatService
	conversations *services.ConversationService
	metrics       *services.Metrics
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService, conversations *services.ConversationService, metrics *services.Metrics) *ChatHandler {
	return &ChatHandler{chat: chat, conversations: conversations, metrics: metrics}
}

// Send processes one chat message end to end
// POST /api/ai/chat
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Message == "" {
		return badRequest(c, "Message is required")
	}

	started := time.Now()
	if h.metrics != nil {
		h.metrics.RecordChatRequest()
	}

	requestID, _ := c.Locals("requestid").(string)
	reqLog := logging.WithRequest(requestID, c.Path(), middleware.UserID(c))

	resp, err := h.chat.HandleMessage(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		reqLog.Error("chat request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if h.metrics != nil {
		h.metrics.RecordChatLatency(time.Since(started).Seconds())
	}
	for i, r := range resp.ActionResults {
		if h.metrics != nil {
			h.metrics.RecordAction(r.Type, r.Success)
		}
		if !r.Success {
			logging.WithAction(reqLog, r.Type, i).Warn("action failed", "error", r.Error)
		}
	}
	reqLog.Info("chat request completed",
		"actions", len(resp.ActionResults),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return c.JSON(resp)
}

// ListConversations returns conversation summaries, newest first
// GET /api/conversations?limit=
func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
	conversations, err := h.conversations.ListConversations(c.Context(), middleware.UserID(c), limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(conversations)
}

// GetConversation returns one conversation with its messages
// GET /api/conversations/:id
func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	conv, err := h.conversations.GetConversation(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(conv)
}

// DeleteConversation removes one conversation
// DELETE /api/conversations/:id
func (h *ChatHandler) DeleteConversation(c *fiber.Ctx) error {
	if err := h.conversations.DeleteConversation(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Conversation deleted"})
}
