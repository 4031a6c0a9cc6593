package handlers

import (
	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OnboardingHandler handles the staged onboarding conversation
type OnboardingHandler struct {
	onboarding *services.OnboardingService
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(onboarding *services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding}
}

// Start begins onboarding and returns the first question
// POST /api/onboarding/start
func (h *OnboardingHandler) Start(c *fiber.Ctx) error {
	resp, err := h.onboarding.Start(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(resp)
}

// Answer submits one onboarding answer
// POST /api/onboarding/answer
func (h *OnboardingHandler) Answer(c *fiber.Ctx) error {
	var req models.OnboardingAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Answer == "" {
		return badRequest(c, "Answer is required")
	}

	resp, err := h.onboarding.Answer(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(resp)
}
