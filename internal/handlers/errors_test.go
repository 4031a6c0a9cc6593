package handlers

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

func TestServiceError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("course %w", services.ErrNotFound), fiber.StatusNotFound},
		{"conflict", fmt.Errorf("email %w", services.ErrConflict), fiber.StatusConflict},
		{"missing field", fmt.Errorf("skill name %w", services.ErrValidation), fiber.StatusBadRequest},
		{"unexpected", fmt.Errorf("connection reset"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return serviceError(c, tc.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("Expected status %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}
