package handlers

import (
	"context"
	"log"

	"momentum/internal/middleware"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// MemoryHandler exposes the ingest registry: what the vector store holds for
// this user and the means to evict a document from it.
type MemoryHandler struct {
	memory *services.MemoryService
	vector *services.VectorClient
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(memory *services.MemoryService, vector *services.VectorClient) *MemoryHandler {
	return &MemoryHandler{memory: memory, vector: vector}
}

// List returns the user's recorded ingest documents
// GET /api/ai/memories?type=
func (h *MemoryHandler) List(c *fiber.Ctx) error {
	memories, err := h.memory.ListMemories(context.Background(), middleware.UserID(c), c.Query("type"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"memories": memories})
}

// Delete removes a registry row and, best-effort, the vector document
// DELETE /api/ai/memories/:docID
func (h *MemoryHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	docID := c.Params("docID")

	if err := h.memory.DeleteByDocID(context.Background(), userID, docID); err != nil {
		return serviceError(c, err)
	}

	if err := h.vector.DeleteDocument(c.Context(), userID, docID); err != nil {
		log.Printf("⚠️  Vector delete failed for %s: %v", docID, err)
	}

	return c.JSON(fiber.Map{"message": "Memory deleted"})
}
