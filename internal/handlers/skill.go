package handlers

import (
	"context"
	"errors"
	"log"

	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SkillHandler handles skills, milestones, resources and roadmap generation
type SkillHandler struct {
	skills  *services.SkillService
	ai      *services.AIClient
	builder *services.ContextBuilder
	fetcher *services.ResourceFetcher
}

// NewSkillHandler creates a new skill handler
func NewSkillHandler(skills *services.SkillService, ai *services.AIClient, builder *services.ContextBuilder, fetcher *services.ResourceFetcher) *SkillHandler {
	return &SkillHandler{skills: skills, ai: ai, builder: builder, fetcher: fetcher}
}

// List returns the user's skills with milestones and resources
// GET /api/skills
func (h *SkillHandler) List(c *fiber.Ctx) error {
	skills, err := h.skills.ListSkills(context.Background(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(skills)
}

// Get returns one skill
// GET /api/skills/:id
func (h *SkillHandler) Get(c *fiber.Ctx) error {
	skill, err := h.skills.GetSkill(context.Background(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(skill)
}

// Create adds a skill, merging into an existing one on a same-name match
// POST /api/skills
func (h *SkillHandler) Create(c *fiber.Ctx) error {
	var skill models.Skill
	if err := c.BodyParser(&skill); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	created, merged, err := h.skills.CreateSkill(context.Background(), userID, &skill)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	status := fiber.StatusCreated
	if merged {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"skill":  created,
		"merged": merged,
	})
}

// Update applies a partial update to a skill
// PATCH /api/skills/:id
func (h *SkillHandler) Update(c *fiber.Ctx) error {
	var upd services.SkillUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	skill, err := h.skills.UpdateSkill(context.Background(), userID, c.Params("id"), upd)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(skill)
}

// Delete removes a skill and its children
// DELETE /api/skills/:id
func (h *SkillHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.skills.DeleteSkill(context.Background(), userID, c.Params("id")); err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(fiber.Map{"message": "Skill deleted"})
}

// AddMilestone appends a milestone to a skill's roadmap
// POST /api/skills/:id/milestones
func (h *SkillHandler) AddMilestone(c *fiber.Ctx) error {
	var m models.Milestone
	if err := c.BodyParser(&m); err != nil {
		return badRequest(c, "Invalid request body")
	}
	m.SkillID = c.Params("id")

	userID := middleware.UserID(c)
	created, err := h.skills.AddMilestone(context.Background(), userID, &m)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateMilestone applies a partial update to a milestone
// PATCH /api/milestones/:id
func (h *SkillHandler) UpdateMilestone(c *fiber.Ctx) error {
	var upd services.MilestoneUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	m, err := h.skills.UpdateMilestone(context.Background(), userID, c.Params("id"), upd)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(m)
}

// ToggleMilestone cycles a milestone's status
// POST /api/milestones/:id/toggle
func (h *SkillHandler) ToggleMilestone(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	m, err := h.skills.ToggleMilestone(context.Background(), userID, c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(m)
}

// DeleteMilestone removes a milestone
// DELETE /api/milestones/:id
func (h *SkillHandler) DeleteMilestone(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.skills.DeleteMilestone(context.Background(), userID, c.Params("id")); err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(fiber.Map{"message": "Milestone deleted"})
}

// AddResource attaches a learning resource to a skill. When a URL is given
// without a description, the page is fetched and its extracted excerpt fills
// the description.
// POST /api/skills/:id/resources
func (h *SkillHandler) AddResource(c *fiber.Ctx) error {
	var r models.LearningResource
	if err := c.BodyParser(&r); err != nil {
		return badRequest(c, "Invalid request body")
	}
	r.SkillID = c.Params("id")

	userID := middleware.UserID(c)

	if r.URL != "" && r.Description == "" {
		page, err := h.fetcher.Fetch(c.Context(), userID, r.URL)
		if err != nil {
			log.Printf("⚠️  Resource fetch failed for %s: %v", r.URL, err)
		} else {
			r.Description = page.Excerpt
			if r.Title == "" {
				r.Title = page.Title
			}
		}
	}

	created, err := h.skills.AddResource(context.Background(), userID, &r)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// DeleteResource removes a learning resource
// DELETE /api/resources/:id
func (h *SkillHandler) DeleteResource(c *fiber.Ctx) error {
	if err := h.skills.DeleteResource(context.Background(), middleware.UserID(c), c.Params("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Resource deleted"})
}

// Suggestions asks the AI service for skills matching the user's profile
// POST /api/skills/suggestions
func (h *SkillHandler) Suggestions(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	snapshot, err := h.builder.Build(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	suggestions, err := h.ai.GenerateSkillSuggestions(c.Context(), userID, snapshot)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"suggestions": suggestions})
}

// GenerateRoadmap asks the AI service for a milestone roadmap and replaces
// the skill's children with it. The path segment is a skill ID or, failing
// that, a skill name.
// POST /api/skills/:id/roadmap
func (h *SkillHandler) GenerateRoadmap(c *fiber.Ctx) error {
	ctx := context.Background()
	userID := middleware.UserID(c)

	skill, err := h.skills.GetSkill(ctx, userID, c.Params("id"))
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			return serviceError(c, err)
		}
		skill, err = h.skills.FindSkillByName(ctx, userID, c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
	}

	roadmap, err := h.ai.GenerateSkillRoadmap(c.Context(), userID, skill)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	milestones := make([]models.Milestone, 0, len(roadmap.Milestones))
	for _, m := range roadmap.Milestones {
		milestones = append(milestones, models.Milestone{
			Name:           m.Name,
			SortOrder:      m.Order,
			EstimatedHours: m.EstimatedHours,
			StartDate:      m.StartDate,
			DueDate:        m.DueDate,
		})
	}
	resources := make([]models.LearningResource, 0, len(roadmap.Resources))
	for _, r := range roadmap.Resources {
		resources = append(resources, models.LearningResource{
			Title:       r.Title,
			Type:        r.Type,
			URL:         r.URL,
			Description: r.Description,
		})
	}

	updated, err := h.skills.ReplaceRoadmap(ctx, userID, skill.ID, milestones, resources)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(updated)
}

// ListTemplates returns the built-in roadmap templates
// GET /api/skills/templates
func (h *SkillHandler) ListTemplates(c *fiber.Ctx) error {
	return c.JSON(services.BuiltinSkillTemplates())
}

// ImportTemplateRequest selects a built-in template or carries a custom one
type ImportTemplateRequest struct {
	Name     string `json:"name,omitempty"`     // built-in template name
	Template string `json:"template,omitempty"` // markdown template with YAML frontmatter
}

// ImportTemplate creates a skill from a built-in or uploaded roadmap template
// POST /api/skills/templates/import
func (h *SkillHandler) ImportTemplate(c *fiber.Ctx) error {
	var req ImportTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var skill *models.Skill
	switch {
	case req.Template != "":
		parsed, err := services.ParseSkillTemplate(req.Template)
		if err != nil {
			return badRequest(c, err.Error())
		}
		skill = parsed
	case req.Name != "":
		for _, tpl := range services.BuiltinSkillTemplates() {
			if tpl.Name == req.Name {
				t := tpl
				skill = &t
				break
			}
		}
		if skill == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown template: " + req.Name,
			})
		}
	default:
		return badRequest(c, "Either name or template is required")
	}

	userID := middleware.UserID(c)
	created, merged, err := h.skills.CreateSkill(context.Background(), userID, skill)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"skill":  created,
		"merged": merged,
	})
}
