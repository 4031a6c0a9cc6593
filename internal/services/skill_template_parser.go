package services

import (
	"fmt"
	"strings"

	"momentum/internal/models"

	"gopkg.in/yaml.v3"
)

const maxTemplateSize = 100 * 1024 // 100KB

// SkillTemplateFrontmatter is the YAML frontmatter of a roadmap template file
type SkillTemplateFrontmatter struct {
	Name           string  `yaml:"name"`
	Category       string  `yaml:"category"`
	Level          string  `yaml:"level"`
	Description    string  `yaml:"description"`
	Goal           string  `yaml:"goal"`
	DurationMonths int     `yaml:"duration_months"`
	EstimatedHours float64 `yaml:"estimated_hours"`
}

// ParseSkillTemplate parses a markdown roadmap template into a skill with
// milestones and resources. The file carries YAML frontmatter for the skill
// facts; the body lists milestones as markdown checkboxes and resources as
// markdown links under a "Resources" heading.
func ParseSkillTemplate(content string) (*models.Skill, error) {
	if len(content) > maxTemplateSize {
		return nil, fmt.Errorf("template exceeds maximum size of %d bytes", maxTemplateSize)
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty template")
	}

	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}
	if fm.Name == "" {
		return nil, fmt.Errorf("template frontmatter must set a name")
	}

	skill := &models.Skill{
		Name:           fm.Name,
		Category:       fm.Category,
		Level:          fm.Level,
		Description:    fm.Description,
		GoalStatement:  fm.Goal,
		DurationMonths: fm.DurationMonths,
		EstimatedHours: fm.EstimatedHours,
	}

	milestones, resources := parseTemplateBody(body)
	skill.Milestones = milestones
	skill.Resources = resources
	return skill, nil
}

func splitFrontmatter(content string) (*SkillTemplateFrontmatter, string, error) {
	fm := &SkillTemplateFrontmatter{}

	if !strings.HasPrefix(content, "---\n") {
		return fm, content, nil
	}

	rest := content[4:]
	closingIdx := strings.Index(rest, "\n---")
	if closingIdx == -1 {
		return fm, content, nil
	}

	yamlContent := rest[:closingIdx]
	body := strings.TrimSpace(rest[closingIdx+4:])

	if err := yaml.Unmarshal([]byte(yamlContent), fm); err != nil {
		return nil, "", fmt.Errorf("invalid YAML frontmatter: %w", err)
	}
	return fm, body, nil
}

// parseTemplateBody extracts milestones from checkbox lines and resources
// from link bullets under a Resources heading. A checked box marks the
// milestone completed.
func parseTemplateBody(body string) ([]models.Milestone, []models.LearningResource) {
	var milestones []models.Milestone
	var resources []models.LearningResource

	inResources := false
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "#") {
			heading := strings.ToLower(strings.TrimLeft(line, "# "))
			inResources = strings.HasPrefix(heading, "resource")
			continue
		}

		switch {
		case strings.HasPrefix(line, "- [ ] "), strings.HasPrefix(line, "- [x] "), strings.HasPrefix(line, "- [X] "):
			checked := !strings.HasPrefix(line, "- [ ] ")
			name := strings.TrimSpace(line[6:])
			if name == "" {
				continue
			}
			status := models.StatusPending
			if checked {
				status = models.StatusCompleted
			}
			milestones = append(milestones, models.Milestone{
				Name:      name,
				SortOrder: len(milestones) + 1,
				Status:    status,
				Completed: checked,
			})

		case inResources && strings.HasPrefix(line, "- "):
			title, url := parseMarkdownLink(strings.TrimSpace(line[2:]))
			if title == "" {
				continue
			}
			resources = append(resources, models.LearningResource{
				Title: title,
				Type:  "link",
				URL:   url,
			})
		}
	}

	return milestones, resources
}

// parseMarkdownLink splits "[title](url)" into its parts. Plain text becomes
// a title with no URL.
func parseMarkdownLink(s string) (title, url string) {
	if !strings.HasPrefix(s, "[") {
		return s, ""
	}
	closing := strings.Index(s, "](")
	if closing == -1 || !strings.HasSuffix(s, ")") {
		return s, ""
	}
	return s[1:closing], s[closing+2 : len(s)-1]
}
