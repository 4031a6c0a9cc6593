package services

import (
	"strings"
	"testing"

	"momentum/internal/models"
)

const sampleTemplate = `---
name: Rust Programming
category: Technical
level: intermediate
description: Systems programming with Rust
goal: Ship a CLI tool
duration_months: 4
estimated_hours: 80
---

# Roadmap

- [ ] Ownership and borrowing
- [x] Install toolchain
- [ ] Error handling

## Resources

- [The Book](https://doc.rust-lang.org/book/)
- Rustlings exercises
`

func TestParseSkillTemplate(t *testing.T) {
	skill, err := ParseSkillTemplate(sampleTemplate)
	if err != nil {
		t.Fatalf("ParseSkillTemplate failed: %v", err)
	}

	if skill.Name != "Rust Programming" {
		t.Errorf("Expected name from frontmatter, got %q", skill.Name)
	}
	if skill.Category != "Technical" || skill.Level != "intermediate" {
		t.Errorf("Unexpected category/level: %q/%q", skill.Category, skill.Level)
	}
	if skill.GoalStatement != "Ship a CLI tool" {
		t.Errorf("Expected goal statement, got %q", skill.GoalStatement)
	}
	if skill.DurationMonths != 4 || skill.EstimatedHours != 80 {
		t.Errorf("Unexpected duration/hours: %d/%.0f", skill.DurationMonths, skill.EstimatedHours)
	}

	if len(skill.Milestones) != 3 {
		t.Fatalf("Expected 3 milestones, got %d", len(skill.Milestones))
	}
	for i, m := range skill.Milestones {
		if m.SortOrder != i+1 {
			t.Errorf("Milestone %d: expected sort order %d, got %d", i, i+1, m.SortOrder)
		}
	}
	if skill.Milestones[0].Status != models.StatusPending {
		t.Errorf("Expected unchecked box to be pending, got %q", skill.Milestones[0].Status)
	}
	if skill.Milestones[1].Status != models.StatusCompleted || !skill.Milestones[1].Completed {
		t.Errorf("Expected checked box to be completed, got %q", skill.Milestones[1].Status)
	}

	if len(skill.Resources) != 2 {
		t.Fatalf("Expected 2 resources, got %d", len(skill.Resources))
	}
	if skill.Resources[0].Title != "The Book" || skill.Resources[0].URL != "https://doc.rust-lang.org/book/" {
		t.Errorf("Unexpected link resource: %+v", skill.Resources[0])
	}
	if skill.Resources[1].Title != "Rustlings exercises" || skill.Resources[1].URL != "" {
		t.Errorf("Expected plain-text resource with no URL, got %+v", skill.Resources[1])
	}
}

func TestParseSkillTemplate_NoFrontmatterNeedsName(t *testing.T) {
	if _, err := ParseSkillTemplate("- [ ] Step one\n- [ ] Step two"); err == nil {
		t.Error("Expected error for template without a name")
	}
}

func TestParseSkillTemplate_Empty(t *testing.T) {
	for _, content := range []string{"", "   \n\n  "} {
		if _, err := ParseSkillTemplate(content); err == nil {
			t.Errorf("Expected error for empty template %q", content)
		}
	}
}

func TestParseSkillTemplate_TooLarge(t *testing.T) {
	huge := "---\nname: X\n---\n" + strings.Repeat("- [ ] Step\n", 20000)
	if _, err := ParseSkillTemplate(huge); err == nil {
		t.Error("Expected error for oversized template")
	}
}

func TestParseSkillTemplate_BulletsOutsideResourcesIgnored(t *testing.T) {
	content := `---
name: Drawing
---

# Notes

- This bullet is prose, not a resource

## Resources

- [Guide](https://example.com/guide)
`
	skill, err := ParseSkillTemplate(content)
	if err != nil {
		t.Fatalf("ParseSkillTemplate failed: %v", err)
	}
	if len(skill.Resources) != 1 {
		t.Errorf("Expected only the Resources-section bullet, got %d", len(skill.Resources))
	}
}

func TestBuiltinSkillTemplates(t *testing.T) {
	templates := BuiltinSkillTemplates()
	if len(templates) == 0 {
		t.Fatal("Expected builtin templates")
	}

	seen := map[string]bool{}
	for _, tpl := range templates {
		if tpl.Name == "" {
			t.Error("Builtin template with empty name")
		}
		if seen[tpl.Name] {
			t.Errorf("Duplicate builtin template %q", tpl.Name)
		}
		seen[tpl.Name] = true
		if len(tpl.Milestones) == 0 {
			t.Errorf("Builtin template %q has no milestones", tpl.Name)
		}
		for i, m := range tpl.Milestones {
			if m.SortOrder != i+1 {
				t.Errorf("%q milestone %d out of order", tpl.Name, i)
			}
		}
	}
}
