package services

import "momentum/internal/models"

// BuiltinSkillTemplates returns the catalog of pre-built learning roadmaps.
// Importing one runs through the normal skill create path, so re-importing
// merges into the existing skill instead of duplicating it.
func BuiltinSkillTemplates() []models.Skill {
	return []models.Skill{
		{
			Name:           "Python Programming",
			Category:       "Technical",
			Level:          "beginner",
			Description:    "From syntax basics to building small projects",
			GoalStatement:  "Write and ship a small Python application",
			DurationMonths: 3,
			EstimatedHours: 60,
			Milestones: []models.Milestone{
				{Name: "Syntax, variables and control flow", SortOrder: 1, EstimatedHours: 8},
				{Name: "Functions and modules", SortOrder: 2, EstimatedHours: 8},
				{Name: "Data structures: lists, dicts, sets", SortOrder: 3, EstimatedHours: 10},
				{Name: "File handling and errors", SortOrder: 4, EstimatedHours: 8},
				{Name: "Classes and object-oriented basics", SortOrder: 5, EstimatedHours: 10},
				{Name: "Build a CLI project end to end", SortOrder: 6, EstimatedHours: 16},
			},
			Resources: []models.LearningResource{
				{Title: "Official Python Tutorial", Type: "link", URL: "https://docs.python.org/3/tutorial/"},
				{Title: "Automate the Boring Stuff", Type: "link", URL: "https://automatetheboringstuff.com/"},
			},
		},
		{
			Name:           "Public Speaking",
			Category:       "Soft Skills",
			Level:          "beginner",
			Description:    "Structured practice from short talks to a full presentation",
			GoalStatement:  "Deliver a confident 15-minute presentation",
			DurationMonths: 2,
			EstimatedHours: 25,
			Milestones: []models.Milestone{
				{Name: "Record and review a 2-minute self-introduction", SortOrder: 1, EstimatedHours: 2},
				{Name: "Study talk structure: opening, body, close", SortOrder: 2, EstimatedHours: 4},
				{Name: "Deliver a 5-minute talk to a friend", SortOrder: 3, EstimatedHours: 4},
				{Name: "Practice handling questions", SortOrder: 4, EstimatedHours: 5},
				{Name: "Deliver a 15-minute presentation", SortOrder: 5, EstimatedHours: 10},
			},
		},
		{
			Name:           "Spanish A1",
			Category:       "Language",
			Level:          "beginner",
			Description:    "Foundations for everyday conversation",
			GoalStatement:  "Hold a basic everyday conversation in Spanish",
			DurationMonths: 4,
			EstimatedHours: 80,
			Milestones: []models.Milestone{
				{Name: "Greetings, numbers and common phrases", SortOrder: 1, EstimatedHours: 10},
				{Name: "Present tense of regular verbs", SortOrder: 2, EstimatedHours: 15},
				{Name: "Core vocabulary: food, travel, daily life", SortOrder: 3, EstimatedHours: 20},
				{Name: "Listening practice with slow podcasts", SortOrder: 4, EstimatedHours: 15},
				{Name: "A 10-minute conversation with a native speaker", SortOrder: 5, EstimatedHours: 20},
			},
			Resources: []models.LearningResource{
				{Title: "SpanishDict grammar guides", Type: "link", URL: "https://www.spanishdict.com/guide"},
			},
		},
		{
			Name:           "Personal Finance Basics",
			Category:       "Business",
			Level:          "beginner",
			Description:    "Budgeting, saving and avoiding common money mistakes as a student",
			GoalStatement:  "Run a monthly budget and build an emergency fund",
			DurationMonths: 2,
			EstimatedHours: 15,
			Milestones: []models.Milestone{
				{Name: "Track every expense for two weeks", SortOrder: 1, EstimatedHours: 2},
				{Name: "Set up a monthly budget with categories", SortOrder: 2, EstimatedHours: 3},
				{Name: "Understand interest, debt and credit", SortOrder: 3, EstimatedHours: 4},
				{Name: "Open and fund an emergency savings goal", SortOrder: 4, EstimatedHours: 6},
			},
		},
		{
			Name:           "Technical Writing",
			Category:       "Creative",
			Level:          "intermediate",
			Description:    "Clear explanations, structured documents, editing discipline",
			GoalStatement:  "Publish three well-structured technical articles",
			DurationMonths: 3,
			EstimatedHours: 30,
			Milestones: []models.Milestone{
				{Name: "Analyze three well-written articles", SortOrder: 1, EstimatedHours: 4},
				{Name: "Outline and draft a short how-to guide", SortOrder: 2, EstimatedHours: 6},
				{Name: "Practice ruthless editing on your own draft", SortOrder: 3, EstimatedHours: 6},
				{Name: "Publish and collect feedback on three articles", SortOrder: 4, EstimatedHours: 14},
			},
		},
	}
}
