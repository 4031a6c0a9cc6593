package models

import "time"

// User holds the profile facts the AI grounds its answers on
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	EducationLevel      string    `json:"education_level"` // "school", "college", "university", "graduate"
	Institution         string    `json:"institution"`
	Major               string    `json:"major"`
	Year                int       `json:"year"`
	StudyGroup          string    `json:"study_group"` // "science", "commerce", "arts" (school/college levels)
	UnstructuredContext string    `json:"unstructured_context"`
	Onboarded           bool      `json:"onboarded"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// FullName returns the display name used in AI prompts
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}
