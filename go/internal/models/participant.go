package models

import "github.com/google/uuid"

// Role defines what a participant may do in the session.
type Role string

const (
	RoleModerator  Role = "MODERATOR"
	RoleRespondent Role = "RESPONDENT"
)

// Participant represents one connected party, keyed by its connection
// identity. Display names are not unique; two respondents may share one.
type Participant struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role Role      `json:"role"`
}
