package core

import (
	"fmt"

	"leaveportal/internal/domain/auth"
)

// User is a portal account. Code is the human-assigned employee code and the
// lookup key everywhere else in the system.
type User struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Role             auth.Role `json:"role"`
	Department       string    `json:"department,omitempty"`
	Email            string    `json:"email,omitempty"`
	ReportingManager string    `json:"reportingManager,omitempty"`
	HRName           string    `json:"hrName,omitempty"`
}

func (u User) ActorLabel() string {
	return fmt.Sprintf("%s (%s)", u.Code, u.Name)
}

func (u User) Context() auth.UserContext {
	return auth.UserContext{UserID: u.ID, Code: u.Code, Name: u.Name, Role: u.Role}
}
