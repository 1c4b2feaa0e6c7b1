package dto

import "github.com/taskpilot/taskpilot-be/internal/models"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by both register and login.
type SessionResponse struct {
	User  models.UserProjection `json:"user"`
	Token string                `json:"token"`
}
