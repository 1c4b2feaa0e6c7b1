package models

import "time"

// User is the full identity record as persisted. The password hash never
// crosses the API boundary.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserProjection is the user-safe subset returned by auth endpoints and
// joined onto tasks.
type UserProjection struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Projection strips a User down to its outward-facing fields.
func (u User) Projection() UserProjection {
	return UserProjection{ID: u.ID, Email: u.Email, Name: u.Name}
}

// AuthenticatedIdentity is the request-scoped identity attached by the auth
// guard after token verification. It lives only for the request.
type AuthenticatedIdentity struct {
	ID    int64
	Email string
	Name  string
}
