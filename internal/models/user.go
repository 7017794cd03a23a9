package models

import (
	"time"
)

// Roles known to the system
const (
	RoleAdmin  = "admin"
	RoleWriter = "writer"
)

// ValidRoles defines allowed user roles
var ValidRoles = map[string]bool{
	RoleAdmin:  true,
	RoleWriter: true,
}

// User represents a writer or admin profile. Roles live on this row and are
// re-read from the store on every privileged call; they are never taken from
// the client.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Roles        []string  `json:"roles" db:"-"` // Stored as JSONB
	CMSAuthorRef string    `json:"cms_author_ref,omitempty" db:"cms_author_ref"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
