// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// User represents an account. Role is fixed per user.
type User struct {
	ID        uuid.UUID
	Email     string // unique
	Role      Role
	PwdHash   string // encoded argon2id hash, see crypto.HashPassword
	CreatedAt time.Time
}

// Caller is the authenticated identity a request acts on behalf of.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the caller has unrestricted rights.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// Card is a task-board item owned by the user that created it.
type Card struct {
	ID          int64 // store-assigned
	Name        string
	Description string
	Color       string // #RRGGBB
	Code        string // Name + "_" + Color, unique system-wide
	Status      Status
	Active      bool
	OwnerID     uuid.UUID // immutable after creation
	UpdatedBy   uuid.NullUUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// CardCode derives the uniqueness key of a card.
func CardCode(name, color string) string { return name + "_" + color }

// CardRequest is a create or partial update intent. Nil fields are absent.
type CardRequest struct {
	Name        *string
	Description *string
	Color       *string
	Status      *string
}
