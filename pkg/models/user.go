package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application account. Regular users own their SOPs;
// admins additionally see every document and manage accounts.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`

	// APIKeyEncrypted is the user's upstream AI credential, AES-GCM encrypted
	// at rest. Empty means the process-wide default key is used instead.
	APIKeyEncrypted string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
