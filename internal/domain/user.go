package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "user"
)

// User is a stored identity, admin or customer. Only the bcrypt hash
// of the password is ever persisted.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`

	// Single-use password reset token, set only while a reset is
	// pending. Cleared on successful use.
	ResetToken   *string    `json:"-"`
	ResetExpires *time.Time `json:"-"`
}
