package domain

import "time"

// Role is the access level of an account.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is an account that can submit tickets or be assigned to them.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Skills       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Assignee is the public view of the user a ticket is assigned to.
type Assignee struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
