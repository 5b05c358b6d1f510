package models

import "time"

// Role is a user's permission level within their department.
type Role string

// Roles.
const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

// User is a directory entry.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email,omitempty"`
	DepartmentID string    `json:"department_id"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthorInfo returns the public identity of the user.
func (u *User) AuthorInfo() *AuthorInfo {
	return &AuthorInfo{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

// Actor returns the user as an acting identity.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, DepartmentID: u.DepartmentID, Role: u.Role}
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID           string
	DepartmentID string
	Role         Role
}

// CreateUserRequest is the payload for provisioning a user.
type CreateUserRequest struct {
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Email        string `json:"email,omitempty"`
	DepartmentID string `json:"department_id"`
	Role         Role   `json:"role"`
}

// Validate checks CreateUserRequest fields.
func (r *CreateUserRequest) Validate() error {
	if r.Username == "" {
		return ErrMissingUsername
	}

	if len(r.Username) > 100 {
		return ErrFieldTooLong("username", 100)
	}

	if r.DepartmentID == "" {
		return ErrMissingDepartment
	}

	if r.Role == "" {
		r.Role = RoleEditor
	}

	if !r.Role.Valid() {
		return ErrInvalidRole
	}

	if r.DisplayName == "" {
		r.DisplayName = r.Username
	}

	return nil
}
