package models

// Role is the backend role of a console user
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleManagement Role = "management"
	RoleMaintainer Role = "maintainer"

	// RoleNoAuth is the resolved role when "who am I" fails
	RoleNoAuth Role = "no_auth"
	// RoleAnonymous is displayed for the anonymous sentinel user
	RoleAnonymous Role = "anonymous"
)

// AnonymousEmail identifies the pseudo-user that stands for unauthenticated traffic
const AnonymousEmail = "anonymous@a2a-routing.com"

// AssignableRoles lists the roles an admin may give to a user
var AssignableRoles = []Role{RoleUser, RoleAdmin, RoleManagement, RoleMaintainer}

// Assignable reports whether r can be set through a role change
func (r Role) Assignable() bool {
	for _, a := range AssignableRoles {
		if r == a {
			return true
		}
	}
	return false
}

// User is a backend user as listed by GET /users
type User struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAnonymous reports whether u is the anonymous sentinel
func (u User) IsAnonymous() bool {
	return u.Email == AnonymousEmail
}

// AnonymousUser returns the sentinel row appended to the admin user list
func AnonymousUser() User {
	return User{Email: AnonymousEmail, Role: RoleAnonymous}
}

// Identity is the answer to GET /auth/me
type Identity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Authenticated reports whether the identity came from a successful lookup
func (i Identity) Authenticated() bool {
	return i.Role != "" && i.Role != RoleNoAuth
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest is the body of POST /auth/register
type RegisterUserRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	SecretCode string `json:"secret_code" binding:"required"`
}

// APIKeyResponse carries a user's personal API key
type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

// ChangeRoleRequest is the body of POST /users/role
type ChangeRoleRequest struct {
	Email string `json:"email" binding:"required"`
	Role  Role   `json:"role" binding:"required"`
}

// UserRow is one row of the admin user table
type UserRow struct {
	User
	Selected      bool `json:"selected"`
	CanChangeRole bool `json:"can_change_role"`
	CanDelete     bool `json:"can_delete"`
}
