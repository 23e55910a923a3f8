package models

import "github.com/golang-jwt/jwt/v5"

// Role is the caller's role inside their company
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Identity is the verified caller every task and notification operation runs as
type Identity struct {
	UserID    string
	Name      string
	Role      Role
	CompanyID string
}

// IsAdmin reports whether the caller holds the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// User is the slice of the user directory this service reads
type User struct {
	ID        string `bson:"_id" json:"_id"`
	Name      string `bson:"name" json:"name"`
	Email     string `bson:"email" json:"email"`
	Role      Role   `bson:"role" json:"role"`
	CompanyID string `bson:"companyId" json:"companyId"`
}

// Claims represents JWT claims
type Claims struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Role      Role   `json:"role"`
	CompanyID string `json:"company_id"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into the caller identity
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:    c.UserID,
		Name:      c.UserName,
		Role:      c.Role,
		CompanyID: c.CompanyID,
	}
}

// MockTokenRequest is the body of POST /api/auth/mock-token
type MockTokenRequest struct {
	UserID    string `json:"userId" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email"`
	Role      Role   `json:"role" binding:"required,oneof=admin member"`
	CompanyID string `json:"companyId" binding:"required"`
}

// AuthResponse represents the response for the token endpoint
type AuthResponse struct {
	Token string `json:"token"`
}
