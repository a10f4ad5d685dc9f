package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role classifies the identity carried by an access token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBorrower Role = "borrower"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleBorrower:
		return true
	}
	return false
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Email string
	Role  Role
	JTI   string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}
