package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the access token payload. Tokens are minted by the identity
// service; this API only verifies them.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller resolved for a request.
type Principal struct {
	ID         string   `json:"id"`
	Role       UserRole `json:"role"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	HospitalID *string  `json:"hospital_id,omitempty"`
}

// PrincipalFromUser builds a Principal from a stored user.
func PrincipalFromUser(u *User) *Principal {
	if u == nil {
		return nil
	}
	return &Principal{ID: u.ID, Role: u.Role, Email: u.Email, Name: u.Name, HospitalID: u.HospitalID}
}
