package dto

import "github.com/noah-isme/medibook-api/internal/models"

// CurrentUser is the caller's profile as returned by /auth/me.
type CurrentUser struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	Name       string          `json:"name"`
	HospitalID *string         `json:"hospitalId"`
}

// CurrentUserFrom copies the fields a client needs from principal.
func CurrentUserFrom(principal *models.Principal) CurrentUser {
	return CurrentUser{
		ID:         principal.ID,
		Email:      principal.Email,
		Role:       principal.Role,
		Name:       principal.Name,
		HospitalID: principal.HospitalID,
	}
}
