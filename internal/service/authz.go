package service

import (
	"github.com/noah-isme/medibook-api/internal/models"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
)

// authorize checks presence before role so anonymous callers always see Unauthorized.
func authorize(principal *models.Principal, action models.Action) error {
	if principal == nil || principal.ID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "unauthenticated")
	}
	if !models.Allows(principal.Role, action) {
		return appErrors.Clone(appErrors.ErrForbidden, forbiddenMessage(action))
	}
	return nil
}

func requirePrincipal(principal *models.Principal) error {
	if principal == nil || principal.ID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "unauthenticated")
	}
	return nil
}

func forbiddenMessage(action models.Action) string {
	roles := models.RolesFor(action)
	if len(roles) != 1 {
		return "forbidden"
	}
	switch roles[0] {
	case models.RolePatient:
		return "patients only"
	case models.RoleDoctor:
		return "doctors only"
	case models.RoleHospitalAdmin:
		return "hospital admins only"
	}
	return "forbidden"
}

func invalidRequest(err error, message string) error {
	if err == nil {
		return appErrors.Clone(appErrors.ErrInvalidRequest, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, message)
}

func internal(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
