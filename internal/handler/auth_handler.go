package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medibook-api/internal/dto"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
	"github.com/noah-isme/medibook-api/pkg/response"
)

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated caller as stored, including the admin's hospital
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func Me(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, dto.CurrentUserFrom(principal), nil)
}
