package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medibook-api/internal/middleware"
	"github.com/noah-isme/medibook-api/internal/models"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
)

func principalFromContext(c *gin.Context) *models.Principal {
	return middleware.PrincipalFrom(c)
}

func invalidBody(err error) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, http.StatusBadRequest, "invalid request body")
}
