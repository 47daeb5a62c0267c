package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/pkg/response"
)

type catalogService interface {
	ListHospitals(ctx context.Context) ([]dto.HospitalItem, error)
	ListDepartments(ctx context.Context, principal *models.Principal, hospitalID string) ([]models.Department, error)
	CreateDepartment(ctx context.Context, principal *models.Principal, req dto.CreateDepartmentRequest) (*models.Department, error)
	ListDoctors(ctx context.Context, filter dto.DoctorFilter) ([]dto.DoctorItem, error)
}

// CatalogHandler exposes hospitals, departments and doctors.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListHospitals godoc
// @Summary List hospitals with their departments
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hospitals [get]
func (h *CatalogHandler) ListHospitals(c *gin.Context) {
	items, err := h.service.ListHospitals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListDepartments godoc
// @Summary List departments of a hospital
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param hospitalId query string true "Hospital ID"
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	items, err := h.service.ListDepartments(c.Request.Context(), principalFromContext(c), c.Query("hospitalId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateDepartment godoc
// @Summary Create a department in the admin's hospital
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *CatalogHandler) CreateDepartment(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	dep, err := h.service.CreateDepartment(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dep)
}

// ListDoctors godoc
// @Summary List doctors
// @Tags Catalog
// @Produce json
// @Param hospitalId query string false "Hospital ID"
// @Param departmentId query string false "Department ID"
// @Success 200 {object} response.Envelope
// @Router /doctors [get]
func (h *CatalogHandler) ListDoctors(c *gin.Context) {
	var filter dto.DoctorFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	items, err := h.service.ListDoctors(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
