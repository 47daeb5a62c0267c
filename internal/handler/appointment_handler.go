package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/internal/service"
	"github.com/noah-isme/medibook-api/pkg/response"
)

type bookingService interface {
	Book(ctx context.Context, principal *models.Principal, req dto.CreateAppointmentRequest) (*dto.BookingResult, error)
}

type appointmentStatusService interface {
	UpdateStatus(ctx context.Context, principal *models.Principal, id string, target models.AppointmentStatus) (*models.Appointment, error)
}

type appointmentQueryService interface {
	List(ctx context.Context, principal *models.Principal, status string) ([]dto.AppointmentItem, error)
	Export(ctx context.Context, principal *models.Principal, rawFormat, status string) (*service.ExportFile, error)
}

// AppointmentHandler exposes booking, status workflow and listing endpoints.
type AppointmentHandler struct {
	booking bookingService
	status  appointmentStatusService
	query   appointmentQueryService
}

// NewAppointmentHandler constructs the handler.
func NewAppointmentHandler(booking bookingService, status appointmentStatusService, query appointmentQueryService) *AppointmentHandler {
	return &AppointmentHandler{booking: booking, status: status, query: query}
}

// Book godoc
// @Summary Book a time slot
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateAppointmentRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	result, err := h.booking.Book(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateStatus godoc
// @Summary Confirm, reject or cancel a pending appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param payload body dto.UpdateAppointmentStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	target := models.AppointmentStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	appt, err := h.status.UpdateStatus(c.Request.Context(), principalFromContext(c), c.Param("id"), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// List godoc
// @Summary List appointments visible to the caller
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	items, err := h.query.List(c.Request.Context(), principalFromContext(c), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Export godoc
// @Summary Download appointments visible to the caller
// @Tags Appointments
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param status query string false "Status filter"
// @Success 200 {file} file
// @Router /appointments/export [get]
func (h *AppointmentHandler) Export(c *gin.Context) {
	file, err := h.query.Export(c.Request.Context(), principalFromContext(c), c.Query("format"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
