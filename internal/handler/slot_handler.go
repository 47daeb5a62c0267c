package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/middleware"
	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/pkg/response"
)

type slotService interface {
	Get(ctx context.Context, id string) (*dto.SlotItem, error)
	List(ctx context.Context, doctorID string) ([]dto.SlotItem, bool, error)
	Create(ctx context.Context, principal *models.Principal, req dto.CreateSlotRequest) (*dto.SlotItem, error)
}

// SlotHandler exposes the slot ledger.
type SlotHandler struct {
	service slotService
}

// NewSlotHandler constructs the handler.
func NewSlotHandler(service slotService) *SlotHandler {
	return &SlotHandler{service: service}
}

// List godoc
// @Summary List time slots with booked flag
// @Tags TimeSlots
// @Produce json
// @Param doctorId query string false "Doctor ID"
// @Success 200 {object} response.Envelope
// @Router /time-slots [get]
func (h *SlotHandler) List(c *gin.Context) {
	items, hit, err := h.service.List(c.Request.Context(), strings.TrimSpace(c.Query("doctorId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a time slot
// @Tags TimeSlots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /time-slots/{id} [get]
func (h *SlotHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Publish a time slot for the calling doctor
// @Tags TimeSlots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateSlotRequest true "Slot window"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /time-slots [post]
func (h *SlotHandler) Create(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	item, err := h.service.Create(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}
