package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medibook-api/internal/middleware"
	"github.com/noah-isme/medibook-api/internal/models"
)

// Routes groups the handlers mounted under the API prefix.
type Routes struct {
	Auth          middleware.PrincipalResolver
	Appointments  *AppointmentHandler
	Slots         *SlotHandler
	Catalog       *CatalogHandler
	Notifications *NotificationHandler
}

// Register mounts every API route on group.
func (r Routes) Register(group *gin.RouterGroup) {
	auth := middleware.Authenticate(r.Auth)
	public := middleware.OptionalAuth(r.Auth)

	group.GET("/auth/me", auth, Me)

	group.GET("/hospitals", public, r.Catalog.ListHospitals)
	group.GET("/doctors", public, r.Catalog.ListDoctors)
	group.GET("/departments", auth, r.Catalog.ListDepartments)
	group.POST("/departments", auth, middleware.RequireAction(models.ActionCreateDepartment), r.Catalog.CreateDepartment)

	slots := group.Group("/time-slots")
	slots.GET("", public, r.Slots.List)
	slots.GET("/:id", public, r.Slots.Get)
	slots.POST("", auth, middleware.RequireAction(models.ActionCreateSlot), r.Slots.Create)

	appointments := group.Group("/appointments", auth)
	appointments.GET("", r.Appointments.List)
	appointments.GET("/export", r.Appointments.Export)
	appointments.POST("", middleware.RequireAction(models.ActionBookAppointment), r.Appointments.Book)
	appointments.PATCH("/:id/status", middleware.RequireRoles(models.RoleDoctor, models.RolePatient), r.Appointments.UpdateStatus)

	group.GET("/notifications", auth, r.Notifications.List)
}
