package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/pkg/export"
	"github.com/noah-isme/medibook-api/pkg/timezone"
)

type appointmentListRepository interface {
	List(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AppointmentItem, error)
}

type queryDoctorRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Doctor, error)
}

// ExportFile is a rendered appointment roster.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AppointmentQueryService lists appointments scoped by the caller's role.
type AppointmentQueryService struct {
	appointments appointmentListRepository
	doctors      queryDoctorRepository
	tz           *timezone.Policy
	logger       *zap.Logger
	now          func() time.Time
}

// NewAppointmentQueryService constructs the service.
func NewAppointmentQueryService(appointments appointmentListRepository, doctors queryDoctorRepository, tz *timezone.Policy, logger *zap.Logger) *AppointmentQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tz == nil {
		tz = timezone.MustNew("UTC")
	}
	return &AppointmentQueryService{
		appointments: appointments,
		doctors:      doctors,
		tz:           tz,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// List returns patients their own appointments, doctors those of their
// profile, and hospital admins those of their hospital's doctors.
func (s *AppointmentQueryService) List(ctx context.Context, principal *models.Principal, status string) ([]dto.AppointmentItem, error) {
	if err := authorize(principal, models.ActionListAppointments); err != nil {
		return nil, err
	}
	filter, err := s.scope(ctx, principal)
	if err != nil {
		return nil, err
	}
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		st := models.AppointmentStatus(status)
		if st != models.StatusPending && !st.Terminal() {
			return nil, invalidRequest(nil, "unknown status filter")
		}
		filter.Status = st
	}

	items, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, internal(err, "failed to list appointments")
	}
	if items == nil {
		items = []dto.AppointmentItem{}
	}
	for i := range items {
		items[i].StartLocal = s.tz.Display(items[i].Start)
		items[i].EndLocal = s.tz.Display(items[i].End)
	}
	return items, nil
}

// Export renders the caller's listing as CSV or PDF.
func (s *AppointmentQueryService) Export(ctx context.Context, principal *models.Principal, rawFormat, status string) (*ExportFile, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, invalidRequest(err, "format must be csv or pdf")
	}
	items, err := s.List(ctx, principal, status)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now()
	table := export.Table{
		Title:       "Appointments",
		Headers:     []string{"Start", "End", "Status", "Patient", "Doctor", "Hospital", "Department", "Reason"},
		GeneratedAt: generatedAt,
	}
	for _, item := range items {
		table.Rows = append(table.Rows, []string{
			item.StartLocal,
			item.EndLocal,
			string(item.Status),
			item.PatientName,
			item.DoctorName,
			item.HospitalName,
			item.DepartmentName,
			item.Reason,
		})
	}
	data, err := export.RendererFor(format).Render(table)
	if err != nil {
		return nil, internal(err, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("appointments-%s.%s", generatedAt.Format("20060102-150405"), format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

func (s *AppointmentQueryService) scope(ctx context.Context, principal *models.Principal) (dto.AppointmentFilter, error) {
	switch principal.Role {
	case models.RolePatient:
		return dto.AppointmentFilter{PatientID: principal.ID}, nil
	case models.RoleDoctor:
		doctor, err := s.doctors.FindByUserID(ctx, principal.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return dto.AppointmentFilter{}, invalidRequest(nil, "doctor profile not found")
			}
			return dto.AppointmentFilter{}, internal(err, "failed to resolve doctor profile")
		}
		return dto.AppointmentFilter{DoctorID: doctor.ID}, nil
	case models.RoleHospitalAdmin:
		if principal.HospitalID == nil || *principal.HospitalID == "" {
			return dto.AppointmentFilter{}, invalidRequest(nil, "not associated with a hospital")
		}
		return dto.AppointmentFilter{HospitalID: *principal.HospitalID}, nil
	}
	return dto.AppointmentFilter{}, invalidRequest(nil, "unsupported role")
}
