package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/medibook-api/internal/models"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
)

const msgAlreadyResolved = "appointment already resolved"

type statusAppointmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	UpdateStatusIfPending(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error)
}

type statusDoctorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Doctor, error)
}

// AppointmentStatusService applies the PENDING -> CONFIRMED|REJECTED|CANCELLED workflow.
type AppointmentStatusService struct {
	appointments statusAppointmentRepository
	doctors      statusDoctorRepository
	effects      *SideEffects
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewAppointmentStatusService constructs the service.
func NewAppointmentStatusService(appointments statusAppointmentRepository, doctors statusDoctorRepository, effects *SideEffects, metrics *MetricsService, logger *zap.Logger) *AppointmentStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentStatusService{appointments: appointments, doctors: doctors, effects: effects, metrics: metrics, logger: logger}
}

// UpdateStatus moves appointment id to target on behalf of principal.
func (s *AppointmentStatusService) UpdateStatus(ctx context.Context, principal *models.Principal, id string, target models.AppointmentStatus) (*models.Appointment, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	action, ok := models.TransitionAction(target)
	if !ok {
		return nil, invalidRequest(nil, "status must be one of CONFIRMED, REJECTED, CANCELLED")
	}

	appt, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, internal(err, "failed to load appointment")
	}

	counterparty, err := s.checkActor(ctx, principal, action, appt)
	if err != nil {
		return nil, err
	}

	if appt.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, msgAlreadyResolved)
	}

	updated, err := s.appointments.UpdateStatusIfPending(ctx, appt.ID, target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, msgAlreadyResolved)
		}
		return nil, internal(err, "failed to update appointment")
	}
	s.metrics.ObserveTransition(string(updated.Status))

	s.effects.Audit(principal.ID, models.AuditActionUpdateAppointment, map[string]string{
		"appointmentId": updated.ID,
		"from":          string(models.StatusPending),
		"to":            string(updated.Status),
	})
	s.effects.Notify(counterparty, notificationFor(updated.Status, principal))
	s.effects.Publish(updated.TimeSlotID, models.EventAppointmentStatusChanged, models.AppointmentEvent{
		AppointmentID: updated.ID,
		TimeSlotID:    updated.TimeSlotID,
		DoctorID:      updated.DoctorID,
		PatientID:     updated.PatientID,
		Status:        updated.Status,
		PreviousState: models.StatusPending,
		ActorID:       principal.ID,
	})
	return updated, nil
}

// checkActor enforces role and ownership and returns the user to notify.
func (s *AppointmentStatusService) checkActor(ctx context.Context, principal *models.Principal, action models.Action, appt *models.Appointment) (string, error) {
	if !models.Allows(principal.Role, action) {
		return "", appErrors.Clone(appErrors.ErrForbidden, forbiddenMessage(action))
	}

	switch principal.Role {
	case models.RoleDoctor:
		doctor, err := s.doctors.FindByUserID(ctx, principal.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrForbidden, "doctor profile not found")
			}
			return "", internal(err, "failed to resolve doctor profile")
		}
		if doctor.ID != appt.DoctorID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "forbidden")
		}
		return appt.PatientID, nil
	case models.RolePatient:
		if appt.PatientID != principal.ID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "forbidden")
		}
		doctor, err := s.doctors.FindByID(ctx, appt.DoctorID)
		if err != nil {
			s.logger.Warn("doctor lookup for notification failed", zap.String("doctor_id", appt.DoctorID), zap.Error(err))
			return "", nil
		}
		return doctor.UserID, nil
	}
	return "", appErrors.Clone(appErrors.ErrForbidden, "forbidden")
}

func notificationFor(status models.AppointmentStatus, actor *models.Principal) string {
	if status == models.StatusCancelled {
		return fmt.Sprintf("Appointment CANCELLED by %s", actor.Email)
	}
	return fmt.Sprintf("Appointment %s", status)
}
