package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/internal/repository"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
)

const (
	msgSlotAlreadyBooked = "slot already booked"
	msgBookingIncomplete = "booking could not complete, retry"
)

// BookingStore runs a callback inside one serializable transaction.
type BookingStore interface {
	InSerializableTx(ctx context.Context, fn func(tx repository.BookingTx) error) error
}

// BookingService books time slots for patients. At most one appointment per
// slot is ever committed; every losing attempt observes Conflict.
type BookingService struct {
	store     BookingStore
	cache     *CacheService
	effects   *SideEffects
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
	newID     func() string
}

// BookingServiceConfig bundles optional collaborators.
type BookingServiceConfig struct {
	Cache     *CacheService
	Effects   *SideEffects
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	// Timeout bounds the whole transaction including retries; zero means no bound.
	Timeout time.Duration
}

// NewBookingService constructs the service.
func NewBookingService(store BookingStore, cfg BookingServiceConfig) *BookingService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	return &BookingService{
		store:     store,
		cache:     cfg.Cache,
		effects:   cfg.Effects,
		metrics:   cfg.Metrics,
		validator: cfg.Validator,
		logger:    cfg.Logger,
		timeout:   cfg.Timeout,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Book claims req.TimeSlotID for the principal.
func (s *BookingService) Book(ctx context.Context, principal *models.Principal, req dto.CreateAppointmentRequest) (*dto.BookingResult, error) {
	if err := authorize(principal, models.ActionBookAppointment); err != nil {
		s.metrics.ObserveBooking(BookingOutcomeRejected, 0)
		return nil, err
	}
	req.TimeSlotID = strings.TrimSpace(req.TimeSlotID)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		s.metrics.ObserveBooking(BookingOutcomeRejected, 0)
		return nil, invalidRequest(err, "timeSlotId and reason required")
	}

	txCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	var (
		appt   *models.Appointment
		doctor *models.Doctor
	)
	err := s.store.InSerializableTx(txCtx, func(tx repository.BookingTx) error {
		appt, doctor = nil, nil

		slot, err := tx.SlotByID(txCtx, req.TimeSlotID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
			}
			return err
		}

		if _, err := tx.AppointmentBySlot(txCtx, slot.ID); err == nil {
			return appErrors.Clone(appErrors.ErrConflict, msgSlotAlreadyBooked)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		d, err := tx.DoctorByID(txCtx, slot.DoctorID)
		if err != nil {
			return err
		}

		now := s.now()
		candidate := &models.Appointment{
			ID:         s.newID(),
			PatientID:  principal.ID,
			DoctorID:   slot.DoctorID,
			TimeSlotID: slot.ID,
			Reason:     req.Reason,
			Status:     models.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.CreateAppointment(txCtx, candidate); err != nil {
			return err
		}
		appt, doctor = candidate, d
		return nil
	})
	elapsed := time.Since(started)
	if err != nil {
		outcome, mapped := s.mapTxError(err, txCtx.Err(), req.TimeSlotID)
		s.metrics.ObserveBooking(outcome, elapsed)
		return nil, mapped
	}
	s.metrics.ObserveBooking(BookingOutcomeBooked, elapsed)

	s.cache.Bump(ctx, slotGenerationKeys(appt.DoctorID)...)
	s.effects.Audit(principal.ID, models.AuditActionBookAppointment, map[string]string{
		"appointmentId": appt.ID,
		"timeSlotId":    appt.TimeSlotID,
	})
	s.effects.Notify(doctor.UserID, "New appointment requested by "+principal.Email)
	s.effects.Publish(appt.TimeSlotID, models.EventAppointmentBooked, models.AppointmentEvent{
		AppointmentID: appt.ID,
		TimeSlotID:    appt.TimeSlotID,
		DoctorID:      appt.DoctorID,
		PatientID:     appt.PatientID,
		Status:        appt.Status,
		ActorID:       principal.ID,
	})

	return &dto.BookingResult{AppointmentID: appt.ID, Status: appt.Status}, nil
}

// mapTxError normalizes failures of the critical section. Typed errors raised
// by the callback pass through. A deadline or cancel is a Conflict that leaves
// the slot state unknown; a transaction that never began is a 503; any other
// store failure means the slot could not be claimed.
func (s *BookingService) mapTxError(err, ctxErr error, slotID string) (string, error) {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		if typed.Code == appErrors.ErrConflict.Code {
			return BookingOutcomeConflict, typed
		}
		return BookingOutcomeRejected, typed
	}
	if ctxErr != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.Warn("booking interrupted", zap.String("time_slot_id", slotID), zap.Error(err))
		return BookingOutcomeConflict, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, msgBookingIncomplete)
	}
	if errors.Is(err, repository.ErrTxBegin) {
		s.logger.Error("booking transaction could not start", zap.String("time_slot_id", slotID), zap.Error(err))
		return BookingOutcomeUnavailable, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "booking temporarily unavailable")
	}
	s.logger.Info("booking aborted",
		zap.String("time_slot_id", slotID),
		zap.String("constraint", repository.Constraint(err)),
		zap.Error(err),
	)
	return BookingOutcomeConflict, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, msgSlotAlreadyBooked)
}
