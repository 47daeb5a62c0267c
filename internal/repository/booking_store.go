package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/medibook-api/internal/models"
)

// BookingTx is the set of reads and writes available inside a booking transaction.
// Lookups return sql.ErrNoRows when the row does not exist.
type BookingTx interface {
	SlotByID(ctx context.Context, id string) (*models.TimeSlot, error)
	AppointmentBySlot(ctx context.Context, slotID string) (*models.Appointment, error)
	DoctorByID(ctx context.Context, id string) (*models.Doctor, error)
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
}

// BookingStore runs booking transactions against PostgreSQL.
type BookingStore struct {
	runner *TxRunner
}

// NewBookingStore constructs the store; retries bounds serialization-failure retries.
func NewBookingStore(db *sqlx.DB, retries int) *BookingStore {
	return &BookingStore{runner: NewTxRunner(db, retries)}
}

// InSerializableTx executes fn inside one SERIALIZABLE transaction.
func (s *BookingStore) InSerializableTx(ctx context.Context, fn func(tx BookingTx) error) error {
	return s.runner.Serializable(ctx, func(tx *sqlx.Tx) error {
		return fn(&bookingTx{tx: tx})
	})
}

type bookingTx struct {
	tx *sqlx.Tx
}

const (
	slotByIDQuery = `SELECT id, doctor_id, start_time, end_time, created_at FROM time_slots WHERE id = $1`

	appointmentBySlotQuery = `SELECT id, patient_id, doctor_id, time_slot_id, reason, status, created_at, updated_at
FROM appointments WHERE time_slot_id = $1`

	doctorByIDQuery = `SELECT id, user_id, hospital_id, department_id, bio, created_at FROM doctors WHERE id = $1`

	insertAppointmentQuery = `INSERT INTO appointments (id, patient_id, doctor_id, time_slot_id, reason, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

func (b *bookingTx) SlotByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := b.tx.GetContext(ctx, &slot, slotByIDQuery, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (b *bookingTx) AppointmentBySlot(ctx context.Context, slotID string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := b.tx.GetContext(ctx, &appt, appointmentBySlotQuery, slotID); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (b *bookingTx) DoctorByID(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := b.tx.GetContext(ctx, &doctor, doctorByIDQuery, id); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (b *bookingTx) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	if _, err := b.tx.ExecContext(ctx, insertAppointmentQuery,
		appt.ID,
		appt.PatientID,
		appt.DoctorID,
		appt.TimeSlotID,
		appt.Reason,
		appt.Status,
		appt.CreatedAt,
		appt.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert appointment: %w", classify(err))
	}
	return nil
}
