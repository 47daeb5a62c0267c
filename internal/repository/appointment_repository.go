package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
)

// AppointmentRepository reads appointments and applies status transitions.
// Inserts happen inside BookingStore transactions.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, patient_id, doctor_id, time_slot_id, reason, status, created_at, updated_at`

// FindByID returns an appointment or sql.ErrNoRows.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return &appt, nil
}

// List returns the joined appointment view ordered by slot start.
func (r *AppointmentRepository) List(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AppointmentItem, error) {
	query := strings.Builder{}
	query.WriteString(`
SELECT
	a.id,
	a.status,
	a.reason,
	a.time_slot_id,
	ts.start_time,
	ts.end_time,
	a.patient_id,
	p.name AS patient_name,
	p.email AS patient_email,
	a.doctor_id,
	du.name AS doctor_name,
	d.hospital_id,
	h.name AS hospital_name,
	dep.name AS department_name,
	a.created_at,
	a.updated_at
FROM appointments a
JOIN time_slots ts ON ts.id = a.time_slot_id
JOIN users p ON p.id = a.patient_id
JOIN doctors d ON d.id = a.doctor_id
JOIN users du ON du.id = d.user_id
JOIN hospitals h ON h.id = d.hospital_id
JOIN departments dep ON dep.id = d.department_id
WHERE 1=1`)

	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		fmt.Fprintf(&query, " AND %s = $%d", clause, len(args))
	}
	if filter.PatientID != "" {
		add("a.patient_id", filter.PatientID)
	}
	if filter.DoctorID != "" {
		add("a.doctor_id", filter.DoctorID)
	}
	if filter.HospitalID != "" {
		add("d.hospital_id", filter.HospitalID)
	}
	if filter.Status != "" {
		add("a.status", string(filter.Status))
	}
	query.WriteString("\nORDER BY ts.start_time ASC, a.id ASC")

	var items []dto.AppointmentItem
	if err := r.db.SelectContext(ctx, &items, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return items, nil
}

// UpdateStatusIfPending moves a PENDING appointment to status. It returns
// sql.ErrNoRows when the row is missing or no longer PENDING.
func (r *AppointmentRepository) UpdateStatusIfPending(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	query := `UPDATE appointments SET status = $2, updated_at = $3
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + appointmentColumns
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id, string(status), time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update appointment status: %w", classify(err))
	}
	return &appt, nil
}
