package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medibook-api/internal/models"
)

var appointmentRowColumns = []string{"id", "patient_id", "doctor_id", "time_slot_id", "reason", "status", "created_at", "updated_at"}

func TestBookingStoreCommitsNewAppointment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM time_slots WHERE id = \\$1").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "doctor_id", "start_time", "end_time", "created_at"}).
			AddRow("s1", "d1", now, now.Add(30*time.Minute), now))
	mock.ExpectQuery("FROM appointments WHERE time_slot_id = \\$1").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns))
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs("a1", "p1", "d1", "s1", "checkup", "PENDING", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewBookingStore(db, 3)
	err := store.InSerializableTx(context.Background(), func(tx BookingTx) error {
		slot, err := tx.SlotByID(context.Background(), "s1")
		if err != nil {
			return err
		}
		if _, err := tx.AppointmentBySlot(context.Background(), slot.ID); !errors.Is(err, sql.ErrNoRows) {
			return errors.New("expected no appointment")
		}
		return tx.CreateAppointment(context.Background(), &models.Appointment{
			ID: "a1", PatientID: "p1", DoctorID: slot.DoctorID, TimeSlotID: slot.ID,
			Reason: "checkup", Status: models.StatusPending, CreatedAt: now, UpdatedAt: now,
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingStoreSurfacesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "appointments_time_slot_id_key"})
	mock.ExpectRollback()

	store := NewBookingStore(db, 3)
	err := store.InSerializableTx(context.Background(), func(tx BookingTx) error {
		return tx.CreateAppointment(context.Background(), &models.Appointment{ID: "a2", TimeSlotID: "s1", Status: models.StatusPending})
	})
	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.Equal(t, "appointments_time_slot_id_key", Constraint(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingStoreDoctorLookup(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM doctors WHERE id = \\$1").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "hospital_id", "department_id", "bio", "created_at"}).
			AddRow("d1", "u-doc", "h1", "dep1", "", time.Now()))
	mock.ExpectCommit()

	var doctor *models.Doctor
	store := NewBookingStore(db, 1)
	err := store.InSerializableTx(context.Background(), func(tx BookingTx) error {
		var err error
		doctor, err = tx.DoctorByID(context.Background(), "d1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "u-doc", doctor.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
