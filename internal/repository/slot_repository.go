package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/medibook-api/internal/models"
)

// ErrSlotOverlap indicates the doctor already owns a slot intersecting the requested interval.
var ErrSlotOverlap = errors.New("overlapping slot exists")

// SlotRepository manages the time slot ledger.
type SlotRepository struct {
	db     *sqlx.DB
	runner *TxRunner
}

// NewSlotRepository constructs the repository; retries bounds serialization-failure retries on create.
func NewSlotRepository(db *sqlx.DB, retries int) *SlotRepository {
	return &SlotRepository{db: db, runner: NewTxRunner(db, retries)}
}

const slotWithBookingColumns = `ts.id, ts.doctor_id, ts.start_time, ts.end_time, ts.created_at, a.id AS appointment_id
FROM time_slots ts
LEFT JOIN appointments a ON a.time_slot_id = ts.id`

// FindByID returns a slot with its committed appointment id, or sql.ErrNoRows.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.SlotWithBooking, error) {
	query := `SELECT ` + slotWithBookingColumns + ` WHERE ts.id = $1`
	var slot models.SlotWithBooking
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find slot: %w", err)
	}
	return &slot, nil
}

// List returns slots joined with their committed appointment id. An empty
// doctorID lists every doctor's slots.
func (r *SlotRepository) List(ctx context.Context, doctorID string) ([]models.SlotWithBooking, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + slotWithBookingColumns)
	var args []interface{}
	if doctorID != "" {
		args = append(args, doctorID)
		query.WriteString("\nWHERE ts.doctor_id = $1")
	}
	query.WriteString("\nORDER BY ts.start_time ASC, ts.id ASC")

	var slots []models.SlotWithBooking
	if err := r.db.SelectContext(ctx, &slots, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

const (
	overlappingSlotQuery = `SELECT id FROM time_slots
WHERE doctor_id = $1 AND start_time < $3 AND end_time > $2
LIMIT 1`

	insertSlotQuery = `INSERT INTO time_slots (id, doctor_id, start_time, end_time, created_at)
VALUES ($1, $2, $3, $4, $5)`
)

// CreateExclusive inserts slot unless it overlaps another slot of the same
// doctor, in which case ErrSlotOverlap is returned.
func (r *SlotRepository) CreateExclusive(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	slot.Start = slot.Start.UTC()
	slot.End = slot.End.UTC()

	err := r.runner.Serializable(ctx, func(tx *sqlx.Tx) error {
		var existing string
		err := tx.GetContext(ctx, &existing, overlappingSlotQuery, slot.DoctorID, slot.Start, slot.End)
		switch {
		case err == nil:
			return ErrSlotOverlap
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check overlap: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertSlotQuery, slot.ID, slot.DoctorID, slot.Start, slot.End, slot.CreatedAt); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrExclusionViolation) {
		return ErrSlotOverlap
	}
	return err
}
