package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
)

// DoctorRepository provides access to doctor profiles.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository constructs the repository.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// List returns doctors joined with their user, hospital and department names.
func (r *DoctorRepository) List(ctx context.Context, filter dto.DoctorFilter) ([]dto.DoctorItem, error) {
	query := strings.Builder{}
	query.WriteString(`
SELECT
	d.id,
	d.user_id,
	u.name,
	u.email,
	d.bio,
	d.hospital_id,
	h.name AS hospital_name,
	d.department_id,
	dep.name AS department_name
FROM doctors d
JOIN users u ON u.id = d.user_id
JOIN hospitals h ON h.id = d.hospital_id
JOIN departments dep ON dep.id = d.department_id
WHERE 1=1`)

	var args []interface{}
	if filter.HospitalID != "" {
		args = append(args, filter.HospitalID)
		fmt.Fprintf(&query, " AND d.hospital_id = $%d", len(args))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		fmt.Fprintf(&query, " AND d.department_id = $%d", len(args))
	}
	query.WriteString("\nORDER BY u.name ASC")

	var items []dto.DoctorItem
	if err := r.db.SelectContext(ctx, &items, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return items, nil
}

// FindByID returns a doctor profile or sql.ErrNoRows.
func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, doctorByIDQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return &doctor, nil
}

// FindByUserID returns the profile of a DOCTOR user or sql.ErrNoRows.
func (r *DoctorRepository) FindByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	const query = `SELECT id, user_id, hospital_id, department_id, bio, created_at FROM doctors WHERE user_id = $1`
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find doctor by user: %w", err)
	}
	return &doctor, nil
}

// Create inserts a doctor profile; re-inserting the same id is a no-op.
func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	if doctor.ID == "" {
		doctor.ID = uuid.NewString()
	}
	if doctor.CreatedAt.IsZero() {
		doctor.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO doctors (id, user_id, hospital_id, department_id, bio, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, doctor.ID, doctor.UserID, doctor.HospitalID, doctor.DepartmentID, doctor.Bio, doctor.CreatedAt); err != nil {
		return fmt.Errorf("create doctor: %w", classify(err))
	}
	return nil
}
