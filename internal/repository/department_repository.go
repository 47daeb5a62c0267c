package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/medibook-api/internal/models"
)

// DepartmentRepository provides access to hospital departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// ListByHospital returns the departments of one hospital.
func (r *DepartmentRepository) ListByHospital(ctx context.Context, hospitalID string) ([]models.Department, error) {
	const query = `SELECT id, hospital_id, name, created_at FROM departments WHERE hospital_id = $1 ORDER BY name ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, hospitalID); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// ListByHospitals returns departments for several hospitals in one round trip.
func (r *DepartmentRepository) ListByHospitals(ctx context.Context, hospitalIDs []string) ([]models.Department, error) {
	if len(hospitalIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, hospital_id, name, created_at FROM departments WHERE hospital_id = ANY($1) ORDER BY hospital_id ASC, name ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, pq.Array(hospitalIDs)); err != nil {
		return nil, fmt.Errorf("list departments by hospitals: %w", err)
	}
	return departments, nil
}

// Create inserts a department. A duplicate name in the same hospital yields ErrUniqueViolation.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	if department.CreatedAt.IsZero() {
		department.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO departments (id, hospital_id, name, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, department.ID, department.HospitalID, department.Name, department.CreatedAt); err != nil {
		return fmt.Errorf("create department: %w", classify(err))
	}
	return nil
}
