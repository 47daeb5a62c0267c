package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/medibook-api/internal/models"
)

// HospitalRepository provides access to hospitals.
type HospitalRepository struct {
	db *sqlx.DB
}

// NewHospitalRepository constructs the repository.
func NewHospitalRepository(db *sqlx.DB) *HospitalRepository {
	return &HospitalRepository{db: db}
}

// List returns all hospitals ordered by name.
func (r *HospitalRepository) List(ctx context.Context) ([]models.Hospital, error) {
	const query = `SELECT id, name, address, created_at FROM hospitals ORDER BY name ASC`
	var hospitals []models.Hospital
	if err := r.db.SelectContext(ctx, &hospitals, query); err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	return hospitals, nil
}

// FindByID returns a hospital or sql.ErrNoRows.
func (r *HospitalRepository) FindByID(ctx context.Context, id string) (*models.Hospital, error) {
	const query = `SELECT id, name, address, created_at FROM hospitals WHERE id = $1`
	var hospital models.Hospital
	if err := r.db.GetContext(ctx, &hospital, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find hospital: %w", err)
	}
	return &hospital, nil
}

// Create inserts a hospital; re-inserting the same id is a no-op.
func (r *HospitalRepository) Create(ctx context.Context, hospital *models.Hospital) error {
	if hospital.ID == "" {
		hospital.ID = uuid.NewString()
	}
	if hospital.CreatedAt.IsZero() {
		hospital.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO hospitals (id, name, address, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, hospital.ID, hospital.Name, hospital.Address, hospital.CreatedAt); err != nil {
		return fmt.Errorf("create hospital: %w", err)
	}
	return nil
}
