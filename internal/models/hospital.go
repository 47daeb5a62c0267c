package models

import "time"

// Hospital is a care facility that groups departments and doctors.
type Hospital struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Department belongs to exactly one hospital.
type Department struct {
	ID         string    `db:"id" json:"id"`
	HospitalID string    `db:"hospital_id" json:"hospital_id"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Doctor is the practitioner profile attached to a DOCTOR user.
type Doctor struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	HospitalID   string    `db:"hospital_id" json:"hospital_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Bio          string    `db:"bio" json:"bio"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
