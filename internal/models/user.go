package models

import "time"

// UserRole is the closed set of roles a principal can hold.
type UserRole string

const (
	RolePatient       UserRole = "PATIENT"
	RoleDoctor        UserRole = "DOCTOR"
	RoleHospitalAdmin UserRole = "HOSPITAL_ADMIN"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleHospitalAdmin:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         UserRole  `db:"role" json:"role"`
	HospitalID   *string   `db:"hospital_id" json:"hospital_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
