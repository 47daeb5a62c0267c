package dto

import "github.com/noah-isme/medibook-api/internal/models"

// HospitalItem is a hospital with its departments.
type HospitalItem struct {
	models.Hospital
	Departments []models.Department `json:"departments"`
}

// CreateDepartmentRequest defines the department creation payload.
type CreateDepartmentRequest struct {
	HospitalID string `json:"hospitalId" validate:"required"`
	Name       string `json:"name" validate:"required,max=120"`
}

// DoctorFilter narrows doctor listings.
type DoctorFilter struct {
	HospitalID   string `form:"hospitalId"`
	DepartmentID string `form:"departmentId"`
}

// DoctorItem is a doctor profile joined with user and organisation names.
type DoctorItem struct {
	ID             string `db:"id" json:"id"`
	UserID         string `db:"user_id" json:"userId"`
	Name           string `db:"name" json:"name"`
	Email          string `db:"email" json:"email"`
	Bio            string `db:"bio" json:"bio"`
	HospitalID     string `db:"hospital_id" json:"hospitalId"`
	HospitalName   string `db:"hospital_name" json:"hospitalName"`
	DepartmentID   string `db:"department_id" json:"departmentId"`
	DepartmentName string `db:"department_name" json:"departmentName"`
}
