package dto

import (
	"time"

	"github.com/noah-isme/medibook-api/internal/models"
)

// CreateAppointmentRequest is the booking payload. Values are trimmed before validation.
type CreateAppointmentRequest struct {
	TimeSlotID string `json:"timeSlotId" validate:"required"`
	Reason     string `json:"reason" validate:"required,max=500"`
}

// BookingResult is returned for a successful booking.
type BookingResult struct {
	AppointmentID string                   `json:"appointmentId"`
	Status        models.AppointmentStatus `json:"status"`
}

// UpdateAppointmentStatusRequest carries the requested target status.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" validate:"required,oneof=CONFIRMED REJECTED CANCELLED"`
}

// AppointmentFilter scopes appointment listings; empty fields are ignored.
type AppointmentFilter struct {
	PatientID  string
	DoctorID   string
	HospitalID string
	Status     models.AppointmentStatus
}

// AppointmentItem is the joined appointment view used by listings and exports.
type AppointmentItem struct {
	ID             string                   `db:"id" json:"id"`
	Status         models.AppointmentStatus `db:"status" json:"status"`
	Reason         string                   `db:"reason" json:"reason"`
	TimeSlotID     string                   `db:"time_slot_id" json:"timeSlotId"`
	Start          time.Time                `db:"start_time" json:"start"`
	End            time.Time                `db:"end_time" json:"end"`
	StartLocal     string                   `db:"-" json:"startLocal,omitempty"`
	EndLocal       string                   `db:"-" json:"endLocal,omitempty"`
	PatientID      string                   `db:"patient_id" json:"patientId"`
	PatientName    string                   `db:"patient_name" json:"patientName"`
	PatientEmail   string                   `db:"patient_email" json:"patientEmail"`
	DoctorID       string                   `db:"doctor_id" json:"doctorId"`
	DoctorName     string                   `db:"doctor_name" json:"doctorName"`
	HospitalID     string                   `db:"hospital_id" json:"hospitalId"`
	HospitalName   string                   `db:"hospital_name" json:"hospitalName"`
	DepartmentName string                   `db:"department_name" json:"departmentName"`
	CreatedAt      time.Time                `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time                `db:"updated_at" json:"updatedAt"`
}
