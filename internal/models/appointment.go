package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusRejected  AppointmentStatus = "REJECTED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected || s == StatusCancelled
}

// TransitionAction maps a requested target status to the guarded action.
// ok is false for targets that cannot be requested (including PENDING).
func TransitionAction(target AppointmentStatus) (action Action, ok bool) {
	switch target {
	case StatusConfirmed:
		return ActionConfirm, true
	case StatusRejected:
		return ActionReject, true
	case StatusCancelled:
		return ActionCancel, true
	}
	return "", false
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to AppointmentStatus) bool {
	if from != StatusPending {
		return false
	}
	_, ok := TransitionAction(to)
	return ok
}

// Appointment is a patient's claim on exactly one time slot.
type Appointment struct {
	ID         string            `db:"id" json:"id"`
	PatientID  string            `db:"patient_id" json:"patient_id"`
	DoctorID   string            `db:"doctor_id" json:"doctor_id"`
	TimeSlotID string            `db:"time_slot_id" json:"time_slot_id"`
	Reason     string            `db:"reason" json:"reason"`
	Status     AppointmentStatus `db:"status" json:"status"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`
}
