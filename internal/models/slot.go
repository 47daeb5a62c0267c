package models

import "time"

// TimeSlot is a bookable [Start, End) interval owned by one doctor. Times are UTC.
type TimeSlot struct {
	ID        string    `db:"id" json:"id"`
	DoctorID  string    `db:"doctor_id" json:"doctor_id"`
	Start     time.Time `db:"start_time" json:"start"`
	End       time.Time `db:"end_time" json:"end"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SlotWithBooking is a ledger row joined with its committed appointment, if any.
type SlotWithBooking struct {
	TimeSlot
	AppointmentID *string `db:"appointment_id" json:"appointment_id,omitempty"`
}
