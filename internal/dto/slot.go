package dto

import "time"

// CreateSlotRequest accepts RFC3339 instants or wall-clock "YYYY-MM-DDTHH:MM" values.
type CreateSlotRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// SlotItem is a ledger entry as presented to clients.
type SlotItem struct {
	ID            string    `json:"id"`
	DoctorID      string    `json:"doctorId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	StartLocal    string    `json:"startLocal"`
	EndLocal      string    `json:"endLocal"`
	Booked        bool      `json:"booked"`
	AppointmentID *string   `json:"appointmentId,omitempty"`
}
