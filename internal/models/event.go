package models

// Appointment event types published after commit.
const (
	EventAppointmentBooked        = "appointment.booked"
	EventAppointmentStatusChanged = "appointment.status_changed"
	EventSlotCreated              = "slot.created"
)

// AppointmentEvent is the payload of appointment events.
type AppointmentEvent struct {
	AppointmentID string            `json:"appointment_id"`
	TimeSlotID    string            `json:"time_slot_id"`
	DoctorID      string            `json:"doctor_id"`
	PatientID     string            `json:"patient_id"`
	Status        AppointmentStatus `json:"status"`
	PreviousState AppointmentStatus `json:"previous_status,omitempty"`
	ActorID       string            `json:"actor_id"`
}

// SlotEvent is the payload of slot events.
type SlotEvent struct {
	TimeSlotID string `json:"time_slot_id"`
	DoctorID   string `json:"doctor_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
}
