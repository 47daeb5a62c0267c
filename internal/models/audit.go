package models

import (
	"encoding/json"
	"time"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionBookAppointment   = "BOOK_APPOINTMENT"
	AuditActionUpdateAppointment = "UPDATE_APPOINTMENT"
	AuditActionCreateSlot        = "CREATE_SLOT"
	AuditActionCreateDepartment  = "CREATE_DEPARTMENT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID        string          `db:"id" json:"id"`
	UserID    *string         `db:"user_id" json:"user_id,omitempty"`
	Action    string          `db:"action" json:"action"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NewAuditLog builds an entry for actorID with a JSON-encoded payload.
func NewAuditLog(actorID, action string, payload interface{}) (*AuditLog, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	entry := &AuditLog{Action: action, Payload: raw}
	if actorID != "" {
		entry.UserID = &actorID
	}
	return entry, nil
}
