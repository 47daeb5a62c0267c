package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
)

// Snapshot is every table of the booking database in listing form.
type Snapshot struct {
	Users        []models.User            `json:"users"`
	Hospitals    []models.Hospital        `json:"hospitals"`
	Departments  []models.Department      `json:"departments"`
	Doctors      []dto.DoctorItem         `json:"doctors"`
	TimeSlots    []models.SlotWithBooking `json:"timeSlots"`
	Appointments []dto.AppointmentItem    `json:"appointments"`
}

// DumpSources are the readers a snapshot is built from.
type DumpSources struct {
	Users interface {
		List(ctx context.Context) ([]models.User, error)
	}
	Hospitals interface {
		List(ctx context.Context) ([]models.Hospital, error)
	}
	Departments interface {
		ListByHospitals(ctx context.Context, hospitalIDs []string) ([]models.Department, error)
	}
	Doctors interface {
		List(ctx context.Context, filter dto.DoctorFilter) ([]dto.DoctorItem, error)
	}
	Slots interface {
		List(ctx context.Context, doctorID string) ([]models.SlotWithBooking, error)
	}
	Appointments interface {
		List(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AppointmentItem, error)
	}
}

// TakeSnapshot reads every table.
func TakeSnapshot(ctx context.Context, src DumpSources) (*Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Users, err = src.Users.List(ctx); err != nil {
		return nil, fmt.Errorf("dump users: %w", err)
	}
	if snap.Hospitals, err = src.Hospitals.List(ctx); err != nil {
		return nil, fmt.Errorf("dump hospitals: %w", err)
	}
	ids := make([]string, 0, len(snap.Hospitals))
	for _, h := range snap.Hospitals {
		ids = append(ids, h.ID)
	}
	if snap.Departments, err = src.Departments.ListByHospitals(ctx, ids); err != nil {
		return nil, fmt.Errorf("dump departments: %w", err)
	}
	if snap.Doctors, err = src.Doctors.List(ctx, dto.DoctorFilter{}); err != nil {
		return nil, fmt.Errorf("dump doctors: %w", err)
	}
	if snap.TimeSlots, err = src.Slots.List(ctx, ""); err != nil {
		return nil, fmt.Errorf("dump time slots: %w", err)
	}
	if snap.Appointments, err = src.Appointments.List(ctx, dto.AppointmentFilter{}); err != nil {
		return nil, fmt.Errorf("dump appointments: %w", err)
	}
	return &snap, nil
}

// WriteJSON renders snap as indented JSON.
func (snap *Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
