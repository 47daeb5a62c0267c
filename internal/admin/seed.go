package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/internal/repository"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password"

// Dataset is the demo data written by Seeder.
type Dataset struct {
	Hospitals   []models.Hospital
	Departments []models.Department
	Users       []models.User
	Doctors     []models.Doctor
	Slots       []models.TimeSlot
}

// HashPassword bcrypt-hashes password at cost; cost <= 0 means bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// BuildDataset returns two hospitals, three departments, patients, two doctors,
// one hospital admin and three slots on the day after now in loc. Ids are stable
// so that seeding twice is a no-op.
func BuildDataset(now time.Time, loc *time.Location, passwordHash string) Dataset {
	if loc == nil {
		loc = time.UTC
	}
	city := "hosp-city"
	county := "hosp-county"

	ds := Dataset{
		Hospitals: []models.Hospital{
			{ID: city, Name: "City Hospital", Address: "123 Main St"},
			{ID: county, Name: "County Medical Center", Address: "456 Oak Ave"},
		},
		Departments: []models.Department{
			{ID: "dept-cardiology", HospitalID: city, Name: "Cardiology"},
			{ID: "dept-dentistry", HospitalID: city, Name: "Dentistry"},
			{ID: "dept-neurology", HospitalID: county, Name: "Neurology"},
		},
		Users: []models.User{
			{ID: "user-patient-john", Email: "patient@example.com", Name: "John Patient", Role: models.RolePatient},
			{ID: "user-patient-jane", Email: "jane@example.com", Name: "Jane Doe", Role: models.RolePatient},
			{ID: "user-doctor-alice", Email: "doc@example.com", Name: "Dr. Alice Smith", Role: models.RoleDoctor},
			{ID: "user-doctor-bob", Email: "dentist@example.com", Name: "Dr. Bob Dental", Role: models.RoleDoctor},
			{ID: "user-admin-city", Email: "admin@example.com", Name: "City Admin", Role: models.RoleHospitalAdmin, HospitalID: &city},
		},
		Doctors: []models.Doctor{
			{ID: "doctor-alice", UserID: "user-doctor-alice", HospitalID: city, DepartmentID: "dept-cardiology", Bio: "Cardiologist with 10 years experience"},
			{ID: "doctor-bob", UserID: "user-doctor-bob", HospitalID: city, DepartmentID: "dept-dentistry", Bio: "Experienced dentist"},
		},
	}
	for i := range ds.Users {
		ds.Users[i].PasswordHash = passwordHash
	}

	local := now.In(loc)
	tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	at := func(hour int) time.Time { return tomorrow.Add(time.Duration(hour) * time.Hour).UTC() }
	slot := func(doctorID string, start time.Time, length time.Duration) models.TimeSlot {
		return models.TimeSlot{
			ID:       fmt.Sprintf("slot-%s-%s", doctorID, start.Format("200601021504")),
			DoctorID: doctorID,
			Start:    start,
			End:      start.Add(length),
		}
	}
	ds.Slots = []models.TimeSlot{
		slot("doctor-alice", at(10), 30*time.Minute),
		slot("doctor-alice", at(14), 30*time.Minute),
		slot("doctor-bob", at(11), 45*time.Minute),
	}
	return ds
}

// SeedStores are the writers a Seeder needs.
type SeedStores struct {
	Hospitals interface {
		Create(ctx context.Context, hospital *models.Hospital) error
	}
	Departments interface {
		Create(ctx context.Context, department *models.Department) error
	}
	Users interface {
		Create(ctx context.Context, user *models.User) error
	}
	Doctors interface {
		Create(ctx context.Context, doctor *models.Doctor) error
	}
	Slots interface {
		CreateExclusive(ctx context.Context, slot *models.TimeSlot) error
	}
}

// SeedSummary counts rows written and rows already present.
type SeedSummary struct {
	Created int
	Skipped int
}

// Seeder writes a Dataset in dependency order.
type Seeder struct {
	stores SeedStores
	logger *zap.Logger
}

// NewSeeder constructs a seeder.
func NewSeeder(stores SeedStores, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{stores: stores, logger: logger}
}

// Apply writes ds. Rows that already exist are skipped.
func (s *Seeder) Apply(ctx context.Context, ds Dataset) (SeedSummary, error) {
	var summary SeedSummary
	record := func(kind, id string, err error) error {
		switch {
		case err == nil:
			summary.Created++
			return nil
		case errors.Is(err, repository.ErrUniqueViolation), errors.Is(err, repository.ErrSlotOverlap):
			summary.Skipped++
			s.logger.Debug("seed row exists", zap.String("kind", kind), zap.String("id", id))
			return nil
		default:
			return fmt.Errorf("seed %s %s: %w", kind, id, err)
		}
	}

	for i := range ds.Hospitals {
		if err := record("hospital", ds.Hospitals[i].ID, s.stores.Hospitals.Create(ctx, &ds.Hospitals[i])); err != nil {
			return summary, err
		}
	}
	for i := range ds.Departments {
		if err := record("department", ds.Departments[i].ID, s.stores.Departments.Create(ctx, &ds.Departments[i])); err != nil {
			return summary, err
		}
	}
	for i := range ds.Users {
		if err := record("user", ds.Users[i].ID, s.stores.Users.Create(ctx, &ds.Users[i])); err != nil {
			return summary, err
		}
	}
	for i := range ds.Doctors {
		if err := record("doctor", ds.Doctors[i].ID, s.stores.Doctors.Create(ctx, &ds.Doctors[i])); err != nil {
			return summary, err
		}
	}
	for i := range ds.Slots {
		if err := record("time slot", ds.Slots[i].ID, s.stores.Slots.CreateExclusive(ctx, &ds.Slots[i])); err != nil {
			return summary, err
		}
	}
	s.logger.Info("seed applied", zap.Int("created", summary.Created), zap.Int("skipped", summary.Skipped))
	return summary, nil
}
