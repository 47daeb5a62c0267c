package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/internal/repository"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
)

type hospitalRepository interface {
	List(ctx context.Context) ([]models.Hospital, error)
}

type departmentRepository interface {
	ListByHospital(ctx context.Context, hospitalID string) ([]models.Department, error)
	ListByHospitals(ctx context.Context, hospitalIDs []string) ([]models.Department, error)
	Create(ctx context.Context, department *models.Department) error
}

type doctorListRepository interface {
	List(ctx context.Context, filter dto.DoctorFilter) ([]dto.DoctorItem, error)
}

// CatalogService exposes hospitals, departments and doctors.
type CatalogService struct {
	hospitals   hospitalRepository
	departments departmentRepository
	doctors     doctorListRepository
	effects     *SideEffects
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(hospitals hospitalRepository, departments departmentRepository, doctors doctorListRepository, effects *SideEffects, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogService{hospitals: hospitals, departments: departments, doctors: doctors, effects: effects, validator: validate, logger: logger}
}

// ListHospitals returns hospitals with their departments.
func (s *CatalogService) ListHospitals(ctx context.Context) ([]dto.HospitalItem, error) {
	hospitals, err := s.hospitals.List(ctx)
	if err != nil {
		return nil, internal(err, "failed to list hospitals")
	}
	ids := make([]string, 0, len(hospitals))
	for _, h := range hospitals {
		ids = append(ids, h.ID)
	}
	departments, err := s.departments.ListByHospitals(ctx, ids)
	if err != nil {
		return nil, internal(err, "failed to list departments")
	}
	byHospital := make(map[string][]models.Department, len(hospitals))
	for _, d := range departments {
		byHospital[d.HospitalID] = append(byHospital[d.HospitalID], d)
	}

	items := make([]dto.HospitalItem, 0, len(hospitals))
	for _, h := range hospitals {
		deps := byHospital[h.ID]
		if deps == nil {
			deps = []models.Department{}
		}
		items = append(items, dto.HospitalItem{Hospital: h, Departments: deps})
	}
	return items, nil
}

// ListDepartments returns the departments of hospitalID.
func (s *CatalogService) ListDepartments(ctx context.Context, principal *models.Principal, hospitalID string) ([]models.Department, error) {
	if err := authorize(principal, models.ActionListDepartments); err != nil {
		return nil, err
	}
	hospitalID = strings.TrimSpace(hospitalID)
	if hospitalID == "" {
		return nil, invalidRequest(nil, "hospitalId required")
	}
	departments, err := s.departments.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, internal(err, "failed to list departments")
	}
	if departments == nil {
		departments = []models.Department{}
	}
	return departments, nil
}

// CreateDepartment adds a department to the admin's own hospital. When the
// payload omits hospitalId the admin's hospital is used.
func (s *CatalogService) CreateDepartment(ctx context.Context, principal *models.Principal, req dto.CreateDepartmentRequest) (*models.Department, error) {
	if err := authorize(principal, models.ActionCreateDepartment); err != nil {
		return nil, err
	}
	if principal.HospitalID == nil || *principal.HospitalID == "" {
		return nil, invalidRequest(nil, "not associated with a hospital")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.HospitalID = strings.TrimSpace(req.HospitalID)
	if req.HospitalID == "" {
		req.HospitalID = *principal.HospitalID
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidRequest(err, "name required")
	}
	if req.HospitalID != *principal.HospitalID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "forbidden")
	}

	department := &models.Department{HospitalID: req.HospitalID, Name: req.Name}
	if err := s.departments.Create(ctx, department); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "department already exists")
		}
		return nil, internal(err, "failed to create department")
	}
	s.effects.Audit(principal.ID, models.AuditActionCreateDepartment, map[string]string{
		"departmentId": department.ID,
		"hospitalId":   department.HospitalID,
		"name":         department.Name,
	})
	return department, nil
}

// ListDoctors returns doctors matching filter.
func (s *CatalogService) ListDoctors(ctx context.Context, filter dto.DoctorFilter) ([]dto.DoctorItem, error) {
	filter.HospitalID = strings.TrimSpace(filter.HospitalID)
	filter.DepartmentID = strings.TrimSpace(filter.DepartmentID)
	doctors, err := s.doctors.List(ctx, filter)
	if err != nil {
		return nil, internal(err, "failed to list doctors")
	}
	if doctors == nil {
		doctors = []dto.DoctorItem{}
	}
	return doctors, nil
}
