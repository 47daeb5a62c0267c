package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/internal/repository"
	"github.com/noah-isme/medibook-api/pkg/cache"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
	"github.com/noah-isme/medibook-api/pkg/timezone"
)

type slotRepository interface {
	FindByID(ctx context.Context, id string) (*models.SlotWithBooking, error)
	List(ctx context.Context, doctorID string) ([]models.SlotWithBooking, error)
	CreateExclusive(ctx context.Context, slot *models.TimeSlot) error
}

type slotDoctorRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Doctor, error)
}

// slotGenerationKeys returns the generation counters a change to doctorID's
// slots must bump.
func slotGenerationKeys(doctorID string) []string {
	return []string{slotGenerationKey(doctorID), slotGenerationKey("")}
}

func slotGenerationKey(doctorID string) string {
	if doctorID == "" {
		return cache.Key("slots", "gen", "all")
	}
	return cache.Key("slots", "gen", "doctor", doctorID)
}

// SlotService reads and extends the slot ledger.
type SlotService struct {
	slots     slotRepository
	doctors   slotDoctorRepository
	tz        *timezone.Policy
	cache     *CacheService
	effects   *SideEffects
	validator *validator.Validate
	logger    *zap.Logger
}

// SlotServiceConfig bundles optional collaborators.
type SlotServiceConfig struct {
	Timezone  *timezone.Policy
	Cache     *CacheService
	Effects   *SideEffects
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewSlotService constructs the service.
func NewSlotService(slots slotRepository, doctors slotDoctorRepository, cfg SlotServiceConfig) *SlotService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	if cfg.Timezone == nil {
		cfg.Timezone = timezone.MustNew("UTC")
	}
	return &SlotService{
		slots:     slots,
		doctors:   doctors,
		tz:        cfg.Timezone,
		cache:     cfg.Cache,
		effects:   cfg.Effects,
		validator: cfg.Validator,
		logger:    cfg.Logger,
	}
}

// Get returns one slot.
func (s *SlotService) Get(ctx context.Context, id string) (*dto.SlotItem, error) {
	slot, err := s.slots.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, internal(err, "failed to load time slot")
	}
	item := s.toItem(*slot)
	return &item, nil
}

// List returns slots sorted by start. The boolean reports a cache hit.
func (s *SlotService) List(ctx context.Context, doctorID string) ([]dto.SlotItem, bool, error) {
	doctorID = strings.TrimSpace(doctorID)
	key, cacheable := s.listKey(ctx, doctorID)

	var cached []dto.SlotItem
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	rows, err := s.slots.List(ctx, doctorID)
	if err != nil {
		return nil, false, internal(err, "failed to list time slots")
	}
	items := make([]dto.SlotItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.toItem(row))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Start.Before(items[j].Start) })

	if cacheable {
		s.cache.Set(ctx, key, items, 0)
	}
	return items, false, nil
}

// listKey names the listing entry for the current generation. The generation
// is read before the rows, so rows read ahead of a commit are only ever stored
// under a generation the commit has already retired.
func (s *SlotService) listKey(ctx context.Context, doctorID string) (string, bool) {
	gen, ok := s.cache.Generation(ctx, slotGenerationKey(doctorID))
	if !ok {
		return "", false
	}
	scope := []string{"slots", "all"}
	if doctorID != "" {
		scope = []string{"slots", "doctor", doctorID}
	}
	return cache.Key(append(scope, "g"+strconv.FormatInt(gen, 10))...), true
}

// Create publishes a new slot for the calling doctor.
func (s *SlotService) Create(ctx context.Context, principal *models.Principal, req dto.CreateSlotRequest) (*dto.SlotItem, error) {
	if err := authorize(principal, models.ActionCreateSlot); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidRequest(err, "start and end required")
	}
	start, err := s.tz.Parse(req.Start)
	if err != nil {
		return nil, invalidRequest(err, "invalid ISO datetimes")
	}
	end, err := s.tz.Parse(req.End)
	if err != nil {
		return nil, invalidRequest(err, "invalid ISO datetimes")
	}
	if !start.Before(end) {
		return nil, invalidRequest(nil, "start must be before end")
	}

	doctor, err := s.doctors.FindByUserID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invalidRequest(nil, "doctor profile not found")
		}
		return nil, internal(err, "failed to resolve doctor profile")
	}

	slot := &models.TimeSlot{DoctorID: doctor.ID, Start: start, End: end}
	if err := s.slots.CreateExclusive(ctx, slot); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotOverlap), errors.Is(err, repository.ErrSerialization):
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "overlapping slot exists")
		case errors.Is(err, repository.ErrTxBegin):
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "slot creation temporarily unavailable")
		}
		return nil, internal(err, "failed to create time slot")
	}

	s.cache.Bump(ctx, slotGenerationKeys(doctor.ID)...)
	s.effects.Audit(principal.ID, models.AuditActionCreateSlot, map[string]string{
		"timeSlotId": slot.ID,
		"start":      slot.Start.Format(time.RFC3339),
		"end":        slot.End.Format(time.RFC3339),
	})
	s.effects.Publish(slot.ID, models.EventSlotCreated, models.SlotEvent{
		TimeSlotID: slot.ID,
		DoctorID:   slot.DoctorID,
		Start:      slot.Start.Format(time.RFC3339),
		End:        slot.End.Format(time.RFC3339),
	})

	item := s.toItem(models.SlotWithBooking{TimeSlot: *slot})
	return &item, nil
}

func (s *SlotService) toItem(row models.SlotWithBooking) dto.SlotItem {
	return dto.SlotItem{
		ID:            row.ID,
		DoctorID:      row.DoctorID,
		Start:         row.Start.UTC(),
		End:           row.End.UTC(),
		StartLocal:    s.tz.Display(row.Start),
		EndLocal:      s.tz.Display(row.End),
		Booked:        row.AppointmentID != nil,
		AppointmentID: row.AppointmentID,
	}
}
