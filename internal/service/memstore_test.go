package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/internal/repository"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
)

// memStore is an in-memory stand-in for PostgreSQL. In the default mode
// transactions run one at a time. With weak set, transactions run
// concurrently and only the commit-time uniqueness check protects a slot.
type memStore struct {
	mu     sync.Mutex
	txLock sync.Mutex

	weak       bool
	afterCheck func()
	failBegin  bool
	failInsert error

	users        map[string]*models.User
	hospitals    map[string]*models.Hospital
	departments  map[string]*models.Department
	doctors      map[string]*models.Doctor
	slots        map[string]*models.TimeSlot
	appointments map[string]*models.Appointment
	bySlot       map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]*models.User{},
		hospitals:    map[string]*models.Hospital{},
		departments:  map[string]*models.Department{},
		doctors:      map[string]*models.Doctor{},
		slots:        map[string]*models.TimeSlot{},
		appointments: map[string]*models.Appointment{},
		bySlot:       map[string]string{},
	}
}

func (s *memStore) addUser(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return u
}

func (s *memStore) addHospital(h *models.Hospital) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hospitals[h.ID] = h
}

func (s *memStore) addDepartment(d *models.Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[d.ID] = d
}

func (s *memStore) addDoctor(d *models.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[d.ID] = d
}

func (s *memStore) addSlot(slot *models.TimeSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot.ID] = slot
}

func (s *memStore) appointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

func (s *memStore) appointmentsForSlot(slotID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.appointments {
		if a.TimeSlotID == slotID {
			n++
		}
	}
	return n
}

// InSerializableTx implements BookingStore.
func (s *memStore) InSerializableTx(ctx context.Context, fn func(tx repository.BookingTx) error) error {
	if s.failBegin {
		return fmt.Errorf("%w: connection refused", repository.ErrTxBegin)
	}
	if !s.weak {
		s.txLock.Lock()
		defer s.txLock.Unlock()
	}
	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx.pending)
}

func (s *memStore) commit(pending []*models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, appt := range pending {
		if _, taken := s.bySlot[appt.TimeSlotID]; taken {
			return fmt.Errorf("insert appointment: %w", repository.ErrUniqueViolation)
		}
	}
	for _, appt := range pending {
		copied := *appt
		s.appointments[appt.ID] = &copied
		s.bySlot[appt.TimeSlotID] = appt.ID
	}
	return nil
}

type memTx struct {
	store   *memStore
	pending []*models.Appointment
}

func (t *memTx) SlotByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	slot, ok := t.store.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *slot
	return &copied, nil
}

func (t *memTx) AppointmentBySlot(ctx context.Context, slotID string) (*models.Appointment, error) {
	t.store.mu.Lock()
	id, ok := t.store.bySlot[slotID]
	var appt *models.Appointment
	if ok {
		copied := *t.store.appointments[id]
		appt = &copied
	}
	t.store.mu.Unlock()

	if t.store.afterCheck != nil {
		t.store.afterCheck()
	}
	if appt == nil {
		return nil, sql.ErrNoRows
	}
	return appt, nil
}

func (t *memTx) DoctorByID(ctx context.Context, id string) (*models.Doctor, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	d, ok := t.store.doctors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *d
	return &copied, nil
}

func (t *memTx) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	if t.store.failInsert != nil {
		return t.store.failInsert
	}
	copied := *appt
	t.pending = append(t.pending, &copied)
	return nil
}

// memSlots adapts memStore to the slot repository.
type memSlots struct{ *memStore }

func (s memSlots) FindByID(ctx context.Context, id string) (*models.SlotWithBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s.withBooking(slot), nil
}

func (s memSlots) List(ctx context.Context, doctorID string) ([]models.SlotWithBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SlotWithBooking
	for _, slot := range s.slots {
		if doctorID != "" && slot.DoctorID != doctorID {
			continue
		}
		out = append(out, *s.withBooking(slot))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memSlots) withBooking(slot *models.TimeSlot) *models.SlotWithBooking {
	row := &models.SlotWithBooking{TimeSlot: *slot}
	if id, ok := s.bySlot[slot.ID]; ok {
		apptID := id
		row.AppointmentID = &apptID
	}
	return row
}

func (s memSlots) CreateExclusive(ctx context.Context, slot *models.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.slots {
		if existing.DoctorID == slot.DoctorID && existing.Start.Before(slot.End) && slot.Start.Before(existing.End) {
			return repository.ErrSlotOverlap
		}
	}
	if slot.ID == "" {
		slot.ID = fmt.Sprintf("slot-%d", len(s.slots)+1)
	}
	copied := *slot
	s.slots[slot.ID] = &copied
	return nil
}

// memAppointments adapts memStore to the appointment repositories.
type memAppointments struct {
	*memStore
	beforeUpdate func()
}

func (s memAppointments) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *appt
	return &copied, nil
}

func (s memAppointments) UpdateStatusIfPending(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok || appt.Status != models.StatusPending {
		return nil, sql.ErrNoRows
	}
	appt.Status = status
	appt.UpdatedAt = time.Now().UTC()
	copied := *appt
	return &copied, nil
}

func (s memAppointments) List(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AppointmentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []dto.AppointmentItem
	for _, a := range s.appointments {
		doctor := s.doctors[a.DoctorID]
		if filter.PatientID != "" && a.PatientID != filter.PatientID {
			continue
		}
		if filter.DoctorID != "" && a.DoctorID != filter.DoctorID {
			continue
		}
		if filter.HospitalID != "" && (doctor == nil || doctor.HospitalID != filter.HospitalID) {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		slot := s.slots[a.TimeSlotID]
		item := dto.AppointmentItem{
			ID: a.ID, Status: a.Status, Reason: a.Reason, TimeSlotID: a.TimeSlotID,
			PatientID: a.PatientID, DoctorID: a.DoctorID, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
		}
		if slot != nil {
			item.Start, item.End = slot.Start, slot.End
		}
		if p := s.users[a.PatientID]; p != nil {
			item.PatientName, item.PatientEmail = p.Name, p.Email
		}
		if doctor != nil {
			item.HospitalID = doctor.HospitalID
			if u := s.users[doctor.UserID]; u != nil {
				item.DoctorName = u.Name
			}
			if h := s.hospitals[doctor.HospitalID]; h != nil {
				item.HospitalName = h.Name
			}
			if d := s.departments[doctor.DepartmentID]; d != nil {
				item.DepartmentName = d.Name
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// memDoctors adapts memStore to the doctor repositories.
type memDoctors struct{ *memStore }

func (s memDoctors) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *d
	return &copied, nil
}

func (s memDoctors) FindByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.doctors {
		if d.UserID == userID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

// recordingSinks captures side effects; err makes every sink fail.
type recordingSinks struct {
	mu            sync.Mutex
	err           error
	audits        []*models.AuditLog
	notifications []*models.Notification
	events        []string
}

func (r *recordingSinks) Create(ctx context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.audits = append(r.audits, entry)
	return nil
}

func (r *recordingSinks) auditActions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.audits))
	for _, a := range r.audits {
		out = append(out, a.Action)
	}
	return out
}

func (r *recordingSinks) notificationsFor(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n.Message)
		}
	}
	return out
}

func (r *recordingSinks) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type recordingNotifier struct{ *recordingSinks }

func (n recordingNotifier) Create(ctx context.Context, item *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notifications = append(n.notifications, item)
	return nil
}

type recordingPublisher struct{ *recordingSinks }

func (p recordingPublisher) Publish(ctx context.Context, key, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, eventType)
	return nil
}

func newInlineEffects(sinks *recordingSinks) *SideEffects {
	return NewSideEffects(SideEffectsConfig{
		Audit:     sinks,
		Notifier:  recordingNotifier{sinks},
		Publisher: recordingPublisher{sinks},
	})
}

// memCache is a CacheRepository backed by a map.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if raw, ok := c.entries[key]; ok {
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
	}
	n++
	raw, err := json.Marshal(n)
	if err != nil {
		return 0, err
	}
	c.entries[key] = raw
	return n, nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

var errSinkDown = errors.New("sink unavailable")
