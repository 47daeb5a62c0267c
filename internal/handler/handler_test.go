package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/internal/service"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
	"github.com/noah-isme/medibook-api/pkg/logger"
)

type stubResolver map[string]*models.Principal

func (s stubResolver) Resolve(ctx context.Context, header string) (*models.Principal, error) {
	if p, ok := s[header]; ok {
		return p, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type bookingStub struct {
	got *models.Principal
	err error
}

func (s *bookingStub) Book(ctx context.Context, principal *models.Principal, req dto.CreateAppointmentRequest) (*dto.BookingResult, error) {
	s.got = principal
	if s.err != nil {
		return nil, s.err
	}
	return &dto.BookingResult{AppointmentID: "a1", Status: models.StatusPending}, nil
}

type statusStub struct {
	id     string
	target models.AppointmentStatus
}

func (s *statusStub) UpdateStatus(ctx context.Context, principal *models.Principal, id string, target models.AppointmentStatus) (*models.Appointment, error) {
	s.id, s.target = id, target
	return &models.Appointment{ID: id, Status: target}, nil
}

type queryStub struct{}

func (queryStub) List(ctx context.Context, principal *models.Principal, status string) ([]dto.AppointmentItem, error) {
	return []dto.AppointmentItem{{ID: "a1", PatientID: principal.ID}}, nil
}

func (queryStub) Export(ctx context.Context, principal *models.Principal, rawFormat, status string) (*service.ExportFile, error) {
	if rawFormat == "xlsx" {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "unsupported export format")
	}
	return &service.ExportFile{Filename: "appointments.csv", ContentType: "text/csv", Data: []byte("Start,End\n")}, nil
}

type slotStub struct {
	hit bool
}

func (s slotStub) Get(ctx context.Context, id string) (*dto.SlotItem, error) {
	if id != "s1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
	}
	return &dto.SlotItem{ID: "s1", Booked: true}, nil
}

func (s slotStub) List(ctx context.Context, doctorID string) ([]dto.SlotItem, bool, error) {
	return []dto.SlotItem{{ID: "s1", DoctorID: doctorID}}, s.hit, nil
}

func (s slotStub) Create(ctx context.Context, principal *models.Principal, req dto.CreateSlotRequest) (*dto.SlotItem, error) {
	return &dto.SlotItem{ID: "s2"}, nil
}

type catalogStub struct {
	filter dto.DoctorFilter
}

func (s *catalogStub) ListHospitals(ctx context.Context) ([]dto.HospitalItem, error) {
	return []dto.HospitalItem{}, nil
}

func (s *catalogStub) ListDepartments(ctx context.Context, principal *models.Principal, hospitalID string) ([]models.Department, error) {
	return []models.Department{}, nil
}

func (s *catalogStub) CreateDepartment(ctx context.Context, principal *models.Principal, req dto.CreateDepartmentRequest) (*models.Department, error) {
	return &models.Department{ID: "dep1", HospitalID: *principal.HospitalID, Name: req.Name}, nil
}

func (s *catalogStub) ListDoctors(ctx context.Context, filter dto.DoctorFilter) ([]dto.DoctorItem, error) {
	s.filter = filter
	return []dto.DoctorItem{}, nil
}

type notificationStub struct{}

func (notificationStub) List(ctx context.Context, principal *models.Principal) ([]models.Notification, error) {
	return []models.Notification{{ID: "n1", UserID: principal.ID}}, nil
}

type fixture struct {
	router  *gin.Engine
	booking *bookingStub
	status  *statusStub
	catalog *catalogStub
	// loggedPrincipal is what the request logger saw for the last request.
	loggedPrincipal string
}

func newFixture(t *testing.T, cacheHit bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hospital := "h1"
	f := &fixture{booking: &bookingStub{}, status: &statusStub{}, catalog: &catalogStub{}}
	routes := Routes{
		Auth: stubResolver{
			"Bearer patient": {ID: "u-p1", Role: models.RolePatient},
			"Bearer doctor":  {ID: "u-doc", Role: models.RoleDoctor},
			"Bearer admin":   {ID: "u-admin", Email: "admin@example.com", Name: "City Admin", Role: models.RoleHospitalAdmin, HospitalID: &hospital},
		},
		Appointments:  NewAppointmentHandler(f.booking, f.status, queryStub{}),
		Slots:         NewSlotHandler(slotStub{hit: cacheHit}),
		Catalog:       NewCatalogHandler(f.catalog),
		Notifications: NewNotificationHandler(notificationStub{}),
	}
	f.router = gin.New()
	f.router.Use(func(c *gin.Context) {
		c.Next()
		f.loggedPrincipal = c.GetString(logger.PrincipalKey)
	})
	routes.Register(f.router.Group("/api/v1"))
	return f
}

func (f *fixture) do(method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestBookRoute(t *testing.T) {
	f := newFixture(t, false)
	body := dto.CreateAppointmentRequest{TimeSlotID: "s1", Reason: "checkup"}

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/v1/appointments", "", body).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/appointments", "Bearer doctor", body).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/appointments", "Bearer patient", "{").Code)

	w := f.do(http.MethodPost, "/api/v1/appointments", "Bearer patient", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var result dto.BookingResult
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Equal(t, "a1", result.AppointmentID)
	assert.Equal(t, "u-p1", f.booking.got.ID)
}

func TestBookConflictEnvelope(t *testing.T) {
	f := newFixture(t, false)
	f.booking.err = appErrors.Clone(appErrors.ErrConflict, "slot already booked")

	w := f.do(http.MethodPost, "/api/v1/appointments", "Bearer patient", dto.CreateAppointmentRequest{TimeSlotID: "s1", Reason: "x"})
	require.Equal(t, http.StatusConflict, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Equal(t, "slot already booked", env.Error.Message)
}

func TestBookUnexpectedErrorIsInternal(t *testing.T) {
	f := newFixture(t, false)
	f.booking.err = errors.New("boom")
	w := f.do(http.MethodPost, "/api/v1/appointments", "Bearer patient", dto.CreateAppointmentRequest{TimeSlotID: "s1", Reason: "x"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestUpdateStatusRoute(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodPatch, "/api/v1/appointments/a1/status", "Bearer doctor", map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", f.status.id)
	assert.Equal(t, models.StatusConfirmed, f.status.target)

	w = f.do(http.MethodPatch, "/api/v1/appointments/a1/status", "Bearer admin", map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAppointmentListAndExport(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodGet, "/api/v1/appointments", "Bearer patient", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []dto.AppointmentItem
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "u-p1", items[0].PatientID)

	w = f.do(http.MethodGet, "/api/v1/appointments/export?format=csv", "Bearer patient", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "appointments.csv")

	w = f.do(http.MethodGet, "/api/v1/appointments/export?format=xlsx", "Bearer patient", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlotRoutes(t *testing.T) {
	f := newFixture(t, true)

	w := f.do(http.MethodGet, "/api/v1/time-slots?doctorId=d1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w).Meta["cache_hit"])

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/time-slots/s1", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/time-slots/zzz", "", nil).Code)

	window := dto.CreateSlotRequest{Start: "2026-03-02T10:00", End: "2026-03-02T10:30"}
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/time-slots", "Bearer patient", window).Code)
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/v1/time-slots", "Bearer doctor", window).Code)
}

func TestCatalogRoutes(t *testing.T) {
	f := newFixture(t, false)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/hospitals", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/departments?hospitalId=h1", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/departments?hospitalId=h1", "Bearer patient", nil).Code)

	dep := map[string]string{"name": "Neurology"}
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/departments", "Bearer doctor", dep).Code)
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/v1/departments", "Bearer admin", dep).Code)

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/doctors?hospitalId=h1&departmentId=dep1", "", nil).Code)
	assert.Equal(t, dto.DoctorFilter{HospitalID: "h1", DepartmentID: "dep1"}, f.catalog.filter)
}

func TestMeRoute(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/auth/me", "Bearer forged", nil).Code)

	w := f.do(http.MethodGet, "/api/v1/auth/me", "Bearer admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &fields))
	assert.Equal(t, map[string]interface{}{
		"id":         "u-admin",
		"email":      "admin@example.com",
		"role":       "HOSPITAL_ADMIN",
		"name":       "City Admin",
		"hospitalId": "h1",
	}, fields)

	w = f.do(http.MethodGet, "/api/v1/auth/me", "Bearer patient", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &fields))
	assert.Nil(t, fields["hospitalId"])
}

func TestPublicRoutesAttachOptionalPrincipal(t *testing.T) {
	f := newFixture(t, false)

	for _, path := range []string{"/api/v1/hospitals", "/api/v1/doctors", "/api/v1/time-slots", "/api/v1/time-slots/s1"} {
		require.Equal(t, http.StatusOK, f.do(http.MethodGet, path, "Bearer patient", nil).Code, path)
		assert.Equal(t, "u-p1", f.loggedPrincipal, path)

		require.Equal(t, http.StatusOK, f.do(http.MethodGet, path, "Bearer forged", nil).Code, path)
		assert.Empty(t, f.loggedPrincipal, path)

		require.Equal(t, http.StatusOK, f.do(http.MethodGet, path, "", nil).Code, path)
		assert.Empty(t, f.loggedPrincipal, path)
	}
}

func TestNotificationRoute(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/notifications", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/notifications", "Bearer doctor", nil).Code)
}

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

func TestHealthAndReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for name, tc := range map[string]struct {
		db   Pinger
		want int
	}{
		"db up":   {pinger{}, http.StatusOK},
		"db down": {pinger{errors.New("refused")}, http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			h := NewMetricsHandler(service.NewMetricsService(), tc.db)
			r := gin.New()
			r.GET("/health", h.Health)
			r.GET("/ready", h.Ready)
			r.GET("/metrics", h.Prometheus)

			for path, want := range map[string]int{"/health": http.StatusOK, "/ready": tc.want, "/metrics": http.StatusOK} {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				assert.Equal(t, want, w.Code, path)
			}
		})
	}
}
