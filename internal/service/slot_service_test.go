package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medibook-api/internal/dto"
	"github.com/noah-isme/medibook-api/internal/models"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
	"github.com/noah-isme/medibook-api/pkg/timezone"
)

func newSlotFixture(t *testing.T) (*bookingFixture, *SlotService) {
	t.Helper()
	f := newBookingFixture(t)
	svc := NewSlotService(memSlots{f.store}, memDoctors{f.store}, SlotServiceConfig{
		Timezone: timezone.MustNew("Asia/Kolkata"),
		Cache:    NewCacheService(f.cache, nil, time.Minute, nil, true),
		Effects:  newInlineEffects(f.sinks),
	})
	return f, svc
}

func listingCached(t *testing.T, svc *SlotService, cache *memCache, doctorID string) bool {
	t.Helper()
	key, ok := svc.listKey(context.Background(), doctorID)
	require.True(t, ok)
	return cache.has(key)
}

func TestSlotGet(t *testing.T) {
	_, svc := newSlotFixture(t)

	item, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "d1", item.DoctorID)
	assert.Equal(t, "2026-03-02T10:00", item.StartLocal)
	assert.False(t, item.Booked)

	_, err = svc.Get(context.Background(), "nope")
	assertCode(t, err, appErrors.ErrNotFound)
}

func TestSlotListServesFromCache(t *testing.T) {
	_, svc := newSlotFixture(t)

	_, hit, err := svc.List(context.Background(), "d1")
	require.NoError(t, err)
	assert.False(t, hit)

	items, hit, err := svc.List(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, items, 1)
	assert.Equal(t, "s1", items[0].ID)
}

func TestSlotListSortsByStart(t *testing.T) {
	f, svc := newSlotFixture(t)
	f.store.addSlot(&models.TimeSlot{ID: "a-early", DoctorID: "d1", Start: slotStart.Add(-time.Hour), End: slotStart.Add(-30 * time.Minute)})

	items, _, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a-early", items[0].ID)
	assert.Equal(t, "s1", items[1].ID)
}

func TestSlotCreateReadsWallClockInConfiguredZone(t *testing.T) {
	f, svc := newSlotFixture(t)

	item, err := svc.Create(context.Background(), f.doctor, dto.CreateSlotRequest{Start: "2026-03-02T11:00", End: "2026-03-02T11:30"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 5, 30, 0, 0, time.UTC), item.Start)
	assert.Equal(t, "2026-03-02T11:00", item.StartLocal)
	assert.Contains(t, f.sinks.auditActions(), models.AuditActionCreateSlot)
	assert.Contains(t, f.sinks.eventTypes(), models.EventSlotCreated)
}

func TestSlotCreateInvalidatesListing(t *testing.T) {
	f, svc := newSlotFixture(t)
	_, _, err := svc.List(context.Background(), "d1")
	require.NoError(t, err)
	require.True(t, listingCached(t, svc, f.cache, "d1"))

	_, err = svc.Create(context.Background(), f.doctor, dto.CreateSlotRequest{Start: "2026-03-03T04:30:00Z", End: "2026-03-03T05:00:00Z"})
	require.NoError(t, err)
	assert.False(t, listingCached(t, svc, f.cache, "d1"))
	assert.False(t, listingCached(t, svc, f.cache, ""))

	items, _, err := svc.List(context.Background(), "d1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSlotCreateRejections(t *testing.T) {
	f, svc := newSlotFixture(t)
	orphanDoctor := models.PrincipalFromUser(f.store.addUser(&models.User{ID: "u-nodoc", Role: models.RoleDoctor}))

	cases := []struct {
		name  string
		actor *models.Principal
		req   dto.CreateSlotRequest
		want  *appErrors.Error
	}{
		{"anonymous", nil, dto.CreateSlotRequest{Start: "2026-03-03T04:30:00Z", End: "2026-03-03T05:00:00Z"}, appErrors.ErrUnauthorized},
		{"patient", f.patient(1), dto.CreateSlotRequest{Start: "2026-03-03T04:30:00Z", End: "2026-03-03T05:00:00Z"}, appErrors.ErrForbidden},
		{"missing end", f.doctor, dto.CreateSlotRequest{Start: "2026-03-03T04:30:00Z"}, appErrors.ErrInvalidRequest},
		{"garbage", f.doctor, dto.CreateSlotRequest{Start: "tomorrow", End: "2026-03-03T05:00:00Z"}, appErrors.ErrInvalidRequest},
		{"end before start", f.doctor, dto.CreateSlotRequest{Start: "2026-03-03T05:00:00Z", End: "2026-03-03T04:30:00Z"}, appErrors.ErrInvalidRequest},
		{"empty interval", f.doctor, dto.CreateSlotRequest{Start: "2026-03-03T05:00:00Z", End: "2026-03-03T05:00:00Z"}, appErrors.ErrInvalidRequest},
		{"no profile", orphanDoctor, dto.CreateSlotRequest{Start: "2026-03-03T04:30:00Z", End: "2026-03-03T05:00:00Z"}, appErrors.ErrInvalidRequest},
		{"overlap", f.doctor, dto.CreateSlotRequest{Start: "2026-03-02T04:45:00Z", End: "2026-03-02T05:15:00Z"}, appErrors.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.actor, tc.req)
			assertCode(t, err, tc.want)
		})
	}
}

func TestSlotCreateAdjacentIsNotOverlap(t *testing.T) {
	f, svc := newSlotFixture(t)
	_, err := svc.Create(context.Background(), f.doctor, dto.CreateSlotRequest{
		Start: slotStart.Add(30 * time.Minute).Format(time.RFC3339),
		End:   slotStart.Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
}
