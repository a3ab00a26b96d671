package catalog

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

type memStore struct {
	mu       sync.Mutex
	orgs     map[string]model.Organization
	slugs    map[string]bool
	services map[string]model.Service
	hours    map[string]model.BusinessHours
	owners   map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		orgs:     map[string]model.Organization{},
		slugs:    map[string]bool{},
		services: map[string]model.Service{},
		hours:    map[string]model.BusinessHours{},
		owners:   map[string]string{},
	}
}

func (m *memStore) GetOrganization(_ context.Context, id string) (model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok {
		return model.Organization{}, storage.ErrNotFound
	}
	return o, nil
}

func (m *memStore) CreateOrganization(_ context.Context, org model.Organization, week []model.BusinessHours, owner *model.UserSummary) (model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugs[org.Slug] {
		return model.Organization{}, storage.ErrDuplicate
	}
	if owner != nil {
		if _, taken := m.owners[owner.ID]; taken {
			return model.Organization{}, storage.ErrUserConflict
		}
		m.owners[owner.ID] = org.ID
	}
	m.slugs[org.Slug] = true
	m.orgs[org.ID] = org
	for _, h := range week {
		m.hours[h.ID] = h
	}
	return org, nil
}

func (m *memStore) GetService(_ context.Context, orgID, id string) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[id]
	if !ok || svc.OrganizationID != orgID {
		return model.Service{}, storage.ErrNotFound
	}
	return svc, nil
}

func (m *memStore) ListServices(_ context.Context, orgID string, includeInactive bool) ([]model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Service{}
	for _, svc := range m.services {
		if svc.OrganizationID == orgID && (includeInactive || svc.IsActive) {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) CreateService(_ context.Context, svc model.Service) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[svc.ID] = svc
	return svc, nil
}

func (m *memStore) UpdateService(_ context.Context, svc model.Service) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.services[svc.ID]
	if !ok || cur.OrganizationID != svc.OrganizationID {
		return model.Service{}, storage.ErrNotFound
	}
	m.services[svc.ID] = svc
	return svc, nil
}

func (m *memStore) ListBusinessHours(_ context.Context, orgID string) ([]model.BusinessHours, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.BusinessHours{}
	for _, h := range m.hours {
		if h.OrganizationID == orgID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (m *memStore) UpsertBusinessHours(_ context.Context, h model.BusinessHours) (model.BusinessHours, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, cur := range m.hours {
		if cur.OrganizationID == h.OrganizationID && cur.DayOfWeek == h.DayOfWeek {
			h.ID = id
		}
	}
	m.hours[h.ID] = h
	return h, nil
}

func (m *memStore) GetBusinessHoursByID(_ context.Context, orgID, id string) (model.BusinessHours, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hours[id]
	if !ok || h.OrganizationID != orgID {
		return model.BusinessHours{}, storage.ErrNotFound
	}
	return h, nil
}

func (m *memStore) DeleteBusinessHours(_ context.Context, orgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hours[id]
	if !ok || h.OrganizationID != orgID {
		return storage.ErrNotFound
	}
	delete(m.hours, id)
	return nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

// founder is an admin identity with the profile organization bootstrap needs.
func founder() model.Caller {
	id := uuid.NewString()
	return model.Caller{UserID: id, Role: model.RoleAdmin, Email: id[:8] + "@example.com", FirstName: "Founder"}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Barbers":          "acme-barbers",
		"  --Dr. Who's Clinic!": "dr-who-s-clinic",
		"Café 24/7":             "caf-24-7",
		"***":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCreateOrganizationSeedsDefaultWeek(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	org, err := svc.CreateOrganization(ctx, founder(), OrganizationInput{Name: "Acme Barbers", Timezone: "Europe/Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "acme-barbers", org.Slug)
	assert.Equal(t, "Europe/Berlin", org.Timezone)

	admin := model.Caller{UserID: uuid.NewString(), OrganizationID: org.ID, Role: model.RoleAdmin}
	week, err := svc.ListBusinessHours(ctx, admin)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.False(t, week[0].IsOpen)
	assert.True(t, week[1].IsOpen)
	assert.Equal(t, "09:00", week[1].OpenTime)
	assert.False(t, week[6].IsOpen)
	assert.Len(t, store.orgs, 1)
	assert.Len(t, store.owners, 1)
}

func TestCreateOrganizationLinksCreator(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	creator := founder()

	user := creator
	user.Role = model.RoleUser
	_, err := svc.CreateOrganization(ctx, user, OrganizationInput{Name: "Acme"})
	assert.ErrorIs(t, err, ErrAdminOnly)

	anonymous := creator
	anonymous.Email = ""
	_, err = svc.CreateOrganization(ctx, anonymous, OrganizationInput{Name: "Acme"})
	assert.ErrorIs(t, err, ErrOwnerProfile)
	assert.Empty(t, store.orgs)

	org, err := svc.CreateOrganization(ctx, creator, OrganizationInput{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, org.ID, store.owners[creator.UserID])

	_, err = svc.CreateOrganization(ctx, creator, OrganizationInput{Name: "Second Shop"})
	assert.ErrorIs(t, err, ErrOwnerConflict)
}

func TestCreateOrganizationRejects(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateOrganization(ctx, founder(), OrganizationInput{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.CreateOrganization(ctx, founder(), OrganizationInput{Name: "ACME!"})
	assert.ErrorIs(t, err, ErrOrganizationExists)

	_, err = svc.CreateOrganization(ctx, founder(), OrganizationInput{Name: "?!"})
	assert.ErrorIs(t, err, ErrOrganizationName)

	_, err = svc.CreateOrganization(ctx, founder(), OrganizationInput{Name: "Mars Base", Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestServiceLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	org, err := svc.CreateOrganization(ctx, founder(), OrganizationInput{Name: "Acme"})
	require.NoError(t, err)

	admin := model.Caller{UserID: uuid.NewString(), OrganizationID: org.ID, Role: model.RoleAdmin}
	user := model.Caller{UserID: uuid.NewString(), OrganizationID: org.ID, Role: model.RoleUser}

	price := 40.0
	_, err = svc.CreateService(ctx, user, ServiceInput{Name: "Cut", DurationMinutes: 30})
	assert.ErrorIs(t, err, ErrAdminOnly)

	created, err := svc.CreateService(ctx, admin, ServiceInput{Name: " Cut ", DurationMinutes: 30, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Cut", created.Name)
	assert.True(t, created.IsActive)

	got, err := svc.GetService(ctx, user, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	longer := 45
	updated, err := svc.UpdateService(ctx, admin, created.ID, ServicePatch{DurationMinutes: &longer})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.DurationMinutes)
	assert.Equal(t, &price, updated.Price)

	_, err = svc.DeactivateService(ctx, admin, created.ID)
	require.NoError(t, err)

	visible, err := svc.ListServices(ctx, user, true)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := svc.ListServices(ctx, admin, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.GetService(ctx, user, created.ID)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	other := model.Caller{UserID: uuid.NewString(), OrganizationID: uuid.NewString(), Role: model.RoleAdmin}
	_, err = svc.GetService(ctx, other, created.ID)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestServiceValidation(t *testing.T) {
	svc, _ := newTestService()
	admin := model.Caller{UserID: uuid.NewString(), OrganizationID: uuid.NewString(), Role: model.RoleAdmin}
	negative := -1.0

	cases := []struct {
		name string
		in   ServiceInput
		want error
	}{
		{"short name", ServiceInput{Name: "X", DurationMinutes: 30}, ErrServiceName},
		{"short duration", ServiceInput{Name: "Trim", DurationMinutes: 4}, ErrServiceDuration},
		{"negative price", ServiceInput{Name: "Trim", DurationMinutes: 15, Price: &negative}, ErrServicePrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateService(context.Background(), admin, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBusinessHours(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	org, err := svc.CreateOrganization(ctx, founder(), OrganizationInput{Name: "Acme"})
	require.NoError(t, err)
	admin := model.Caller{UserID: uuid.NewString(), OrganizationID: org.ID, Role: model.RoleAdmin}
	user := model.Caller{UserID: uuid.NewString(), OrganizationID: org.ID, Role: model.RoleUser}

	_, err = svc.SetBusinessHours(ctx, user, model.BusinessHours{DayOfWeek: 6, IsOpen: true, OpenTime: "10:00", CloseTime: "14:00"})
	assert.ErrorIs(t, err, ErrAdminOnly)

	_, err = svc.SetBusinessHours(ctx, admin, model.BusinessHours{DayOfWeek: 6, IsOpen: true, OpenTime: "14:00", CloseTime: "10:00"})
	require.Error(t, err)

	saturday, err := svc.SetBusinessHours(ctx, admin, model.BusinessHours{DayOfWeek: 6, IsOpen: true, OpenTime: "10:00", CloseTime: "14:00"})
	require.NoError(t, err)

	week, err := svc.ListBusinessHours(ctx, user)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.True(t, week[6].IsOpen)
	assert.Equal(t, saturday.ID, week[6].ID)

	closed, err := svc.SetBusinessHours(ctx, admin, model.BusinessHours{DayOfWeek: 1})
	require.NoError(t, err)
	assert.False(t, closed.IsOpen)
	assert.Equal(t, "09:00", closed.OpenTime)

	got, err := svc.GetBusinessHours(ctx, user, saturday.ID)
	require.NoError(t, err)
	assert.Equal(t, "14:00", got.CloseTime)
	outsider := model.Caller{UserID: uuid.NewString(), OrganizationID: uuid.NewString(), Role: model.RoleAdmin}
	_, err = svc.GetBusinessHours(ctx, outsider, saturday.ID)
	assert.ErrorIs(t, err, ErrHoursNotFound)

	require.NoError(t, svc.DeleteBusinessHours(ctx, admin, saturday.ID))
	assert.ErrorIs(t, svc.DeleteBusinessHours(ctx, admin, saturday.ID), ErrHoursNotFound)
	assert.ErrorIs(t, svc.DeleteBusinessHours(ctx, admin, "not-a-uuid"), ErrHoursNotFound)
	assert.ErrorIs(t, svc.DeleteBusinessHours(ctx, user, saturday.ID), ErrAdminOnly)

	week, err = svc.ListBusinessHours(ctx, user)
	require.NoError(t, err)
	assert.Len(t, week, 6)
}
