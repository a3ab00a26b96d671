package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

// memStore is an in-memory Store. InTx serialises per organization the way
// the advisory lock does; each Tx method is individually atomic.
type memStore struct {
	mu       sync.Mutex
	orgs     map[string]model.Organization
	services map[string]model.Service
	hours    map[string]map[int]model.BusinessHours
	appts    map[string]model.Appointment
	users    map[string]model.UserSummary
	userOrgs map[string]string
	idem     map[string]string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		orgs:     map[string]model.Organization{},
		services: map[string]model.Service{},
		hours:    map[string]map[int]model.BusinessHours{},
		appts:    map[string]model.Appointment{},
		users:    map[string]model.UserSummary{},
		userOrgs: map[string]string{},
		idem:     map[string]string{},
		locks:    map[string]*sync.Mutex{},
	}
}

func (m *memStore) lock(orgID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[orgID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[orgID] = l
	}
	return l
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

func (m *memStore) GetService(_ context.Context, orgID, id string) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[id]
	if !ok || svc.OrganizationID != orgID {
		return model.Service{}, storage.ErrNotFound
	}
	return svc, nil
}

func (m *memStore) GetUser(_ context.Context, orgID, id string) (model.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || m.userOrgs[id] != orgID {
		return model.UserSummary{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetHours(_ context.Context, orgID string, day int) (model.BusinessHours, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hours[orgID][day]
	return h, ok, nil
}

func (m *memStore) ListBusy(_ context.Context, orgID string, from, to time.Time) ([]interval.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []interval.Interval
	for _, a := range m.appts {
		if a.OrganizationID != orgID || !a.Status.BlocksTimeline() {
			continue
		}
		if interval.Overlaps(a.StartTime, a.EndTime, from, to) {
			out = append(out, interval.Interval{Start: a.StartTime, End: a.EndTime})
		}
	}
	return out, nil
}

func (m *memStore) detailLocked(a model.Appointment) model.AppointmentDetail {
	d := model.AppointmentDetail{Appointment: a}
	if svc, ok := m.services[a.ServiceID]; ok {
		sum := svc.Summary()
		d.Service = &sum
	}
	if u, ok := m.users[a.UserID]; ok {
		d.User = &u
	}
	return d
}

func (m *memStore) GetAppointmentDetail(_ context.Context, orgID, id string) (model.AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.OrganizationID != orgID {
		return model.AppointmentDetail{}, storage.ErrNotFound
	}
	return m.detailLocked(a), nil
}

func (m *memStore) ListAppointmentDetails(_ context.Context, f storage.AppointmentFilter) ([]model.AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AppointmentDetail{}
	for _, a := range m.appts {
		if a.OrganizationID != f.OrganizationID {
			continue
		}
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if !f.From.IsZero() && a.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.StartTime.After(f.To) {
			continue
		}
		out = append(out, m.detailLocked(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *memStore) InTx(ctx context.Context, orgID string, fn func(ctx context.Context, tx storage.Tx) error) error {
	l := m.lock(orgID)
	l.Lock()
	defer l.Unlock()
	return fn(ctx, &memTx{m: m})
}

type memTx struct {
	m *memStore
}

func (t *memTx) HasConflict(_ context.Context, orgID string, start, end time.Time) (bool, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for _, a := range t.m.appts {
		if a.OrganizationID == orgID && a.Status.BlocksTimeline() && interval.Overlaps(a.StartTime, a.EndTime, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) GetBusinessHours(ctx context.Context, orgID string, day int) (model.BusinessHours, bool, error) {
	return t.m.GetHours(ctx, orgID, day)
}

func (t *memTx) InsertAppointment(_ context.Context, a model.Appointment) (model.Appointment, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	t.m.appts[a.ID] = a
	return a, nil
}

func (t *memTx) GetAppointmentForUpdate(_ context.Context, orgID, id string) (model.Appointment, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	a, ok := t.m.appts[id]
	if !ok || a.OrganizationID != orgID {
		return model.Appointment{}, storage.ErrNotFound
	}
	return a, nil
}

func (t *memTx) UpdateAppointmentStatus(_ context.Context, orgID, id string, status model.Status) (model.Appointment, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	a, ok := t.m.appts[id]
	if !ok || a.OrganizationID != orgID {
		return model.Appointment{}, storage.ErrNotFound
	}
	a.Status = status
	t.m.appts[id] = a
	return a, nil
}

func (t *memTx) UpdateAppointmentNotes(_ context.Context, orgID, id string, notes *string) (model.Appointment, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	a, ok := t.m.appts[id]
	if !ok || a.OrganizationID != orgID {
		return model.Appointment{}, storage.ErrNotFound
	}
	a.Notes = notes
	t.m.appts[id] = a
	return a, nil
}

func (t *memTx) LookupIdempotencyKey(_ context.Context, orgID, userID, key string) (string, bool, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	id, ok := t.m.idem[orgID+"/"+userID+"/"+key]
	return id, ok, nil
}

func (t *memTx) SaveIdempotencyKey(_ context.Context, orgID, userID, key, appointmentID string) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.m.idem[orgID+"/"+userID+"/"+key] = appointmentID
	return nil
}

func (t *memTx) UpsertUser(_ context.Context, orgID string, u model.UserSummary, _ model.Role) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if owner, ok := t.m.userOrgs[u.ID]; ok && owner != orgID {
		return storage.ErrUserConflict
	}
	for id, other := range t.m.users {
		if id != u.ID && t.m.userOrgs[id] == orgID && other.Email == u.Email {
			return storage.ErrUserConflict
		}
	}
	t.m.users[u.ID] = u
	t.m.userOrgs[u.ID] = orgID
	return nil
}
