// Package catalog manages what an organization offers: the organization
// record itself, its services and its weekly business hours.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

const (
	MinServiceNameLength = 2
	MinDurationMinutes   = 5
)

var (
	ErrOrganizationNotFound = apperr.NotFound("Organization not found")
	ErrOrganizationExists   = apperr.Conflict("Organization with this name already exists")
	ErrOrganizationName     = apperr.Invalid("Organization name must contain letters or digits")
	ErrInvalidTimezone      = apperr.Invalid("timezone must be an IANA zone name")
	ErrServiceNotFound      = apperr.NotFound("Service not found")
	ErrServiceName          = apperr.Invalid("name must be at least 2 characters")
	ErrServiceDuration      = apperr.Invalid("duration_minutes must be at least 5")
	ErrServicePrice         = apperr.Invalid("price must not be negative")
	ErrHoursNotFound        = apperr.NotFound("Business hours not found")
	ErrAdminOnly            = apperr.Forbidden("Admin access required")
	ErrOwnerProfile         = apperr.Invalid("Organization creator must have an email address")
	ErrOwnerConflict        = apperr.Conflict("User already belongs to another organization")
)

type Store interface {
	GetOrganization(ctx context.Context, organizationID string) (model.Organization, error)
	CreateOrganization(ctx context.Context, org model.Organization, week []model.BusinessHours, owner *model.UserSummary) (model.Organization, error)
	GetService(ctx context.Context, organizationID, serviceID string) (model.Service, error)
	ListServices(ctx context.Context, organizationID string, includeInactive bool) ([]model.Service, error)
	CreateService(ctx context.Context, svc model.Service) (model.Service, error)
	UpdateService(ctx context.Context, svc model.Service) (model.Service, error)
	ListBusinessHours(ctx context.Context, organizationID string) ([]model.BusinessHours, error)
	GetBusinessHoursByID(ctx context.Context, organizationID, hoursID string) (model.BusinessHours, error)
	UpsertBusinessHours(ctx context.Context, h model.BusinessHours) (model.BusinessHours, error)
	DeleteBusinessHours(ctx context.Context, organizationID, hoursID string) error
}

type Service struct {
	store  Store
	logger *slog.Logger
	newID  func() string
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
	}
}

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name, collapses every run of other characters into a
// single hyphen and trims hyphens from both ends.
func Slugify(name string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func requireAdmin(caller model.Caller) error {
	if !caller.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

type OrganizationInput struct {
	Name     string
	Timezone string
}

// CreateOrganization registers a new tenant, seeds its default week and makes
// the calling admin its first ADMIN user. The caller's own organization header
// is ignored; a user row belongs to exactly one organization.
func (s *Service) CreateOrganization(ctx context.Context, caller model.Caller, in OrganizationInput) (model.Organization, error) {
	if err := requireAdmin(caller); err != nil {
		return model.Organization{}, err
	}
	owner, ok := caller.Profile()
	if !ok || !validID(owner.ID) {
		return model.Organization{}, ErrOwnerProfile
	}
	name := strings.TrimSpace(in.Name)
	slug := Slugify(name)
	if slug == "" {
		return model.Organization{}, ErrOrganizationName
	}
	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return model.Organization{}, ErrInvalidTimezone
	}

	org := model.Organization{ID: s.newID(), Name: name, Slug: slug, Timezone: tz}
	week := hours.DefaultWeek(org.ID)
	for i := range week {
		week[i].ID = s.newID()
	}
	created, err := s.store.CreateOrganization(ctx, org, week, &owner)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return model.Organization{}, ErrOrganizationExists
		}
		if errors.Is(err, storage.ErrUserConflict) {
			return model.Organization{}, ErrOwnerConflict
		}
		return model.Organization{}, apperr.Internal("create organization", err)
	}
	s.logger.Info("organization created",
		"organization_id", created.ID,
		"slug", created.Slug,
		"timezone", created.Timezone,
		"owner_id", owner.ID,
	)
	return created, nil
}

func (s *Service) CurrentOrganization(ctx context.Context, caller model.Caller) (model.Organization, error) {
	if !validID(caller.OrganizationID) {
		return model.Organization{}, ErrOrganizationNotFound
	}
	org, err := s.store.GetOrganization(ctx, caller.OrganizationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Organization{}, ErrOrganizationNotFound
		}
		return model.Organization{}, apperr.Internal("load organization", err)
	}
	return org, nil
}

type ServiceInput struct {
	Name            string
	Description     *string
	DurationMinutes int
	Price           *float64
}

// ServicePatch carries the fields of an update; nil fields are left alone.
type ServicePatch struct {
	Name            *string
	Description     *string
	DurationMinutes *int
	Price           *float64
	IsActive        *bool
}

func validateService(svc model.Service) error {
	if len([]rune(strings.TrimSpace(svc.Name))) < MinServiceNameLength {
		return ErrServiceName
	}
	if svc.DurationMinutes < MinDurationMinutes {
		return ErrServiceDuration
	}
	if svc.Price != nil && *svc.Price < 0 {
		return ErrServicePrice
	}
	return nil
}

// ListServices returns the organization's services. Inactive services are
// only listed for admins who ask for them.
func (s *Service) ListServices(ctx context.Context, caller model.Caller, includeInactive bool) ([]model.Service, error) {
	if !validID(caller.OrganizationID) {
		return nil, ErrOrganizationNotFound
	}
	out, err := s.store.ListServices(ctx, caller.OrganizationID, includeInactive && caller.IsAdmin())
	if err != nil {
		return nil, apperr.Internal("list services", err)
	}
	return out, nil
}

func (s *Service) GetService(ctx context.Context, caller model.Caller, serviceID string) (model.Service, error) {
	if !validID(serviceID) || !validID(caller.OrganizationID) {
		return model.Service{}, ErrServiceNotFound
	}
	svc, err := s.store.GetService(ctx, caller.OrganizationID, serviceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Service{}, ErrServiceNotFound
		}
		return model.Service{}, apperr.Internal("load service", err)
	}
	if !svc.IsActive && !caller.IsAdmin() {
		return model.Service{}, ErrServiceNotFound
	}
	return svc, nil
}

func (s *Service) CreateService(ctx context.Context, caller model.Caller, in ServiceInput) (model.Service, error) {
	if err := requireAdmin(caller); err != nil {
		return model.Service{}, err
	}
	svc := model.Service{
		ID:              s.newID(),
		OrganizationID:  caller.OrganizationID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		DurationMinutes: in.DurationMinutes,
		Price:           in.Price,
		IsActive:        true,
	}
	if err := validateService(svc); err != nil {
		return model.Service{}, err
	}
	created, err := s.store.CreateService(ctx, svc)
	if err != nil {
		return model.Service{}, apperr.Internal("create service", err)
	}
	s.logger.Info("service created", "organization_id", created.OrganizationID, "service_id", created.ID)
	return created, nil
}

func (s *Service) UpdateService(ctx context.Context, caller model.Caller, serviceID string, patch ServicePatch) (model.Service, error) {
	if err := requireAdmin(caller); err != nil {
		return model.Service{}, err
	}
	svc, err := s.GetService(ctx, caller, serviceID)
	if err != nil {
		return model.Service{}, err
	}
	if patch.Name != nil {
		svc.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		svc.Description = patch.Description
	}
	if patch.DurationMinutes != nil {
		svc.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Price != nil {
		svc.Price = patch.Price
	}
	if patch.IsActive != nil {
		svc.IsActive = *patch.IsActive
	}
	if err := validateService(svc); err != nil {
		return model.Service{}, err
	}
	updated, err := s.store.UpdateService(ctx, svc)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Service{}, ErrServiceNotFound
		}
		return model.Service{}, apperr.Internal("update service", err)
	}
	return updated, nil
}

// DeactivateService hides the service from booking. Existing appointments
// keep referencing it.
func (s *Service) DeactivateService(ctx context.Context, caller model.Caller, serviceID string) (model.Service, error) {
	inactive := false
	return s.UpdateService(ctx, caller, serviceID, ServicePatch{IsActive: &inactive})
}

func (s *Service) ListBusinessHours(ctx context.Context, caller model.Caller) ([]model.BusinessHours, error) {
	if !validID(caller.OrganizationID) {
		return nil, ErrOrganizationNotFound
	}
	out, err := s.store.ListBusinessHours(ctx, caller.OrganizationID)
	if err != nil {
		return nil, apperr.Internal("list business hours", err)
	}
	return out, nil
}

func (s *Service) GetBusinessHours(ctx context.Context, caller model.Caller, hoursID string) (model.BusinessHours, error) {
	if !validID(hoursID) || !validID(caller.OrganizationID) {
		return model.BusinessHours{}, ErrHoursNotFound
	}
	h, err := s.store.GetBusinessHoursByID(ctx, caller.OrganizationID, hoursID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.BusinessHours{}, ErrHoursNotFound
		}
		return model.BusinessHours{}, apperr.Internal("load business hours", err)
	}
	return h, nil
}

// SetBusinessHours creates or replaces the row for h.DayOfWeek.
func (s *Service) SetBusinessHours(ctx context.Context, caller model.Caller, h model.BusinessHours) (model.BusinessHours, error) {
	if err := requireAdmin(caller); err != nil {
		return model.BusinessHours{}, err
	}
	if !h.IsOpen {
		if h.OpenTime == "" {
			h.OpenTime = "09:00"
		}
		if h.CloseTime == "" {
			h.CloseTime = "17:00"
		}
	}
	if err := hours.Validate(h); err != nil {
		return model.BusinessHours{}, err
	}
	h.ID = s.newID()
	h.OrganizationID = caller.OrganizationID
	saved, err := s.store.UpsertBusinessHours(ctx, h)
	if err != nil {
		return model.BusinessHours{}, apperr.Internal("save business hours", err)
	}
	s.logger.Info("business hours updated",
		"organization_id", saved.OrganizationID,
		"day_of_week", saved.DayOfWeek,
		"is_open", saved.IsOpen,
	)
	return saved, nil
}

// DeleteBusinessHours removes a weekday row; the day is then closed.
func (s *Service) DeleteBusinessHours(ctx context.Context, caller model.Caller, hoursID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if !validID(hoursID) {
		return ErrHoursNotFound
	}
	if err := s.store.DeleteBusinessHours(ctx, caller.OrganizationID, hoursID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrHoursNotFound
		}
		return apperr.Internal("delete business hours", err)
	}
	return nil
}
