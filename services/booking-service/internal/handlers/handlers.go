// Package handlers exposes the booking core over JSON/HTTP. Identity comes
// from the X-User-Id, X-Organization-Id and X-Role headers set by the gateway,
// plus the optional X-User-Email, X-User-First-Name and X-User-Last-Name.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/analytics"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

const (
	HeaderUserID         = "X-User-Id"
	HeaderOrganizationID = "X-Organization-Id"
	HeaderRole           = "X-Role"
	HeaderUserEmail      = "X-User-Email"
	HeaderUserFirstName  = "X-User-First-Name"
	HeaderUserLastName   = "X-User-Last-Name"
	HeaderIdempotencyKey = "Idempotency-Key"

	maxIdempotencyKeyLength = 200
)

// Bookings is implemented by *booking.Service.
type Bookings interface {
	AvailableSlots(ctx context.Context, caller model.Caller, serviceID, date string) ([]time.Time, error)
	CreateAppointment(ctx context.Context, caller model.Caller, in booking.CreateInput) (booking.CreateResult, error)
	FindAll(ctx context.Context, caller model.Caller, adminView bool) ([]model.AppointmentDetail, error)
	FindOne(ctx context.Context, caller model.Caller, appointmentID string) (model.AppointmentDetail, error)
	Update(ctx context.Context, caller model.Caller, appointmentID string, in booking.UpdateInput) (model.AppointmentDetail, error)
	Cancel(ctx context.Context, caller model.Caller, appointmentID string) (model.AppointmentDetail, error)
	Analytics(ctx context.Context, caller model.Caller, startDate, endDate string) (analytics.Report, error)
}

// Catalog is implemented by *catalog.Service.
type Catalog interface {
	CreateOrganization(ctx context.Context, caller model.Caller, in catalog.OrganizationInput) (model.Organization, error)
	CurrentOrganization(ctx context.Context, caller model.Caller) (model.Organization, error)
	ListServices(ctx context.Context, caller model.Caller, includeInactive bool) ([]model.Service, error)
	GetService(ctx context.Context, caller model.Caller, serviceID string) (model.Service, error)
	CreateService(ctx context.Context, caller model.Caller, in catalog.ServiceInput) (model.Service, error)
	UpdateService(ctx context.Context, caller model.Caller, serviceID string, patch catalog.ServicePatch) (model.Service, error)
	DeactivateService(ctx context.Context, caller model.Caller, serviceID string) (model.Service, error)
	ListBusinessHours(ctx context.Context, caller model.Caller) ([]model.BusinessHours, error)
	GetBusinessHours(ctx context.Context, caller model.Caller, hoursID string) (model.BusinessHours, error)
	SetBusinessHours(ctx context.Context, caller model.Caller, h model.BusinessHours) (model.BusinessHours, error)
	DeleteBusinessHours(ctx context.Context, caller model.Caller, hoursID string) error
}

type API struct {
	bookings Bookings
	catalog  Catalog
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAPI(bookings Bookings, cat Catalog, logger *slog.Logger) *API {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &API{bookings: bookings, catalog: cat, logger: logger, validate: v}
}

// Register mounts every route on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/appointments/available-slots", a.withCaller(a.availableSlots))
	mux.HandleFunc("GET /api/v1/appointments/analytics/stats", a.withCaller(a.analyticsStats))
	mux.HandleFunc("POST /api/v1/appointments", a.withCaller(a.createAppointment))
	mux.HandleFunc("GET /api/v1/appointments", a.withCaller(a.listAppointments))
	mux.HandleFunc("GET /api/v1/appointments/{id}", a.withCaller(a.getAppointment))
	mux.HandleFunc("PATCH /api/v1/appointments/{id}", a.withCaller(a.updateAppointment))
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", a.withCaller(a.cancelAppointment))

	mux.HandleFunc("POST /api/v1/services", a.withCaller(a.createService))
	mux.HandleFunc("GET /api/v1/services", a.withCaller(a.listServices))
	mux.HandleFunc("GET /api/v1/services/{id}", a.withCaller(a.getService))
	mux.HandleFunc("PATCH /api/v1/services/{id}", a.withCaller(a.updateService))
	mux.HandleFunc("DELETE /api/v1/services/{id}", a.withCaller(a.deactivateService))

	mux.HandleFunc("PUT /api/v1/business-hours", a.withCaller(a.setBusinessHours))
	mux.HandleFunc("GET /api/v1/business-hours", a.withCaller(a.listBusinessHours))
	mux.HandleFunc("GET /api/v1/business-hours/{id}", a.withCaller(a.getBusinessHours))
	mux.HandleFunc("DELETE /api/v1/business-hours/{id}", a.withCaller(a.deleteBusinessHours))

	mux.HandleFunc("POST /api/v1/organizations", a.createOrganization)
	mux.HandleFunc("GET /api/v1/organizations/current", a.withCaller(a.currentOrganization))
}

type callerHandler func(w http.ResponseWriter, r *http.Request, caller model.Caller)

// withCaller rejects requests that arrive without the gateway identity headers.
func (a *API) withCaller(next callerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromHeaders(r)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "missing identity")
			return
		}
		next(w, r, caller)
	}
}

func callerFromHeaders(r *http.Request) (model.Caller, bool) {
	caller := identityFromHeaders(r)
	if caller.UserID == "" || caller.OrganizationID == "" {
		return model.Caller{}, false
	}
	return caller, true
}

// identityFromHeaders reads whatever identity the gateway forwarded. The
// organization may be empty for a caller that does not belong to one yet.
func identityFromHeaders(r *http.Request) model.Caller {
	return model.Caller{
		UserID:         strings.TrimSpace(r.Header.Get(HeaderUserID)),
		OrganizationID: strings.TrimSpace(r.Header.Get(HeaderOrganizationID)),
		Role:           model.ParseRole(r.Header.Get(HeaderRole)),
		Email:          strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		FirstName:      strings.TrimSpace(r.Header.Get(HeaderUserFirstName)),
		LastName:       strings.TrimSpace(r.Header.Get(HeaderUserLastName)),
	}
}

// decode reads and validates a request body into dst.
func (a *API) decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return apperr.Invalid(err.Error())
	}
	if err := a.validate.Struct(dst); err != nil {
		return apperr.Invalid(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be HH:mm", fe.Field())
	case "timezone":
		return fmt.Sprintf("%s must be an IANA zone name", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"err", err,
		)
	}
	httpx.WriteError(w, status, apperr.PublicMessage(err))
}
