package handlers

import (
	"net/http"
	"strconv"

	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type createOrganizationRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

type organizationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Timezone  string `json:"timezone"`
	CreatedAt string `json:"created_at"`
}

type createServiceRequest struct {
	Name            string   `json:"name" validate:"required,min=2,max=200"`
	Description     *string  `json:"description" validate:"omitempty,max=2000"`
	DurationMinutes int      `json:"duration_minutes" validate:"required,min=5,max=1440"`
	Price           *float64 `json:"price" validate:"omitempty,min=0"`
}

type updateServiceRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=2,max=200"`
	Description     *string  `json:"description" validate:"omitempty,max=2000"`
	DurationMinutes *int     `json:"duration_minutes" validate:"omitempty,min=5,max=1440"`
	Price           *float64 `json:"price" validate:"omitempty,min=0"`
	IsActive        *bool    `json:"is_active"`
}

type serviceResponse struct {
	ID              string   `json:"id"`
	OrganizationID  string   `json:"organization_id"`
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	DurationMinutes int      `json:"duration_minutes"`
	Price           *float64 `json:"price"`
	IsActive        bool     `json:"is_active"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type businessHoursRequest struct {
	DayOfWeek *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	IsOpen    *bool  `json:"is_open"`
	OpenTime  string `json:"open_time" validate:"omitempty,datetime=15:04"`
	CloseTime string `json:"close_time" validate:"omitempty,datetime=15:04"`
}

type businessHoursResponse struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"day_of_week"`
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

func toOrganizationResponse(o model.Organization) organizationResponse {
	return organizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		Slug:      o.Slug,
		Timezone:  o.Timezone,
		CreatedAt: formatTime(o.CreatedAt),
	}
}

func toServiceResponse(s model.Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		OrganizationID:  s.OrganizationID,
		Name:            s.Name,
		Description:     s.Description,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		IsActive:        s.IsActive,
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
}

func toHoursResponse(h model.BusinessHours) businessHoursResponse {
	return businessHoursResponse{
		ID:        h.ID,
		DayOfWeek: h.DayOfWeek,
		IsOpen:    h.IsOpen,
		OpenTime:  h.OpenTime,
		CloseTime: h.CloseTime,
	}
}

// createOrganization is the tenant bootstrap; it needs no organization header.
func (a *API) createOrganization(w http.ResponseWriter, r *http.Request) {
	caller := identityFromHeaders(r)
	if caller.UserID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	var req createOrganizationRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	org, err := a.catalog.CreateOrganization(r.Context(), caller, catalog.OrganizationInput{Name: req.Name, Timezone: req.Timezone})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toOrganizationResponse(org))
}

func (a *API) currentOrganization(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	org, err := a.catalog.CurrentOrganization(r.Context(), caller)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

func (a *API) createService(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	var req createServiceRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	svc, err := a.catalog.CreateService(r.Context(), caller, catalog.ServiceInput{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toServiceResponse(svc))
}

func (a *API) listServices(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))
	services, err := a.catalog.ListServices(r.Context(), caller, includeInactive)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, toServiceResponse(s))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (a *API) getService(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	svc, err := a.catalog.GetService(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toServiceResponse(svc))
}

func (a *API) updateService(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	var req updateServiceRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	svc, err := a.catalog.UpdateService(r.Context(), caller, r.PathValue("id"), catalog.ServicePatch{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		IsActive:        req.IsActive,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toServiceResponse(svc))
}

func (a *API) deactivateService(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	svc, err := a.catalog.DeactivateService(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toServiceResponse(svc))
}

func (a *API) setBusinessHours(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	var req businessHoursRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	h := model.BusinessHours{
		DayOfWeek: *req.DayOfWeek,
		IsOpen:    true,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
	}
	if req.IsOpen != nil {
		h.IsOpen = *req.IsOpen
	}
	saved, err := a.catalog.SetBusinessHours(r.Context(), caller, h)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toHoursResponse(saved))
}

func (a *API) listBusinessHours(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	week, err := a.catalog.ListBusinessHours(r.Context(), caller)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]businessHoursResponse, 0, len(week))
	for _, h := range week {
		out = append(out, toHoursResponse(h))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (a *API) getBusinessHours(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	h, err := a.catalog.GetBusinessHours(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toHoursResponse(h))
}

func (a *API) deleteBusinessHours(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	if err := a.catalog.DeleteBusinessHours(r.Context(), caller, r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
