package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type createAppointmentRequest struct {
	ServiceID string  `json:"service_id" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type updateAppointmentRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

type serviceSummaryResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	DurationMinutes int      `json:"duration_minutes"`
	Price           *float64 `json:"price"`
}

type userSummaryResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type appointmentResponse struct {
	ID             string                  `json:"id"`
	OrganizationID string                  `json:"organization_id"`
	ServiceID      string                  `json:"service_id"`
	UserID         string                  `json:"user_id"`
	StartTime      string                  `json:"start_time"`
	EndTime        string                  `json:"end_time"`
	Status         string                  `json:"status"`
	Notes          *string                 `json:"notes"`
	CreatedAt      string                  `json:"created_at"`
	UpdatedAt      string                  `json:"updated_at"`
	Service        *serviceSummaryResponse `json:"service,omitempty"`
	User           *userSummaryResponse    `json:"user,omitempty"`
}

type slotsResponse struct {
	ServiceID string   `json:"service_id"`
	Date      string   `json:"date"`
	Slots     []string `json:"slots"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toAppointmentResponse(d model.AppointmentDetail) appointmentResponse {
	out := appointmentResponse{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		ServiceID:      d.ServiceID,
		UserID:         d.UserID,
		StartTime:      formatTime(d.StartTime),
		EndTime:        formatTime(d.EndTime),
		Status:         string(d.Status),
		Notes:          d.Notes,
		CreatedAt:      formatTime(d.CreatedAt),
		UpdatedAt:      formatTime(d.UpdatedAt),
	}
	if d.Service != nil {
		out.Service = &serviceSummaryResponse{
			ID:              d.Service.ID,
			Name:            d.Service.Name,
			DurationMinutes: d.Service.DurationMinutes,
			Price:           d.Service.Price,
		}
	}
	if d.User != nil {
		out.User = &userSummaryResponse{
			ID:        d.User.ID,
			Email:     d.User.Email,
			FirstName: d.User.FirstName,
			LastName:  d.User.LastName,
		}
	}
	return out
}

func (a *API) availableSlots(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	q := r.URL.Query()
	serviceID := strings.TrimSpace(q.Get("service_id"))
	date := strings.TrimSpace(q.Get("date"))
	if serviceID == "" || date == "" {
		httpx.WriteError(w, http.StatusBadRequest, "service_id and date are required")
		return
	}

	slots, err := a.bookings.AvailableSlots(r.Context(), caller, serviceID, date)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := slotsResponse{ServiceID: serviceID, Date: date, Slots: make([]string, 0, len(slots))}
	for _, s := range slots {
		out.Slots = append(out.Slots, formatTime(s))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (a *API) createAppointment(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	var req createAppointmentRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "start_time must be RFC3339")
		return
	}
	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLength {
		httpx.WriteError(w, http.StatusBadRequest, "Idempotency-Key is too long")
		return
	}

	res, err := a.bookings.CreateAppointment(r.Context(), caller, booking.CreateInput{
		ServiceID:      strings.TrimSpace(req.ServiceID),
		StartTime:      start,
		Notes:          req.Notes,
		IdempotencyKey: key,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, toAppointmentResponse(res.Appointment))
}

func (a *API) listAppointments(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	adminView, _ := strconv.ParseBool(r.URL.Query().Get("admin"))
	appts, err := a.bookings.FindAll(r.Context(), caller, adminView)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]appointmentResponse, 0, len(appts))
	for _, d := range appts {
		out = append(out, toAppointmentResponse(d))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (a *API) getAppointment(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	d, err := a.bookings.FindOne(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentResponse(d))
}

func (a *API) updateAppointment(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	var req updateAppointmentRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	in := booking.UpdateInput{Notes: req.Notes}
	if req.Status != nil {
		status, err := model.ParseStatus(*req.Status)
		if err != nil {
			a.writeError(w, r, apperr.Invalid("status must be one of PENDING, CONFIRMED, COMPLETED, CANCELLED"))
			return
		}
		in.Status = &status
	}

	d, err := a.bookings.Update(r.Context(), caller, r.PathValue("id"), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentResponse(d))
}

func (a *API) cancelAppointment(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	d, err := a.bookings.Cancel(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentResponse(d))
}

func (a *API) analyticsStats(w http.ResponseWriter, r *http.Request, caller model.Caller) {
	q := r.URL.Query()
	report, err := a.bookings.Analytics(r.Context(), caller, strings.TrimSpace(q.Get("start_date")), strings.TrimSpace(q.Get("end_date")))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}
