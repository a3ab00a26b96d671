package model

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// transitions lists the allowed targets for each non-terminal status.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", raw)
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanTransition(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// BlocksTimeline reports whether an appointment in this status occupies its slot.
func (s Status) BlocksTimeline() bool {
	return s != StatusCancelled
}

type Appointment struct {
	ID             string
	OrganizationID string
	ServiceID      string
	UserID         string
	StartTime      time.Time
	EndTime        time.Time
	Status         Status
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ServiceSummary struct {
	ID              string
	Name            string
	DurationMinutes int
	Price           *float64
}

type UserSummary struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

func (u UserSummary) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// AppointmentDetail is an appointment joined with its service and user. Either
// side is nil when the referenced row no longer exists.
type AppointmentDetail struct {
	Appointment
	Service *ServiceSummary
	User    *UserSummary
}
