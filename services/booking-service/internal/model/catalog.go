package model

import (
	"fmt"
	"strings"
	"time"
)

type Organization struct {
	ID        string
	Name      string
	Slug      string
	Timezone  string
	CreatedAt time.Time
}

// Location resolves the organization's IANA timezone, defaulting to UTC.
func (o Organization) Location() (*time.Location, error) {
	tz := strings.TrimSpace(o.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("organization %s timezone %q: %w", o.ID, tz, err)
	}
	return loc, nil
}

type Service struct {
	ID              string
	OrganizationID  string
	Name            string
	Description     *string
	DurationMinutes int
	Price           *float64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s Service) Summary() ServiceSummary {
	return ServiceSummary{
		ID:              s.ID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
	}
}

// BusinessHours is one weekday row. DayOfWeek follows time.Weekday (Sunday=0);
// OpenTime and CloseTime are "HH:mm" in the organization's timezone.
type BusinessHours struct {
	ID             string
	OrganizationID string
	DayOfWeek      int
	IsOpen         bool
	OpenTime       string
	CloseTime      string
}
