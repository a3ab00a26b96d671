// Package events holds the Kafka topics and payloads booking-service emits.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	TopicAppointmentConfirmed = "booking.appointment.confirmed.v1"
	TopicAppointmentCancelled = "booking.appointment.cancelled.v1"

	AggregateAppointment = "appointment"
)

// AppointmentNotice is the payload of both appointment topics. EndTime is
// omitted on cancellations.
type AppointmentNotice struct {
	AppointmentID  string     `json:"appointment_id"`
	OrganizationID string     `json:"organization_id"`
	Timezone       string     `json:"timezone,omitempty"`
	RecipientEmail string     `json:"recipient_email"`
	RecipientName  string     `json:"recipient_name"`
	ServiceName    string     `json:"service_name"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
}

func (n AppointmentNotice) Validate() error {
	switch {
	case n.AppointmentID == "":
		return fmt.Errorf("appointment_id is required")
	case n.RecipientEmail == "":
		return fmt.Errorf("recipient_email is required")
	case n.StartTime.IsZero():
		return fmt.Errorf("start_time is required")
	}
	return nil
}

// Location resolves Timezone, falling back to UTC when it is empty or unknown.
func (n AppointmentNotice) Location() *time.Location {
	if n.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(n.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func DecodeAppointmentNotice(b []byte) (AppointmentNotice, error) {
	var n AppointmentNotice
	if err := json.Unmarshal(b, &n); err != nil {
		return AppointmentNotice{}, fmt.Errorf("decode appointment notice: %w", err)
	}
	return n, n.Validate()
}
