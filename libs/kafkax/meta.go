package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID        = "event_id"
	HeaderEventType      = "event_type"
	HeaderOrganizationID = "organization_id"
)

// EventMeta is the metadata every appointment event carries in Kafka headers.
type EventMeta struct {
	EventID        string
	EventType      string
	OrganizationID string
}

func (m EventMeta) Headers() []kafka.Header {
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(m.EventID)},
		{Key: HeaderEventType, Value: []byte(m.EventType)},
	}
	if m.OrganizationID != "" {
		headers = append(headers, kafka.Header{Key: HeaderOrganizationID, Value: []byte(m.OrganizationID)})
	}
	return headers
}

// ExtractEventMeta falls back to the message key and topic when headers are absent.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	eventID := HeaderValue(msg.Headers, HeaderEventID)
	eventType := HeaderValue(msg.Headers, HeaderEventType)
	if eventID == "" {
		eventID = string(msg.Key)
	}
	if eventType == "" {
		eventType = msg.Topic
	}
	return EventMeta{
		EventID:        eventID,
		EventType:      eventType,
		OrganizationID: HeaderValue(msg.Headers, HeaderOrganizationID),
	}
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
