// Package events announces submissions to other services over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"swipr-api/internal/config"
	"swipr-api/internal/logging"
)

// Event types, appended to the configured subject prefix
const (
	ApplicationCreated       = "application.created"
	ApplicationStatusChanged = "application.status_changed"
	ContactCreated           = "contact.created"
	WaitlistJoined           = "waitlist.joined"
)

// Event is the JSON payload published for every submission
type Event struct {
	Type       string      `json:"type"`
	ID         string      `json:"id"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data,omitempty"`
}

// New stamps an event with the current time
func New(eventType, id string, data interface{}) Event {
	return Event{Type: eventType, ID: id, OccurredAt: time.Now().UTC(), Data: data}
}

// Publisher delivers events. Delivery is best effort; callers log failures and move on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// conn is the part of *nats.Conn the publisher uses
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher publishes events as core NATS messages on <prefix>.<type>
type NATSPublisher struct {
	conn   conn
	prefix string
	logger logging.Logger
}

// NewPublisher connects to NATS when a URL is configured. Without one, or when the
// server cannot be reached, it returns a NoopPublisher so startup never fails on events.
func NewPublisher(cfg *config.Config) Publisher {
	logger := logging.GetGlobalLogger().WithField("component", "events")

	if cfg.Events.NATSURL == "" {
		logger.Info("No NATS URL configured, submission events disabled")
		return NoopPublisher{}
	}

	nc, err := nats.Connect(cfg.Events.NATSURL,
		nats.Name("swipr-api"),
		nats.Timeout(cfg.Events.Timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", map[string]interface{}{"error": err.Error()})
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", map[string]interface{}{"url": nc.ConnectedUrl()})
		}),
	)
	if err != nil {
		logger.Warn("Failed to connect to NATS, submission events disabled", map[string]interface{}{
			"url":   cfg.Events.NATSURL,
			"error": err.Error(),
		})
		return NoopPublisher{}
	}

	logger.Info("Connected to NATS", map[string]interface{}{"url": nc.ConnectedUrl()})
	return newNATSPublisher(nc, cfg.Events.SubjectPrefix, logger)
}

func newNATSPublisher(c conn, prefix string, logger logging.Logger) *NATSPublisher {
	return &NATSPublisher{conn: c, prefix: prefix, logger: logger}
}

// Subject returns the full subject for an event type
func (p *NATSPublisher) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	subject := p.Subject(event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}

	p.logger.Debug("Event published", map[string]interface{}{
		"subject": subject,
		"id":      event.ID,
	})
	return nil
}

// Close drains pending messages before disconnecting
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
