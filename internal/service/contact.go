package service

import (
	"context"
	"errors"
	"fmt"

	"swipr-api/internal/events"
	"swipr-api/internal/store"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

// ContactService manages contact form messages
type ContactService struct {
	coll store.Collection[models.ContactMessage]
	opts Options
}

// NewContactService creates the service over a contact collection
func NewContactService(coll store.Collection[models.ContactMessage], opts Options) *ContactService {
	return &ContactService{coll: coll, opts: opts.withDefaults("contacts")}
}

// Create stores a new unread message. An empty source means the contact form.
func (s *ContactService) Create(ctx context.Context, req models.ContactRequest) (*models.ContactMessage, error) {
	source := models.ContactSource(req.Source)
	if source == "" {
		source = models.SourceContactForm
	}

	msg := models.ContactMessage{
		ID:        utils.GenerateID(ContactIDPrefix),
		Name:      s.opts.Cleaner.Text(req.Name),
		Email:     req.Email,
		Message:   s.opts.Cleaner.Text(req.Message),
		Source:    source,
		Status:    models.ContactNew,
		Timestamp: s.opts.Now(),
	}

	if err := s.coll.Insert(ctx, msg); err != nil {
		s.opts.Logger.Error("Failed to store contact message", map[string]interface{}{
			"contact_id": msg.ID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	backend := s.coll.Backend()
	s.opts.Logger.Info("New contact message received", map[string]interface{}{
		"contact_id": msg.ID,
		"source":     msg.Source,
		"backend":    backend,
	})
	s.opts.record(KindContact, backend)
	s.opts.publish(ctx, events.New(events.ContactCreated, msg.ID, map[string]interface{}{
		"source": msg.Source,
	}))

	return &msg, nil
}

// GetAll returns every message, newest first. Storage failures yield an empty list.
func (s *ContactService) GetAll(ctx context.Context) []models.ContactMessage {
	msgs, err := s.coll.List(ctx)
	if err != nil {
		s.opts.Logger.Error("Failed to list contact messages", map[string]interface{}{"error": err.Error()})
		return []models.ContactMessage{}
	}
	return msgs
}

// GetByID returns ErrNotFound for unknown IDs and when the store cannot be read
func (s *ContactService) GetByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	msg, err := s.coll.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.opts.Logger.Error("Failed to load contact message", map[string]interface{}{
				"contact_id": id,
				"error":      err.Error(),
			})
		}
		return nil, ErrNotFound
	}
	return &msg, nil
}

// MarkAsRead sets the status to read and stamps ReadAt
func (s *ContactService) MarkAsRead(ctx context.Context, id string) (*models.ContactMessage, error) {
	updated, err := s.coll.Update(ctx, id, func(msg *models.ContactMessage) error {
		now := s.opts.Now()
		msg.Status = models.ContactRead
		msg.ReadAt = &now
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.opts.Logger.Error("Failed to mark contact message as read", map[string]interface{}{
			"contact_id": id,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.opts.Logger.Info("Contact message marked as read", map[string]interface{}{
		"contact_id": id,
		"backend":    s.coll.Backend(),
	})
	return &updated, nil
}

// GetStats counts messages and those still new. Never fails.
func (s *ContactService) GetStats(ctx context.Context) models.ContactStats {
	var stats models.ContactStats
	for _, msg := range s.GetAll(ctx) {
		stats.Total++
		if msg.Status == models.ContactNew {
			stats.Unread++
		}
	}
	return stats
}
