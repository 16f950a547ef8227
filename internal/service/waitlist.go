package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"swipr-api/internal/events"
	"swipr-api/internal/store"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

// EmailIndex is the unique index over waitlist emails
const EmailIndex = "email"

// WaitlistService manages launch waitlist signups
type WaitlistService struct {
	coll store.Collection[models.WaitlistEntry]
	opts Options
}

// NewWaitlistService creates the service over a waitlist collection
func NewWaitlistService(coll store.Collection[models.WaitlistEntry], opts Options) *WaitlistService {
	return &WaitlistService{coll: coll, opts: opts.withDefaults("waitlist")}
}

// Create adds an email to the waitlist. A second signup with the same address, in any
// letter case, returns ErrAlreadyExists and stores nothing.
func (s *WaitlistService) Create(ctx context.Context, req models.WaitlistRequest) (*models.WaitlistEntry, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var interests []string
	for _, tag := range req.Interests {
		if tag = s.opts.Cleaner.Text(tag); tag != "" {
			interests = append(interests, tag)
		}
	}

	entry := models.WaitlistEntry{
		ID:        utils.GenerateID(WaitlistIDPrefix),
		Email:     email,
		Name:      s.opts.Cleaner.Text(req.Name),
		Interests: interests,
		JoinedAt:  s.opts.Now(),
	}

	err := s.coll.InsertUnique(ctx, entry, EmailIndex, email)
	if errors.Is(err, store.ErrDuplicate) {
		s.opts.Logger.Info("Email already on waitlist", map[string]interface{}{
			"backend": s.coll.Backend(),
		})
		return nil, ErrAlreadyExists
	}
	if err != nil {
		s.opts.Logger.Error("Failed to store waitlist entry", map[string]interface{}{
			"waitlist_id": entry.ID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	backend := s.coll.Backend()
	s.opts.Logger.Info("New waitlist signup", map[string]interface{}{
		"waitlist_id": entry.ID,
		"interests":   len(entry.Interests),
		"backend":     backend,
	})
	s.opts.record(KindWaitlist, backend)
	s.opts.publish(ctx, events.New(events.WaitlistJoined, entry.ID, map[string]interface{}{
		"interests": entry.Interests,
	}))

	return &entry, nil
}

// GetAll returns every signup, newest first. Storage failures yield an empty list.
func (s *WaitlistService) GetAll(ctx context.Context) []models.WaitlistEntry {
	entries, err := s.coll.List(ctx)
	if err != nil {
		s.opts.Logger.Error("Failed to list waitlist", map[string]interface{}{"error": err.Error()})
		return []models.WaitlistEntry{}
	}
	return entries
}

// GetByID returns ErrNotFound for unknown IDs and when the store cannot be read
func (s *WaitlistService) GetByID(ctx context.Context, id string) (*models.WaitlistEntry, error) {
	entry, err := s.coll.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.opts.Logger.Error("Failed to load waitlist entry", map[string]interface{}{
				"waitlist_id": id,
				"error":       err.Error(),
			})
		}
		return nil, ErrNotFound
	}
	return &entry, nil
}

// Count returns the number of signups, zero when the store cannot be read
func (s *WaitlistService) Count(ctx context.Context) int {
	n, err := s.coll.Count(ctx)
	if err != nil {
		s.opts.Logger.Error("Failed to count waitlist", map[string]interface{}{"error": err.Error()})
		return 0
	}
	return n
}

// GetStats never fails
func (s *WaitlistService) GetStats(ctx context.Context) models.WaitlistStats {
	return models.WaitlistStats{Count: s.Count(ctx)}
}
