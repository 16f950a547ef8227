// Package service owns the application, contact and waitlist workflows. Services write
// through a store.Collection and convert storage failures into benign results on reads.
package service

import (
	"context"
	"errors"
	"time"

	"swipr-api/internal/events"
	"swipr-api/internal/logging"
	"swipr-api/internal/sanitize"
)

// Sentinel errors to allow precise mapping in handlers
var (
	ErrNotFound      = errors.New("not_found")
	ErrAlreadyExists = errors.New("already_exists")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrStorage       = errors.New("storage_failure")
)

// ID prefixes of generated record IDs
const (
	ApplicationIDPrefix = "APP"
	ContactIDPrefix     = "CONTACT"
	WaitlistIDPrefix    = "WAITLIST"
)

// Submission kinds reported to the recorder
const (
	KindApplication = "application"
	KindContact     = "contact"
	KindWaitlist    = "waitlist"
)

// SubmissionRecorder counts accepted submissions
type SubmissionRecorder interface {
	RecordSubmission(kind, backend string)
}

// Options carries the collaborators shared by every service
type Options struct {
	Publisher events.Publisher
	Recorder  SubmissionRecorder
	Cleaner   *sanitize.Cleaner
	Logger    logging.Logger
	Now       func() time.Time

	// PublishTimeout bounds event delivery so a slow broker never delays a response
	PublishTimeout time.Duration
}

func (o Options) withDefaults(component string) Options {
	if o.Publisher == nil {
		o.Publisher = events.NoopPublisher{}
	}
	if o.Cleaner == nil {
		o.Cleaner = sanitize.NewCleaner()
	}
	if o.Logger == nil {
		o.Logger = logging.GetGlobalLogger()
	}
	o.Logger = o.Logger.WithField("service", component)
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 2 * time.Second
	}
	return o
}

func (o Options) record(kind, backend string) {
	if o.Recorder != nil {
		o.Recorder.RecordSubmission(kind, backend)
	}
}

func (o Options) publish(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.PublishTimeout)
	defer cancel()

	if err := o.Publisher.Publish(ctx, event); err != nil {
		o.Logger.Warn("Failed to publish event", map[string]interface{}{
			"event": event.Type,
			"id":    event.ID,
			"error": err.Error(),
		})
	}
}
