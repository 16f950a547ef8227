package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"

	"swipr-api/internal/config"
	"swipr-api/internal/service"
	"swipr-api/internal/uploads"
)

// StorageStatus reports which document store is serving requests
type StorageStatus interface {
	Backend(ctx context.Context) string
	Available(ctx context.Context) bool
}

// AnalyticsRecorder counts tracked page events
type AnalyticsRecorder interface {
	RecordAnalyticsEvent(eventType string)
}

// Deps bundles what the handlers need
type Deps struct {
	Config       *config.Config
	Applications *service.ApplicationService
	Contacts     *service.ContactService
	Waitlist     *service.WaitlistService
	Uploads      *uploads.Service
	Validator    *validator.Validate
	Storage      StorageStatus
	Analytics    AnalyticsRecorder
}
