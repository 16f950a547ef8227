package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swipr-api/internal/events"
	"swipr-api/internal/store"
	"swipr-api/internal/uploads"
	"swipr-api/pkg/models"
	"swipr-api/pkg/utils"
)

// ApplicationService manages job applications
type ApplicationService struct {
	coll store.Collection[models.JobApplication]
	opts Options
}

// NewApplicationService creates the service over an application collection
func NewApplicationService(coll store.Collection[models.JobApplication], opts Options) *ApplicationService {
	return &ApplicationService{coll: coll, opts: opts.withDefaults("applications")}
}

// Create stores a new application in the pending state. resume may be nil.
func (s *ApplicationService) Create(ctx context.Context, req models.ApplicationRequest, resume *uploads.File) (*models.JobApplication, error) {
	now := s.opts.Now()
	s.opts.Cleaner.Strings(&req.FirstName, &req.LastName, &req.Experience, &req.CoverLetter, &req.Salary)

	app := models.JobApplication{
		ID:           utils.GenerateID(ApplicationIDPrefix),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Position:     models.Position(req.Position),
		Experience:   req.Experience,
		CoverLetter:  req.CoverLetter,
		LinkedinURL:  req.LinkedinURL,
		PortfolioURL: req.PortfolioURL,
		StartDate:    req.StartDate,
		Salary:       req.Salary,
		Status:       models.ApplicationPending,
		AppliedAt:    now,
		LastUpdated:  now,
	}
	if resume != nil {
		app.ResumeFilename = resume.Name
		app.ResumeContentType = resume.ContentType
	}

	if err := s.coll.Insert(ctx, app); err != nil {
		s.opts.Logger.Error("Failed to store application", map[string]interface{}{
			"application_id": app.ID,
			"error":          err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	backend := s.coll.Backend()
	s.opts.Logger.Info("New job application received", map[string]interface{}{
		"application_id": app.ID,
		"position":       app.Position,
		"has_resume":     app.ResumeFilename != "",
		"backend":        backend,
	})
	s.opts.record(KindApplication, backend)
	s.opts.publish(ctx, events.New(events.ApplicationCreated, app.ID, app.StatusView()))

	return &app, nil
}

// GetAll returns every application, newest first. Storage failures yield an empty list.
func (s *ApplicationService) GetAll(ctx context.Context) []models.JobApplication {
	apps, err := s.coll.List(ctx)
	if err != nil {
		s.opts.Logger.Error("Failed to list applications", map[string]interface{}{"error": err.Error()})
		return []models.JobApplication{}
	}
	return apps
}

// GetByID returns ErrNotFound for unknown IDs and when the store cannot be read
func (s *ApplicationService) GetByID(ctx context.Context, id string) (*models.JobApplication, error) {
	app, err := s.coll.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.opts.Logger.Error("Failed to load application", map[string]interface{}{
				"application_id": id,
				"error":          err.Error(),
			})
		}
		return nil, ErrNotFound
	}
	return &app, nil
}

// UpdateStatus moves an application to status. Any status may follow any other.
// A nil notes leaves the existing notes untouched.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, notes *string) (*models.JobApplication, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var previous models.ApplicationStatus
	updated, err := s.coll.Update(ctx, id, func(app *models.JobApplication) error {
		previous = app.Status
		app.Status = status
		app.LastUpdated = s.opts.Now()
		// lastUpdated never precedes appliedAt, even with clock skew between replicas
		if !app.LastUpdated.After(app.AppliedAt) {
			app.LastUpdated = app.AppliedAt.Add(time.Millisecond)
		}
		if notes != nil {
			app.Notes = s.opts.Cleaner.Text(*notes)
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.opts.Logger.Error("Failed to update application status", map[string]interface{}{
			"application_id": id,
			"status":         status,
			"error":          err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.opts.Logger.Info("Application status updated", map[string]interface{}{
		"application_id": id,
		"from":           previous,
		"to":             status,
		"backend":        s.coll.Backend(),
	})
	s.opts.publish(ctx, events.New(events.ApplicationStatusChanged, id, map[string]interface{}{
		"from": previous,
		"to":   status,
	}))

	return &updated, nil
}

// GetStats counts applications by status and position. Never fails; an unreachable
// store yields zero counts.
func (s *ApplicationService) GetStats(ctx context.Context) models.ApplicationStats {
	stats := models.ApplicationStats{ByPosition: make(map[models.Position]int, len(models.Positions))}
	for _, p := range models.Positions {
		stats.ByPosition[p] = 0
	}

	for _, app := range s.GetAll(ctx) {
		stats.Total++
		stats.ByPosition[app.Position]++
		switch app.Status {
		case models.ApplicationPending:
			stats.Pending++
		case models.ApplicationReviewing:
			stats.Reviewing++
		case models.ApplicationInterviewing:
			stats.Interviewing++
		case models.ApplicationRejected:
			stats.Rejected++
		case models.ApplicationHired:
			stats.Hired++
		}
	}
	return stats
}

// Backend names the store currently serving applications
func (s *ApplicationService) Backend() string { return s.coll.Backend() }
