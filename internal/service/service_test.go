package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipr-api/internal/events"
	"swipr-api/internal/store"
	"swipr-api/internal/uploads"
	"swipr-api/pkg/models"
)

// stepClock advances one second on every reading
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordSubmission(kind, backend string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[kind+"/"+backend]++
}

// brokenCollection fails every call the way an unreachable database with no fallback would
type brokenCollection[T store.Document] struct{}

var errDown = fmt.Errorf("connection refused: %w", store.ErrUnavailable)

func (brokenCollection[T]) Name() string                       { return "broken" }
func (brokenCollection[T]) Backend() string                    { return store.BackendRedis }
func (brokenCollection[T]) Insert(context.Context, T) error    { return errDown }
func (brokenCollection[T]) Count(context.Context) (int, error) { return 0, errDown }
func (brokenCollection[T]) List(context.Context) ([]T, error)  { return nil, errDown }

func (brokenCollection[T]) InsertUnique(context.Context, T, string, string) error {
	return errDown
}
func (brokenCollection[T]) FindByID(context.Context, string) (T, error) {
	var zero T
	return zero, errDown
}
func (brokenCollection[T]) FindByKey(context.Context, string, string) (T, error) {
	var zero T
	return zero, errDown
}
func (brokenCollection[T]) Update(context.Context, string, func(*T) error) (T, error) {
	var zero T
	return zero, errDown
}

func applicationRequest(email string) models.ApplicationRequest {
	return models.ApplicationRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     email,
		Phone:     "+1 555 0199",
		Position:  string(models.PositionBackendEngineer),
		StartDate: "2025-07-01",
	}
}

func newApplications(t *testing.T) (*ApplicationService, *stepClock, *capturePublisher, *countingRecorder) {
	t.Helper()
	clock := newStepClock()
	pub := &capturePublisher{}
	rec := &countingRecorder{}
	svc := NewApplicationService(store.NewMemoryCollection[models.JobApplication](store.Applications), Options{
		Publisher: pub,
		Recorder:  rec,
		Now:       clock.Now,
	})
	return svc, clock, pub, rec
}

func TestApplicationCreateDefaultsToPending(t *testing.T) {
	svc, _, pub, rec := newApplications(t)
	ctx := context.Background()

	resume := &uploads.File{Name: "1700000000000-abc-cv.pdf", ContentType: "application/pdf"}
	app, err := svc.Create(ctx, applicationRequest("grace@example.com"), resume)
	require.NoError(t, err)

	assert.Regexp(t, `^APP-\d+-[0-9a-f]{9}$`, app.ID)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.False(t, app.AppliedAt.IsZero())
	assert.Equal(t, app.AppliedAt, app.LastUpdated)
	assert.Equal(t, "1700000000000-abc-cv.pdf", app.ResumeFilename)

	stored, err := svc.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, stored.ID)

	assert.Equal(t, []string{events.ApplicationCreated}, pub.types())
	assert.Equal(t, 1, rec.counts["application/memory"])
}

func TestApplicationCreateStripsMarkup(t *testing.T) {
	svc, _, _, _ := newApplications(t)

	req := applicationRequest("grace@example.com")
	req.FirstName = "<b>Grace</b>"
	req.LastName = "Hopper<script>alert(1)</script>"
	req.Experience = "<i>5 years</i>"
	req.Salary = "<span>120k</span>"
	req.CoverLetter = "<p>Hello</p>"

	app, err := svc.Create(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "Grace", app.FirstName)
	assert.Equal(t, "Hopper", app.LastName)
	assert.Equal(t, "5 years", app.Experience)
	assert.Equal(t, "120k", app.Salary)
	assert.Equal(t, "Hello", app.CoverLetter)
	assert.Equal(t, "grace@example.com", app.Email)
}

func TestApplicationUpdateSameStatusRefreshesLastUpdated(t *testing.T) {
	svc, _, _, _ := newApplications(t)
	ctx := context.Background()

	app, err := svc.Create(ctx, applicationRequest("grace@example.com"), nil)
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, app.ID, models.ApplicationPending, nil)
	require.NoError(t, err)

	assert.Equal(t, app.ID, updated.ID)
	assert.Equal(t, app.AppliedAt, updated.AppliedAt)
	assert.Equal(t, models.ApplicationPending, updated.Status)
	assert.True(t, updated.LastUpdated.After(app.LastUpdated))
}

func TestApplicationPendingToHired(t *testing.T) {
	svc, _, pub, _ := newApplications(t)
	ctx := context.Background()

	app, err := svc.Create(ctx, applicationRequest("grace@example.com"), nil)
	require.NoError(t, err)

	notes := "Great <b>interview</b>"
	_, err = svc.UpdateStatus(ctx, app.ID, models.ApplicationHired, &notes)
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationHired, got.Status)
	assert.Equal(t, "Great interview", got.Notes)
	assert.True(t, got.LastUpdated.After(got.AppliedAt))
	assert.Equal(t, []string{events.ApplicationCreated, events.ApplicationStatusChanged}, pub.types())

	// status changes may go anywhere, including back out of a terminal state
	_, err = svc.UpdateStatus(ctx, app.ID, models.ApplicationReviewing, nil)
	require.NoError(t, err)
	got, _ = svc.GetByID(ctx, app.ID)
	assert.Equal(t, "Great interview", got.Notes, "nil notes keep the existing notes")
}

func TestApplicationUpdateErrors(t *testing.T) {
	svc, _, _, _ := newApplications(t)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "APP-missing", models.ApplicationHired, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	app, _ := svc.Create(ctx, applicationRequest("grace@example.com"), nil)
	_, err = svc.UpdateStatus(ctx, app.ID, "fired", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, _ := svc.GetByID(ctx, app.ID)
	assert.Equal(t, models.ApplicationPending, got.Status)
}

func TestApplicationGetAllNewestFirst(t *testing.T) {
	svc, _, _, _ := newApplications(t)
	ctx := context.Background()

	var created []string
	for i := 0; i < 5; i++ {
		app, err := svc.Create(ctx, applicationRequest(fmt.Sprintf("c%d@example.com", i)), nil)
		require.NoError(t, err)
		created = append(created, app.ID)
	}

	all := svc.GetAll(ctx)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].AppliedAt.After(all[i].AppliedAt), "strictly newest first")
	}
	assert.Equal(t, created[4], all[0].ID)
	assert.Equal(t, created[0], all[4].ID)
}

func TestApplicationStats(t *testing.T) {
	svc, _, _, _ := newApplications(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, applicationRequest("a@example.com"), nil)
	b, _ := svc.Create(ctx, applicationRequest("b@example.com"), nil)
	req := applicationRequest("c@example.com")
	req.Position = string(models.PositionAIDeveloper)
	_, _ = svc.Create(ctx, req, nil)

	_, _ = svc.UpdateStatus(ctx, a.ID, models.ApplicationHired, nil)
	_, _ = svc.UpdateStatus(ctx, b.ID, models.ApplicationInterviewing, nil)

	stats := svc.GetStats(ctx)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Interviewing)
	assert.Equal(t, 1, stats.Hired)
	assert.Equal(t, 2, stats.ByPosition[models.PositionBackendEngineer])
	assert.Equal(t, 1, stats.ByPosition[models.PositionAIDeveloper])
	assert.Equal(t, 0, stats.ByPosition[models.PositionMobileAppDeveloper])
}

func TestServicesDegradeWhenStoreIsDown(t *testing.T) {
	ctx := context.Background()
	apps := NewApplicationService(brokenCollection[models.JobApplication]{}, Options{})
	contacts := NewContactService(brokenCollection[models.ContactMessage]{}, Options{})
	waitlist := NewWaitlistService(brokenCollection[models.WaitlistEntry]{}, Options{})

	stats := apps.GetStats(ctx)
	assert.Equal(t, 0, stats.Total)
	assert.Len(t, stats.ByPosition, len(models.Positions))
	assert.Empty(t, apps.GetAll(ctx))
	assert.NotNil(t, apps.GetAll(ctx))

	_, err := apps.GetByID(ctx, "APP-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = apps.Create(ctx, applicationRequest("a@example.com"), nil)
	assert.ErrorIs(t, err, ErrStorage)

	_, err = apps.UpdateStatus(ctx, "APP-1", models.ApplicationHired, nil)
	assert.ErrorIs(t, err, ErrStorage)

	assert.Equal(t, models.ContactStats{}, contacts.GetStats(ctx))
	assert.Equal(t, models.WaitlistStats{}, waitlist.GetStats(ctx))

	_, err = waitlist.Create(ctx, models.WaitlistRequest{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrStorage)
}

func TestWaitlistRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	svc := NewWaitlistService(store.NewMemoryCollection[models.WaitlistEntry](store.Waitlist), Options{Publisher: pub})

	entry, err := svc.Create(ctx, models.WaitlistRequest{Email: "A@B.com", Name: "Ann", Interests: []string{"crypto", " "}})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", entry.Email)
	assert.Equal(t, []string{"crypto"}, entry.Interests)
	assert.Regexp(t, `^WAITLIST-\d+-`, entry.ID)

	_, err = svc.Create(ctx, models.WaitlistRequest{Email: " a@b.COM "})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	assert.Equal(t, 1, svc.Count(ctx))
	assert.Len(t, svc.GetAll(ctx), 1)
	assert.Equal(t, []string{events.WaitlistJoined}, pub.types())
}

func TestWaitlistConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := NewWaitlistService(store.NewMemoryCollection[models.WaitlistEntry](store.Waitlist), Options{})

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, models.WaitlistRequest{Email: "same@example.com"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok, dup := 0, 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyExists):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 19, dup)
	assert.Equal(t, 1, svc.Count(ctx))
}

func TestContactLifecycle(t *testing.T) {
	ctx := context.Background()
	clock := newStepClock()
	svc := NewContactService(store.NewMemoryCollection[models.ContactMessage](store.Contacts), Options{Now: clock.Now})

	first, err := svc.Create(ctx, models.ContactRequest{Name: "Sam", Email: "sam@example.com", Message: "<p>Hello</p>"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceContactForm, first.Source)
	assert.Equal(t, models.ContactNew, first.Status)
	assert.Equal(t, "Hello", first.Message)
	assert.Nil(t, first.ReadAt)

	second, err := svc.Create(ctx, models.ContactRequest{Name: "Lee", Email: "lee@example.com", Message: "Hi", Source: "job_inquiry"})
	require.NoError(t, err)

	all := svc.GetAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	read, err := svc.MarkAsRead(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContactRead, read.Status)
	require.NotNil(t, read.ReadAt)
	assert.True(t, read.ReadAt.After(read.Timestamp))

	assert.Equal(t, models.ContactStats{Total: 2, Unread: 1}, svc.GetStats(ctx))

	_, err = svc.MarkAsRead(ctx, "CONTACT-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
