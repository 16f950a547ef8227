package models

import "strings"

// ApplicationRequest is the job application form, accepted as JSON or multipart form
type ApplicationRequest struct {
	FirstName    string `json:"firstName" form:"firstName" validate:"required,max=100"`
	LastName     string `json:"lastName" form:"lastName" validate:"required,max=100"`
	Email        string `json:"email" form:"email" validate:"required,email_shape"`
	Phone        string `json:"phone" form:"phone" validate:"required,max=40"`
	Position     string `json:"position" form:"position" validate:"required,position"`
	Experience   string `json:"experience" form:"experience" validate:"omitempty,max=100"`
	CoverLetter  string `json:"coverLetter" form:"coverLetter" validate:"omitempty,max=5000"`
	LinkedinURL  string `json:"linkedinUrl" form:"linkedinUrl" validate:"omitempty,url"`
	PortfolioURL string `json:"portfolioUrl" form:"portfolioUrl" validate:"omitempty,url"`
	StartDate    string `json:"startDate" form:"startDate" validate:"required,max=100"`
	Salary       string `json:"salary" form:"salary" validate:"omitempty,max=100"`
}

// ContactRequest is the contact form
type ContactRequest struct {
	Name    string `json:"name" form:"name" validate:"required,max=200"`
	Email   string `json:"email" form:"email" validate:"required,email_shape"`
	Message string `json:"message" form:"message" validate:"required,max=5000"`
	Source  string `json:"source" form:"source" validate:"omitempty,contact_source"`
}

// WaitlistRequest is the waitlist signup form
type WaitlistRequest struct {
	Email     string   `json:"email" form:"email" validate:"required,email_shape"`
	Name      string   `json:"name" form:"name" validate:"omitempty,max=200"`
	Interests []string `json:"interests" form:"interests" validate:"omitempty,max=20,dive,required,max=50"`
}

// StatusUpdateRequest moves an application through the review pipeline. A nil Notes
// keeps the stored notes; an empty string clears them.
type StatusUpdateRequest struct {
	Status string  `json:"status" validate:"required,application_status"`
	Notes  *string `json:"notes" validate:"omitempty,max=5000"`
}

// DashboardUpdateRequest is the body of PUT /admin/dashboard
type DashboardUpdateRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes" validate:"omitempty,max=5000"`
}

// AnalyticsEvent is a page-level event sent by the marketing site
type AnalyticsEvent struct {
	EventType  string                 `json:"eventType" validate:"required,max=100"`
	Page       string                 `json:"page" validate:"required,max=500"`
	SessionID  string                 `json:"sessionId" validate:"required,max=100"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// Normalize trims surrounding whitespace so blank values fail "required"
func (r *ApplicationRequest) Normalize() {
	for _, f := range []*string{
		&r.FirstName, &r.LastName, &r.Email, &r.Phone, &r.Position, &r.Experience,
		&r.CoverLetter, &r.LinkedinURL, &r.PortfolioURL, &r.StartDate, &r.Salary,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Normalize trims surrounding whitespace
func (r *ContactRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)
	r.Source = strings.TrimSpace(r.Source)
}

// Normalize trims whitespace, lowercases the email and drops blank interests
func (r *WaitlistRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)

	interests := r.Interests[:0]
	for _, tag := range r.Interests {
		if tag = strings.TrimSpace(tag); tag != "" {
			interests = append(interests, tag)
		}
	}
	r.Interests = interests
}
