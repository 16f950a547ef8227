package models

import "time"

// Position is an open role a candidate can apply for
type Position string

const (
	PositionBackendEngineer     Position = "backend-engineer"
	PositionAIDeveloper         Position = "ai-developer"
	PositionQuantitativeAnalyst Position = "quantitative-analyst"
	PositionMobileAppDeveloper  Position = "mobile-app-developer"
)

// Positions lists every open role
var Positions = []Position{
	PositionBackendEngineer,
	PositionAIDeveloper,
	PositionQuantitativeAnalyst,
	PositionMobileAppDeveloper,
}

// Valid reports whether p is an open role
func (p Position) Valid() bool {
	for _, known := range Positions {
		if p == known {
			return true
		}
	}
	return false
}

// ApplicationStatus is the review state of a job application
type ApplicationStatus string

const (
	ApplicationPending      ApplicationStatus = "pending"
	ApplicationReviewing    ApplicationStatus = "reviewing"
	ApplicationInterviewing ApplicationStatus = "interviewing"
	ApplicationRejected     ApplicationStatus = "rejected"
	ApplicationHired        ApplicationStatus = "hired"
)

// ApplicationStatuses lists every review state in pipeline order
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationReviewing,
	ApplicationInterviewing,
	ApplicationRejected,
	ApplicationHired,
}

// Valid reports whether s is a known review state
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// JobApplication is a candidate's submission for an open role.
// AppliedAt never changes after creation; Status, Notes and LastUpdated are the only
// fields an admin update touches.
type JobApplication struct {
	ID                string            `json:"id"`
	FirstName         string            `json:"firstName"`
	LastName          string            `json:"lastName"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	Position          Position          `json:"position"`
	Experience        string            `json:"experience,omitempty"`
	CoverLetter       string            `json:"coverLetter,omitempty"`
	LinkedinURL       string            `json:"linkedinUrl,omitempty"`
	PortfolioURL      string            `json:"portfolioUrl,omitempty"`
	StartDate         string            `json:"startDate"`
	Salary            string            `json:"salary,omitempty"`
	ResumeFilename    string            `json:"resumeFilename,omitempty"`
	ResumeContentType string            `json:"resumeContentType,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	Status            ApplicationStatus `json:"status"`
	AppliedAt         time.Time         `json:"appliedAt"`
	LastUpdated       time.Time         `json:"lastUpdated"`
}

// DocumentID implements store.Document
func (a JobApplication) DocumentID() string { return a.ID }

// SortTime implements store.Document
func (a JobApplication) SortTime() time.Time { return a.AppliedAt }

// ApplicationStatusView is the subset of an application shown to unauthenticated callers
type ApplicationStatusView struct {
	ID          string            `json:"id"`
	FirstName   string            `json:"firstName"`
	Position    Position          `json:"position"`
	Status      ApplicationStatus `json:"status"`
	AppliedAt   time.Time         `json:"appliedAt"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// StatusView strips contact details, notes and resume information
func (a JobApplication) StatusView() ApplicationStatusView {
	return ApplicationStatusView{
		ID:          a.ID,
		FirstName:   a.FirstName,
		Position:    a.Position,
		Status:      a.Status,
		AppliedAt:   a.AppliedAt,
		LastUpdated: a.LastUpdated,
	}
}

// ApplicationStats aggregates applications by status and position
type ApplicationStats struct {
	Total        int              `json:"total"`
	Pending      int              `json:"pending"`
	Reviewing    int              `json:"reviewing"`
	Interviewing int              `json:"interviewing"`
	Rejected     int              `json:"rejected"`
	Hired        int              `json:"hired"`
	ByPosition   map[Position]int `json:"byPosition"`
}
