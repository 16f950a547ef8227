package models

import "time"

// ContactSource identifies which form produced a contact message
type ContactSource string

const (
	SourceContactForm ContactSource = "contact_form"
	SourceWaitlist    ContactSource = "waitlist"
	SourceJobInquiry  ContactSource = "job_inquiry"
)

// Valid reports whether s is a known form source
func (s ContactSource) Valid() bool {
	switch s {
	case SourceContactForm, SourceWaitlist, SourceJobInquiry:
		return true
	}
	return false
}

// ContactStatus is the triage state of a contact message
type ContactStatus string

const (
	ContactNew      ContactStatus = "new"
	ContactRead     ContactStatus = "read"
	ContactReplied  ContactStatus = "replied"
	ContactArchived ContactStatus = "archived"
)

// ContactMessage is a message left through one of the public forms
type ContactMessage struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Message   string        `json:"message"`
	Source    ContactSource `json:"source"`
	Status    ContactStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	ReadAt    *time.Time    `json:"readAt,omitempty"`
}

// DocumentID implements store.Document
func (m ContactMessage) DocumentID() string { return m.ID }

// SortTime implements store.Document
func (m ContactMessage) SortTime() time.Time { return m.Timestamp }

// ContactView is the admin dashboard shape of a contact message
type ContactView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Message     string        `json:"message"`
	Source      ContactSource `json:"source"`
	SubmittedAt time.Time     `json:"submittedAt"`
	Status      ContactStatus `json:"status"`
	ReadAt      *time.Time    `json:"readAt,omitempty"`
}

// View converts the message to its dashboard shape
func (m ContactMessage) View() ContactView {
	return ContactView{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Message:     m.Message,
		Source:      m.Source,
		SubmittedAt: m.Timestamp,
		Status:      m.Status,
		ReadAt:      m.ReadAt,
	}
}

// ContactStats counts contact messages
type ContactStats struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}
