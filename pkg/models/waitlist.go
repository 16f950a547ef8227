package models

import "time"

// WaitlistEntry is a launch waitlist signup. Email is stored lowercased and is unique.
type WaitlistEntry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Interests []string  `json:"interests,omitempty"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// DocumentID implements store.Document
func (w WaitlistEntry) DocumentID() string { return w.ID }

// SortTime implements store.Document
func (w WaitlistEntry) SortTime() time.Time { return w.JoinedAt }

// WaitlistStats counts waitlist signups
type WaitlistStats struct {
	Count int `json:"count"`
}

// DashboardStats is the combined admin overview
type DashboardStats struct {
	Applications ApplicationStats `json:"applications"`
	Waitlist     WaitlistStats    `json:"waitlist"`
	Contacts     ContactStats     `json:"contacts"`
}
