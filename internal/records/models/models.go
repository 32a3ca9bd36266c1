package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a persisted verification.
type Status string

const (
	StatusPending        Status = "pending"
	StatusVerified       Status = "verified"
	StatusRejected       Status = "rejected"
	StatusDeliveryFailed Status = "delivery_failed"
	StatusFailed         Status = "failed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusDeliveryFailed, StatusFailed:
		return true
	}
	return false
}

// Record is the persisted trace of one verification: what the applicant declared,
// where the uploads were stored, what OCR extracted, and how it ended.
type Record struct {
	ID           uuid.UUID          `json:"id"`
	Category     string             `json:"category"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Contact      string             `json:"contact"`
	CollegeName  string             `json:"college_name,omitempty"`
	CollegeID    string             `json:"college_id,omitempty"`
	GovernmentID string             `json:"government_id"`
	Files        map[string]string  `json:"files"`
	Status       Status             `json:"status"`
	Reason       string             `json:"reason,omitempty"`
	Rule         string             `json:"rule,omitempty"`
	Message      string             `json:"message,omitempty"`
	Extracted    map[string]*string `json:"extracted,omitempty"`
	FaceDistance *float64           `json:"face_distance,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Outcome is the single terminal update applied to a pending Record.
type Outcome struct {
	Status       Status
	Reason       string
	Rule         string
	Message      string
	Extracted    map[string]*string
	FaceDistance *float64
	DecidedAt    time.Time
}

// Apply copies the outcome onto the record.
func (r *Record) Apply(o Outcome) {
	r.Status = o.Status
	r.Reason = o.Reason
	r.Rule = o.Rule
	r.Message = o.Message
	r.Extracted = o.Extracted
	r.FaceDistance = o.FaceDistance
	r.UpdatedAt = o.DecidedAt
}

// DefaultListLimit and MaxListLimit bound admin listing queries.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ListFilter narrows admin listings. Empty fields match everything.
type ListFilter struct {
	Statuses []Status
	Category string
	Limit    int
}

// EffectiveLimit clamps Limit into (0, MaxListLimit].
func (f ListFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return f.Limit
	}
}
