package audit

import "time"

// EventVerdictDecided is the only event type written to the audit topic.
const EventVerdictDecided = "verification.verdict_decided"

// Event is the JSON document published for every verdict. Identifiers are
// digested and client addresses anonymized before they leave the process.
type Event struct {
	Type               string    `json:"type"`
	VerificationID     string    `json:"verification_id"`
	RequestID          string    `json:"request_id,omitempty"`
	UserType           string    `json:"user_type,omitempty"`
	Status             string    `json:"status"`
	Reason             string    `json:"reason,omitempty"`
	Rule               string    `json:"rule,omitempty"`
	GovernmentIDDigest string    `json:"government_id_digest,omitempty"`
	FaceDistance       *float64  `json:"face_distance,omitempty"`
	ClientIP           string    `json:"client_ip,omitempty"`
	Device             string    `json:"device,omitempty"`
	DecidedAt          time.Time `json:"decided_at"`
	DurationMS         int64     `json:"duration_ms"`
}
