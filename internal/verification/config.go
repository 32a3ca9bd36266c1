package verification

import "time"

// FacePolicy decides which face match results are accepted.
type FacePolicy string

const (
	// FacePolicyVerified trusts the capability's own verified flag.
	FacePolicyVerified FacePolicy = "verified"
	// FacePolicyVerifiedAndDistance additionally requires distance <= FaceThreshold.
	FacePolicyVerifiedAndDistance FacePolicy = "verified_and_distance"
)

// Config groups the pipeline thresholds and per-call timeouts.
type Config struct {
	SimilarityThreshold float64
	FaceThreshold       float64
	FacePolicy          FacePolicy
	OCRTimeout          time.Duration
	FaceMatchTimeout    time.Duration
	DispatchTimeout     time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.85,
		FaceThreshold:       0.5,
		FacePolicy:          FacePolicyVerifiedAndDistance,
		OCRTimeout:          30 * time.Second,
		FaceMatchTimeout:    30 * time.Second,
		DispatchTimeout:     10 * time.Second,
	}
}

// acceptsFace applies the configured policy to a face match result.
func (c Config) acceptsFace(r FaceMatchResult) bool {
	if !r.Verified {
		return false
	}
	if c.FacePolicy == FacePolicyVerified {
		return true
	}
	return r.Distance <= c.FaceThreshold
}
