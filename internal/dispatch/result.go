package dispatch

import (
	"time"
)

type Outcome string

const (
	OutcomeAssigned     Outcome = "assigned"
	OutcomeNoCandidates Outcome = "no_candidates"
)

const (
	ReasonNoTechniciansAvailable = "no_technicians_available"
	ReasonNoTechniciansInRange   = "no_technicians_in_range"
)

const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

type CandidateSummary struct {
	TechnicianID string         `json:"id"`
	Name         string         `json:"name"`
	Rating       float64        `json:"rating"`
	DistanceKm   float64        `json:"distance"`
	Score        float64        `json:"score"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
}

type NotificationStatus struct {
	TechnicianID string          `json:"technicianId"`
	Status       string          `json:"status"`
	Channels     []ChannelResult `json:"channels,omitempty"`
	Error        string          `json:"error,omitempty"`
}

type MatchResult struct {
	RunID         string               `json:"runId"`
	RequestID     string               `json:"requestId"`
	Outcome       Outcome              `json:"outcome"`
	Reason        string               `json:"reason,omitempty"`
	Assigned      *CandidateSummary    `json:"assignedTechnician,omitempty"`
	Alternatives  []CandidateSummary   `json:"alternatives"`
	Notifications []NotificationStatus `json:"notifications,omitempty"`
	PoolSize      int                  `json:"poolSize"`
	EligibleCount int                  `json:"eligibleCount"`
	StartedAt     time.Time            `json:"startedAt"`
	Duration      time.Duration        `json:"duration"`
}

// Summarize flattens a scored candidate for results and reports.
func Summarize(s ScoredCandidate) CandidateSummary {
	return CandidateSummary{
		TechnicianID: s.Technician.ID,
		Name:         s.Technician.Name,
		Rating:       s.Technician.Rating,
		DistanceKm:   s.DistanceKm,
		Score:        s.Score.Total,
		Breakdown:    s.Score,
	}
}
