package dispatch

import (
	"time"

	"technician-dispatch/internal/common/config"
	"technician-dispatch/internal/models"
)

type TieBreak string

const (
	// TieBreakInputOrder keeps directory order among equal scores.
	TieBreakInputOrder TieBreak = "input_order"
	// TieBreakDistance prefers the closer technician among equal scores.
	TieBreakDistance TieBreak = "distance"
)

// Policy holds the tunable matching rules.
type Policy struct {
	MinRating         float64
	MaxDistanceKm     float64
	ShortlistSize     int
	AvailableStatuses []models.TechnicianStatus
	TieBreak          TieBreak
	ReserveTechnician bool

	MatchTimeout      time.Duration
	NotifyTimeout     time.Duration
	NotifyConcurrency int
}

func DefaultPolicy() Policy {
	return Policy{
		MinRating:         4.2,
		MaxDistanceKm:     50,
		ShortlistSize:     3,
		AvailableStatuses: []models.TechnicianStatus{models.TechnicianOnline, models.TechnicianAvailable},
		TieBreak:          TieBreakInputOrder,
		MatchTimeout:      10 * time.Second,
		NotifyTimeout:     5 * time.Second,
		NotifyConcurrency: 3,
	}
}

// PolicyFromConfig converts the dispatch config section. Zero values fall
// back to DefaultPolicy.
func PolicyFromConfig(c config.DispatchConfig) Policy {
	p := DefaultPolicy()
	if c.MinRating > 0 {
		p.MinRating = c.MinRating
	}
	if c.MaxDistanceKm > 0 {
		p.MaxDistanceKm = c.MaxDistanceKm
	}
	if c.ShortlistSize > 0 {
		p.ShortlistSize = c.ShortlistSize
	}
	if len(c.AvailableStatuses) > 0 {
		p.AvailableStatuses = p.AvailableStatuses[:0:0]
		for _, s := range c.AvailableStatuses {
			p.AvailableStatuses = append(p.AvailableStatuses, models.TechnicianStatus(s))
		}
	}
	if c.TieBreak != "" {
		p.TieBreak = TieBreak(c.TieBreak)
	}
	if c.MatchTimeout > 0 {
		p.MatchTimeout = config.GetDuration(c.MatchTimeout)
	}
	if c.NotifyTimeout > 0 {
		p.NotifyTimeout = config.GetDuration(c.NotifyTimeout)
	}
	if c.NotifyConcurrency > 0 {
		p.NotifyConcurrency = c.NotifyConcurrency
	}
	p.ReserveTechnician = c.ReserveTechnician
	return p
}

func (p Policy) isAvailable(status models.TechnicianStatus) bool {
	for _, s := range p.AvailableStatuses {
		if s == status {
			return true
		}
	}
	return false
}
