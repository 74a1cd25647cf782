package dispatch

import (
	"technician-dispatch/internal/models"
)

// Candidate is a technician that passed the eligibility filter, with its
// distance to the request.
type Candidate struct {
	Technician models.Technician
	DistanceKm float64
}

// FilterCandidates returns the eligible technicians in pool order. A
// technician is eligible when it is active, verified, in an available
// status, rated at least MinRating, has a known location and the request
// lies within its own service radius.
func FilterCandidates(req *models.MaintenanceRequest, pool []models.Technician, p Policy) ([]Candidate, error) {
	if req.Location == nil {
		return nil, ErrMissingLocation
	}

	out := make([]Candidate, 0, len(pool))
	for _, t := range pool {
		if !t.IsActive || !t.IsVerified {
			continue
		}
		if !p.isAvailable(t.Status) {
			continue
		}
		// Written as negated comparisons so NaN ratings and radii fail.
		if !(t.Rating >= p.MinRating) {
			continue
		}
		if t.Location == nil {
			continue
		}
		d := DistanceKm(*req.Location, *t.Location)
		if !(d <= t.ServiceAreaRadiusKm) {
			continue
		}
		out = append(out, Candidate{Technician: t, DistanceKm: d})
	}
	return out, nil
}
