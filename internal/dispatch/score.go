package dispatch

import (
	"math"

	"technician-dispatch/internal/models"
)

// Score weights. A candidate at the request location with a perfect rating,
// the top tier, a matching specialization and enough reviews scores 100.
const (
	// DistanceWeight is earned in full at zero distance and falls linearly
	// to nothing at Policy.MaxDistanceKm.
	DistanceWeight      = 40.0
	RatingWeight        = 30.0
	SpecializationBonus = 10.0
	ExperienceCap       = 5.0
	// ReviewsForFullExperience is the review count that earns ExperienceCap.
	ReviewsForFullExperience = 20.0
	MaxRating                = 5.0
)

// TierPoints maps a technician level to its score contribution. Unknown
// levels score zero.
var TierPoints = map[models.Tier]float64{
	models.TierTopRated:  15,
	models.TierPlatinum:  12,
	models.TierGold:      9,
	models.TierSilver:    6,
	models.TierBronze:    3,
	models.TierCertified: 0,
}

// ScoreBreakdown holds each sub-score and their sum. Total is always
// within [0, 100] for validated technicians.
type ScoreBreakdown struct {
	Distance       float64 `json:"distance"`
	Rating         float64 `json:"rating"`
	Tier           float64 `json:"tier"`
	Specialization float64 `json:"specialization"`
	Experience     float64 `json:"experience"`
	Total          float64 `json:"total"`
}

// ScoredCandidate pairs an eligible candidate with its score.
type ScoredCandidate struct {
	Candidate
	Score ScoreBreakdown
}

// Score rates a candidate for req on a 0-100 scale.
func Score(req *models.MaintenanceRequest, c Candidate, p Policy) ScoreBreakdown {
	var b ScoreBreakdown

	if p.MaxDistanceKm > 0 {
		b.Distance = math.Max(0, (1-c.DistanceKm/p.MaxDistanceKm)*DistanceWeight)
	}
	// A candidate is never farther than zero, but keep the bound explicit.
	b.Distance = math.Min(DistanceWeight, b.Distance)

	rating := math.Min(MaxRating, math.Max(0, c.Technician.Rating))
	b.Rating = rating / MaxRating * RatingWeight

	b.Tier = TierPoints[c.Technician.Level]

	if c.Technician.Specialization != "" && c.Technician.Specialization == req.ServiceType {
		b.Specialization = SpecializationBonus
	}

	reviews := math.Max(0, float64(c.Technician.TotalReviews))
	b.Experience = math.Min(ExperienceCap, reviews/ReviewsForFullExperience*ExperienceCap)

	b.Total = b.Distance + b.Rating + b.Tier + b.Specialization + b.Experience
	return b
}

// ScoreAll scores every candidate, preserving order.
func ScoreAll(req *models.MaintenanceRequest, cands []Candidate, p Policy) []ScoredCandidate {
	out := make([]ScoredCandidate, len(cands))
	for i, c := range cands {
		out[i] = ScoredCandidate{Candidate: c, Score: Score(req, c, p)}
	}
	return out
}
