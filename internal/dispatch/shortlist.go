package dispatch

import "sort"

// Shortlist orders candidates by descending score and keeps at most
// p.ShortlistSize of them. Equal scores keep their input order unless the
// policy asks for the closer technician first. The input is not modified.
func Shortlist(scored []ScoredCandidate, p Policy) []ScoredCandidate {
	ranked := make([]ScoredCandidate, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		if p.TieBreak == TieBreakDistance {
			return a.DistanceKm < b.DistanceKm
		}
		return false
	})

	limit := p.ShortlistSize
	if limit < 0 {
		limit = 0
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
