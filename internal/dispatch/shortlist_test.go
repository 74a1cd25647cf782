package dispatch

import (
	"testing"

	"technician-dispatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(id string, total, km float64) ScoredCandidate {
	return ScoredCandidate{
		Candidate: Candidate{Technician: models.Technician{ID: id}, DistanceKm: km},
		Score:     ScoreBreakdown{Total: total},
	}
}

func ids(list []ScoredCandidate) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Technician.ID
	}
	return out
}

func TestShortlist_OrdersAndCaps(t *testing.T) {
	in := []ScoredCandidate{
		scored("a", 50, 1),
		scored("b", 90, 1),
		scored("c", 70, 1),
		scored("d", 95, 1),
		scored("e", 10, 1),
	}

	got := Shortlist(in, DefaultPolicy())

	assert.Equal(t, []string{"d", "b", "c"}, ids(got))
	assert.Equal(t, "a", in[0].Technician.ID, "input must not be reordered")
}

func TestShortlist_FewerThanCap(t *testing.T) {
	got := Shortlist([]ScoredCandidate{scored("a", 10, 1), scored("b", 20, 1)}, DefaultPolicy())
	assert.Equal(t, []string{"b", "a"}, ids(got))

	assert.Empty(t, Shortlist(nil, DefaultPolicy()))
}

func TestShortlist_TiesKeepInputOrder(t *testing.T) {
	in := []ScoredCandidate{
		scored("a", 80, 9),
		scored("b", 80, 2),
		scored("c", 80, 5),
		scored("d", 80, 1),
	}

	for i := 0; i < 50; i++ {
		require.Equal(t, []string{"a", "b", "c"}, ids(Shortlist(in, DefaultPolicy())))
	}
}

func TestShortlist_DistanceTieBreak(t *testing.T) {
	p := DefaultPolicy()
	p.TieBreak = TieBreakDistance

	in := []ScoredCandidate{
		scored("a", 80, 9),
		scored("b", 80, 2),
		scored("c", 99, 30),
		scored("d", 80, 1),
	}

	assert.Equal(t, []string{"c", "d", "b"}, ids(Shortlist(in, p)))
}

func TestShortlist_CustomSize(t *testing.T) {
	p := DefaultPolicy()
	p.ShortlistSize = 1

	got := Shortlist([]ScoredCandidate{scored("a", 1, 1), scored("b", 2, 1)}, p)
	assert.Equal(t, []string{"b"}, ids(got))
}
