package alignment

import (
	"fmt"
	"math"
	"testing"
)

func candidate(id string, alt, az, obs, mag float64) Candidate {
	return Candidate{ID: id, Name: id, AltitudeDeg: alt, AzimuthDeg: az, ObservabilityScore: obs, Magnitude: mag}
}

func TestRankTooFewCandidates(t *testing.T) {
	r := NewRanker()
	inputs := [][]Candidate{
		nil,
		{candidate("a", 40, 0, 1, 0)},
		{candidate("a", 40, 0, 1, 0), candidate("b", 40, 120, 1, 0)},
		{candidate("a", 40, 0, 1, 0), candidate("a", 40, 120, 1, 0), candidate("b", 40, 240, 1, 0)},
	}

	for i, in := range inputs {
		got := r.Rank(in, nil, 5)
		if got == nil || len(got) != 0 {
			t.Errorf("[%d] Rank() = %v, want empty non-nil slice", i, got)
		}
	}
}

func TestRankOnlyCollinear(t *testing.T) {
	cands := []Candidate{
		candidate("a", 20, 0, 1, 0),
		candidate("b", 40, 0, 1, 0),
		candidate("c", 60, 0, 1, 0),
	}
	if got := NewRanker().Rank(cands, nil, 5); len(got) != 0 {
		t.Errorf("Rank() = %v, want no groups", got)
	}
}

func TestRankOrdering(t *testing.T) {
	cands := []Candidate{
		candidate("north", 40, 0, 0.9, 1),
		candidate("east", 40, 120, 0.9, 1),
		candidate("west", 40, 240, 0.9, 1),
		candidate("north2", 42, 10, 0.95, 0.5),
		candidate("zenith", 85, 30, 0.5, 2),
	}

	groups := NewRanker().Rank(cands, nil, 0)
	if len(groups) == 0 || len(groups) > DefaultMaxGroups {
		t.Fatalf("Rank() returned %d groups", len(groups))
	}

	for i, g := range groups {
		if g.IsCollinear {
			t.Errorf("[%d] collinear group accepted", i)
		}
		ids := map[string]bool{}
		for _, c := range g.Candidates {
			ids[c.ID] = true
		}
		if len(ids) != 3 {
			t.Errorf("[%d] group repeats a candidate: %v", i, ids)
		}
		if want := g.AvgObservability * g.SeparationScore * g.ConditionsScore; math.Abs(g.Score-want) > 1e-12 {
			t.Errorf("[%d] score = %f, want %f", i, g.Score, want)
		}
		if i > 0 && groups[i-1].Score < g.Score {
			t.Errorf("groups not sorted by score at %d", i)
		}
	}

	// north and north2 are about 8° apart; no winner may use both
	best := groups[0]
	if best.MinSeparationDeg < 60 {
		t.Errorf("best group min separation = %f", best.MinSeparationDeg)
	}
	ids := map[string]bool{}
	for _, c := range best.Candidates {
		ids[c.ID] = true
	}
	if ids["north"] && ids["north2"] {
		t.Errorf("best group uses the clustered pair: %v", ids)
	}
}

func TestRankTiesPreferWiderSeparation(t *testing.T) {
	// every pair is more than 90° apart, so all triples score exactly 1
	cands := []Candidate{
		candidate("z", 90, 0, 1, 1),
		candidate("a", -30, 0, 1, 1),
		candidate("b", -30, 120, 1, 1),
		candidate("c", -5, 240, 1, 1),
	}

	groups := NewRanker().Rank(cands, nil, 10)
	if len(groups) != 4 {
		t.Fatalf("Rank() returned %d groups, want 4", len(groups))
	}
	for i, g := range groups {
		if g.Score != 1 {
			t.Fatalf("[%d] score = %f, want 1", i, g.Score)
		}
	}
	for i, want := range []float64{97.18, 97.18, 95, 95} {
		if math.Abs(groups[i].MinSeparationDeg-want) > 0.01 {
			t.Errorf("[%d] min separation = %f, want %f", i, groups[i].MinSeparationDeg, want)
		}
	}
}

func TestRankMaxGroupsAndCandidates(t *testing.T) {
	var cands []Candidate
	for i := range 12 {
		cands = append(cands, candidate(fmt.Sprintf("s%02d", i), 25+float64(i%4)*15, float64(i)*30, 1-float64(i)*0.01, float64(i)*0.1))
	}

	if got := NewRanker().Rank(cands, nil, 3); len(got) != 3 {
		t.Errorf("Rank(maxGroups=3) returned %d groups", len(got))
	}

	// only the four most observable candidates may appear
	groups := NewRanker(WithMaxCandidates(4)).Rank(cands, nil, 100)
	if len(groups) == 0 || len(groups) > 4 {
		t.Fatalf("Rank() with 4 candidates returned %d groups", len(groups))
	}
	allowed := map[string]bool{"s00": true, "s01": true, "s02": true, "s03": true}
	for _, g := range groups {
		for _, c := range g.Candidates {
			if !allowed[c.ID] {
				t.Errorf("candidate %s is outside the top four", c.ID)
			}
		}
	}
}

func TestRankConditionsLowerScores(t *testing.T) {
	cands := []Candidate{
		candidate("a", 40, 0, 1, 1),
		candidate("b", 40, 120, 1, 1),
		candidate("c", 40, 240, 1, 1),
	}
	clear := NewRanker().Rank(cands, nil, 1)
	cloudy := NewRanker().Rank(cands, &Conditions{CloudCover: ptr(60)}, 1)

	if len(clear) != 1 || len(cloudy) != 1 {
		t.Fatal("expected one group each")
	}
	if math.Abs(cloudy[0].Score-clear[0].Score/2) > 1e-9 {
		t.Errorf("cloudy score = %f, clear = %f", cloudy[0].Score, clear[0].Score)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	cands := []Candidate{
		candidate("c", 40, 240, 0.1, 1),
		candidate("a", 40, 0, 0.9, 1),
		candidate("b", 40, 120, 0.5, 1),
	}
	NewRanker().Rank(cands, nil, 5)

	if cands[0].ID != "c" || cands[1].ID != "a" || cands[2].ID != "b" {
		t.Errorf("input reordered: %v", cands)
	}
}
