package alignment

import (
	"sort"
)

const (
	DefaultMaxCandidates = 20
	DefaultMaxGroups     = 5
)

// WithMaxCandidates caps the number of candidates combined into triples
func WithMaxCandidates(n int) func(r *Ranker) {
	return func(r *Ranker) {
		if n >= 3 {
			r.maxCandidates = n
		}
	}
}

// WithCollinearThreshold sets the minimum off-circle deviation in degrees
func WithCollinearThreshold(deg float64) func(r *Ranker) {
	return func(r *Ranker) {
		if deg >= 0 {
			r.collinearThreshold = deg
		}
	}
}

// Ranker scores every non-collinear triple of candidates. It holds no
// mutable state.
type Ranker struct {
	maxCandidates      int
	collinearThreshold float64
}

func NewRanker(options ...func(r *Ranker)) *Ranker {
	r := Ranker{
		maxCandidates:      DefaultMaxCandidates,
		collinearThreshold: DefaultCollinearThreshold,
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// Rank returns up to maxGroups triples, best first. maxGroups <= 0 selects
// DefaultMaxGroups. Fewer than three candidates give an empty result.
func (r *Ranker) Rank(cands []Candidate, cond *Conditions, maxGroups int) []Group {
	if maxGroups <= 0 {
		maxGroups = DefaultMaxGroups
	}

	pool := dedupe(cands)
	if len(pool) < 3 {
		return []Group{}
	}
	sortCandidates(pool)
	if len(pool) > r.maxCandidates {
		pool = pool[:r.maxCandidates]
	}

	var groups []Group
	for i := 0; i < len(pool)-2; i++ {
		for j := i + 1; j < len(pool)-1; j++ {
			for k := j + 1; k < len(pool); k++ {
				a, b, c := pool[i], pool[j], pool[k]
				if IsCollinear(a, b, c, r.collinearThreshold) {
					continue
				}
				groups = append(groups, score(a, b, c, cond))
			}
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Score != groups[j].Score {
			return groups[i].Score > groups[j].Score
		}
		return groups[i].MinSeparationDeg > groups[j].MinSeparationDeg
	})

	if len(groups) > maxGroups {
		groups = groups[:maxGroups]
	}
	if groups == nil {
		return []Group{}
	}
	return groups
}

func score(a, b, c Candidate, cond *Conditions) Group {
	triple := [3]Candidate{a, b, c}
	minSep, sepScore := ScoreSeparation(a, b, c)
	avg := (a.ObservabilityScore + b.ObservabilityScore + c.ObservabilityScore) / 3
	condScore := ScoreConditions(triple, cond)

	return Group{
		Candidates:       triple,
		MinSeparationDeg: minSep,
		AvgObservability: avg,
		SeparationScore:  sepScore,
		ConditionsScore:  condScore,
		Score:            avg * sepScore * condScore,
	}
}

// dedupe returns a copy of cands without repeated IDs, first one wins
func dedupe(cands []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
