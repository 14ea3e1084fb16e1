package engine

import (
	"cmp"
	"slices"
)

// MatchMilestone selects the winning milestone definition for a finish time.
//
// Candidates are the active definitions for the race category whose gender is the
// athlete's or the wildcard, ordered by priority descending (ties by ID). The first
// candidate whose threshold the athlete finished inside wins. This is "best reward first":
// a higher priority rule beats a lower priority rule with a tighter threshold.
func MatchMilestone(finishSeconds int, category RaceCategory, gender Gender, defs []MilestoneDefinition) (*MilestoneDefinition, bool) {
	if finishSeconds <= 0 || category == CategoryUnknown {
		return nil, false
	}

	candidates := make([]MilestoneDefinition, 0, len(defs))
	for _, d := range defs {
		if !d.Active || d.RaceType != category {
			continue
		}
		if !genderMatches(d.Gender, gender) {
			continue
		}
		candidates = append(candidates, d)
	}

	slices.SortStableFunc(candidates, func(a, b MilestoneDefinition) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	for i := range candidates {
		t := candidates[i].TimeSeconds
		if t == nil {
			continue
		}
		if finishSeconds <= *t {
			found := candidates[i]
			return &found, true
		}
	}
	return nil, false
}

// Only GenderAny widens a definition. Unknown athletes match nothing else.
func genderMatches(def, athlete Gender) bool {
	if def == GenderAny {
		return true
	}
	switch athlete {
	case GenderMale, GenderFemale:
		return def == athlete
	}
	return false
}
