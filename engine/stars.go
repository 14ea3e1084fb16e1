package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultKmPerStar drives the fallback rule: one star per 50 km of target, minimum one.
const DefaultKmPerStar = 50

// StarTierTable maps a target distance (km) to the stars granted on completing it.
type StarTierTable struct {
	Version string
	Tiers   map[float64]int
}

// StarTier is one row of the table, used for display and persistence.
type StarTier struct {
	TargetKm float64 `json:"target_km"`
	Stars    int     `json:"stars"`
}

type versionedTiers struct {
	Version string          `json:"version"`
	Tiers   json.RawMessage `json:"tiers"`
}

// ParseStarTiers decodes the star tier setting. Accepted shapes:
//
//	{"100": 3, "42.195": 2}
//	{"version": "2024-10", "tiers": {"100": 3}}
//	{"version": "2024-10", "tiers": [{"target_km": 100, "stars": 3}]}
//
// An empty input yields an empty table. On a parse error the returned table is empty too,
// so callers can log the error and keep going with the default rule.
func ParseStarTiers(raw []byte) (StarTierTable, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return StarTierTable{}, nil
	}

	var wrapper versionedTiers
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Tiers) > 0 {
		tiers, err := parseTierBody(wrapper.Tiers)
		if err != nil {
			return StarTierTable{}, err
		}
		return StarTierTable{Version: wrapper.Version, Tiers: tiers}, nil
	}

	tiers, err := parseTierBody(raw)
	if err != nil {
		return StarTierTable{}, err
	}
	return StarTierTable{Tiers: tiers}, nil
}

func parseTierBody(raw json.RawMessage) (map[float64]int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var rows []StarTier
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("star tiers: %w", err)
		}
		out := make(map[float64]int, len(rows))
		for _, r := range rows {
			if r.TargetKm <= 0 || math.IsNaN(r.TargetKm) || math.IsInf(r.TargetKm, 0) {
				return nil, fmt.Errorf("star tiers: invalid target_km %v", r.TargetKm)
			}
			out[r.TargetKm] = r.Stars
		}
		return out, nil
	}

	var byKey map[string]json.Number
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, fmt.Errorf("star tiers: %w", err)
	}
	out := make(map[float64]int, len(byKey))
	for k, v := range byKey {
		km, err := strconv.ParseFloat(strings.TrimSpace(k), 64)
		if err != nil || km <= 0 || math.IsNaN(km) || math.IsInf(km, 0) {
			return nil, fmt.Errorf("star tiers: invalid key %q", k)
		}
		stars, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("star tiers: invalid star count for %q: %w", k, err)
		}
		out[km] = int(stars)
	}
	return out, nil
}

// Rows returns the tiers sorted by target distance.
func (t StarTierTable) Rows() []StarTier {
	rows := make([]StarTier, 0, len(t.Tiers))
	for km, stars := range t.Tiers {
		rows = append(rows, StarTier{TargetKm: km, Stars: stars})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TargetKm < rows[j].TargetKm })
	return rows
}

// StarsFor resolves the star count for a target: exact key, else the largest key not above
// the target, else the default rule.
func (t StarTierTable) StarsFor(targetKm float64) int {
	if stars, ok := t.Tiers[targetKm]; ok {
		return clampStars(stars)
	}

	best, found := 0.0, false
	for km := range t.Tiers {
		if km <= targetKm && (!found || km > best) {
			best, found = km, true
		}
	}
	if found {
		return clampStars(t.Tiers[best])
	}

	stars := int(math.Floor(targetKm / DefaultKmPerStar))
	if stars < 1 {
		stars = 1
	}
	return stars
}

func clampStars(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// StarAwardRule grants the one-time completion bonus.
type StarAwardRule struct {
	Table StarTierTable
}

// NewStarAwardRule builds the rule around an injected tier table.
func NewStarAwardRule(table StarTierTable) StarAwardRule {
	return StarAwardRule{Table: table}
}

// Evaluate returns the star delta for a recompute. Only the not-completed to completed
// transition grants anything; regressions never produce a negative delta.
func (r StarAwardRule) Evaluate(previouslyCompleted, nowCompleted bool, targetKm float64) int {
	if previouslyCompleted || !nowCompleted {
		return 0
	}
	return r.Table.StarsFor(targetKm)
}
