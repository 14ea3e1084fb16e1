package engine

import (
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
)

// A Caser is stateful, so each call builds its own.
func fold(s string) string {
	return strings.TrimSpace(cases.Fold().String(s))
}

// CategoryFromDistance maps a free-form distance label ("21km", "Half Marathon", "42.195")
// to a milestone race category. Half marathon markers are checked first.
func CategoryFromDistance(label string) RaceCategory {
	d := fold(label)
	if d == "" {
		return CategoryUnknown
	}
	switch {
	case strings.Contains(d, "21"), strings.Contains(d, "half"), strings.Contains(d, "hm"):
		return CategoryHalfMarathon
	case strings.Contains(d, "42"), strings.Contains(d, "full"), strings.Contains(d, "fm"):
		return CategoryFullMarathon
	}
	return CategoryUnknown
}

// NormalizeGender maps profile and definition gender values, including Vietnamese labels,
// onto the engine's gender set. Empty and wildcard values become GenderAny; any other
// unrecognized label becomes GenderOther.
func NormalizeGender(raw string) Gender {
	g := fold(unidecode.Unidecode(raw))
	switch g {
	case "male", "m", "nam", "man", "men":
		return GenderMale
	case "female", "f", "nu", "woman", "women":
		return GenderFemale
	case "", "any", "all", "*":
		return GenderAny
	}
	return GenderOther
}

// AthleteGender normalises an athlete's profile gender. Missing and unrecognized values
// are unknown, never a wildcard.
func AthleteGender(raw string) Gender {
	switch g := NormalizeGender(raw); g {
	case GenderMale, GenderFemale:
		return g
	}
	return GenderUnknown
}
