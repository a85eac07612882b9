// Package grading holds the scoring rules of the gradebook: value ceilings, configuration
// limits and the aggregation of recorded grades into unit and subject totals.
//
// Everything in this package is pure; persistence and authorization live in the
// repository and service packages.
package grading

import (
	"math"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const epsilon = 1e-9

// Rules carries the configurable limits of the grading scheme.
type Rules struct {
	// ZoneUnitCeiling bounds the sum of zone activity max scores of one subject unit.
	ZoneUnitCeiling float64
	// PartialCeiling bounds every partial exam grade.
	PartialCeiling float64
	// MaxActivities bounds the number of activities per configuration submission.
	MaxActivities int
}

// DefaultRules returns the school's standard grading scheme.
func DefaultRules() Rules {
	return Rules{
		ZoneUnitCeiling: 60,
		PartialCeiling:  20,
		MaxActivities:   6,
	}
}

// WithDefaults fills zero limits with the standard values.
func (r Rules) WithDefaults() Rules {
	def := DefaultRules()
	if r.ZoneUnitCeiling <= 0 {
		r.ZoneUnitCeiling = def.ZoneUnitCeiling
	}
	if r.PartialCeiling <= 0 {
		r.PartialCeiling = def.PartialCeiling
	}
	if r.MaxActivities <= 0 {
		r.MaxActivities = def.MaxActivities
	}
	return r
}

// Ceiling resolves the highest value a grade of componentType may hold. config is the zone
// activity the grade belongs to and may be nil for partials or for zone grades whose activity
// was removed, in which case the whole unit ceiling applies.
func (r Rules) Ceiling(componentType string, config *models.ActivityConfig) float64 {
	if componentType == models.ComponentPartial {
		return r.PartialCeiling
	}
	if config != nil {
		return config.MaxScore
	}
	return r.ZoneUnitCeiling
}

// CheckValue validates value against [0, ceiling], reporting violations with kind.
func CheckValue(kind error, value, ceiling float64) error {
	if math.IsNaN(value) || value < 0 || value > ceiling+epsilon {
		return &LimitError{Kind: kind, Value: value, Limit: ceiling}
	}
	return nil
}

// CheckConfiguration validates the max scores of one subject unit against the zone ceiling.
func (r Rules) CheckConfiguration(maxScores []float64) error {
	total := 0.0
	for _, score := range maxScores {
		total += score
	}
	if total > r.ZoneUnitCeiling+epsilon {
		return &LimitError{Kind: ErrConfigurationLimitExceeded, Value: total, Limit: r.ZoneUnitCeiling}
	}
	return nil
}

// CheckActivityCount validates the number of activities of one configuration submission.
func (r Rules) CheckActivityCount(count int) error {
	if count > r.MaxActivities {
		return &LimitError{Kind: ErrTooManyActivities, Value: float64(count), Limit: float64(r.MaxActivities)}
	}
	return nil
}

// SameValue reports whether two grade values are equal for change-request purposes.
func SameValue(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
