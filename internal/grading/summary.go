package grading

import (
	"cmp"
	"slices"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// Activity line states in a subject breakdown.
const (
	LineGraded    = "graded"
	LineNotGraded = "not_graded"
	LineLegacy    = "legacy"
)

// ActivityLine is one row of a subject breakdown. A nil Value marks a configured activity
// that has not been graded yet; such lines add nothing to any total.
type ActivityLine struct {
	ActivityConfigID *uint
	GradeID          *uint
	Name             string
	Unit             string
	MaxScore         float64
	Value            *float64
	Status           string
}

// UnitSummary aggregates the zone activities of one unit.
type UnitSummary struct {
	Unit         string
	Activities   []ActivityLine
	ZoneSubtotal float64
	ZoneMax      float64
}

// SubjectSummary is the computed view of one student's grades in one subject.
type SubjectSummary struct {
	StudentID          uint
	SubjectID          uint
	Units              []UnitSummary
	Partials           []ActivityLine
	ZoneSubtotalByUnit map[string]float64
	ZoneMaxByUnit      map[string]float64
	ZoneTotal          float64
	PartialTotal       float64
	SubjectTotal       float64
}

// Summarize folds the configured activities and recorded entries of a student+subject into
// unit and subject totals.
//
// Zone subtotals sum every recorded zone entry of the unit, including entries whose activity
// is no longer configured. Zone maxima sum every configured activity whether graded or not.
func Summarize(studentID, subjectID uint, configs []models.ActivityConfig, entries []models.GradeEntry, rules Rules) SubjectSummary {
	rules = rules.WithDefaults()

	ordered := slices.Clone(configs)
	slices.SortStableFunc(ordered, func(a, b models.ActivityConfig) int {
		if c := compareUnits(a.Unit, b.Unit); c != 0 {
			return c
		}
		return cmp.Compare(a.Sequence, b.Sequence)
	})

	units := map[string]*UnitSummary{}
	unitFor := func(unit string) *UnitSummary {
		if existing, ok := units[unit]; ok {
			return existing
		}
		created := &UnitSummary{Unit: unit}
		units[unit] = created
		return created
	}

	type linePosition struct {
		unit  string
		index int
	}
	positions := make(map[uint]linePosition, len(ordered))

	for _, config := range ordered {
		unit := unitFor(config.Unit)
		configID := config.ID
		unit.Activities = append(unit.Activities, ActivityLine{
			ActivityConfigID: &configID,
			Name:             config.Name,
			Unit:             config.Unit,
			MaxScore:         config.MaxScore,
			Status:           LineNotGraded,
		})
		unit.ZoneMax += config.MaxScore
		positions[config.ID] = linePosition{unit: config.Unit, index: len(unit.Activities) - 1}
	}

	summary := SubjectSummary{
		StudentID:          studentID,
		SubjectID:          subjectID,
		Partials:           []ActivityLine{},
		ZoneSubtotalByUnit: map[string]float64{},
		ZoneMaxByUnit:      map[string]float64{},
	}

	for _, entry := range entries {
		value := entry.Value
		gradeID := entry.ID

		if entry.ComponentType == models.ComponentPartial {
			summary.Partials = append(summary.Partials, ActivityLine{
				GradeID:  &gradeID,
				Name:     entry.ActivityName,
				Unit:     entry.Unit,
				MaxScore: rules.PartialCeiling,
				Value:    &value,
				Status:   LineGraded,
			})
			summary.PartialTotal += value
			continue
		}

		if entry.ActivityConfigID != nil {
			if pos, ok := positions[*entry.ActivityConfigID]; ok {
				unit := units[pos.unit]
				line := &unit.Activities[pos.index]
				if line.Status == LineNotGraded {
					line.GradeID = &gradeID
					line.Value = &value
					line.Status = LineGraded
					unit.ZoneSubtotal += value
					continue
				}
			}
		}

		unit := unitFor(entry.Unit)
		unit.Activities = append(unit.Activities, ActivityLine{
			ActivityConfigID: entry.ActivityConfigID,
			GradeID:          &gradeID,
			Name:             entry.ActivityName,
			Unit:             entry.Unit,
			Value:            &value,
			Status:           LineLegacy,
		})
		unit.ZoneSubtotal += value
	}

	for _, unit := range units {
		summary.Units = append(summary.Units, *unit)
	}
	slices.SortFunc(summary.Units, func(a, b UnitSummary) int {
		return compareUnits(a.Unit, b.Unit)
	})

	for _, unit := range summary.Units {
		summary.ZoneSubtotalByUnit[unit.Unit] = unit.ZoneSubtotal
		summary.ZoneMaxByUnit[unit.Unit] = unit.ZoneMax
		summary.ZoneTotal += unit.ZoneSubtotal
	}
	summary.SubjectTotal = summary.ZoneTotal + summary.PartialTotal

	return summary
}

// Mean accumulates grade values into an arithmetic mean.
type Mean struct {
	sum   float64
	count int
}

// Add includes value in the mean.
func (m *Mean) Add(value float64) {
	m.sum += value
	m.count++
}

// Count returns how many values were added.
func (m Mean) Count() int {
	return m.count
}

// Value returns the mean, or 0 when nothing was added.
func (m Mean) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// OverallAverage is the mean of every entry value, 0 for no entries.
func OverallAverage(entries []models.GradeEntry) float64 {
	var mean Mean
	for _, entry := range entries {
		mean.Add(entry.Value)
	}
	return mean.Value()
}

// compareUnits orders known units by curriculum order and unknown labels after them.
func compareUnits(a, b string) int {
	ai, bi := models.UnitOrder(a), models.UnitOrder(b)
	switch {
	case ai >= 0 && bi >= 0:
		return cmp.Compare(ai, bi)
	case ai >= 0:
		return -1
	case bi >= 0:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
