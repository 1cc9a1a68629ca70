// Package grading holds the derived metrics shown next to students, the report and subject averages.
// Every function is pure.
package grading

import (
	"math"
	"strconv"
)

// Unavailable is rendered when an average cannot be computed.
const Unavailable = "--"

// Tier lower bounds, inclusive: a value at or above the min falls in that tier.
const (
	HighGradeMin = 7.0
	MidGradeMin  = 5.0

	HighAttendanceMin = 75.0
	MidAttendanceMin  = 50.0
)

// Tier is a three level classification.
type Tier string

const (
	High Tier = "high"
	Mid  Tier = "mid"
	Low  Tier = "low"
)

// Label is the Portuguese word shown to users.
func (t Tier) Label() string {
	switch t {
	case High:
		return "alta"
	case Mid:
		return "média"
	case Low:
		return "baixa"
	default:
		return ""
	}
}

// Mean returns the arithmetic mean of grades; ok is false for an empty (or nil) sequence.
func Mean(grades []float64) (mean float64, ok bool) {
	if len(grades) == 0 {
		return 0, false
	}
	var total float64
	for _, g := range grades {
		total += g
	}
	return total / float64(len(grades)), true
}

// Average renders the mean of grades with two decimals, or Unavailable.
func Average(grades []float64) string {
	mean, ok := Mean(grades)
	if !ok {
		return Unavailable
	}
	return FormatAverage(mean)
}

// FormatAverage renders avg with exactly two decimals.
func FormatAverage(avg float64) string {
	return strconv.FormatFloat(avg, 'f', 2, 64)
}

// Round2 rounds to two decimals, half away from zero.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// GradeTier classifies a grade average: >= 7 high, >= 5 mid, else low.
// Applies to student, class and subject averages alike.
func GradeTier(avg float64) Tier {
	switch {
	case avg >= HighGradeMin:
		return High
	case avg >= MidGradeMin:
		return Mid
	default:
		return Low
	}
}

// AverageTier classifies the rendered average of grades, so the badge and its tier never disagree.
// An unavailable average is Low.
func AverageTier(grades []float64) Tier {
	shown, err := strconv.ParseFloat(Average(grades), 64)
	if err != nil {
		return Low
	}
	return GradeTier(shown)
}

// AttendanceTier classifies an attendance percentage: >= 75 high, >= 50 mid, else low.
func AttendanceTier(attendance float64) Tier {
	switch {
	case attendance >= HighAttendanceMin:
		return High
	case attendance >= MidAttendanceMin:
		return Mid
	default:
		return Low
	}
}

// BelowAttendanceThreshold reports whether attendance triggers the low attendance alert.
func BelowAttendanceThreshold(attendance float64) bool {
	return attendance < HighAttendanceMin
}
