// Package metrics derives the comparison metrics shown alongside the
// pre-computed microsimulation fixtures.
//
// Every function here is pure: inputs are never mutated and outputs are
// fresh values, so repeated calls with the same inputs give the same result.
//
//   - FindScenario / JoinSweeps: exact-match lookups by lever magnitude.
//   - DetectCliff: worst single-step drop in a household net income series.
//   - GroupAndFilter / SortCategories: the uprating catalog view.
//   - WeightedGini / DecileShares / LorenzCurve: inequality summaries of microdata.
package metrics

import (
	"sort"

	"github.com/rewired-gh/incomeshift/internal/models"
)

// FindScenario returns the scenario whose magnitude equals key exactly.
// The second result is false when no scenario matches; this is an expected
// outcome that callers render as a placeholder.
func FindScenario(sweep []models.ScenarioRecord, key float64) (models.ScenarioRecord, bool) {
	for _, s := range sweep {
		if s.Magnitude == key {
			return s, true
		}
	}
	return models.ScenarioRecord{}, false
}

// ComparisonRow pairs the scenarios of two sweeps at one magnitude.
// A nil side means that sweep has no scenario at Key.
type ComparisonRow struct {
	Key   float64
	Left  *models.ScenarioRecord
	Right *models.ScenarioRecord
}

// NetGiniDelta returns Right.NetGini - Left.NetGini when both sides are present.
func (r ComparisonRow) NetGiniDelta() (float64, bool) {
	if r.Left == nil || r.Right == nil {
		return 0, false
	}
	return r.Right.NetGini - r.Left.NetGini, true
}

// PovertyDelta returns Right.PovertyRate - Left.PovertyRate when both sides are present.
func (r ComparisonRow) PovertyDelta() (float64, bool) {
	if r.Left == nil || r.Right == nil {
		return 0, false
	}
	return r.Right.PovertyRate - r.Left.PovertyRate, true
}

// JoinSweeps matches scenarios of two sweeps by magnitude. With no keys,
// the union of both sweeps' magnitudes is used in ascending order.
func JoinSweeps(left, right []models.ScenarioRecord, keys []float64) []ComparisonRow {
	if len(keys) == 0 {
		keys = unionMagnitudes(left, right)
	}

	rows := make([]ComparisonRow, 0, len(keys))
	for _, k := range keys {
		row := ComparisonRow{Key: k}
		if s, ok := FindScenario(left, k); ok {
			row.Left = &s
		}
		if s, ok := FindScenario(right, k); ok {
			row.Right = &s
		}
		rows = append(rows, row)
	}
	return rows
}

func unionMagnitudes(a, b []models.ScenarioRecord) []float64 {
	seen := make(map[float64]bool, len(a)+len(b))
	var keys []float64
	for _, sweep := range [][]models.ScenarioRecord{a, b} {
		for _, s := range sweep {
			if !seen[s.Magnitude] {
				seen[s.Magnitude] = true
				keys = append(keys, s.Magnitude)
			}
		}
	}
	sort.Float64s(keys)
	return keys
}
