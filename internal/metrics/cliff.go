package metrics

import (
	"errors"

	"github.com/rewired-gh/incomeshift/internal/models"
)

// ErrSeriesTooShort is returned when a series has fewer than two points.
var ErrSeriesTooShort = errors.New("series must contain at least 2 points")

// CliffReport describes the worst single-step drop in a series.
// Drop is the absolute size of the drop; 0 means the series never falls.
type CliffReport struct {
	Index       int     // index of the point where the drop begins
	At          float64 // X at Index
	AtEnd       float64 // X at Index+1
	Drop        float64
	Before      float64 // Y at Index
	After       float64 // Y at Index+1
	BeforePoint models.SeriesPoint
	AfterPoint  models.SeriesPoint
}

// Found reports whether the series contains any drop.
func (r CliffReport) Found() bool {
	return r.Drop > 0
}

// ComponentDeltas returns how each benefit and tax component changed across the drop.
func (r CliffReport) ComponentDeltas() map[string]float64 {
	return map[string]float64{
		"eitc":       r.AfterPoint.EITC - r.BeforePoint.EITC,
		"snap":       r.AfterPoint.SNAP - r.BeforePoint.SNAP,
		"income_tax": r.AfterPoint.IncomeTax - r.BeforePoint.IncomeTax,
		"ssi":        r.AfterPoint.SSI - r.BeforePoint.SSI,
	}
}

// DetectCliff scans adjacent pairs of an X-ordered series and reports the
// most negative change in Y. Ties keep the first occurrence. A series that
// never falls reports a drop of 0 at the first index, with Before and After
// both set to the first Y.
func DetectCliff(series []models.SeriesPoint) (CliffReport, error) {
	if len(series) < 2 {
		return CliffReport{}, ErrSeriesTooShort
	}

	worstIdx := -1
	worstDelta := 0.0
	for i := 1; i < len(series); i++ {
		delta := series[i].Y - series[i-1].Y
		if delta < worstDelta {
			worstDelta = delta
			worstIdx = i - 1
		}
	}

	if worstIdx < 0 {
		first := series[0]
		return CliffReport{
			Index:       0,
			At:          first.X,
			AtEnd:       first.X,
			Drop:        0,
			Before:      first.Y,
			After:       first.Y,
			BeforePoint: first,
			AfterPoint:  first,
		}, nil
	}

	before, after := series[worstIdx], series[worstIdx+1]
	return CliffReport{
		Index:       worstIdx,
		At:          before.X,
		AtEnd:       after.X,
		Drop:        -worstDelta,
		Before:      before.Y,
		After:       after.Y,
		BeforePoint: before,
		AfterPoint:  after,
	}, nil
}
