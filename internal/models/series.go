package models

import (
	"errors"
	"fmt"
	"sort"
)

// SeriesPoint is one point of a household series: net income (Y) at a given
// capital income (X), with the benefit and tax components at that point.
type SeriesPoint struct {
	X         float64 `json:"capitalIncome"`
	Y         float64 `json:"netIncome"`
	EITC      float64 `json:"eitc,omitempty"`
	SNAP      float64 `json:"snap,omitempty"`
	IncomeTax float64 `json:"incomeTax,omitempty"`
	SSI       float64 `json:"ssi,omitempty"`
}

// Household describes the example household a cliff dataset was computed for.
type Household struct {
	Description string `json:"description"`
	Year        int    `json:"year"`
}

// CliffDataset holds named series (e.g. "dividends", "ltcg") for one household.
type CliffDataset struct {
	Household Household
	Series    map[string][]SeriesPoint
}

// ValidateSeries checks that a series is ordered by ascending X.
func ValidateSeries(points []SeriesPoint) error {
	if len(points) == 0 {
		return errors.New("series must not be empty")
	}
	for i := 1; i < len(points); i++ {
		if points[i].X < points[i-1].X {
			return fmt.Errorf("point %d: x must be ascending (%g after %g)", i, points[i].X, points[i-1].X)
		}
	}
	return nil
}

// Validate checks every series of the dataset.
func (d *CliffDataset) Validate() error {
	if len(d.Series) == 0 {
		return errors.New("cliff dataset must contain at least one series")
	}
	for _, name := range d.SeriesNames() {
		if err := ValidateSeries(d.Series[name]); err != nil {
			return fmt.Errorf("series %s: %w", name, err)
		}
	}
	return nil
}

// SeriesNames returns the series names in sorted order.
func (d *CliffDataset) SeriesNames() []string {
	names := make([]string, 0, len(d.Series))
	for name := range d.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
