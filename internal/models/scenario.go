// Package models defines the domain entities for incomeshift.
// These models represent pre-computed microsimulation outputs: scenario sweeps,
// capital-income cliff series, the uprating catalog, and the reference list.
// All models are loaded read-only from fixtures and include built-in validation.
//
// Terminology:
//   - Sweep: scenario outcomes varying one lever (shift percentage or multiplier).
//   - Magnitude: the lever value of a scenario, unique within its sweep.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ScenarioRecord is one labeled simulation data point of a sweep.
// Revenue figures are in billions of dollars; positive means the government gains.
type ScenarioRecord struct {
	Label            string    `json:"label" yaml:"label"`
	Magnitude        float64   `json:"magnitude" yaml:"magnitude"`
	MarketGini       float64   `json:"market_gini" yaml:"market_gini"`
	NetGini          float64   `json:"net_gini" yaml:"net_gini"`
	PovertyRate      float64   `json:"spm_poverty_rate" yaml:"spm_poverty_rate"`
	FedRevenueB      float64   `json:"fed_revenue_b" yaml:"fed_revenue_b"`
	RevenueChangeB   float64   `json:"revenue_change_b" yaml:"revenue_change_b"`
	IncomeTaxChangeB float64   `json:"income_tax_change_b,omitempty" yaml:"income_tax_change_b,omitempty"`
	PayrollChangeB   float64   `json:"payroll_change_b,omitempty" yaml:"payroll_change_b,omitempty"`
	EITCChangeB      float64   `json:"eitc_change_b,omitempty" yaml:"eitc_change_b,omitempty"`
	CTCChangeB       float64   `json:"ctc_change_b,omitempty" yaml:"ctc_change_b,omitempty"`
	SNAPChangeB      float64   `json:"snap_change_b,omitempty" yaml:"snap_change_b,omitempty"`
	CapitalShare     float64   `json:"capital_share,omitempty" yaml:"capital_share,omitempty"`
	DecileShares     []float64 `json:"decile_shares,omitempty" yaml:"decile_shares,omitempty"`
}

// magnitudeKeys lists the fixture fields that may carry the lever value, in priority order.
var magnitudeKeys = []string{"magnitude", "shift_pct", "multiplier"}

// UnmarshalJSON reads the lever value from whichever magnitude field the fixture uses.
func (r *ScenarioRecord) UnmarshalJSON(data []byte) error {
	type plain ScenarioRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range magnitudeKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, &p.Magnitude); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		break
	}

	*r = ScenarioRecord(p)
	return nil
}

// RevenueComponentsB returns the sum of the revenue decomposition fields.
func (r *ScenarioRecord) RevenueComponentsB() float64 {
	return r.IncomeTaxChangeB + r.PayrollChangeB + r.EITCChangeB + r.CTCChangeB + r.SNAPChangeB
}

func (r *ScenarioRecord) hasDecomposition() bool {
	return r.IncomeTaxChangeB != 0 || r.PayrollChangeB != 0 || r.EITCChangeB != 0 ||
		r.CTCChangeB != 0 || r.SNAPChangeB != 0
}

// Validate checks that all scenario fields are valid
func (r *ScenarioRecord) Validate() error {
	if r.Label == "" {
		return errors.New("scenario label must not be empty")
	}
	if r.MarketGini < 0.0 || r.MarketGini > 1.0 {
		return errors.New("market gini must be between 0.0 and 1.0")
	}
	if r.NetGini < 0.0 || r.NetGini > 1.0 {
		return errors.New("net gini must be between 0.0 and 1.0")
	}
	if r.PovertyRate < 0.0 || r.PovertyRate > 1.0 {
		return errors.New("poverty rate must be between 0.0 and 1.0")
	}
	if r.CapitalShare < 0.0 || r.CapitalShare > 1.0 {
		return errors.New("capital share must be between 0.0 and 1.0")
	}

	if len(r.DecileShares) > 0 {
		if len(r.DecileShares) != 10 {
			return fmt.Errorf("decile shares must have 10 entries, got %d", len(r.DecileShares))
		}
		sum := 0.0
		for _, s := range r.DecileShares {
			sum += s
		}
		if math.Abs(sum-1.0) > 0.01 {
			return errors.New("decile shares should sum to 1.0")
		}
	}

	// Components are rounded independently in the fixtures, so allow some slack
	if r.hasDecomposition() && math.Abs(r.RevenueComponentsB()-r.RevenueChangeB) > 0.05 {
		return errors.New("revenue change must equal the sum of its components")
	}
	return nil
}

// Sweep is an ordered set of scenarios varying one lever.
type Sweep struct {
	Year      int              `json:"year" yaml:"year"`
	Lever     string           `json:"lever,omitempty" yaml:"lever,omitempty"`
	Scenarios []ScenarioRecord `json:"scenarios" yaml:"scenarios"`
}

// Validate checks that the sweep is non-empty, ordered by strictly ascending
// magnitude, and that every scenario is valid.
func (s *Sweep) Validate() error {
	if len(s.Scenarios) == 0 {
		return errors.New("sweep must contain at least one scenario")
	}
	for i := range s.Scenarios {
		if err := s.Scenarios[i].Validate(); err != nil {
			return fmt.Errorf("scenario %d: %w", i, err)
		}
		if i > 0 && s.Scenarios[i].Magnitude <= s.Scenarios[i-1].Magnitude {
			return fmt.Errorf("scenario %d: magnitudes must be strictly ascending (%g after %g)",
				i, s.Scenarios[i].Magnitude, s.Scenarios[i-1].Magnitude)
		}
	}
	return nil
}

// Baseline returns the first scenario of the sweep.
func (s *Sweep) Baseline() (ScenarioRecord, bool) {
	if len(s.Scenarios) == 0 {
		return ScenarioRecord{}, false
	}
	return s.Scenarios[0], true
}
