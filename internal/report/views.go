package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rewired-gh/incomeshift/internal/metrics"
	"github.com/rewired-gh/incomeshift/internal/models"
	"github.com/rewired-gh/incomeshift/internal/storage"
)

// RenderSweep writes one row per scenario, with the net Gini change against
// the first (baseline) scenario.
func (r *Renderer) RenderSweep(sweep *models.Sweep) {
	title := fmt.Sprintf("Scenario sweep %d", sweep.Year)
	if sweep.Lever != "" {
		title += " (" + sweep.Lever + ")"
	}

	base, _ := sweep.Baseline()
	rows := make([]table.Row, 0, len(sweep.Scenarios))
	for _, s := range sweep.Scenarios {
		rows = append(rows, table.Row{
			s.Label,
			magnitude(s.Magnitude),
			gini(s.MarketGini),
			gini(s.NetGini),
			signedGini(s.NetGini - base.NetGini),
			percent(s.PovertyRate),
			billions(s.FedRevenueB),
			signedBillions(s.RevenueChangeB),
		})
	}

	r.render(view{
		title:  title,
		header: table.Row{"Scenario", "Magnitude", "Market Gini", "Net Gini", "Net Gini vs baseline", "SPM poverty", "Federal revenue", "Revenue change"},
		rows:   rows,
	})
}

// RenderScenario writes the fields of one scenario. When found is false,
// every value is the placeholder.
func (r *Renderer) RenderScenario(key float64, s models.ScenarioRecord, found bool) {
	value := func(format func(float64) string, v float64) string {
		if !found {
			return Placeholder
		}
		return format(v)
	}

	label := Placeholder
	if found {
		label = s.Label
	}
	rows := []table.Row{
		{"Label", label},
		{"Market Gini", value(gini, s.MarketGini)},
		{"Net Gini", value(gini, s.NetGini)},
		{"SPM poverty rate", value(percent, s.PovertyRate)},
		{"Federal revenue", value(billions, s.FedRevenueB)},
		{"Revenue change", value(signedBillions, s.RevenueChangeB)},
		{"  Income tax", value(signedBillions, s.IncomeTaxChangeB)},
		{"  Payroll tax", value(signedBillions, s.PayrollChangeB)},
		{"  EITC", value(signedBillions, s.EITCChangeB)},
		{"  CTC", value(signedBillions, s.CTCChangeB)},
		{"  SNAP", value(signedBillions, s.SNAPChangeB)},
	}
	if found && s.CapitalShare > 0 {
		rows = append(rows, table.Row{"Capital share", percent(s.CapitalShare)})
	}
	if found {
		for i, d := range s.DecileShares {
			rows = append(rows, table.Row{fmt.Sprintf("Decile %d share", i+1), percent(d)})
		}
	}

	r.render(view{
		title:  "Scenario at magnitude " + magnitude(key),
		header: table.Row{"Field", "Value"},
		rows:   rows,
	})
}

// RenderComparison writes joined rows of two sweeps. Sides without a
// scenario at the key, and deltas that need both sides, show the placeholder.
func (r *Renderer) RenderComparison(leftName, rightName string, rows []metrics.ComparisonRow) {
	out := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		leftGini, rightGini := Placeholder, Placeholder
		leftPov, rightPov := Placeholder, Placeholder
		if row.Left != nil {
			leftGini, leftPov = gini(row.Left.NetGini), percent(row.Left.PovertyRate)
		}
		if row.Right != nil {
			rightGini, rightPov = gini(row.Right.NetGini), percent(row.Right.PovertyRate)
		}
		giniDelta, povDelta := Placeholder, Placeholder
		if d, ok := row.NetGiniDelta(); ok {
			giniDelta = signedGini(d)
		}
		if d, ok := row.PovertyDelta(); ok {
			povDelta = points(d)
		}
		out = append(out, table.Row{magnitude(row.Key), leftGini, rightGini, giniDelta, leftPov, rightPov, povDelta})
	}

	r.render(view{
		title: fmt.Sprintf("%s vs %s", leftName, rightName),
		header: table.Row{
			"Magnitude",
			leftName + " net Gini", rightName + " net Gini", "Net Gini change",
			leftName + " poverty", rightName + " poverty", "Poverty change",
		},
		rows: out,
	})
}

// RenderCliff writes the worst drop of one series and how each benefit and
// tax component moved across it.
func (r *Renderer) RenderCliff(household models.Household, series string, rep metrics.CliffReport) {
	title := "Cliff: " + series
	if household.Description != "" {
		title += " (" + household.Description + ")"
	}

	rows := []table.Row{
		{"Capital income", fmt.Sprintf("%s to %s", dollars(rep.At), dollars(rep.AtEnd))},
		{"Net income before", dollars(rep.Before)},
		{"Net income after", dollars(rep.After)},
		{"Drop", dollars(rep.Drop)},
	}

	caption := ""
	if rep.Found() {
		deltas := rep.ComponentDeltas()
		names := make([]string, 0, len(deltas))
		for name := range deltas {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, table.Row{"Change in " + name, signedDollars(deltas[name])})
		}
	} else {
		caption = "Net income never falls in this series."
	}

	r.render(view{
		title:   title,
		header:  table.Row{"Field", "Value"},
		rows:    rows,
		caption: caption,
	})
}

// RenderCatalog writes every row of the sorted groups, parameters before
// variables within each category.
func (r *Renderer) RenderCatalog(groups []metrics.CategoryGroup, skipped int) {
	var rows []table.Row
	total := 0
	for _, g := range groups {
		name := metrics.DisplayName(g.Name, r.renames)
		for _, kind := range models.Kinds {
			for _, row := range g.ByKind[kind] {
				rows = append(rows, table.Row{name, string(kind), row.Path, orPlaceholder(row.Description), orPlaceholder(row.Method)})
				total++
			}
		}
	}

	caption := fmt.Sprintf("%d rows in %d categories", total, len(groups))
	if skipped > 0 {
		caption += fmt.Sprintf("; %d malformed rows skipped", skipped)
	}
	r.render(view{
		title:   "Uprating catalog",
		header:  table.Row{"Category", "Kind", "Path", "Description", "Method"},
		rows:    rows,
		caption: caption,
	})
}

// RenderInequality writes a distribution summary, its decile shares and the
// interior points of its Lorenz curve.
func (r *Renderer) RenderInequality(s metrics.DistributionSummary) {
	rows := []table.Row{
		{"Observations", fmt.Sprintf("%d", s.Observations)},
		{"Total weight", magnitude(s.TotalWeight)},
		{"Weighted mean", dollars(s.Mean)},
		{"Gini", gini(s.Gini)},
		{"Top 10% share", percent(s.Top10Share)},
		{"Top 20% share", percent(s.Top20Share)},
		{"Bottom 20% share", percent(s.Bottom20Share)},
		{"Bottom 10% share", percent(s.Bottom10Share)},
	}
	for i, d := range s.DecileShares {
		rows = append(rows, table.Row{fmt.Sprintf("Decile %d share", i+1), percent(d)})
	}
	for i, p := range s.Lorenz {
		if i == 0 || i == len(s.Lorenz)-1 {
			continue
		}
		rows = append(rows, table.Row{fmt.Sprintf("Lorenz %.0f%%", p.Population*100), percent(p.Income)})
	}

	r.render(view{
		title:  "Income distribution",
		header: table.Row{"Statistic", "Value"},
		rows:   rows,
	})
}

// RenderViews lists saved view envelopes.
func (r *Renderer) RenderViews(dir string, envs []*storage.Envelope) {
	rows := make([]table.Row, 0, len(envs))
	for _, env := range envs {
		rows = append(rows, table.Row{
			env.Kind,
			env.ID,
			env.Version,
			env.SavedAt.UTC().Format(time.RFC3339),
			humanize.Time(env.SavedAt),
		})
	}

	r.render(view{
		title:  "Saved views in " + dir,
		header: table.Row{"Kind", "ID", "Version", "Saved at", "Age"},
		rows:   rows,
	})
}
