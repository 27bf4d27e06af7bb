// Package report renders sweeps, comparisons, cliff reports, catalog views
// and inequality summaries as terminal tables, markdown, or CSV.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Placeholder is shown wherever a value is absent.
const Placeholder = "—"

// Format selects the output representation.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat converts a format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "table":
		return FormatTable, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, markdown or csv)", s)
	}
}

// Renderer writes reports to w in one format.
type Renderer struct {
	w       io.Writer
	format  Format
	renames map[string]string
}

// New creates a Renderer. renames maps catalog category names to display names.
func New(w io.Writer, format Format, renames map[string]string) *Renderer {
	return &Renderer{w: w, format: format, renames: renames}
}

// view is a rendered-format-independent table.
type view struct {
	title   string
	header  table.Row
	rows    []table.Row
	caption string
}

func (r *Renderer) render(v view) {
	if len(v.rows) == 0 {
		if v.title != "" {
			_, _ = fmt.Fprintln(r.w, v.title)
		}
		_, _ = fmt.Fprintln(r.w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	if v.title != "" {
		t.SetTitle("%s", v.title)
	}
	t.AppendHeader(v.header)
	t.AppendRows(v.rows)
	if v.caption != "" {
		t.SetCaption("%s", v.caption)
	}

	switch r.format {
	case FormatMarkdown:
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	default:
		t.Render()
	}
}

func gini(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func signedGini(v float64) string {
	return fmt.Sprintf("%+.3f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func points(v float64) string {
	return fmt.Sprintf("%+.1f pp", v*100)
}

// billions formats an amount in billions of dollars, e.g. "$4,812.3B".
func billions(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + humanize.CommafWithDigits(v, 1) + "B"
}

func signedBillions(v float64) string {
	if v > 0 {
		return "+" + billions(v)
	}
	return billions(v)
}

// dollars formats a whole-dollar amount, e.g. "$32,400".
func dollars(v float64) string {
	v = math.Round(v)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + humanize.Commaf(v)
}

func signedDollars(v float64) string {
	if v > 0 {
		return "+" + dollars(v)
	}
	return dollars(v)
}

func magnitude(v float64) string {
	return humanize.Ftoa(v)
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
