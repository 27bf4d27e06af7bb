package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/incomeshift/internal/bibtex"
	"github.com/rewired-gh/incomeshift/internal/fixtures"
	"github.com/rewired-gh/incomeshift/internal/logger"
	"github.com/rewired-gh/incomeshift/internal/metrics"
	"github.com/rewired-gh/incomeshift/internal/models"
	"github.com/rewired-gh/incomeshift/internal/storage"
)

// sweepSource picks the sweep fixture: an explicit file wins over the
// configured capital or shift sweep.
func (a *app) sweepSource(file string, capital bool) string {
	switch {
	case file != "":
		return file
	case capital:
		return a.cfg.Fixtures.Resolve(a.cfg.Fixtures.CapitalSweep)
	default:
		return a.cfg.Fixtures.Resolve(a.cfg.Fixtures.ShiftSweep)
	}
}

func (a *app) orConfigured(file, configured string) string {
	if file != "" {
		return file
	}
	return a.cfg.Fixtures.Resolve(configured)
}

func (a *app) newSweepCmd() *cobra.Command {
	var (
		file    string
		capital bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Show every scenario of a sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sweep, err := a.client.LoadSweep(cmd.Context(), a.sweepSource(file, capital))
			if err != nil {
				return err
			}
			a.renderer.RenderSweep(sweep)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Sweep fixture path or URL (default: configured shift sweep)")
	cmd.Flags().BoolVar(&capital, "capital", false, "Use the configured capital-income multiplier sweep")
	return cmd
}

func (a *app) newScenarioCmd() *cobra.Command {
	var (
		file    string
		capital bool
	)
	cmd := &cobra.Command{
		Use:   "scenario <magnitude>",
		Short: "Show the scenario at an exact lever magnitude",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid magnitude %q: %w", args[0], err)
			}
			sweep, err := a.client.LoadSweep(cmd.Context(), a.sweepSource(file, capital))
			if err != nil {
				return err
			}
			s, found := metrics.FindScenario(sweep.Scenarios, key)
			if !found {
				logger.Debug("No scenario at magnitude %g", key)
			}
			a.renderer.RenderScenario(key, s, found)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Sweep fixture path or URL (default: configured shift sweep)")
	cmd.Flags().BoolVar(&capital, "capital", false, "Use the configured capital-income multiplier sweep")
	return cmd
}

func (a *app) newCompareCmd() *cobra.Command {
	var (
		left, right string
		keys        []float64
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two sweeps scenario by scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l := a.orConfigured(left, a.cfg.Fixtures.ShiftSweep)
			r := a.orConfigured(right, a.cfg.Fixtures.CapitalSweep)
			rows, err := a.comparison(cmd.Context(), l, r, keys)
			if err != nil {
				return err
			}
			a.renderer.RenderComparison(sourceName(l), sourceName(r), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&left, "left", "", "Left sweep (default: configured shift sweep)")
	cmd.Flags().StringVar(&right, "right", "", "Right sweep (default: configured capital sweep)")
	cmd.Flags().Float64SliceVar(&keys, "keys", nil, "Magnitudes to compare (default: all magnitudes of both sweeps)")
	return cmd
}

func (a *app) comparison(ctx context.Context, left, right string, keys []float64) ([]metrics.ComparisonRow, error) {
	l, err := a.client.LoadSweep(ctx, left)
	if err != nil {
		return nil, err
	}
	r, err := a.client.LoadSweep(ctx, right)
	if err != nil {
		return nil, err
	}
	return metrics.JoinSweeps(l.Scenarios, r.Scenarios, keys), nil
}

// cliffResult is the cliff report of one series, or why it has none.
type cliffResult struct {
	Series string               `json:"series"`
	Report *metrics.CliffReport `json:"report,omitempty"`
	Error  string               `json:"error,omitempty"`
}

func (a *app) cliffs(ctx context.Context, source, only string) (*models.CliffDataset, []cliffResult, error) {
	d, err := a.client.LoadCliffDataset(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	names := d.SeriesNames()
	if only != "" {
		if _, ok := d.Series[only]; !ok {
			return nil, nil, fmt.Errorf("unknown series %q (have: %s)", only, strings.Join(names, ", "))
		}
		names = []string{only}
	}

	results := make([]cliffResult, 0, len(names))
	for _, name := range names {
		rep, err := metrics.DetectCliff(d.Series[name])
		if err != nil {
			if only != "" || !errors.Is(err, metrics.ErrSeriesTooShort) {
				return nil, nil, fmt.Errorf("series %s: %w", name, err)
			}
			logger.Warn("Skipping series %s: %v", name, err)
			results = append(results, cliffResult{Series: name, Error: err.Error()})
			continue
		}
		results = append(results, cliffResult{Series: name, Report: &rep})
	}
	return d, results, nil
}

func (a *app) newCliffCmd() *cobra.Command {
	var file, series string
	cmd := &cobra.Command{
		Use:   "cliff",
		Short: "Find the worst drop in household net income per series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, results, err := a.cliffs(cmd.Context(), a.orConfigured(file, a.cfg.Fixtures.Cliff), series)
			if err != nil {
				return err
			}
			for _, res := range results {
				if res.Report != nil {
					a.renderer.RenderCliff(d.Household, res.Series, *res.Report)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Cliff fixture path or URL (default: configured cliff data)")
	cmd.Flags().StringVar(&series, "series", "", "Only this series (default: all)")
	return cmd
}

// catalogResult is the sorted catalog view plus the rows dropped while parsing.
type catalogResult struct {
	Groups  []metrics.CategoryGroup `json:"groups"`
	Skipped []fixtures.SkippedRow   `json:"skipped,omitempty"`
}

func (a *app) catalog(ctx context.Context, source, category, search string) (*catalogResult, error) {
	cat, err := a.client.LoadCatalog(ctx, source, a.cfg.Catalog.CatalogDelimiter())
	if err != nil {
		return nil, err
	}
	view := metrics.GroupAndFilter(cat.Rows, category, search)
	return &catalogResult{
		Groups:  metrics.SortCategories(view, a.cfg.Catalog.PriorityMarker),
		Skipped: cat.Skipped,
	}, nil
}

func (a *app) newCatalogCmd() *cobra.Command {
	var file, category, search string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List uprating parameters and variables by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.catalog(cmd.Context(), a.orConfigured(file, a.cfg.Fixtures.Catalog), category, search)
			if err != nil {
				return err
			}
			a.renderer.RenderCatalog(res.Groups, len(res.Skipped))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Catalog fixture path or URL (default: configured catalog)")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive search over path, description and method")
	return cmd
}

func (a *app) newBibCmd() *cobra.Command {
	var file, out string
	cmd := &cobra.Command{
		Use:   "bib",
		Short: "Export the reference list as BibTeX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			refs, err := a.client.LoadReferences(cmd.Context(), a.orConfigured(file, a.cfg.Fixtures.References))
			if err != nil {
				return err
			}
			text := bibtex.Export(refs)
			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			if err := a.store.WriteFile(out, []byte(text)); err != nil {
				return err
			}
			logger.Info("Wrote %d references to %s", len(refs), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Reference fixture path or URL (default: configured references)")
	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")
	return cmd
}

func (a *app) newInequalityCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "inequality",
		Short: "Summarize a weighted household income distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			md, err := a.client.LoadMicrodata(cmd.Context(), file)
			if err != nil {
				return err
			}
			summary, err := metrics.Summarize(md.Values, md.Weights)
			if err != nil {
				return err
			}
			a.renderer.RenderInequality(summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Microdata CSV path or URL with value and optional weight columns")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var microdata string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Derive every view and save each as JSON in the export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.export(cmd.Context(), microdata)
		},
	}
	cmd.Flags().StringVar(&microdata, "microdata", "", "Also export an inequality summary of this microdata CSV")
	return cmd
}

type exportView struct {
	kind   string
	derive func(ctx context.Context) (any, error)
}

func (a *app) exportViews(microdata string) []exportView {
	fx := a.cfg.Fixtures
	views := []exportView{
		{"shift_sweep", func(ctx context.Context) (any, error) {
			return a.client.LoadSweep(ctx, fx.Resolve(fx.ShiftSweep))
		}},
		{"capital_sweep", func(ctx context.Context) (any, error) {
			return a.client.LoadSweep(ctx, fx.Resolve(fx.CapitalSweep))
		}},
		{"comparison", func(ctx context.Context) (any, error) {
			return a.comparison(ctx, fx.Resolve(fx.ShiftSweep), fx.Resolve(fx.CapitalSweep), nil)
		}},
		{"cliff", func(ctx context.Context) (any, error) {
			d, results, err := a.cliffs(ctx, fx.Resolve(fx.Cliff), "")
			if err != nil {
				return nil, err
			}
			return map[string]any{"household": d.Household, "series": results}, nil
		}},
		{"catalog", func(ctx context.Context) (any, error) {
			return a.catalog(ctx, fx.Resolve(fx.Catalog), "", "")
		}},
		{"references", func(ctx context.Context) (any, error) {
			refs, err := a.client.LoadReferences(ctx, fx.Resolve(fx.References))
			if err != nil {
				return nil, err
			}
			bibPath := filepath.Join(a.store.Dir(), "references.bib")
			if err := a.store.WriteFile(bibPath, []byte(bibtex.Export(refs))); err != nil {
				return nil, err
			}
			return refs, nil
		}},
	}
	if microdata != "" {
		views = append(views, exportView{"inequality", func(ctx context.Context) (any, error) {
			md, err := a.client.LoadMicrodata(ctx, microdata)
			if err != nil {
				return nil, err
			}
			return metrics.Summarize(md.Values, md.Weights)
		}})
	}
	return views
}

// export saves every view it can. A failed view is logged and skipped; the
// command fails at the end if any view failed.
func (a *app) export(ctx context.Context, microdata string) error {
	if n, err := a.store.CleanTemp(); err != nil {
		logger.Warn("Failed to clean temp files: %v", err)
	} else if n > 0 {
		logger.Debug("Removed %d stale temp files", n)
	}

	views := a.exportViews(microdata)
	var failed []string
	for _, v := range views {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := v.derive(ctx)
		if err == nil {
			_, err = a.store.SaveView(v.kind, data)
		}
		if err != nil {
			logger.Error("Failed to export %s: %v", v.kind, err)
			failed = append(failed, v.kind)
			continue
		}
		logger.Info("Exported %s to %s", v.kind, a.store.ViewPath(v.kind))
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d views failed: %s", len(failed), len(views), strings.Join(failed, ", "))
	}
	return nil
}

func (a *app) newViewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "views [kind]",
		Short: "List saved views, or print the data of one saved view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.showView(cmd, args[0])
			}
			envs, err := a.savedViews()
			if err != nil {
				return err
			}
			a.renderer.RenderViews(a.store.Dir(), envs)
			return nil
		},
	}
}

// savedViews loads the envelope of every view in the export directory.
// Unreadable files are logged and skipped.
func (a *app) savedViews() ([]*storage.Envelope, error) {
	kinds, err := a.store.ListViews()
	if err != nil {
		return nil, err
	}
	envs := make([]*storage.Envelope, 0, len(kinds))
	for _, kind := range kinds {
		env, err := a.store.LoadView(kind, nil)
		if err != nil {
			logger.Warn("Skipping saved view %s: %v", kind, err)
			continue
		}
		envs = append(envs, env)
	}
	return envs, nil
}

func (a *app) showView(cmd *cobra.Command, kind string) error {
	var data json.RawMessage
	if _, err := a.store.LoadView(kind, &data); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("failed to format %s view: %w", kind, err)
	}
	buf.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// sourceName labels a fixture by its file name without extension.
func sourceName(source string) string {
	base := source
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, fixtures.Ext(base))
}
