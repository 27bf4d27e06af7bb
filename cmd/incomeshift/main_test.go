package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/incomeshift/internal/metrics"
	"github.com/rewired-gh/incomeshift/internal/report"
	"github.com/rewired-gh/incomeshift/internal/storage"
)

var testFixtures = map[string]string{
	"shift_sweep.json": `{"year": 2026, "lever": "shift_pct", "scenarios": [
  {"label": "Baseline", "shift_pct": 0, "market_gini": 0.61, "net_gini": 0.47, "spm_poverty_rate": 0.127, "fed_revenue_b": 4800, "revenue_change_b": 0},
  {"label": "Shift 10%", "shift_pct": 10, "market_gini": 0.63, "net_gini": 0.48, "spm_poverty_rate": 0.129, "fed_revenue_b": 4790, "revenue_change_b": -10}
]}`,
	"capital_sweep.json": `{"year": 2026, "lever": "multiplier", "scenarios": [
  {"label": "1x", "multiplier": 1, "market_gini": 0.61, "net_gini": 0.47, "spm_poverty_rate": 0.127, "fed_revenue_b": 4800, "revenue_change_b": 0},
  {"label": "10x", "multiplier": 10, "market_gini": 0.70, "net_gini": 0.55, "spm_poverty_rate": 0.125, "fed_revenue_b": 5100, "revenue_change_b": 300}
]}`,
	"cliff_data.json": `{
  "household": {"description": "Single parent, two children", "year": 2026},
  "dividends": [
    {"capitalIncome": 0, "netIncome": 30000, "eitc": 4000},
    {"capitalIncome": 5000, "netIncome": 35000, "eitc": 4000},
    {"capitalIncome": 12000, "netIncome": 31000}
  ],
  "ltcg": [{"capitalIncome": 0, "netIncome": 30000}]
}`,
	"uprating.csv": "category,kind,path,description,method\n" +
		"gov.usda.snap,variable,snap,SNAP benefit,\n" +
		"gov.irs,parameter,gov.irs.credits.eitc.max,EITC maximum,CPI-U\n" +
		"gov.irs,gizmo,broken,Broken row,\n",
	"references.yaml": `
- id: psz2018
  type: article
  author: Piketty, Thomas and Saez, Emmanuel and Zucman, Gabriel
  year: 2018
  title: Distributional National Accounts
  journal: Quarterly Journal of Economics
`,
	"households.csv": "value,weight\n10,1\n20,1\n30,1\n40,1\n50,1\n60,1\n70,1\n80,1\n90,1\n100,1\n",
}

type testEnv struct {
	dataDir   string
	exportDir string
	config    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		dataDir:   filepath.Join(root, "data"),
		exportDir: filepath.Join(root, "exports"),
		config:    filepath.Join(root, "config.yaml"),
	}
	require.NoError(t, os.MkdirAll(env.dataDir, 0o755))
	for name, content := range testFixtures {
		require.NoError(t, os.WriteFile(filepath.Join(env.dataDir, name), []byte(content), 0o644))
	}

	cfg := "fixtures:\n" +
		"  data_dir: " + env.dataDir + "\n" +
		"output:\n" +
		"  export_dir: " + env.exportDir + "\n" +
		"logging:\n" +
		"  level: error\n"
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o644))
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSweepCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "Baseline")
	assert.Contains(t, out, "Shift 10%")

	out, err = env.run(t, "sweep", "--capital")
	require.NoError(t, err)
	assert.Contains(t, out, "10x")
}

func TestOutputFlagAliases(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "-o", "md", "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "| Baseline |")

	out, err = env.run(t, "--output", "markdown", "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "| Baseline |")
}

func TestScenarioCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "scenario", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Shift 10%")

	out, err = env.run(t, "scenario", "7")
	require.NoError(t, err)
	assert.Contains(t, out, report.Placeholder)

	_, err = env.run(t, "scenario", "ten")
	assert.ErrorContains(t, err, "invalid magnitude")
}

func TestCompareCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "-o", "csv", "compare", "--keys", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "+0.070")
	assert.Contains(t, out, "shift_sweep net Gini")
	assert.NotContains(t, out, "Baseline")
}

func TestCliffCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "cliff")
	require.NoError(t, err)
	assert.Contains(t, out, "$5,000 to $12,000")
	assert.Contains(t, out, "-$4,000")

	_, err = env.run(t, "cliff", "--series", "ltcg")
	assert.Error(t, err)

	_, err = env.run(t, "cliff", "--series", "wages")
	assert.ErrorContains(t, err, "unknown series")
}

func TestCatalogCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "-o", "csv", "catalog")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "gov.irs.credits.eitc.max"), strings.Index(out, ",snap,"))
	assert.Contains(t, out, "SNAP")
	assert.NotContains(t, out, "broken")

	out, err = env.run(t, "-o", "csv", "catalog", "--search", "EITC")
	require.NoError(t, err)
	assert.Contains(t, out, "gov.irs.credits.eitc.max")
	assert.NotContains(t, out, ",snap,")
}

func TestBibCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "bib")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "@article{psz2018,"), out)

	target := filepath.Join(t.TempDir(), "refs.bib")
	_, err = env.run(t, "bib", "--out", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestInequalityCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "-o", "csv", "inequality", "--file", filepath.Join(env.dataDir, "households.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "18.2%")
	assert.Contains(t, out, "Lorenz 50%,27.3%")
	assert.Contains(t, out, "Lorenz 90%,81.8%")

	negative := filepath.Join(t.TempDir(), "negative.csv")
	require.NoError(t, os.WriteFile(negative, []byte("value,weight\n10,1\n20,-1\n"), 0o644))
	_, err = env.run(t, "inequality", "--file", negative)
	assert.ErrorContains(t, err, "weight must not be negative")

	_, err = env.run(t, "inequality")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "export", "--microdata", filepath.Join(env.dataDir, "households.csv"))
	require.NoError(t, err)
	for _, name := range []string{
		"shift_sweep.json", "capital_sweep.json", "comparison.json", "cliff.json",
		"catalog.json", "references.json", "references.bib", "inequality.json",
	} {
		assert.FileExists(t, filepath.Join(env.exportDir, name))
	}

	var saved struct {
		Data metrics.DistributionSummary `json:"data"`
	}
	raw, err := os.ReadFile(filepath.Join(env.exportDir, "inequality.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &saved))
	require.Len(t, saved.Data.Lorenz, metrics.LorenzPoints)
	assert.InDelta(t, 150.0/550, saved.Data.Lorenz[5].Income, 1e-9)
}

func TestViewsCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "views")
	require.NoError(t, err)
	assert.Contains(t, out, "(0 rows)")

	_, err = env.run(t, "export", "--microdata", filepath.Join(env.dataDir, "households.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(env.exportDir, "stray.json"), []byte("not json"), 0o644))

	out, err = env.run(t, "-o", "csv", "views")
	require.NoError(t, err)
	for _, kind := range []string{"capital_sweep", "catalog", "cliff", "comparison", "inequality", "references", "shift_sweep"} {
		assert.Contains(t, out, kind+",")
	}
	assert.NotContains(t, out, "stray")
	assert.NotContains(t, out, "references.bib")
	assert.Less(t, strings.Index(out, "capital_sweep,"), strings.Index(out, "shift_sweep,"))

	out, err = env.run(t, "views", "inequality")
	require.NoError(t, err)
	var summary metrics.DistributionSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 10, summary.Observations)
	assert.Len(t, summary.Lorenz, metrics.LorenzPoints)

	_, err = env.run(t, "views", "missing")
	assert.ErrorIs(t, err, storage.ErrViewNotFound)
}

func TestExportCommand_ContinuesAfterFailure(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Remove(filepath.Join(env.dataDir, "uprating.csv")))

	_, err := env.run(t, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 6 views failed: catalog")

	assert.NoFileExists(t, filepath.Join(env.exportDir, "catalog.json"))
	assert.FileExists(t, filepath.Join(env.exportDir, "references.json"))
	assert.FileExists(t, filepath.Join(env.exportDir, "cliff.json"))
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "sweep"})
	cmd.SetOut(&bytes.Buffer{})
	assert.ErrorContains(t, cmd.Execute(), "failed to load config")

	_, err := env.run(t, "-o", "html", "sweep")
	assert.ErrorContains(t, err, "output.format")
}

func TestSourceName(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"data/shift_sweep.json", "shift_sweep"},
		{"https://example.org/capital_sweep.json?raw=1", "capital_sweep"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, sourceName(tt.source))
	}
}
