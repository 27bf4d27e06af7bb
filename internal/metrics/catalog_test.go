package metrics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/incomeshift/internal/models"
)

func catalogRows() []models.CatalogRow {
	return []models.CatalogRow{
		{Category: "gov.usda.snap", Kind: models.KindParameter, Path: "gov.usda.snap.income.deductions.standard", Description: "SNAP standard deduction", Method: "CPI-U"},
		{Category: "gov.irs", Kind: models.KindParameter, Path: "gov.irs.credits.eitc.phase_out.start", Description: "EITC phase-out start", Method: "Chained CPI-U"},
		{Category: "gov.usda.snap", Kind: models.KindVariable, Path: "snap", Description: "SNAP benefit amount", Method: "formula"},
		{Category: "gov.ssa", Kind: models.KindParameter, Path: "gov.ssa.ssi.amount.individual", Description: "SSI federal benefit rate", Method: "Social Security COLA"},
		{Category: "gov.irs", Kind: models.KindVariable, Path: "eitc", Description: "Earned income tax credit", Method: "formula"},
		{Category: "gov.ssa", Kind: models.KindParameter, Path: "gov.ssa.ssi.income.exclusions.general", Description: "SSI general income exclusion", Method: "none"},
		{Category: "gov.hhs", Kind: models.KindParameter, Path: "gov.hhs.fpg.first_person", Description: "Federal poverty guideline", Method: "CPI-U"},
		{Category: "gov.irs", Kind: models.KindParameter, Path: "gov.irs.credits.eitc.investment_income_limit", Description: "EITC investment income limit", Method: "Chained CPI-U"},
	}
}

func TestGroupAndFilter_Grouping(t *testing.T) {
	rows := catalogRows()
	view := GroupAndFilter(rows, "", "")

	assert.Equal(t, []string{"gov.usda.snap", "gov.irs", "gov.ssa", "gov.hhs"}, view.Names())
	assert.Equal(t, len(rows), view.TotalRows())

	irs, ok := view.Group("gov.irs")
	require.True(t, ok)
	require.Len(t, irs.Rows, 3)
	assert.Equal(t, "gov.irs.credits.eitc.phase_out.start", irs.Rows[0].Path)
	assert.Equal(t, "eitc", irs.Rows[1].Path)
	assert.Len(t, irs.ByKind[models.KindParameter], 2)
	assert.Len(t, irs.ByKind[models.KindVariable], 1)
}

func TestGroupAndFilter_Idempotent(t *testing.T) {
	rows := catalogRows()
	first := GroupAndFilter(rows, "", "")
	second := GroupAndFilter(rows, "", "")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("GroupAndFilter not deterministic (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(catalogRows(), rows); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestGroupAndFilter_Category(t *testing.T) {
	rows := catalogRows()
	view := GroupAndFilter(rows, "gov.ssa", "")

	require.Equal(t, []string{"gov.ssa"}, view.Names())
	var want []models.CatalogRow
	for _, r := range rows {
		if r.Category == "gov.ssa" {
			want = append(want, r)
		}
	}
	if diff := cmp.Diff(want, view.Groups[0].Rows); diff != "" {
		t.Errorf("category rows mismatch (-want +got):\n%s", diff)
	}

	missing := GroupAndFilter(rows, "gov.treasury", "")
	assert.Empty(t, missing.Groups)
}

func TestGroupAndFilter_Search(t *testing.T) {
	rows := catalogRows()

	tests := []struct {
		name      string
		category  string
		search    string
		wantNames []string
		wantRows  int
	}{
		{"matches path", "", "ssi.amount", []string{"gov.ssa"}, 1},
		{"matches description case-insensitively", "", "eitc", []string{"gov.irs"}, 3},
		{"matches method", "", "cpi-u", []string{"gov.usda.snap", "gov.irs", "gov.hhs"}, 4},
		{"no match drops everything", "", "wealth tax", nil, 0},
		{"category and search", "gov.irs", "FORMULA", []string{"gov.irs"}, 1},
		{"category and search miss", "gov.ssa", "eitc", nil, 0},
		{"uppercase term", "", "SOCIAL SECURITY", []string{"gov.ssa"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := GroupAndFilter(rows, tt.category, tt.search)
			if len(tt.wantNames) == 0 {
				assert.Empty(t, view.Names())
			} else {
				assert.Equal(t, tt.wantNames, view.Names())
			}
			assert.Equal(t, tt.wantRows, view.TotalRows())
		})
	}
}

func TestGroupAndFilter_SearchRecomputesKinds(t *testing.T) {
	view := GroupAndFilter(catalogRows(), "", "formula")
	irs, ok := view.Group("gov.irs")
	require.True(t, ok)
	assert.Len(t, irs.ByKind[models.KindVariable], 1)
	assert.Empty(t, irs.ByKind[models.KindParameter])
}

func TestGroupAndFilter_SearchNarrows(t *testing.T) {
	rows := catalogRows()
	unfiltered := GroupAndFilter(rows, "", "")

	for _, term := range []string{"e", "gov", "snap", "SSI", "zzz", "."} {
		filtered := GroupAndFilter(rows, "", term)
		assert.LessOrEqual(t, filtered.TotalRows(), unfiltered.TotalRows(), "term %q", term)

		// Every kept group is a subsequence of its unfiltered group, and
		// groups keep their unfiltered order.
		last := -1
		for _, g := range filtered.Groups {
			pos := -1
			for i, name := range unfiltered.Names() {
				if name == g.Name {
					pos = i
				}
			}
			require.GreaterOrEqual(t, pos, 0, "term %q: unknown group %s", term, g.Name)
			assert.Greater(t, pos, last, "term %q: group %s out of order", term, g.Name)
			last = pos

			all := unfiltered.Groups[pos]
			assert.Equal(t, len(all.Rows), g.Total)
			next := 0
			for _, r := range g.Rows {
				for next < len(all.Rows) && !cmp.Equal(all.Rows[next], r) {
					next++
				}
				require.Less(t, next, len(all.Rows), "term %q: row %s missing or out of order", term, r.Path)
				next++
			}
		}
	}

	e, ok := GroupAndFilter(rows, "", "e").Group("gov.irs")
	require.True(t, ok)
	assert.Equal(t, []string{"gov.irs.credits.eitc.phase_out.start", "eitc", "gov.irs.credits.eitc.investment_income_limit"}, paths(e.Rows))
}

func paths(rows []models.CatalogRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Path
	}
	return out
}

func TestSortCategories(t *testing.T) {
	rows := catalogRows()
	view := GroupAndFilter(rows, "", "")

	t.Run("priority first then count", func(t *testing.T) {
		sorted := SortCategories(view, "gov.irs")
		names := make([]string, len(sorted))
		for i, g := range sorted {
			names[i] = g.Name
		}
		// snap and ssa both have 2 rows; snap was seen first
		assert.Equal(t, []string{"gov.irs", "gov.usda.snap", "gov.ssa", "gov.hhs"}, names)
	})

	t.Run("priority overrides count", func(t *testing.T) {
		sorted := SortCategories(view, "hhs")
		assert.Equal(t, "gov.hhs", sorted[0].Name)
	})

	t.Run("empty marker", func(t *testing.T) {
		sorted := SortCategories(view, "")
		names := make([]string, len(sorted))
		for i, g := range sorted {
			names[i] = g.Name
		}
		assert.Equal(t, []string{"gov.irs", "gov.usda.snap", "gov.ssa", "gov.hhs"}, names)
	})

	t.Run("equal counts keep encounter order", func(t *testing.T) {
		equal := GroupAndFilter([]models.CatalogRow{
			{Category: "b", Kind: models.KindParameter, Path: "b1"},
			{Category: "a", Kind: models.KindParameter, Path: "a1"},
			{Category: "c", Kind: models.KindParameter, Path: "c1"},
		}, "", "")
		sorted := SortCategories(equal, "")
		assert.Equal(t, "b", sorted[0].Name)
		assert.Equal(t, "a", sorted[1].Name)
		assert.Equal(t, "c", sorted[2].Name)
	})

	t.Run("search keeps unfiltered order", func(t *testing.T) {
		catalog := []models.CatalogRow{
			{Category: "big", Kind: models.KindParameter, Path: "big.rate", Description: "rate"},
			{Category: "big", Kind: models.KindParameter, Path: "big.other"},
			{Category: "big", Kind: models.KindParameter, Path: "big.more"},
			{Category: "small", Kind: models.KindParameter, Path: "small.rate", Description: "rate"},
			{Category: "small", Kind: models.KindVariable, Path: "small.rate_var"},
		}
		filtered := GroupAndFilter(catalog, "", "rate")
		big, ok := filtered.Group("big")
		require.True(t, ok)
		require.Len(t, big.Rows, 1)
		assert.Equal(t, 3, big.Total)

		for _, v := range []CatalogView{GroupAndFilter(catalog, "", ""), filtered} {
			sorted := SortCategories(v, "")
			assert.Equal(t, "big", sorted[0].Name)
			assert.Equal(t, "small", sorted[1].Name)
		}
	})

	t.Run("does not reorder view", func(t *testing.T) {
		_ = SortCategories(view, "gov.irs")
		assert.Equal(t, "gov.usda.snap", view.Groups[0].Name)
	})
}

func TestDisplayName(t *testing.T) {
	renames := map[string]string{"gov.irs": "Internal Revenue Service"}

	assert.Equal(t, "Internal Revenue Service", DisplayName("gov.irs", renames))
	assert.Equal(t, "SNAP", DisplayName("gov.usda.snap", renames))
	assert.Equal(t, "gov.treasury", DisplayName("gov.treasury", renames))
	assert.Equal(t, "gov.treasury", DisplayName("gov.treasury", nil))
}
