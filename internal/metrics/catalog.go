package metrics

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/rewired-gh/incomeshift/internal/models"
)

// CategoryGroup is the rows of one catalog category, in input order,
// with a sub-partition by kind. Total is the category's row count before
// any search narrowed Rows.
type CategoryGroup struct {
	Name   string
	Rows   []models.CatalogRow
	ByKind map[models.Kind][]models.CatalogRow
	Total  int
}

// CatalogView is an ordered mapping from category name to its rows.
// Groups appear in the order their category was first seen.
type CatalogView struct {
	Groups []CategoryGroup
}

// Group returns the group with the given name.
func (v CatalogView) Group(name string) (CategoryGroup, bool) {
	for _, g := range v.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return CategoryGroup{}, false
}

// Names returns the category names in view order.
func (v CatalogView) Names() []string {
	names := make([]string, len(v.Groups))
	for i, g := range v.Groups {
		names[i] = g.Name
	}
	return names
}

// TotalRows returns the number of rows across all groups.
func (v CatalogView) TotalRows() int {
	n := 0
	for _, g := range v.Groups {
		n += len(g.Rows)
	}
	return n
}

func newGroup(name string, rows []models.CatalogRow, total int) CategoryGroup {
	g := CategoryGroup{
		Name:   name,
		Rows:   rows,
		ByKind: make(map[models.Kind][]models.CatalogRow),
		Total:  total,
	}
	for _, r := range rows {
		g.ByKind[r.Kind] = append(g.ByKind[r.Kind], r)
	}
	return g
}

// GroupAndFilter partitions rows by category and optionally narrows the
// result to one category and to rows matching a search term.
//
// The search is a case-insensitive substring match against path,
// description and method; a match in any one field keeps the row.
// Categories left without rows are dropped. Empty category or search
// arguments mean no restriction.
func GroupAndFilter(rows []models.CatalogRow, category, search string) CatalogView {
	var order []string
	byCategory := make(map[string][]models.CatalogRow)
	for _, r := range rows {
		if _, ok := byCategory[r.Category]; !ok {
			order = append(order, r.Category)
		}
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	if category != "" {
		if _, ok := byCategory[category]; !ok {
			return CatalogView{}
		}
		order = []string{category}
	}

	var match func(models.CatalogRow) bool
	if search != "" {
		fold := cases.Fold()
		term := fold.String(search)
		match = func(r models.CatalogRow) bool {
			return strings.Contains(fold.String(r.Path), term) ||
				strings.Contains(fold.String(r.Description), term) ||
				strings.Contains(fold.String(r.Method), term)
		}
	}

	view := CatalogView{Groups: make([]CategoryGroup, 0, len(order))}
	for _, name := range order {
		groupRows := byCategory[name]
		total := len(groupRows)
		if match != nil {
			kept := make([]models.CatalogRow, 0, len(groupRows))
			for _, r := range groupRows {
				if match(r) {
					kept = append(kept, r)
				}
			}
			if len(kept) == 0 {
				continue
			}
			groupRows = kept
		}
		view.Groups = append(view.Groups, newGroup(name, groupRows, total))
	}
	return view
}

// SortCategories orders groups for display: categories whose name contains
// priorityMarker come first, then by total row count descending, so a search
// never reshuffles categories. Equal groups keep their encounter order. An
// empty marker disables the priority rule.
func SortCategories(view CatalogView, priorityMarker string) []CategoryGroup {
	sorted := make([]CategoryGroup, len(view.Groups))
	copy(sorted, view.Groups)

	isPriority := func(g CategoryGroup) bool {
		return priorityMarker != "" && strings.Contains(g.Name, priorityMarker)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := isPriority(sorted[i]), isPriority(sorted[j])
		if pi != pj {
			return pi
		}
		return sorted[i].Total > sorted[j].Total
	})
	return sorted
}

// DefaultDisplayNames maps catalog category keys to readable labels.
var DefaultDisplayNames = map[string]string{
	"gov.irs":       "IRS (federal income tax)",
	"gov.ssa":       "Social Security",
	"gov.usda.snap": "SNAP",
	"gov.hhs":       "Health and Human Services",
	"gov.states":    "State programs",
	"gov.contrib":   "Contributed reforms",
}

// DisplayName returns the rename of category, falling back to
// DefaultDisplayNames and then to the category itself.
func DisplayName(category string, renames map[string]string) string {
	if name, ok := renames[category]; ok {
		return name
	}
	if name, ok := DefaultDisplayNames[category]; ok {
		return name
	}
	return category
}
