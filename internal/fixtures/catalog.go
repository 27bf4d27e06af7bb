package fixtures

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rewired-gh/incomeshift/internal/logger"
	"github.com/rewired-gh/incomeshift/internal/models"
)

// ErrMissingColumn is returned when the catalog header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// catalogColumns lists accepted header names per field, in priority order.
var catalogColumns = []struct {
	field      string
	candidates []string
}{
	{"category", []string{"category", "group", "section"}},
	{"kind", []string{"kind", "type"}},
	{"path", []string{"path", "name", "parameter", "variable"}},
	{"description", []string{"description", "label", "desc"}},
	{"method", []string{"method", "uprating", "uprating_method", "formula"}},
}

// SkippedRow records a catalog line that was dropped during parsing.
type SkippedRow struct {
	Line   int
	Reason string
}

// CatalogFile is the result of parsing a catalog: the valid rows in file
// order and the lines that were skipped.
type CatalogFile struct {
	Rows    []models.CatalogRow
	Skipped []SkippedRow
}

// ParseCatalog reads a delimited catalog with a header row. Columns are mapped
// by header name. A header without a required column is a load error; rows
// that are short, have an empty category or path, or have an unknown kind are
// skipped and reported in CatalogFile.Skipped.
func ParseCatalog(r io.Reader, comma rune) (*CatalogFile, error) {
	reader := csv.NewReader(r)
	if comma != 0 {
		reader.Comma = comma
	}
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty catalog file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(cleanCell(header[i]))
	}

	cols := make(map[string]int, len(catalogColumns))
	for _, c := range catalogColumns {
		idx := findColumn(header, c.candidates)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s (header: %s)", ErrMissingColumn, c.field, strings.Join(header, ", "))
		}
		cols[c.field] = idx
	}

	out := &CatalogFile{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				out.Skipped = append(out.Skipped, SkippedRow{Line: perr.Line, Reason: perr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		line, _ := reader.FieldPos(0)

		row, reason := catalogRow(record, cols)
		if reason != "" {
			out.Skipped = append(out.Skipped, SkippedRow{Line: line, Reason: reason})
			continue
		}
		out.Rows = append(out.Rows, row)
	}

	if len(out.Skipped) > 0 {
		logger.Warn("Skipped %d malformed catalog rows", len(out.Skipped))
	}
	return out, nil
}

func catalogRow(record []string, cols map[string]int) (models.CatalogRow, string) {
	get := func(field string) (string, bool) {
		i := cols[field]
		if i >= len(record) {
			return "", false
		}
		return cleanCell(record[i]), true
	}

	values := make(map[string]string, len(cols))
	for _, c := range catalogColumns {
		v, ok := get(c.field)
		if !ok {
			return models.CatalogRow{}, "missing column " + c.field
		}
		values[c.field] = v
	}

	kind, err := models.ParseKind(values["kind"])
	if err != nil {
		return models.CatalogRow{}, err.Error()
	}
	row := models.CatalogRow{
		Category:    values["category"],
		Kind:        kind,
		Path:        values["path"],
		Description: values["description"],
		Method:      values["method"],
	}
	if err := row.Validate(); err != nil {
		return models.CatalogRow{}, err.Error()
	}
	return row, ""
}

// LoadCatalog opens and parses a catalog fixture. A zero comma picks the
// delimiter from the extension: tab for .tsv, comma otherwise.
func (c *Client) LoadCatalog(ctx context.Context, source string, comma rune) (*CatalogFile, error) {
	if comma == 0 {
		comma = ','
		if Ext(source) == ".tsv" {
			comma = '\t'
		}
	}
	rc, err := c.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseCatalog(rc, comma)
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	v = strings.TrimSpace(v)
	return norm.NFC.String(v)
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if col == cand {
				return i
			}
		}
	}
	return -1
}
