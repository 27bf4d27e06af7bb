package fixtures

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	valueColumns  = []string{"value", "income", "household_net_income", "net_income"}
	weightColumns = []string{"weight", "household_weight"}
)

// Microdata is a weighted distribution of household values.
type Microdata struct {
	Values  []float64
	Weights []float64
}

// ParseMicrodata reads a CSV with a value column and an optional weight
// column. Without a weight column every observation has weight 1. A
// non-numeric cell fails the whole file.
func ParseMicrodata(r io.Reader) (*Microdata, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty microdata file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read microdata header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(cleanCell(header[i]))
	}
	vi := findColumn(header, valueColumns)
	if vi < 0 {
		return nil, fmt.Errorf("%w: value", ErrMissingColumn)
	}
	wi := findColumn(header, weightColumns)

	md := &Microdata{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read microdata: %w", err)
		}
		line, _ := reader.FieldPos(0)

		value, err := parseCell(record, vi)
		if err != nil {
			return nil, fmt.Errorf("line %d: value: %w", line, err)
		}
		weight := 1.0
		if wi >= 0 {
			if weight, err = parseCell(record, wi); err != nil {
				return nil, fmt.Errorf("line %d: weight: %w", line, err)
			}
			if weight < 0 {
				return nil, fmt.Errorf("line %d: weight must not be negative, got %v", line, weight)
			}
		}
		md.Values = append(md.Values, value)
		md.Weights = append(md.Weights, weight)
	}
	return md, nil
}

// LoadMicrodata opens and parses a microdata fixture.
func (c *Client) LoadMicrodata(ctx context.Context, source string) (*Microdata, error) {
	rc, err := c.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseMicrodata(rc)
}

func parseCell(record []string, i int) (float64, error) {
	if i >= len(record) {
		return 0, errors.New("missing cell")
	}
	return strconv.ParseFloat(cleanCell(record[i]), 64)
}
