package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rewired-gh/incomeshift/internal/models"
)

// DecodeSweep reads and validates a sweep fixture.
func DecodeSweep(r io.Reader) (*models.Sweep, error) {
	var sweep models.Sweep
	if err := json.NewDecoder(r).Decode(&sweep); err != nil {
		return nil, fmt.Errorf("failed to decode sweep: %w", err)
	}
	if err := sweep.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep: %w", err)
	}
	return &sweep, nil
}

// LoadSweep opens and decodes a sweep fixture.
func (c *Client) LoadSweep(ctx context.Context, source string) (*models.Sweep, error) {
	rc, err := c.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return DecodeSweep(rc)
}

// DecodeCliffDataset reads a cliff fixture: an object whose "household" key
// describes the example household and whose other keys are named series.
func DecodeCliffDataset(r io.Reader) (*models.CliffDataset, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode cliff data: %w", err)
	}

	d := &models.CliffDataset{Series: make(map[string][]models.SeriesPoint)}
	for key, msg := range raw {
		if key == "household" {
			if err := json.Unmarshal(msg, &d.Household); err != nil {
				return nil, fmt.Errorf("failed to decode household: %w", err)
			}
			continue
		}
		var points []models.SeriesPoint
		if err := json.Unmarshal(msg, &points); err != nil {
			return nil, fmt.Errorf("failed to decode series %s: %w", key, err)
		}
		d.Series[key] = points
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cliff data: %w", err)
	}
	return d, nil
}

// LoadCliffDataset opens and decodes a cliff fixture.
func (c *Client) LoadCliffDataset(ctx context.Context, source string) (*models.CliffDataset, error) {
	rc, err := c.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return DecodeCliffDataset(rc)
}
