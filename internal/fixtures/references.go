package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/incomeshift/internal/models"
)

// DecodeReferences reads a YAML list of references and validates it.
func DecodeReferences(r io.Reader) ([]models.Reference, error) {
	var refs []models.Reference
	if err := yaml.NewDecoder(r).Decode(&refs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode references: %w", err)
	}
	if err := models.ValidateReferences(refs); err != nil {
		return nil, fmt.Errorf("invalid references: %w", err)
	}
	return refs, nil
}

// LoadReferences opens and decodes a reference fixture.
func (c *Client) LoadReferences(ctx context.Context, source string) ([]models.Reference, error) {
	rc, err := c.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return DecodeReferences(rc)
}
