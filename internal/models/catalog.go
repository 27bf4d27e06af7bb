package models

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags a catalog row as a policy parameter or a computed variable.
type Kind string

const (
	KindParameter Kind = "parameter"
	KindVariable  Kind = "variable"
)

// Kinds lists the valid kinds in display order.
var Kinds = []Kind{KindParameter, KindVariable}

// ParseKind converts a case-insensitive kind label into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parameter", "parameters", "param":
		return KindParameter, nil
	case "variable", "variables", "var":
		return KindVariable, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}

// CatalogRow is one entry of the uprating catalog.
type CatalogRow struct {
	Category    string `json:"category"`
	Kind        Kind   `json:"kind"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Method      string `json:"method"`
}

// Validate checks that all catalog row fields are valid
func (r *CatalogRow) Validate() error {
	if r.Category == "" {
		return errors.New("category must not be empty")
	}
	if r.Path == "" {
		return errors.New("path must not be empty")
	}
	if r.Kind != KindParameter && r.Kind != KindVariable {
		return fmt.Errorf("kind must be 'parameter' or 'variable', got %q", r.Kind)
	}
	return nil
}
