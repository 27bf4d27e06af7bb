package models

import (
	"errors"
	"fmt"
)

// Reference is the bibliographic metadata of one cited work.
type Reference struct {
	ID          string `json:"id" yaml:"id"`
	Type        string `json:"type" yaml:"type"` // article, book, techreport, misc, ...
	Author      string `json:"author" yaml:"author"`
	Year        int    `json:"year" yaml:"year"`
	Title       string `json:"title" yaml:"title"`
	Journal     string `json:"journal,omitempty" yaml:"journal,omitempty"`
	Volume      string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Number      string `json:"number,omitempty" yaml:"number,omitempty"`
	Pages       string `json:"pages,omitempty" yaml:"pages,omitempty"`
	Publisher   string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Institution string `json:"institution,omitempty" yaml:"institution,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Note        string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Validate checks that all reference fields are valid
func (r *Reference) Validate() error {
	if r.ID == "" {
		return errors.New("reference ID must not be empty")
	}
	if r.Type == "" {
		return errors.New("reference type must not be empty")
	}
	if r.Author == "" {
		return errors.New("reference author must not be empty")
	}
	if r.Title == "" {
		return errors.New("reference title must not be empty")
	}
	if r.Year < 0 {
		return errors.New("reference year must not be negative")
	}
	return nil
}

// ValidateReferences validates every reference and checks that IDs are unique.
func ValidateReferences(refs []Reference) error {
	seen := make(map[string]bool, len(refs))
	for i := range refs {
		if err := refs[i].Validate(); err != nil {
			return fmt.Errorf("reference %d: %w", i, err)
		}
		if seen[refs[i].ID] {
			return fmt.Errorf("duplicate reference ID: %s", refs[i].ID)
		}
		seen[refs[i].ID] = true
	}
	return nil
}
