// Package bibtex renders references as a BibTeX bibliography.
package bibtex

import (
	"strconv"
	"strings"

	"github.com/rewired-gh/incomeshift/internal/models"
)

type field struct {
	name  string
	value string
	raw   bool
}

// fields returns the non-empty fields of a reference in output order.
func fields(ref *models.Reference) []field {
	var year string
	if ref.Year > 0 {
		year = strconv.Itoa(ref.Year)
	}
	all := []field{
		{name: "author", value: ref.Author},
		{name: "title", value: ref.Title},
		{name: "journal", value: ref.Journal},
		{name: "year", value: year},
		{name: "volume", value: ref.Volume},
		{name: "number", value: ref.Number},
		{name: "pages", value: ref.Pages},
		{name: "publisher", value: ref.Publisher},
		{name: "institution", value: ref.Institution},
		{name: "url", value: ref.URL, raw: true},
		{name: "note", value: ref.Note},
	}

	out := all[:0]
	for _, f := range all {
		if strings.TrimSpace(f.value) != "" {
			out = append(out, f)
		}
	}
	return out
}

// Format renders one reference as a BibTeX entry.
func Format(ref models.Reference) string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(strings.ToLower(strings.TrimSpace(ref.Type)))
	b.WriteString("{")
	b.WriteString(ref.ID)

	for _, f := range fields(&ref) {
		value := strings.TrimSpace(f.value)
		if !f.raw {
			value = escape(value)
		}
		b.WriteString(",\n  ")
		b.WriteString(f.name)
		b.WriteString(" = {")
		b.WriteString(value)
		b.WriteString("}")
	}
	b.WriteString("\n}\n")
	return b.String()
}

// Export renders every reference, in order, separated by blank lines.
func Export(refs []models.Reference) string {
	blocks := make([]string, len(refs))
	for i, ref := range refs {
		blocks[i] = Format(ref)
	}
	return strings.Join(blocks, "\n")
}

// escape protects characters that LaTeX treats specially.
// URLs are written verbatim.
func escape(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '&', '%', '$', '#', '_', '{', '}':
			b.WriteByte('\\')
			b.WriteRune(char)
		case '~':
			b.WriteString(`\textasciitilde{}`)
		case '^':
			b.WriteString(`\textasciicircum{}`)
		case '\\':
			b.WriteString(`\textbackslash{}`)
		default:
			b.WriteRune(char)
		}
	}
	return b.String()
}
