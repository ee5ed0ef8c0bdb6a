package shape

import (
	"strings"
	"unicode"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// Column labels used when presenting a filter comparison.
const (
	ColumnLineContent          = "Line_Content"
	ColumnReferenceLineContent = "Reference_Line_Content"
	LabelRefactoredLine        = "Refactored ACL Line"
	LabelOriginalLine          = "Original ACL Line"
)

// FilterComparisonLabels maps compareFilters columns to caller-facing labels.
// The subject snapshot holds the refactored text, the reference the original.
func FilterComparisonLabels() map[string]string {
	return map[string]string{
		ColumnLineContent:          LabelRefactoredLine,
		ColumnReferenceLineContent: LabelOriginalLine,
	}
}

// Rename returns a copy of r with columns renamed per mapping.
// Columns absent from mapping pass through unchanged.
func Rename(r *domain.Result, mapping map[string]string) *domain.Result {
	out := r.Clone()
	for i, col := range out.Columns {
		if renamed, ok := mapping[col]; ok {
			out.Columns[i] = renamed
		}
	}
	return out
}

// Project returns a copy of r holding only the named columns, in the given
// order. Unknown names are skipped.
func Project(r *domain.Result, columns ...string) *domain.Result {
	if r == nil {
		return domain.EmptyResult()
	}

	indices := make([]int, 0, len(columns))
	names := make([]string, 0, len(columns))
	for _, name := range columns {
		if idx := r.ColumnIndex(name); idx >= 0 {
			indices = append(indices, idx)
			names = append(names, name)
		}
	}

	out := domain.NewResult(names...)
	for _, row := range r.Rows {
		cells := make([]any, len(indices))
		for i, idx := range indices {
			if idx < len(row) {
				cells[i] = row[idx]
			}
		}
		out.AddRow(cells...)
	}
	return out
}

// Sanitize returns a copy of r safe for terminal and UI rendering:
// string cells lose control characters and surrounding whitespace, and
// short rows are padded with nil to the column count.
func Sanitize(r *domain.Result) *domain.Result {
	out := r.Clone()
	width := len(out.Columns)
	for i, row := range out.Rows {
		if len(row) < width {
			padded := make([]any, width)
			copy(padded, row)
			row = padded
			out.Rows[i] = row
		}
		for j, cell := range row {
			row[j] = sanitizeCell(cell)
		}
	}
	return out
}

func sanitizeCell(v any) any {
	switch c := v.(type) {
	case string:
		return sanitizeString(c)
	case []any:
		items := make([]any, len(c))
		for i, item := range c {
			items[i] = sanitizeCell(item)
		}
		return items
	case map[string]any:
		m := make(map[string]any, len(c))
		for k, item := range c {
			m[k] = sanitizeCell(item)
		}
		return m
	default:
		return v
	}
}

func sanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
