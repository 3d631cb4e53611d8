package models

import (
	"strings"

	"github.com/mmdatafocus/procurement_backend/gsheets"
)

// FirmWildcard is the tenant scope that sees every firm's records.
const FirmWildcard = "all"

// ColumnRule binds one column offset of a tab to one field of a record.
// The per-tab mapping is a plain data table so it can be tested without the
// fetch/parse machinery.
type ColumnRule[T any] struct {
	Offset int
	Name   string
	Assign func(rec *T, cell gsheets.Cell)
}

// ApplyRules maps one raw row into a record. Absent cells arrive as blank
// cells, so coercion fallbacks in the Assign funcs see "" and 0, never nil.
func ApplyRules[T any](row gsheets.Row, rules []ColumnRule[T]) T {
	var rec T
	for _, rule := range rules {
		rule.Assign(&rec, row.Cell(rule.Offset))
	}
	return rec
}

// ScopeToFirm drops every record whose firm does not case-insensitively
// match the user's firm. The wildcard scope passes everything. Scoping runs
// before any join so cross-firm rows can never leak in as join partners.
func ScopeToFirm[T any](records []T, firmName string, firmOf func(*T) string) []T {
	if strings.EqualFold(strings.TrimSpace(firmName), FirmWildcard) {
		return records
	}
	out := make([]T, 0, len(records))
	for i := range records {
		if strings.EqualFold(strings.TrimSpace(firmOf(&records[i])), strings.TrimSpace(firmName)) {
			out = append(out, records[i])
		}
	}
	return out
}
