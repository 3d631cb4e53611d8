package utils

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses a sheet cell into a decimal, locale-agnostic.
// Thousands separators are stripped; anything unparseable (including blank)
// becomes 0 so bad upstream data never reaches arithmetic as an error.
func ParseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NormalizeKey canonicalizes a natural key for joining: trimmed, lower-cased.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func UniqueSlice[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SortedKeys returns the set's members sorted, for stable facet output.
func SortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func SplitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
