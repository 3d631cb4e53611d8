package gsheets

import (
	"errors"
	"strconv"
	"time"
)

var (
	// ErrSourceUnavailable covers transport failures and non-2xx responses
	// from the gviz endpoint.
	ErrSourceUnavailable = errors.New("sheet source unavailable")
	// ErrMalformedResponse covers a missing JSONP envelope or an embedded
	// payload that fails to parse.
	ErrMalformedResponse = errors.New("malformed sheet response")
)

// Cell is one normalized gviz cell: the raw value plus the optional
// display-formatted string the sheet carries alongside it.
type Cell struct {
	Value     any    `json:"v"`
	Formatted string `json:"f,omitempty"`
}

// Row is an ordered sequence of cells, indexed by column offset.
type Row []Cell

// Cell returns the cell at offset i, or a zero Cell when the row is short.
// Sheet rows routinely truncate at the last non-empty column.
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// String renders the cell as display text: raw strings as-is, numbers
// without locale formatting, dates via the sheet's formatted value when
// present. A nil cell is the empty-string sentinel.
func (c Cell) String() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if c.Formatted != "" {
			return c.Formatted
		}
		return v.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Time returns the cell's date value when normalization produced one.
func (c Cell) Time() (time.Time, bool) {
	t, ok := c.Value.(time.Time)
	return t, ok
}

// IsBlank reports an absent or empty cell.
func (c Cell) IsBlank() bool {
	return c.String() == ""
}

// SourceError is a non-fatal per-tab failure surfaced alongside a
// reconciliation result. A failed tab contributes an empty record set.
type SourceError struct {
	Tab     string `json:"tab"`
	Message string `json:"message"`
}
