package gsheets

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The gviz endpoint wraps its JSON payload in a JSONP call:
//
//	/*O_o*/
//	google.visualization.Query.setResponse({...});
const envelopeMarker = "setResponse("

type gvizResponse struct {
	Table gvizTable `json:"table"`
}

type gvizTable struct {
	Cols []gvizCol  `json:"cols"`
	Rows []*gvizRow `json:"rows"`
}

type gvizCol struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type gvizRow struct {
	C []*gvizCell `json:"c"`
}

type gvizCell struct {
	V any    `json:"v"`
	F string `json:"f"`
}

// Dates come over the wire as the literal string Date(year, zeroBasedMonth,
// day[, hour, minute, second]).
var dateLiteralRe = regexp.MustCompile(`^Date\((\d+),\s*(\d+),\s*(\d+)(?:,\s*(\d+),\s*(\d+),\s*(\d+))?\)$`)

var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseGvizBody strips the JSONP envelope and decodes the embedded table
// into rows. A table with zero rows is a valid empty result.
func ParseGvizBody(body []byte) ([]Row, error) {
	s := string(body)
	start := strings.Index(s, envelopeMarker)
	end := strings.LastIndex(s, ")")
	if start < 0 || end <= start+len(envelopeMarker) {
		return nil, fmt.Errorf("%w: missing envelope markers", ErrMalformedResponse)
	}
	payload := s[start+len(envelopeMarker) : end]

	var parsed gvizResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.Table.Cols == nil && parsed.Table.Rows == nil {
		return nil, fmt.Errorf("%w: payload has no table", ErrMalformedResponse)
	}

	rows := make([]Row, 0, len(parsed.Table.Rows))
	for _, raw := range parsed.Table.Rows {
		if raw == nil {
			continue
		}
		row := make(Row, len(raw.C))
		for i, cell := range raw.C {
			if cell == nil {
				continue
			}
			row[i] = Cell{Value: normalizeValue(cell.V), Formatted: cell.F}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeValue converts Date(...) literals into time.Time. Dates are
// advisory display data: a string that fails both the literal pattern and
// the generic layouts passes through unchanged, never an error.
func normalizeValue(v any) any {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "Date(") {
		return v
	}
	if m := dateLiteralRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		var hour, minute, sec int
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			minute, _ = strconv.Atoi(m[5])
			sec, _ = strconv.Atoi(m[6])
		}
		// gviz months are zero-based.
		return time.Date(year, time.Month(month+1), day, hour, minute, sec, 0, time.UTC)
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "Date("), ")")
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, inner); err == nil {
			return t
		}
	}
	return s
}
