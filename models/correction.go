package models

import (
	"time"

	"github.com/mmdatafocus/procurement_backend/gsheets"
)

// Decision flags recorded on a correction ledger entry.
const (
	DecisionCreditNote = "CREDIT_NOTE"
	DecisionOther      = "OTHER"
)

// CorrectionEntry is one row of the append-only correction ledger. Its
// order number suppresses every mismatch category for that order on the
// next reconciliation pass.
type CorrectionEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	LiftNumber   string    `json:"liftNumber"`
	OrderNumber  string    `json:"orderNumber"`
	DecisionFlag string    `json:"decisionFlag"`
	ReasonText   string    `json:"reasonText"`
	FirmName     string    `json:"firmName"`
}

var CorrectionColumns = []ColumnRule[CorrectionEntry]{
	{0, "timestamp", func(r *CorrectionEntry, c gsheets.Cell) { r.Timestamp, _ = c.Time() }},
	{1, "liftNumber", func(r *CorrectionEntry, c gsheets.Cell) { r.LiftNumber = c.String() }},
	{2, "orderNumber", func(r *CorrectionEntry, c gsheets.Cell) { r.OrderNumber = c.String() }},
	{3, "decisionFlag", func(r *CorrectionEntry, c gsheets.Cell) { r.DecisionFlag = c.String() }},
	{4, "reasonText", func(r *CorrectionEntry, c gsheets.Cell) { r.ReasonText = c.String() }},
	{5, "firmName", func(r *CorrectionEntry, c gsheets.Cell) { r.FirmName = c.String() }},
}

func (r *CorrectionEntry) Valid() bool {
	return r.OrderNumber != ""
}

func NormalizeCorrectionRows(rows []gsheets.Row) []CorrectionEntry {
	out := make([]CorrectionEntry, 0, len(rows))
	for _, row := range rows {
		rec := ApplyRules(row, CorrectionColumns)
		if !rec.Valid() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// LedgerRow renders the entry in the correction tab's column order for the
// insertCorrection mutation.
func (r CorrectionEntry) LedgerRow() []string {
	return []string{
		r.Timestamp.Format(time.RFC3339),
		r.LiftNumber,
		r.OrderNumber,
		r.DecisionFlag,
		r.ReasonText,
		r.FirmName,
	}
}
