package models

import (
	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/utils"
	"github.com/shopspring/decimal"
)

// MaterialReference holds the expected property specification for one raw
// material. Material names join case-insensitively against lift records.
type MaterialReference struct {
	MaterialName            string          `json:"materialName"`
	ReferenceAluminaPercent decimal.Decimal `json:"referenceAluminaPercent"`
	ReferenceIronPercent    decimal.Decimal `json:"referenceIronPercent"`
	ReferenceApValue        decimal.Decimal `json:"referenceApValue"`
}

var ReferenceColumns = []ColumnRule[MaterialReference]{
	{0, "materialName", func(r *MaterialReference, c gsheets.Cell) { r.MaterialName = c.String() }},
	{1, "referenceAluminaPercent", func(r *MaterialReference, c gsheets.Cell) { r.ReferenceAluminaPercent = utils.ParseDecimal(c.String()) }},
	{2, "referenceIronPercent", func(r *MaterialReference, c gsheets.Cell) { r.ReferenceIronPercent = utils.ParseDecimal(c.String()) }},
	{3, "referenceApValue", func(r *MaterialReference, c gsheets.Cell) { r.ReferenceApValue = utils.ParseDecimal(c.String()) }},
}

func (r *MaterialReference) Valid() bool {
	return r.MaterialName != ""
}

func NormalizeReferenceRows(rows []gsheets.Row) []MaterialReference {
	out := make([]MaterialReference, 0, len(rows))
	for _, row := range rows {
		rec := ApplyRules(row, ReferenceColumns)
		if !rec.Valid() {
			continue
		}
		out = append(out, rec)
	}
	return out
}
