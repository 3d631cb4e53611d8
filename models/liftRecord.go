package models

import (
	"time"

	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/utils"
	"github.com/shopspring/decimal"
)

// LiftRecord is one physical material-receipt event from the lift tab.
// Only the fields the reconciliation engine compares are typed; the
// remaining descriptive/audit columns ride along in Raw.
type LiftRecord struct {
	LiftDate               time.Time       `json:"liftDate"`
	LiftNumber             string          `json:"liftNumber"`
	FirmName               string          `json:"firmName"`
	OrderNumber            string          `json:"orderNumber"`
	VendorName             string          `json:"vendorName"`
	Material               string          `json:"material"`
	MaterialRate           decimal.Decimal `json:"materialRate"`
	LiftedQuantity         decimal.Decimal `json:"liftedQuantity"`
	ActualReceivedQuantity decimal.Decimal `json:"actualReceivedQuantity"`
	AluminaPercent         decimal.Decimal `json:"aluminaPercent"`
	IronPercent            decimal.Decimal `json:"ironPercent"`
	ApValue                decimal.Decimal `json:"apValue"`
	TransporterName        string          `json:"transporterName"`
	TruckNumber            string          `json:"truckNumber"`
	BiltyNumber            string          `json:"biltyNumber"`
	BiltyImageURL          string          `json:"biltyImageUrl"`

	Raw gsheets.Row `json:"-"`
}

var LiftColumns = []ColumnRule[LiftRecord]{
	{0, "liftDate", func(r *LiftRecord, c gsheets.Cell) { r.LiftDate, _ = c.Time() }},
	{1, "liftNumber", func(r *LiftRecord, c gsheets.Cell) { r.LiftNumber = c.String() }},
	{2, "firmName", func(r *LiftRecord, c gsheets.Cell) { r.FirmName = c.String() }},
	{3, "orderNumber", func(r *LiftRecord, c gsheets.Cell) { r.OrderNumber = c.String() }},
	{4, "vendorName", func(r *LiftRecord, c gsheets.Cell) { r.VendorName = c.String() }},
	{5, "material", func(r *LiftRecord, c gsheets.Cell) { r.Material = c.String() }},
	{6, "materialRate", func(r *LiftRecord, c gsheets.Cell) { r.MaterialRate = utils.ParseDecimal(c.String()) }},
	{7, "liftedQuantity", func(r *LiftRecord, c gsheets.Cell) { r.LiftedQuantity = utils.ParseDecimal(c.String()) }},
	{8, "actualReceivedQuantity", func(r *LiftRecord, c gsheets.Cell) { r.ActualReceivedQuantity = utils.ParseDecimal(c.String()) }},
	{9, "aluminaPercent", func(r *LiftRecord, c gsheets.Cell) { r.AluminaPercent = utils.ParseDecimal(c.String()) }},
	{10, "ironPercent", func(r *LiftRecord, c gsheets.Cell) { r.IronPercent = utils.ParseDecimal(c.String()) }},
	{11, "apValue", func(r *LiftRecord, c gsheets.Cell) { r.ApValue = utils.ParseDecimal(c.String()) }},
	{12, "transporterName", func(r *LiftRecord, c gsheets.Cell) { r.TransporterName = c.String() }},
	{13, "truckNumber", func(r *LiftRecord, c gsheets.Cell) { r.TruckNumber = c.String() }},
	{14, "biltyNumber", func(r *LiftRecord, c gsheets.Cell) { r.BiltyNumber = c.String() }},
	{15, "biltyImageUrl", func(r *LiftRecord, c gsheets.Cell) { r.BiltyImageURL = c.String() }},
}

// Valid is the data-quality filter: header remnants, blank trailers and
// half-entered drafts have no lift number and are dropped silently.
func (r *LiftRecord) Valid() bool {
	return r.LiftNumber != ""
}

func NormalizeLiftRows(rows []gsheets.Row) []LiftRecord {
	out := make([]LiftRecord, 0, len(rows))
	for _, row := range rows {
		rec := ApplyRules(row, LiftColumns)
		rec.Raw = row
		if !rec.Valid() {
			continue
		}
		out = append(out, rec)
	}
	return out
}
