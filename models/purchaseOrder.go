package models

import (
	"time"

	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/utils"
	"github.com/shopspring/decimal"
)

// PurchaseOrder is one approved order line from the PO tab. The order
// number is its natural key but the sheet does not guarantee uniqueness;
// joins are first-seen-wins (see workflow.buildOrderIndex).
type PurchaseOrder struct {
	OrderDate     time.Time       `json:"orderDate"`
	OrderNumber   string          `json:"orderNumber"`
	FirmName      string          `json:"firmName"`
	VendorName    string          `json:"vendorName"`
	Material      string          `json:"material"`
	Rate          decimal.Decimal `json:"rate"`
	Quantity      decimal.Decimal `json:"quantity"`
	ApprovalState string          `json:"approvalState"`
	PaymentTerms  string          `json:"paymentTerms"`

	Raw gsheets.Row `json:"-"`
}

var OrderColumns = []ColumnRule[PurchaseOrder]{
	{0, "orderDate", func(r *PurchaseOrder, c gsheets.Cell) { r.OrderDate, _ = c.Time() }},
	{1, "orderNumber", func(r *PurchaseOrder, c gsheets.Cell) { r.OrderNumber = c.String() }},
	{2, "firmName", func(r *PurchaseOrder, c gsheets.Cell) { r.FirmName = c.String() }},
	{3, "vendorName", func(r *PurchaseOrder, c gsheets.Cell) { r.VendorName = c.String() }},
	{4, "material", func(r *PurchaseOrder, c gsheets.Cell) { r.Material = c.String() }},
	{5, "rate", func(r *PurchaseOrder, c gsheets.Cell) { r.Rate = utils.ParseDecimal(c.String()) }},
	{6, "quantity", func(r *PurchaseOrder, c gsheets.Cell) { r.Quantity = utils.ParseDecimal(c.String()) }},
	{7, "approvalState", func(r *PurchaseOrder, c gsheets.Cell) { r.ApprovalState = c.String() }},
	{8, "paymentTerms", func(r *PurchaseOrder, c gsheets.Cell) { r.PaymentTerms = c.String() }},
}

func (r *PurchaseOrder) Valid() bool {
	return r.OrderNumber != ""
}

func NormalizeOrderRows(rows []gsheets.Row) []PurchaseOrder {
	out := make([]PurchaseOrder, 0, len(rows))
	for _, row := range rows {
		rec := ApplyRules(row, OrderColumns)
		rec.Raw = row
		if !rec.Valid() {
			continue
		}
		out = append(out, rec)
	}
	return out
}
