package reports

import (
	"testing"

	"github.com/mmdatafocus/procurement_backend/models"
	"github.com/mmdatafocus/procurement_backend/workflow"
	"github.com/shopspring/decimal"
)

func sampleResult() *workflow.ReconResult {
	lift := models.LiftRecord{
		LiftNumber:   "LF-001",
		OrderNumber:  "PO-1",
		VendorName:   "ACME MINERALS",
		Material:     "Bauxite",
		MaterialRate: decimal.RequireFromString("105.00"),
	}
	order := models.PurchaseOrder{OrderNumber: "PO-1", Rate: decimal.RequireFromString("100.00")}
	return &workflow.ReconResult{
		FirmName: "GOYAL TRADERS",
		Rate: []workflow.RateMismatch{
			{Lift: lift, Order: order, RateDifference: decimal.RequireFromString("5.00")},
		},
		Quantity: []workflow.QuantityMismatch{},
		Material: []workflow.MaterialMismatch{},
		Stats: workflow.PurchaseStats{
			TotalLifts:       3,
			TotalOrders:      2,
			TotalLiftedValue: decimal.RequireFromString("3150.00"),
			Vendors: []workflow.VendorStat{
				{VendorName: "ACME MINERALS", LiftCount: 3, LiftedValue: decimal.RequireFromString("3150.00")},
			},
		},
	}
}

func TestBuildDashboard(t *testing.T) {
	d := BuildDashboard(sampleResult())
	if d.FirmName != "GOYAL TRADERS" {
		t.Fatalf("unexpected firm: %q", d.FirmName)
	}
	if d.RateMismatchCount != 1 || d.QuantityMismatchCount != 0 || d.MaterialMismatchCount != 0 {
		t.Fatalf("unexpected counts: %+v", d)
	}
	if d.TotalLifts != 3 || !d.TotalLiftedValue.Equal(decimal.RequireFromString("3150.00")) {
		t.Fatalf("stats not carried through: %+v", d)
	}
	if len(d.Vendors) != 1 {
		t.Fatalf("vendors not carried through: %+v", d.Vendors)
	}
}

func TestExportMismatchExcel(t *testing.T) {
	f, err := ExportMismatchExcel(sampleResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Rate Mismatches", "Quantity Mismatches", "Material Mismatches"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("missing sheet %q (idx=%d, err=%v)", sheet, idx, err)
		}
	}

	got, err := f.GetCellValue("Rate Mismatches", "G2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5.00" {
		t.Fatalf("expected rate difference 5.00 in G2, got %q", got)
	}
}
