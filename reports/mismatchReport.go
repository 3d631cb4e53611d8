package reports

import (
	"fmt"

	"github.com/mmdatafocus/procurement_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// DashboardResponse is the aggregated view the dashboard page renders.
type DashboardResponse struct {
	FirmName              string                `json:"firmName"`
	TotalLifts            int                   `json:"totalLifts"`
	TotalOrders           int                   `json:"totalOrders"`
	TotalLiftedValue      decimal.Decimal       `json:"totalLiftedValue"`
	RateMismatchCount     int                   `json:"rateMismatchCount"`
	QuantityMismatchCount int                   `json:"quantityMismatchCount"`
	MaterialMismatchCount int                   `json:"materialMismatchCount"`
	Vendors               []workflow.VendorStat `json:"vendors"`
	SourceErrorCount      int                   `json:"sourceErrorCount"`
}

func BuildDashboard(res *workflow.ReconResult) DashboardResponse {
	return DashboardResponse{
		FirmName:              res.FirmName,
		TotalLifts:            res.Stats.TotalLifts,
		TotalOrders:           res.Stats.TotalOrders,
		TotalLiftedValue:      res.Stats.TotalLiftedValue,
		RateMismatchCount:     len(res.Rate),
		QuantityMismatchCount: len(res.Quantity),
		MaterialMismatchCount: len(res.Material),
		Vendors:               res.Stats.Vendors,
		SourceErrorCount:      len(res.SourceErrors),
	}
}

// ExportMismatchExcel renders the three mismatch collections into one
// workbook, one sheet per category.
func ExportMismatchExcel(res *workflow.ReconResult) (*excelize.File, error) {
	f := excelize.NewFile()

	const rateSheet = "Rate Mismatches"
	if err := f.SetSheetName("Sheet1", rateSheet); err != nil {
		return nil, err
	}
	f.SetCellValue(rateSheet, "A1", "LiftNumber")
	f.SetCellValue(rateSheet, "B1", "OrderNumber")
	f.SetCellValue(rateSheet, "C1", "Vendor")
	f.SetCellValue(rateSheet, "D1", "Material")
	f.SetCellValue(rateSheet, "E1", "LiftRate")
	f.SetCellValue(rateSheet, "F1", "OrderRate")
	f.SetCellValue(rateSheet, "G1", "RateDifference")
	for i, m := range res.Rate {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(rateSheet, "A"+row, m.Lift.LiftNumber)
		f.SetCellValue(rateSheet, "B"+row, m.Lift.OrderNumber)
		f.SetCellValue(rateSheet, "C"+row, m.Lift.VendorName)
		f.SetCellValue(rateSheet, "D"+row, m.Lift.Material)
		f.SetCellValue(rateSheet, "E"+row, m.Lift.MaterialRate.String())
		f.SetCellValue(rateSheet, "F"+row, m.Order.Rate.String())
		f.SetCellValue(rateSheet, "G"+row, m.RateDifference.String())
	}

	const qtySheet = "Quantity Mismatches"
	if _, err := f.NewSheet(qtySheet); err != nil {
		return nil, err
	}
	f.SetCellValue(qtySheet, "A1", "LiftNumber")
	f.SetCellValue(qtySheet, "B1", "OrderNumber")
	f.SetCellValue(qtySheet, "C1", "Vendor")
	f.SetCellValue(qtySheet, "D1", "LiftedQuantity")
	f.SetCellValue(qtySheet, "E1", "ReceivedQuantity")
	f.SetCellValue(qtySheet, "F1", "QuantityDifference")
	for i, m := range res.Quantity {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(qtySheet, "A"+row, m.Lift.LiftNumber)
		f.SetCellValue(qtySheet, "B"+row, m.Lift.OrderNumber)
		f.SetCellValue(qtySheet, "C"+row, m.Lift.VendorName)
		f.SetCellValue(qtySheet, "D"+row, m.Lift.LiftedQuantity.String())
		f.SetCellValue(qtySheet, "E"+row, m.Lift.ActualReceivedQuantity.String())
		f.SetCellValue(qtySheet, "F"+row, m.QuantityDifference.String())
	}

	const matSheet = "Material Mismatches"
	if _, err := f.NewSheet(matSheet); err != nil {
		return nil, err
	}
	f.SetCellValue(matSheet, "A1", "LiftNumber")
	f.SetCellValue(matSheet, "B1", "OrderNumber")
	f.SetCellValue(matSheet, "C1", "Material")
	f.SetCellValue(matSheet, "D1", "AluminaDelta")
	f.SetCellValue(matSheet, "E1", "IronDelta")
	f.SetCellValue(matSheet, "F1", "ApDelta")
	for i, m := range res.Material {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(matSheet, "A"+row, m.Lift.LiftNumber)
		f.SetCellValue(matSheet, "B"+row, m.Lift.OrderNumber)
		f.SetCellValue(matSheet, "C"+row, m.Lift.Material)
		f.SetCellValue(matSheet, "D"+row, m.AluminaDelta.String())
		f.SetCellValue(matSheet, "E"+row, m.IronDelta.String())
		f.SetCellValue(matSheet, "F"+row, m.ApDelta.String())
	}

	return f, nil
}
