package workflow

import (
	"sort"
	"strings"
	"time"

	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/models"
	"github.com/mmdatafocus/procurement_backend/utils"
	"github.com/shopspring/decimal"
)

// All numeric comparisons use an absolute epsilon of 0.01: source values
// are pre-rounded to two decimals by upstream entry, so relative tolerance
// buys nothing.
var mismatchTolerance = decimal.New(1, -2)

// ReconInput is the scoped record sets one reconciliation pass runs over.
// Scoping happened in the loader; the engine never sees cross-firm rows.
type ReconInput struct {
	FirmName     string
	Lifts        []models.LiftRecord
	Orders       []models.PurchaseOrder
	References   []models.MaterialReference
	Corrections  []models.CorrectionEntry
	SourceErrors []gsheets.SourceError
}

type RateMismatch struct {
	Lift           models.LiftRecord    `json:"lift"`
	Order          models.PurchaseOrder `json:"order"`
	RateDifference decimal.Decimal      `json:"rateDifference"`
}

type QuantityMismatch struct {
	Lift               models.LiftRecord    `json:"lift"`
	Order              models.PurchaseOrder `json:"order"`
	QuantityDifference decimal.Decimal      `json:"quantityDifference"`
}

type MaterialMismatch struct {
	Lift         models.LiftRecord        `json:"lift"`
	Reference    models.MaterialReference `json:"reference"`
	AluminaDelta decimal.Decimal          `json:"aluminaDelta"`
	IronDelta    decimal.Decimal          `json:"ironDelta"`
	ApDelta      decimal.Decimal          `json:"apDelta"`
}

// Facets are the distinct filter values observed across the three mismatch
// collections, sorted for stable output.
type Facets struct {
	Vendors      []string `json:"vendors"`
	Materials    []string `json:"materials"`
	Firms        []string `json:"firms"`
	OrderNumbers []string `json:"orderNumbers"`
}

// VendorStat aggregates the scoped lift activity of one vendor.
type VendorStat struct {
	VendorName  string          `json:"vendorName"`
	LiftCount   int             `json:"liftCount"`
	LiftedValue decimal.Decimal `json:"liftedValue"`
}

// PurchaseStats summarizes the scoped lift set the pass ran over, for the
// dashboard view.
type PurchaseStats struct {
	TotalLifts       int             `json:"totalLifts"`
	TotalOrders      int             `json:"totalOrders"`
	TotalLiftedValue decimal.Decimal `json:"totalLiftedValue"`
	Vendors          []VendorStat    `json:"vendors"`
}

// ReconResult is one immutable snapshot of derived mismatches. Snapshots
// are replaced wholesale on reload, never mutated in place.
type ReconResult struct {
	FirmName     string                `json:"firmName"`
	Rate         []RateMismatch        `json:"rateMismatches"`
	Quantity     []QuantityMismatch    `json:"quantityMismatches"`
	Material     []MaterialMismatch    `json:"materialMismatches"`
	Facets       Facets                `json:"facets"`
	Stats        PurchaseStats         `json:"stats"`
	SourceErrors []gsheets.SourceError `json:"sourceErrors"`
	Generation   uint64                `json:"generation"`
	LoadedAt     time.Time             `json:"loadedAt"`
}

// ProcessReconciliation is a pure read-and-derive pass: it joins lifts with
// orders and material references, emits the three independent mismatch
// collections, and suppresses every category for order numbers already in
// the correction ledger. A missing join partner is not an error; it only
// means that category cannot be evaluated for the record.
func ProcessReconciliation(input ReconInput) *ReconResult {
	result := &ReconResult{
		FirmName:     input.FirmName,
		Rate:         []RateMismatch{},
		Quantity:     []QuantityMismatch{},
		Material:     []MaterialMismatch{},
		SourceErrors: input.SourceErrors,
	}

	suppressed := suppressedOrders(input.Corrections)
	orderIdx := buildOrderIndex(input.Orders)
	refIdx := buildReferenceIndex(input.References)

	for _, lift := range input.Lifts {
		if _, ok := suppressed[strings.TrimSpace(lift.OrderNumber)]; ok {
			continue
		}

		if i, ok := orderIdx[strings.TrimSpace(lift.OrderNumber)]; ok {
			order := input.Orders[i]

			if lift.MaterialRate.IsPositive() && order.Rate.IsPositive() {
				diff := lift.MaterialRate.Sub(order.Rate)
				if diff.Abs().GreaterThanOrEqual(mismatchTolerance) {
					result.Rate = append(result.Rate, RateMismatch{Lift: lift, Order: order, RateDifference: diff})
				}
			}

			if lift.LiftedQuantity.IsPositive() && lift.ActualReceivedQuantity.IsPositive() {
				diff := lift.LiftedQuantity.Sub(lift.ActualReceivedQuantity)
				if diff.Abs().GreaterThanOrEqual(mismatchTolerance) {
					result.Quantity = append(result.Quantity, QuantityMismatch{Lift: lift, Order: order, QuantityDifference: diff})
				}
			}
		}

		if i, ok := refIdx[utils.NormalizeKey(lift.Material)]; ok {
			ref := input.References[i]
			aluminaDelta := lift.AluminaPercent.Sub(ref.ReferenceAluminaPercent)
			ironDelta := lift.IronPercent.Sub(ref.ReferenceIronPercent)
			apDelta := lift.ApValue.Sub(ref.ReferenceApValue)
			if propertyPairMismatched(lift.AluminaPercent, ref.ReferenceAluminaPercent) ||
				propertyPairMismatched(lift.IronPercent, ref.ReferenceIronPercent) ||
				propertyPairMismatched(lift.ApValue, ref.ReferenceApValue) {
				result.Material = append(result.Material, MaterialMismatch{
					Lift:         lift,
					Reference:    ref,
					AluminaDelta: aluminaDelta,
					IronDelta:    ironDelta,
					ApDelta:      apDelta,
				})
			}
		}
	}

	result.Facets = collectFacets(result)
	result.Stats = collectStats(input)
	return result
}

// collectStats aggregates the scoped lift set by vendor. Lifted value uses
// the actually received quantity, matching how the firms bill.
func collectStats(input ReconInput) PurchaseStats {
	stats := PurchaseStats{
		TotalLifts:       len(input.Lifts),
		TotalOrders:      len(input.Orders),
		TotalLiftedValue: decimal.Zero,
	}
	byVendor := map[string]*VendorStat{}
	var order []string
	for _, lift := range input.Lifts {
		value := lift.MaterialRate.Mul(lift.ActualReceivedQuantity)
		stats.TotalLiftedValue = stats.TotalLiftedValue.Add(value)

		key := utils.NormalizeKey(lift.VendorName)
		if key == "" {
			continue
		}
		vs, ok := byVendor[key]
		if !ok {
			vs = &VendorStat{VendorName: lift.VendorName, LiftedValue: decimal.Zero}
			byVendor[key] = vs
			order = append(order, key)
		}
		vs.LiftCount++
		vs.LiftedValue = vs.LiftedValue.Add(value)
	}
	sort.Strings(order)
	for _, key := range order {
		stats.Vendors = append(stats.Vendors, *byVendor[key])
	}
	return stats
}

// propertyPairMismatched guards against false positives from two absent
// values both defaulting to zero: at least one side must be non-zero.
func propertyPairMismatched(lift, ref decimal.Decimal) bool {
	if lift.IsZero() && ref.IsZero() {
		return false
	}
	return lift.Sub(ref).Abs().GreaterThanOrEqual(mismatchTolerance)
}

// buildOrderIndex builds a first-seen-wins index over order numbers. The
// sheet may contain duplicates; tie-break is source row order, made explicit
// here instead of relying on incidental iteration order.
func buildOrderIndex(orders []models.PurchaseOrder) map[string]int {
	idx := make(map[string]int, len(orders))
	for i, o := range orders {
		key := strings.TrimSpace(o.OrderNumber)
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// buildReferenceIndex indexes material references by lower-cased trimmed
// name, first-seen-wins.
func buildReferenceIndex(refs []models.MaterialReference) map[string]int {
	idx := make(map[string]int, len(refs))
	for i, r := range refs {
		key := utils.NormalizeKey(r.MaterialName)
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// suppressedOrders keys suppression by order number, not lift number: one
// correction suppresses every lift of that order across all categories.
// That asymmetry is the documented upstream behavior.
func suppressedOrders(entries []models.CorrectionEntry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		key := strings.TrimSpace(e.OrderNumber)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

func collectFacets(res *ReconResult) Facets {
	vendors := map[string]struct{}{}
	materials := map[string]struct{}{}
	firms := map[string]struct{}{}
	orders := map[string]struct{}{}

	addLift := func(l models.LiftRecord) {
		if l.VendorName != "" {
			vendors[l.VendorName] = struct{}{}
		}
		if l.Material != "" {
			materials[l.Material] = struct{}{}
		}
		if l.FirmName != "" {
			firms[l.FirmName] = struct{}{}
		}
		if l.OrderNumber != "" {
			orders[l.OrderNumber] = struct{}{}
		}
	}
	for _, m := range res.Rate {
		addLift(m.Lift)
	}
	for _, m := range res.Quantity {
		addLift(m.Lift)
	}
	for _, m := range res.Material {
		addLift(m.Lift)
	}

	return Facets{
		Vendors:      utils.SortedKeys(vendors),
		Materials:    utils.SortedKeys(materials),
		Firms:        utils.SortedKeys(firms),
		OrderNumbers: utils.SortedKeys(orders),
	}
}
