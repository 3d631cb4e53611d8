package models

import (
	"testing"

	"github.com/mmdatafocus/procurement_backend/gsheets"
)

func cellRow(values ...any) gsheets.Row {
	row := make(gsheets.Row, len(values))
	for i, v := range values {
		row[i] = gsheets.Cell{Value: v}
	}
	return row
}

func TestNormalizeLiftRowsDropsRowsWithoutLiftNumber(t *testing.T) {
	rows := []gsheets.Row{
		cellRow(nil, "LF-001", "GOYAL TRADERS", "PO-1", "ACME", "bauxite", "100", "10", "9.5"),
		cellRow(nil, "", "GOYAL TRADERS"), // header remnant
		cellRow(),                         // blank trailer
	}
	out := NormalizeLiftRows(rows)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].LiftNumber != "LF-001" {
		t.Fatalf("expected LF-001, got %q", out[0].LiftNumber)
	}
}

func TestNormalizeLiftRowsNumericCoercion(t *testing.T) {
	out := NormalizeLiftRows([]gsheets.Row{
		cellRow(nil, "LF-001", "F", "PO-1", "V", "bauxite", "1,050.25", "10", "not a number", "54.5%"),
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	rec := out[0]
	if rec.MaterialRate.String() != "1050.25" {
		t.Fatalf("comma-grouped rate mis-parsed: %s", rec.MaterialRate)
	}
	if !rec.ActualReceivedQuantity.IsZero() {
		t.Fatalf("unparseable quantity must fall back to zero, got %s", rec.ActualReceivedQuantity)
	}
	if rec.AluminaPercent.String() != "54.5" {
		t.Fatalf("percent sign not stripped: %s", rec.AluminaPercent)
	}
}

func TestNormalizeLiftRowsShortRow(t *testing.T) {
	// rows truncate at the last non-empty column; missing cells read blank
	out := NormalizeLiftRows([]gsheets.Row{cellRow(nil, "LF-001")})
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if !out[0].MaterialRate.IsZero() || out[0].VendorName != "" {
		t.Fatalf("short row fields not zeroed: %+v", out[0])
	}
}

func TestScopeToFirm(t *testing.T) {
	orders := []PurchaseOrder{
		{OrderNumber: "PO-1", FirmName: "GOYAL TRADERS"},
		{OrderNumber: "PO-2", FirmName: "goyal traders "},
		{OrderNumber: "PO-3", FirmName: "SHREE MINERALS"},
	}
	firmOf := func(o *PurchaseOrder) string { return o.FirmName }

	scoped := ScopeToFirm(orders, "Goyal Traders", firmOf)
	if len(scoped) != 2 {
		t.Fatalf("expected case-insensitive trimmed match to keep 2, got %d", len(scoped))
	}
	for _, o := range scoped {
		if o.OrderNumber == "PO-3" {
			t.Fatal("foreign firm order leaked through scoping")
		}
	}

	all := ScopeToFirm(orders, FirmWildcard, firmOf)
	if len(all) != 3 {
		t.Fatalf("wildcard scope must pass everything, got %d", len(all))
	}
}

func TestFindUserCaseInsensitive(t *testing.T) {
	users := []User{
		{Username: "ramesh", FirmName: "GOYAL TRADERS", Role: "user"},
		{Username: "RAMESH", FirmName: "SHREE MINERALS", Role: "user"},
	}
	u, ok := FindUser(users, "  Ramesh ")
	if !ok {
		t.Fatal("expected a match")
	}
	if u.FirmName != "GOYAL TRADERS" {
		t.Fatalf("first match must win, got firm %q", u.FirmName)
	}
}

func TestUserScope(t *testing.T) {
	admin := User{Username: "a", Role: "Admin", FirmName: "GOYAL TRADERS"}
	if admin.Scope() != FirmWildcard {
		t.Fatalf("admin must get wildcard scope, got %q", admin.Scope())
	}
	regular := User{Username: "b", Role: "user", FirmName: "GOYAL TRADERS"}
	if regular.Scope() != "GOYAL TRADERS" {
		t.Fatalf("regular user must get own firm, got %q", regular.Scope())
	}
}

func TestCorrectionLedgerRow(t *testing.T) {
	out := NormalizeCorrectionRows([]gsheets.Row{
		cellRow("2026-01-05T10:00:00Z", "LF-001", "PO-1", "CREDIT_NOTE", "rate revised", "GOYAL TRADERS"),
		cellRow("", "LF-002", "", "OTHER"), // no order number: cannot suppress anything
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 valid entry, got %d", len(out))
	}
	row := out[0].LedgerRow()
	if len(row) != 6 {
		t.Fatalf("expected 6 ledger columns, got %d", len(row))
	}
	if row[2] != "PO-1" || row[3] != "CREDIT_NOTE" {
		t.Fatalf("unexpected ledger row: %v", row)
	}
}
