package flatten

import (
	"context"
	"testing"

	"github.com/goforsam/toast-api/internal/toast"
)

func TestCashEntriesFlatten(t *testing.T) {
	entries := []toast.CashEntry{
		{GUID: "ce-1", Type: "PAY_OUT", Amount: f(-40.00), Employee: &toast.EntityRef{GUID: "emp-1"}},
		{GUID: "ce-1", Type: "PAY_OUT"}, // duplicate within batch
		{Type: "NO_GUID"},
	}

	rows := CashEntries(context.Background(), nil, "rest-1", entries, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected dedup and skip to leave 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.EntryGUID != "ce-1" || row.RestaurantGUID != "rest-1" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if !row.Amount.Valid || row.Amount.Float64 != -40.00 {
		t.Fatalf("expected negative amount preserved, got %+v", row.Amount)
	}
	if row.EmployeeGUID.StringVal != "emp-1" {
		t.Fatalf("expected employee ref flattened, got %+v", row.EmployeeGUID)
	}
}

func TestCashDepositsFlatten(t *testing.T) {
	deposits := []toast.CashDeposit{
		{GUID: "dep-1", Amount: f(312.40), CashAmount: f(300.00)},
	}

	rows := CashDeposits(context.Background(), nil, "rest-1", deposits, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].DepositGUID != "dep-1" || rows[0].Amount.Float64 != 312.40 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}
