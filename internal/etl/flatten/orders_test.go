package flatten

import (
	"context"
	"testing"
	"time"

	"github.com/goforsam/toast-api/internal/etl/types"
	"github.com/goforsam/toast-api/internal/toast"
)

func f(v float64) *float64 { return &v }

func testMeta() types.Metadata {
	return types.Metadata{
		LoadID:   "load-1",
		LoadedAt: time.Date(2026, 2, 9, 3, 0, 0, 0, time.UTC),
	}
}

func testOrder() toast.Order {
	var date toast.BusinessDate
	date.Date.Year, date.Date.Month, date.Date.Day = 2026, 2, 8
	return toast.Order{
		GUID:           "order-1",
		RestaurantGUID: "rest-1",
		BusinessDate:   date,
		GuestCount:     2,
		Checks: []toast.Check{{
			GUID: "check-1",
			Selections: []toast.Selection{{
				GUID:             "sel-1",
				DisplayName:      "Carnitas Taco",
				ItemGUID:         "item-1",
				Quantity:         2,
				Price:            f(8.50),
				PreDiscountPrice: f(10.00),
			}},
			Payments: []toast.Payment{{
				GUID:      "pay-1",
				Amount:    f(20.00),
				TipAmount: f(4.00),
				Type:      "CREDIT",
			}},
		}},
	}
}

func TestOrderItemsFlattensSelection(t *testing.T) {
	rows := OrderItems(context.Background(), nil, []toast.Order{testOrder()}, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.SelectionGUID != "sel-1" || row.OrderGUID != "order-1" || row.CheckGUID != "check-1" {
		t.Fatalf("unexpected key triple: %+v", row)
	}
	if row.RestaurantGUID != "rest-1" {
		t.Fatalf("expected restaurant guid, got %q", row.RestaurantGUID)
	}
	if !row.DiscountAmount.Valid || row.DiscountAmount.Float64 != 1.50 {
		t.Fatalf("expected discount 1.50, got %+v", row.DiscountAmount)
	}
	if row.BusinessDate.String() != "2026-02-08" {
		t.Fatalf("expected business date carried, got %s", row.BusinessDate)
	}
	if row.LoadID != "load-1" || row.DataSource != types.DataSource {
		t.Fatalf("expected load metadata stamped, got %+v", row)
	}
}

func TestOrderItemsDiscountNullWhenPriceMissing(t *testing.T) {
	order := testOrder()
	order.Checks[0].Selections[0].PreDiscountPrice = nil

	rows := OrderItems(context.Background(), nil, []toast.Order{order}, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].DiscountAmount.Valid {
		t.Fatalf("expected NULL discount, got %+v", rows[0].DiscountAmount)
	}
}

func TestOrderItemsExcludesVoidedSelectionsAndDeletedChecks(t *testing.T) {
	voidedSel := testOrder()
	voidedSel.Checks[0].Selections[0].Voided = true

	deletedCheck := testOrder()
	deletedCheck.GUID = "order-2"
	deletedCheck.Checks[0].Deleted = true

	rows := OrderItems(context.Background(), nil,
		[]toast.Order{voidedSel, deletedCheck}, testMeta())
	if len(rows) != 0 {
		t.Fatalf("expected all rows excluded, got %d", len(rows))
	}
}

func TestOrderItemsFlagsVoidedAndDeletedOrders(t *testing.T) {
	voided := testOrder()
	voided.Voided = true

	deleted := testOrder()
	deleted.GUID = "order-2"
	deleted.Deleted = true

	rows := OrderItems(context.Background(), nil, []toast.Order{voided, deleted}, testMeta())
	if len(rows) != 2 {
		t.Fatalf("expected voided and deleted orders kept, got %d rows", len(rows))
	}
	if !rows[0].Voided || rows[0].Deleted {
		t.Fatalf("expected first row flagged voided only, got %+v", rows[0])
	}
	if rows[1].Voided || !rows[1].Deleted {
		t.Fatalf("expected second row flagged deleted only, got %+v", rows[1])
	}
}

func TestOrderItemsDenormalizesCheck(t *testing.T) {
	order := testOrder()
	order.Checks[0].Amount = f(17.00)
	order.Checks[0].TaxAmount = f(1.50)
	order.Checks[0].TotalAmount = f(18.50)
	order.Checks[0].Payments = append(order.Checks[0].Payments, toast.Payment{
		GUID:      "pay-2",
		Amount:    f(5.00),
		TipAmount: f(1.25),
		Type:      "CASH",
	})

	rows := OrderItems(context.Background(), nil, []toast.Order{order}, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if !row.CheckAmount.Valid || row.CheckAmount.Float64 != 17.00 {
		t.Fatalf("expected check amount 17.00, got %+v", row.CheckAmount)
	}
	if !row.CheckTax.Valid || row.CheckTax.Float64 != 1.50 {
		t.Fatalf("expected check tax 1.50, got %+v", row.CheckTax)
	}
	if !row.CheckTotal.Valid || row.CheckTotal.Float64 != 18.50 {
		t.Fatalf("expected check total 18.50, got %+v", row.CheckTotal)
	}
	if !row.CheckTip.Valid || row.CheckTip.Float64 != 5.25 {
		t.Fatalf("expected tips summed to 5.25, got %+v", row.CheckTip)
	}
	if !row.PaymentType.Valid || row.PaymentType.StringVal != "CREDIT" {
		t.Fatalf("expected first tender type carried, got %+v", row.PaymentType)
	}
	if row.Voided || row.Deleted {
		t.Fatalf("expected live order unflagged, got %+v", row)
	}
}

func TestOrderItemsCheckTipNullWithoutPayments(t *testing.T) {
	order := testOrder()
	order.Checks[0].Payments = nil

	rows := OrderItems(context.Background(), nil, []toast.Order{order}, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].CheckTip.Valid {
		t.Fatalf("expected NULL check tip, got %+v", rows[0].CheckTip)
	}
	if rows[0].PaymentType.Valid {
		t.Fatalf("expected NULL payment type, got %+v", rows[0].PaymentType)
	}
}

func TestOrderItemsDedupsWithinBatch(t *testing.T) {
	order := testOrder()
	rows := OrderItems(context.Background(), nil, []toast.Order{order, order}, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected duplicate selection collapsed, got %d rows", len(rows))
	}
}

func TestOrderItemsSkipsMissingGUIDs(t *testing.T) {
	order := testOrder()
	order.Checks[0].Selections[0].GUID = ""

	rows := OrderItems(context.Background(), nil, []toast.Order{order}, testMeta())
	if len(rows) != 0 {
		t.Fatalf("expected selection without guid skipped, got %d rows", len(rows))
	}
}

func TestOrderItemsModifiersCarried(t *testing.T) {
	order := testOrder()
	order.Checks[0].Selections[0].Modifiers = []toast.Modifier{
		{GUID: "mod-1", Name: "Extra Salsa", Price: f(0.50)},
	}

	rows := OrderItems(context.Background(), nil, []toast.Order{order}, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if !rows[0].Modifiers.Valid {
		t.Fatal("expected modifiers carried as JSON")
	}
}

func TestPaymentsTipPercent(t *testing.T) {
	rows := Payments(context.Background(), nil, []toast.Order{testOrder()}, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected 1 payment row, got %d", len(rows))
	}
	if !rows[0].TipPercent.Valid || rows[0].TipPercent.Float64 != 20.0 {
		t.Fatalf("expected tip percent 20, got %+v", rows[0].TipPercent)
	}
}

func TestPaymentsTipPercentNullOnZeroAmount(t *testing.T) {
	order := testOrder()
	order.Checks[0].Payments[0].Amount = f(0)

	rows := Payments(context.Background(), nil, []toast.Order{order}, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected 1 payment row, got %d", len(rows))
	}
	if rows[0].TipPercent.Valid {
		t.Fatalf("expected NULL tip percent for zero amount, got %+v", rows[0].TipPercent)
	}
}

func TestPaymentsExcludesDeletedChecks(t *testing.T) {
	order := testOrder()
	order.Checks[0].Deleted = true

	rows := Payments(context.Background(), nil, []toast.Order{order}, testMeta())
	if len(rows) != 0 {
		t.Fatalf("expected payments on deleted checks excluded, got %d", len(rows))
	}
}
