package flatten

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/goforsam/toast-api/internal/etl/types"
	"github.com/goforsam/toast-api/internal/toast"
	"github.com/goforsam/toast-api/pkg/logger"
)

type itemKey struct {
	selection string
	order     string
	check     string
}

// OrderItems flattens orders into one row per non-voided selection.
// Voided and deleted orders are kept and flagged so downstream queries
// can filter them; deleted checks are dropped. Selections repeated
// within the batch are emitted once, and selections without the full
// GUID triple are skipped with a warning. Check totals, the summed
// payment tip, and the first tender type are denormalized onto each row.
func OrderItems(ctx context.Context, logg *logger.Logger, orders []toast.Order, meta types.Metadata) []types.OrderItemRow {
	seen := make(map[itemKey]struct{})
	var rows []types.OrderItemRow

	for _, order := range orders {
		for _, check := range order.Checks {
			if check.Deleted {
				continue
			}
			checkTip := checkTipSum(check.Payments)
			paymentType := firstPaymentType(check.Payments)
			for _, sel := range check.Selections {
				if sel.Voided {
					continue
				}
				if sel.GUID == "" || order.GUID == "" || check.GUID == "" {
					warnSkip(ctx, logg, "order item", map[string]any{
						"selection_guid": sel.GUID,
						"order_guid":     order.GUID,
						"check_guid":     check.GUID,
					})
					continue
				}

				key := itemKey{selection: sel.GUID, order: order.GUID, check: check.GUID}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				rows = append(rows, types.OrderItemRow{
					SelectionGUID:    sel.GUID,
					OrderGUID:        order.GUID,
					CheckGUID:        check.GUID,
					RestaurantGUID:   order.RestaurantGUID,
					BusinessDate:     order.BusinessDate.Date,
					ItemGUID:         nullString(sel.MenuItemGUID()),
					ItemName:         nullString(sel.DisplayName),
					SalesCategory:    refName(sel.SalesCategory),
					Quantity:         sel.Quantity,
					Price:            nullFloat(sel.Price),
					PreDiscountPrice: nullFloat(sel.PreDiscountPrice),
					DiscountAmount:   discountAmount(sel),
					Tax:              nullFloat(sel.Tax),
					Modifiers:        modifiersJSON(sel.Modifiers),
					CheckAmount:      nullFloat(check.Amount),
					CheckTax:         nullFloat(check.TaxAmount),
					CheckTotal:       nullFloat(check.TotalAmount),
					CheckTip:         checkTip,
					PaymentType:      paymentType,
					ServerGUID:       serverGUID(order, check),
					GuestCount:       int64(order.GuestCount),
					Voided:           order.Voided,
					Deleted:          order.Deleted,
					OpenedAt:         nullTimestamp(order.OpenedDate),
					ClosedAt:         nullTimestamp(order.ClosedDate),
					LoadID:           meta.LoadID,
					LoadedAt:         meta.LoadedAt,
					DataSource:       types.DataSource,
				})
			}
		}
	}
	return rows
}

// discountAmount derives the discount as the gap between the pre-discount
// and net selection prices. NULL when either side is absent.
func discountAmount(sel toast.Selection) bigquery.NullFloat64 {
	if sel.PreDiscountPrice == nil || sel.Price == nil {
		return bigquery.NullFloat64{}
	}
	diff := decimal.NewFromFloat(*sel.PreDiscountPrice).Sub(decimal.NewFromFloat(*sel.Price))
	value, _ := diff.Round(2).Float64()
	return bigquery.NullFloat64{Float64: value, Valid: true}
}

// modifiersJSON serializes modifiers into a JSON string column. Map keys
// are fixed so the output is deterministic for identical input.
func modifiersJSON(modifiers []toast.Modifier) bigquery.NullString {
	if len(modifiers) == 0 {
		return bigquery.NullString{}
	}
	type entry struct {
		GUID  string   `json:"guid"`
		Name  string   `json:"name"`
		Price *float64 `json:"price,omitempty"`
	}
	encoded := make([]entry, 0, len(modifiers))
	for _, mod := range modifiers {
		encoded = append(encoded, entry{GUID: mod.GUID, Name: mod.Name, Price: mod.Price})
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: string(data), Valid: true}
}

// checkTipSum totals tips across the check's payments. NULL when no
// payment carries a tip.
func checkTipSum(payments []toast.Payment) bigquery.NullFloat64 {
	sum := decimal.Zero
	found := false
	for _, pay := range payments {
		if pay.TipAmount == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(*pay.TipAmount))
		found = true
	}
	if !found {
		return bigquery.NullFloat64{}
	}
	value, _ := sum.Round(2).Float64()
	return bigquery.NullFloat64{Float64: value, Valid: true}
}

func firstPaymentType(payments []toast.Payment) bigquery.NullString {
	for _, pay := range payments {
		if pay.Type != "" {
			return bigquery.NullString{StringVal: pay.Type, Valid: true}
		}
	}
	return bigquery.NullString{}
}

func serverGUID(order toast.Order, check toast.Check) bigquery.NullString {
	if guid := refGUID(check.Server); guid.Valid {
		return guid
	}
	return refGUID(order.Server)
}

type paymentKey struct {
	payment string
	order   string
	check   string
}

// Payments flattens orders into one row per payment on a surviving check.
func Payments(ctx context.Context, logg *logger.Logger, orders []toast.Order, meta types.Metadata) []types.PaymentRow {
	seen := make(map[paymentKey]struct{})
	var rows []types.PaymentRow

	for _, order := range orders {
		if order.Deleted || order.Voided {
			continue
		}
		for _, check := range order.Checks {
			if check.Deleted {
				continue
			}
			for _, pay := range check.Payments {
				if pay.GUID == "" || order.GUID == "" || check.GUID == "" {
					warnSkip(ctx, logg, "payment", map[string]any{
						"payment_guid": pay.GUID,
						"order_guid":   order.GUID,
						"check_guid":   check.GUID,
					})
					continue
				}

				key := paymentKey{payment: pay.GUID, order: order.GUID, check: check.GUID}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				rows = append(rows, types.PaymentRow{
					PaymentGUID:    pay.GUID,
					OrderGUID:      order.GUID,
					CheckGUID:      check.GUID,
					RestaurantGUID: order.RestaurantGUID,
					BusinessDate:   order.BusinessDate.Date,
					PaidAt:         nullTimestamp(pay.PaidDate),
					Amount:         nullFloat(pay.Amount),
					TipAmount:      nullFloat(pay.TipAmount),
					TipPercent:     tipPercent(pay),
					PaymentType:    nullString(pay.Type),
					CardType:       nullString(pay.CardType),
					Last4:          nullString(pay.Last4),
					LoadID:         meta.LoadID,
					LoadedAt:       meta.LoadedAt,
					DataSource:     types.DataSource,
				})
			}
		}
	}
	return rows
}

// tipPercent is tip/amount expressed as a percentage. NULL when either
// side is absent or the payment amount is zero.
func tipPercent(pay toast.Payment) bigquery.NullFloat64 {
	if pay.TipAmount == nil || pay.Amount == nil || *pay.Amount == 0 {
		return bigquery.NullFloat64{}
	}
	pct := decimal.NewFromFloat(*pay.TipAmount).
		Div(decimal.NewFromFloat(*pay.Amount)).
		Mul(decimal.NewFromInt(100))
	value, _ := pct.Round(2).Float64()
	return bigquery.NullFloat64{Float64: value, Valid: true}
}

func warnSkip(ctx context.Context, logg *logger.Logger, kind string, fields map[string]any) {
	if logg == nil {
		return
	}
	fields["record"] = kind
	logg.Warn(logg.WithFields(ctx, fields), "skipping record with missing key identifiers")
}
