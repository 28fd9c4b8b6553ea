package flatten

import (
	"context"

	"github.com/goforsam/toast-api/internal/etl/types"
	"github.com/goforsam/toast-api/internal/toast"
	"github.com/goforsam/toast-api/pkg/logger"
)

// CashEntries flattens drawer entries into fact rows. Entries without a
// guid are skipped with a warning.
func CashEntries(ctx context.Context, logg *logger.Logger, restaurantGUID string, entries []toast.CashEntry, meta types.Metadata) []types.CashEntryRow {
	seen := make(map[string]struct{})
	var rows []types.CashEntryRow

	for _, entry := range entries {
		if entry.GUID == "" {
			warnSkip(ctx, logg, "cash entry", map[string]any{
				"restaurant_guid": restaurantGUID,
			})
			continue
		}
		if _, dup := seen[entry.GUID]; dup {
			continue
		}
		seen[entry.GUID] = struct{}{}

		rows = append(rows, types.CashEntryRow{
			EntryGUID:      entry.GUID,
			RestaurantGUID: restaurantGUID,
			BusinessDate:   entry.BusinessDate.Date,
			EntryAt:        nullTimestamp(entry.EntryDate),
			EntryType:      nullString(entry.Type),
			Amount:         nullFloat(entry.Amount),
			EmployeeGUID:   refGUID(entry.Employee),
			CashDrawerGUID: refGUID(entry.CashDrawer),
			Reason:         nullString(entry.Reason),
			Notes:          nullString(entry.Notes),
			LoadID:         meta.LoadID,
			LoadedAt:       meta.LoadedAt,
			DataSource:     types.DataSource,
		})
	}
	return rows
}

// CashDeposits flattens bank deposits into fact rows.
func CashDeposits(ctx context.Context, logg *logger.Logger, restaurantGUID string, deposits []toast.CashDeposit, meta types.Metadata) []types.CashDepositRow {
	seen := make(map[string]struct{})
	var rows []types.CashDepositRow

	for _, dep := range deposits {
		if dep.GUID == "" {
			warnSkip(ctx, logg, "cash deposit", map[string]any{
				"restaurant_guid": restaurantGUID,
			})
			continue
		}
		if _, dup := seen[dep.GUID]; dup {
			continue
		}
		seen[dep.GUID] = struct{}{}

		rows = append(rows, types.CashDepositRow{
			DepositGUID:    dep.GUID,
			RestaurantGUID: restaurantGUID,
			BusinessDate:   dep.BusinessDate.Date,
			DepositAt:      nullTimestamp(dep.DepositDate),
			Amount:         nullFloat(dep.Amount),
			CashAmount:     nullFloat(dep.CashAmount),
			CheckAmount:    nullFloat(dep.CheckAmount),
			LoadID:         meta.LoadID,
			LoadedAt:       meta.LoadedAt,
			DataSource:     types.DataSource,
		})
	}
	return rows
}
