package flatten

import (
	"context"

	"github.com/goforsam/toast-api/internal/etl/types"
	"github.com/goforsam/toast-api/internal/toast"
	"github.com/goforsam/toast-api/pkg/logger"
)

// LaborShifts flattens clock records into fact rows. Deleted entries are
// dropped; entries without a guid are skipped with a warning.
func LaborShifts(ctx context.Context, logg *logger.Logger, restaurantGUID string, entries []toast.TimeEntry, meta types.Metadata) []types.LaborShiftRow {
	seen := make(map[string]struct{})
	var rows []types.LaborShiftRow

	for _, entry := range entries {
		if entry.Deleted {
			continue
		}
		if entry.GUID == "" {
			warnSkip(ctx, logg, "labor shift", map[string]any{
				"restaurant_guid": restaurantGUID,
			})
			continue
		}
		if _, dup := seen[entry.GUID]; dup {
			continue
		}
		seen[entry.GUID] = struct{}{}

		rows = append(rows, types.LaborShiftRow{
			ShiftGUID:      entry.GUID,
			RestaurantGUID: restaurantGUID,
			BusinessDate:   entry.BusinessDate.Date,
			EmployeeGUID:   refGUID(entry.Employee),
			JobGUID:        refGUID(entry.Job),
			ClockInAt:      nullTimestamp(entry.InDate),
			ClockOutAt:     nullTimestamp(entry.OutDate),
			RegularHours:   nullFloat(entry.RegularHours),
			OvertimeHours:  nullFloat(entry.OvertimeHours),
			HourlyWage:     nullFloat(entry.HourlyWage),
			RegularPay:     nullFloat(entry.RegularPay),
			OvertimePay:    nullFloat(entry.OvertimePay),
			TotalPay:       nullFloat(entry.TotalPay),
			DeclaredTips:   nullFloat(entry.DeclaredTips),
			LoadID:         meta.LoadID,
			LoadedAt:       meta.LoadedAt,
			DataSource:     types.DataSource,
		})
	}
	return rows
}
