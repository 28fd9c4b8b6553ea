package flatten

import (
	"context"

	"github.com/goforsam/toast-api/internal/etl/types"
	"github.com/goforsam/toast-api/internal/toast"
	"github.com/goforsam/toast-api/pkg/logger"
)

// Restaurant maps a configuration document onto a dim_restaurants row.
func Restaurant(info *toast.RestaurantInfo, meta types.Metadata) *types.DimRestaurantRow {
	if info == nil || info.GUID == "" {
		return nil
	}
	return &types.DimRestaurantRow{
		RestaurantGUID: info.GUID,
		Name:           nullString(info.General.Name),
		LocationName:   nullString(info.General.LocationName),
		TimeZone:       nullString(info.General.TimeZone),
		AddressLine1:   nullString(info.Location.Address.AddressLine1),
		AddressLine2:   nullString(info.Location.Address.AddressLine2),
		City:           nullString(info.Location.Address.City),
		State:          nullString(info.Location.Address.StateCode),
		ZipCode:        nullString(info.Location.Address.ZipCode),
		LoadID:         meta.LoadID,
		LoadedAt:       meta.LoadedAt,
		DataSource:     types.DataSource,
	}
}

// Employees maps the staff roster onto dim_employees rows.
func Employees(ctx context.Context, logg *logger.Logger, restaurantGUID string, employees []toast.Employee, meta types.Metadata) []types.DimEmployeeRow {
	var rows []types.DimEmployeeRow
	for _, emp := range employees {
		if emp.GUID == "" {
			warnSkip(ctx, logg, "employee", map[string]any{
				"restaurant_guid": restaurantGUID,
			})
			continue
		}
		rows = append(rows, types.DimEmployeeRow{
			EmployeeGUID:   emp.GUID,
			RestaurantGUID: restaurantGUID,
			FirstName:      nullString(emp.FirstName),
			LastName:       nullString(emp.LastName),
			Email:          nullString(emp.Email),
			ExternalID:     nullString(emp.ExternalID),
			Deleted:        emp.Deleted,
			LoadID:         meta.LoadID,
			LoadedAt:       meta.LoadedAt,
			DataSource:     types.DataSource,
		})
	}
	return rows
}

// Jobs maps the configured roles onto dim_jobs rows.
func Jobs(ctx context.Context, logg *logger.Logger, restaurantGUID string, jobs []toast.Job, meta types.Metadata) []types.DimJobRow {
	var rows []types.DimJobRow
	for _, job := range jobs {
		if job.GUID == "" {
			warnSkip(ctx, logg, "job", map[string]any{
				"restaurant_guid": restaurantGUID,
			})
			continue
		}
		rows = append(rows, types.DimJobRow{
			JobGUID:        job.GUID,
			RestaurantGUID: restaurantGUID,
			Title:          nullString(job.Title),
			DefaultWage:    nullFloat(job.DefaultWage),
			Tipped:         job.Tipped,
			Deleted:        job.Deleted,
			LoadID:         meta.LoadID,
			LoadedAt:       meta.LoadedAt,
			DataSource:     types.DataSource,
		})
	}
	return rows
}

// MenuItems walks the nested menus document and emits one row per unique
// sellable item, recursing through subgroups.
func MenuItems(ctx context.Context, logg *logger.Logger, restaurantGUID string, menus []toast.Menu, meta types.Metadata) []types.DimMenuItemRow {
	seen := make(map[string]struct{})
	var rows []types.DimMenuItemRow

	for _, menu := range menus {
		for _, group := range menu.Groups {
			rows = walkMenuGroup(ctx, logg, restaurantGUID, menu.Name, group, meta, seen, rows)
		}
	}
	return rows
}

func walkMenuGroup(ctx context.Context, logg *logger.Logger, restaurantGUID, menuName string, group toast.MenuGroup, meta types.Metadata, seen map[string]struct{}, rows []types.DimMenuItemRow) []types.DimMenuItemRow {
	for _, item := range group.Items {
		if item.GUID == "" {
			warnSkip(ctx, logg, "menu item", map[string]any{
				"restaurant_guid": restaurantGUID,
				"menu":            menuName,
				"group":           group.Name,
			})
			continue
		}
		if _, dup := seen[item.GUID]; dup {
			continue
		}
		seen[item.GUID] = struct{}{}

		rows = append(rows, types.DimMenuItemRow{
			ItemGUID:       item.GUID,
			RestaurantGUID: restaurantGUID,
			Name:           nullString(item.Name),
			MenuName:       nullString(menuName),
			GroupName:      nullString(group.Name),
			Price:          nullFloat(item.Price),
			SalesCategory:  refName(item.SalesCategory),
			Visibility:     nullString(string(item.Visibility)),
			Deleted:        item.Deleted,
			LoadID:         meta.LoadID,
			LoadedAt:       meta.LoadedAt,
			DataSource:     types.DataSource,
		})
	}
	for _, sub := range group.Subgroups {
		rows = walkMenuGroup(ctx, logg, restaurantGUID, menuName, sub, meta, seen, rows)
	}
	return rows
}
