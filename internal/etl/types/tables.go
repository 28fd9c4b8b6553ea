package types

import (
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/goforsam/toast-api/pkg/config"
)

// TableSpec describes one destination table: its schema, the natural key
// the dedup merge matches on, and the physical layout of the destination.
type TableSpec struct {
	Name           string
	Schema         bigquery.Schema
	DedupKeys      []string
	PartitionField string
	ClusterFields  []string
}

func mustInfer(model any) bigquery.Schema {
	schema, err := bigquery.InferSchema(model)
	if err != nil {
		panic(fmt.Sprintf("inferring schema for %T: %v", model, err))
	}
	return schema
}

// Metadata returns the destination table metadata: daily partitioning on
// the business date and clustering by restaurant for fact tables.
func (s TableSpec) Metadata() *bigquery.TableMetadata {
	meta := &bigquery.TableMetadata{Schema: s.Schema}
	if s.PartitionField != "" {
		meta.TimePartitioning = &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: s.PartitionField,
		}
	}
	if len(s.ClusterFields) > 0 {
		meta.Clustering = &bigquery.Clustering{Fields: s.ClusterFields}
	}
	return meta
}

func factSpec(name string, model any, dedupKeys []string) TableSpec {
	return TableSpec{
		Name:           name,
		Schema:         mustInfer(model),
		DedupKeys:      dedupKeys,
		PartitionField: "business_date",
		ClusterFields:  []string{"restaurant_guid"},
	}
}

func dimSpec(name string, model any) TableSpec {
	return TableSpec{
		Name:   name,
		Schema: mustInfer(model),
	}
}

// OrderItemsSpec is the fact_order_items destination.
func OrderItemsSpec(cfg config.BigQueryConfig) TableSpec {
	return factSpec(cfg.OrderItemsTable, OrderItemRow{},
		[]string{"selection_guid", "order_guid", "check_guid"})
}

// PaymentsSpec is the fact_payments destination.
func PaymentsSpec(cfg config.BigQueryConfig) TableSpec {
	return factSpec(cfg.PaymentsTable, PaymentRow{},
		[]string{"payment_guid", "order_guid", "check_guid"})
}

// CashEntriesSpec is the fact_cash_entries destination.
func CashEntriesSpec(cfg config.BigQueryConfig) TableSpec {
	return factSpec(cfg.CashEntriesTable, CashEntryRow{},
		[]string{"entry_guid", "restaurant_guid"})
}

// CashDepositsSpec is the fact_cash_deposits destination.
func CashDepositsSpec(cfg config.BigQueryConfig) TableSpec {
	return factSpec(cfg.CashDepositsTable, CashDepositRow{},
		[]string{"deposit_guid", "restaurant_guid"})
}

// LaborShiftsSpec is the fact_labor_shifts destination.
func LaborShiftsSpec(cfg config.BigQueryConfig) TableSpec {
	return factSpec(cfg.LaborShiftsTable, LaborShiftRow{},
		[]string{"shift_guid", "restaurant_guid"})
}

// DimRestaurantsSpec is the dim_restaurants destination.
func DimRestaurantsSpec(cfg config.BigQueryConfig) TableSpec {
	return dimSpec(cfg.DimRestaurants, DimRestaurantRow{})
}

// DimEmployeesSpec is the dim_employees destination.
func DimEmployeesSpec(cfg config.BigQueryConfig) TableSpec {
	return dimSpec(cfg.DimEmployees, DimEmployeeRow{})
}

// DimJobsSpec is the dim_jobs destination.
func DimJobsSpec(cfg config.BigQueryConfig) TableSpec {
	return dimSpec(cfg.DimJobs, DimJobRow{})
}

// DimMenuItemsSpec is the dim_menu_items destination.
func DimMenuItemsSpec(cfg config.BigQueryConfig) TableSpec {
	return dimSpec(cfg.DimMenuItems, DimMenuItemRow{})
}
