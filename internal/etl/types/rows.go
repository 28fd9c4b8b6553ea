package types

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// DataSource tags every warehouse row with its origin system.
const DataSource = "toast"

// Metadata is stamped onto every row produced by one load.
type Metadata struct {
	LoadID   string
	LoadedAt time.Time
}

// OrderItemRow is one sold menu item line in fact_order_items.
type OrderItemRow struct {
	SelectionGUID    string                 `bigquery:"selection_guid"`
	OrderGUID        string                 `bigquery:"order_guid"`
	CheckGUID        string                 `bigquery:"check_guid"`
	RestaurantGUID   string                 `bigquery:"restaurant_guid"`
	BusinessDate     civil.Date             `bigquery:"business_date"`
	ItemGUID         bigquery.NullString    `bigquery:"item_guid"`
	ItemName         bigquery.NullString    `bigquery:"item_name"`
	SalesCategory    bigquery.NullString    `bigquery:"sales_category"`
	Quantity         float64                `bigquery:"quantity"`
	Price            bigquery.NullFloat64   `bigquery:"price"`
	PreDiscountPrice bigquery.NullFloat64   `bigquery:"pre_discount_price"`
	DiscountAmount   bigquery.NullFloat64   `bigquery:"discount_amount"`
	Tax              bigquery.NullFloat64   `bigquery:"tax"`
	Modifiers        bigquery.NullString    `bigquery:"modifiers"`
	CheckAmount      bigquery.NullFloat64   `bigquery:"check_amount"`
	CheckTax         bigquery.NullFloat64   `bigquery:"check_tax"`
	CheckTotal       bigquery.NullFloat64   `bigquery:"check_total"`
	CheckTip         bigquery.NullFloat64   `bigquery:"check_tip"`
	PaymentType      bigquery.NullString    `bigquery:"payment_type"`
	ServerGUID       bigquery.NullString    `bigquery:"server_guid"`
	GuestCount       int64                  `bigquery:"guest_count"`
	Voided           bool                   `bigquery:"is_voided"`
	Deleted          bool                   `bigquery:"is_deleted"`
	OpenedAt         bigquery.NullTimestamp `bigquery:"opened_at"`
	ClosedAt         bigquery.NullTimestamp `bigquery:"closed_at"`
	LoadID           string                 `bigquery:"load_id"`
	LoadedAt         time.Time              `bigquery:"loaded_at"`
	DataSource       string                 `bigquery:"data_source"`
}

// PaymentRow is one tender in fact_payments.
type PaymentRow struct {
	PaymentGUID    string                 `bigquery:"payment_guid"`
	OrderGUID      string                 `bigquery:"order_guid"`
	CheckGUID      string                 `bigquery:"check_guid"`
	RestaurantGUID string                 `bigquery:"restaurant_guid"`
	BusinessDate   civil.Date             `bigquery:"business_date"`
	PaidAt         bigquery.NullTimestamp `bigquery:"paid_at"`
	Amount         bigquery.NullFloat64   `bigquery:"amount"`
	TipAmount      bigquery.NullFloat64   `bigquery:"tip_amount"`
	TipPercent     bigquery.NullFloat64   `bigquery:"tip_percent"`
	PaymentType    bigquery.NullString    `bigquery:"payment_type"`
	CardType       bigquery.NullString    `bigquery:"card_type"`
	Last4          bigquery.NullString    `bigquery:"last4"`
	LoadID         string                 `bigquery:"load_id"`
	LoadedAt       time.Time              `bigquery:"loaded_at"`
	DataSource     string                 `bigquery:"data_source"`
}

// CashEntryRow is one drawer transaction in fact_cash_entries.
type CashEntryRow struct {
	EntryGUID      string                 `bigquery:"entry_guid"`
	RestaurantGUID string                 `bigquery:"restaurant_guid"`
	BusinessDate   civil.Date             `bigquery:"business_date"`
	EntryAt        bigquery.NullTimestamp `bigquery:"entry_at"`
	EntryType      bigquery.NullString    `bigquery:"entry_type"`
	Amount         bigquery.NullFloat64   `bigquery:"amount"`
	EmployeeGUID   bigquery.NullString    `bigquery:"employee_guid"`
	CashDrawerGUID bigquery.NullString    `bigquery:"cash_drawer_guid"`
	Reason         bigquery.NullString    `bigquery:"reason"`
	Notes          bigquery.NullString    `bigquery:"notes"`
	LoadID         string                 `bigquery:"load_id"`
	LoadedAt       time.Time              `bigquery:"loaded_at"`
	DataSource     string                 `bigquery:"data_source"`
}

// CashDepositRow is one bank deposit in fact_cash_deposits.
type CashDepositRow struct {
	DepositGUID    string                 `bigquery:"deposit_guid"`
	RestaurantGUID string                 `bigquery:"restaurant_guid"`
	BusinessDate   civil.Date             `bigquery:"business_date"`
	DepositAt      bigquery.NullTimestamp `bigquery:"deposit_at"`
	Amount         bigquery.NullFloat64   `bigquery:"amount"`
	CashAmount     bigquery.NullFloat64   `bigquery:"cash_amount"`
	CheckAmount    bigquery.NullFloat64   `bigquery:"check_amount"`
	LoadID         string                 `bigquery:"load_id"`
	LoadedAt       time.Time              `bigquery:"loaded_at"`
	DataSource     string                 `bigquery:"data_source"`
}

// LaborShiftRow is one clock record in fact_labor_shifts.
type LaborShiftRow struct {
	ShiftGUID      string                 `bigquery:"shift_guid"`
	RestaurantGUID string                 `bigquery:"restaurant_guid"`
	BusinessDate   civil.Date             `bigquery:"business_date"`
	EmployeeGUID   bigquery.NullString    `bigquery:"employee_guid"`
	JobGUID        bigquery.NullString    `bigquery:"job_guid"`
	ClockInAt      bigquery.NullTimestamp `bigquery:"clock_in_at"`
	ClockOutAt     bigquery.NullTimestamp `bigquery:"clock_out_at"`
	RegularHours   bigquery.NullFloat64   `bigquery:"regular_hours"`
	OvertimeHours  bigquery.NullFloat64   `bigquery:"overtime_hours"`
	HourlyWage     bigquery.NullFloat64   `bigquery:"hourly_wage"`
	RegularPay     bigquery.NullFloat64   `bigquery:"regular_pay"`
	OvertimePay    bigquery.NullFloat64   `bigquery:"overtime_pay"`
	TotalPay       bigquery.NullFloat64   `bigquery:"total_pay"`
	DeclaredTips   bigquery.NullFloat64   `bigquery:"declared_tips"`
	LoadID         string                 `bigquery:"load_id"`
	LoadedAt       time.Time              `bigquery:"loaded_at"`
	DataSource     string                 `bigquery:"data_source"`
}

// DimRestaurantRow is one location in dim_restaurants.
type DimRestaurantRow struct {
	RestaurantGUID string              `bigquery:"restaurant_guid"`
	Name           bigquery.NullString `bigquery:"name"`
	LocationName   bigquery.NullString `bigquery:"location_name"`
	TimeZone       bigquery.NullString `bigquery:"time_zone"`
	AddressLine1   bigquery.NullString `bigquery:"address_line1"`
	AddressLine2   bigquery.NullString `bigquery:"address_line2"`
	City           bigquery.NullString `bigquery:"city"`
	State          bigquery.NullString `bigquery:"state"`
	ZipCode        bigquery.NullString `bigquery:"zip_code"`
	LoadID         string              `bigquery:"load_id"`
	LoadedAt       time.Time           `bigquery:"loaded_at"`
	DataSource     string              `bigquery:"data_source"`
}

// DimEmployeeRow is one staff member in dim_employees.
type DimEmployeeRow struct {
	EmployeeGUID   string              `bigquery:"employee_guid"`
	RestaurantGUID string              `bigquery:"restaurant_guid"`
	FirstName      bigquery.NullString `bigquery:"first_name"`
	LastName       bigquery.NullString `bigquery:"last_name"`
	Email          bigquery.NullString `bigquery:"email"`
	ExternalID     bigquery.NullString `bigquery:"external_id"`
	Deleted        bool                `bigquery:"deleted"`
	LoadID         string              `bigquery:"load_id"`
	LoadedAt       time.Time           `bigquery:"loaded_at"`
	DataSource     string              `bigquery:"data_source"`
}

// DimJobRow is one job role in dim_jobs.
type DimJobRow struct {
	JobGUID        string               `bigquery:"job_guid"`
	RestaurantGUID string               `bigquery:"restaurant_guid"`
	Title          bigquery.NullString  `bigquery:"title"`
	DefaultWage    bigquery.NullFloat64 `bigquery:"default_wage"`
	Tipped         bool                 `bigquery:"tipped"`
	Deleted        bool                 `bigquery:"deleted"`
	LoadID         string               `bigquery:"load_id"`
	LoadedAt       time.Time            `bigquery:"loaded_at"`
	DataSource     string               `bigquery:"data_source"`
}

// DimMenuItemRow is one sellable item in dim_menu_items.
type DimMenuItemRow struct {
	ItemGUID       string               `bigquery:"item_guid"`
	RestaurantGUID string               `bigquery:"restaurant_guid"`
	Name           bigquery.NullString  `bigquery:"name"`
	MenuName       bigquery.NullString  `bigquery:"menu_name"`
	GroupName      bigquery.NullString  `bigquery:"group_name"`
	Price          bigquery.NullFloat64 `bigquery:"price"`
	SalesCategory  bigquery.NullString  `bigquery:"sales_category"`
	Visibility     bigquery.NullString  `bigquery:"visibility"`
	Deleted        bool                 `bigquery:"deleted"`
	LoadID         string               `bigquery:"load_id"`
	LoadedAt       time.Time            `bigquery:"loaded_at"`
	DataSource     string               `bigquery:"data_source"`
}
