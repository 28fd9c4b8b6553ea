package toast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// BusinessDate is the restaurant's operational day. The vendor renders it
// either as an integer (20260208), a digit string ("20260208"), or an ISO
// calendar date ("2026-02-08").
type BusinessDate struct {
	civil.Date
}

func (d BusinessDate) Valid() bool {
	return d.Date.IsValid()
}

func (d BusinessDate) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Date.String())
}

func (d *BusinessDate) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(bytes.Trim(bytes.TrimSpace(data), `"`)))
	if raw == "" || raw == "null" {
		d.Date = civil.Date{}
		return nil
	}
	if len(raw) == 8 && isDigits(raw) {
		raw = raw[0:4] + "-" + raw[4:6] + "-" + raw[6:8]
	}
	parsed, err := civil.ParseDate(raw)
	if err != nil {
		return fmt.Errorf("parsing business date %q: %w", raw, err)
	}
	d.Date = parsed
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Timestamp handles the vendor's non-RFC3339 offset rendering
// ("2026-02-08T04:26:03.864+0000") alongside standard RFC 3339.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	time.RFC3339,
}

func (t Timestamp) Valid() bool {
	return !t.Time.IsZero()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("parsing timestamp %q", raw)
}

// EntityRef is the vendor's generic reference shape (guid plus optional name).
type EntityRef struct {
	GUID string `json:"guid"`
	Name string `json:"name,omitempty"`
}

// Order is the unit fetched from the bulk orders endpoint.
type Order struct {
	GUID           string       `json:"guid"`
	RestaurantGUID string       `json:"restaurantGuid"`
	BusinessDate   BusinessDate `json:"businessDate"`
	OpenedDate     Timestamp    `json:"openedDate"`
	ClosedDate     Timestamp    `json:"closedDate"`
	PaidDate       Timestamp    `json:"paidDate"`
	ModifiedDate   Timestamp    `json:"modifiedDate"`
	Voided         bool         `json:"voided"`
	Deleted        bool         `json:"deleted"`
	GuestCount     int          `json:"numberOfGuests"`
	Server         *EntityRef   `json:"server,omitempty"`
	Checks         []Check      `json:"checks"`
}

// Check belongs to one Order.
type Check struct {
	GUID        string      `json:"guid"`
	Deleted     bool        `json:"deleted"`
	Server      *EntityRef  `json:"server,omitempty"`
	Amount      *float64    `json:"amount,omitempty"`
	TaxAmount   *float64    `json:"taxAmount,omitempty"`
	TotalAmount *float64    `json:"totalAmount,omitempty"`
	Selections  []Selection `json:"selections"`
	Payments    []Payment   `json:"payments"`
}

// Selection is one ordered menu item on a Check.
type Selection struct {
	GUID             string     `json:"guid"`
	DisplayName      string     `json:"displayName"`
	ItemGUID         string     `json:"itemGuid,omitempty"`
	Item             *EntityRef `json:"item,omitempty"`
	SalesCategory    *EntityRef `json:"salesCategory,omitempty"`
	Quantity         float64    `json:"quantity"`
	Price            *float64   `json:"price,omitempty"`
	PreDiscountPrice *float64   `json:"preDiscountPrice,omitempty"`
	Tax              *float64   `json:"tax,omitempty"`
	Voided           bool       `json:"voided"`
	Modifiers        []Modifier `json:"modifiers,omitempty"`
}

// MenuItemGUID resolves the referenced menu item, whichever shape the vendor used.
func (s Selection) MenuItemGUID() string {
	if s.ItemGUID != "" {
		return s.ItemGUID
	}
	if s.Item != nil {
		return s.Item.GUID
	}
	return ""
}

// Modifier is a guid/name/price triple attached to a Selection.
type Modifier struct {
	GUID  string   `json:"guid"`
	Name  string   `json:"displayName"`
	Price *float64 `json:"price,omitempty"`
}

// Payment belongs to one Check.
type Payment struct {
	GUID      string    `json:"guid"`
	PaidDate  Timestamp `json:"paidDate"`
	Amount    *float64  `json:"amount,omitempty"`
	TipAmount *float64  `json:"tipAmount,omitempty"`
	Type      string    `json:"type,omitempty"`
	CardType  string    `json:"cardType,omitempty"`
	Last4     string    `json:"last4Digits,omitempty"`
}

// CashEntry is one cash drawer entry.
type CashEntry struct {
	GUID         string       `json:"guid"`
	BusinessDate BusinessDate `json:"businessDate"`
	EntryDate    Timestamp    `json:"date"`
	Employee     *EntityRef   `json:"employee,omitempty"`
	CashDrawer   *EntityRef   `json:"cashDrawer,omitempty"`
	Type         string       `json:"type,omitempty"`
	Amount       *float64     `json:"amount,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// CashDeposit is one bank deposit.
type CashDeposit struct {
	GUID         string       `json:"guid"`
	BusinessDate BusinessDate `json:"businessDate"`
	DepositDate  Timestamp    `json:"date"`
	Amount       *float64     `json:"amount,omitempty"`
	CashAmount   *float64     `json:"cashAmount,omitempty"`
	CheckAmount  *float64     `json:"checkAmount,omitempty"`
}

// TimeEntry is one employee clock in/out record.
type TimeEntry struct {
	GUID          string       `json:"guid"`
	BusinessDate  BusinessDate `json:"businessDate"`
	Employee      *EntityRef   `json:"employeeReference,omitempty"`
	Job           *EntityRef   `json:"jobReference,omitempty"`
	InDate        Timestamp    `json:"inDate"`
	OutDate       Timestamp    `json:"outDate"`
	RegularHours  *float64     `json:"regularHours,omitempty"`
	OvertimeHours *float64     `json:"overtimeHours,omitempty"`
	HourlyWage    *float64     `json:"hourlyWage,omitempty"`
	RegularPay    *float64     `json:"regularHourlyWages,omitempty"`
	OvertimePay   *float64     `json:"overtimeHourlyWages,omitempty"`
	TotalPay      *float64     `json:"totalWages,omitempty"`
	DeclaredTips  *float64     `json:"declaredCashTips,omitempty"`
	Deleted       bool         `json:"deleted"`
}

// RestaurantInfo is the configuration endpoint's restaurant document.
type RestaurantInfo struct {
	GUID     string `json:"guid"`
	General  struct {
		Name         string `json:"name"`
		LocationName string `json:"locationName"`
		TimeZone     string `json:"timeZone"`
	} `json:"general"`
	Location struct {
		Address struct {
			AddressLine1 string `json:"address1"`
			AddressLine2 string `json:"address2"`
			City         string `json:"city"`
			StateCode    string `json:"stateCode"`
			ZipCode      string `json:"zipCode"`
		} `json:"address"`
	} `json:"location"`
}

// Employee is one staff record from the labor configuration endpoint.
type Employee struct {
	GUID       string `json:"guid"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	ExternalID string `json:"externalEmployeeId"`
	Deleted    bool   `json:"deleted"`
}

// Job is one job role from the labor configuration endpoint.
type Job struct {
	GUID        string   `json:"guid"`
	Title       string   `json:"title"`
	DefaultWage *float64 `json:"defaultWage,omitempty"`
	Tipped      bool     `json:"tipped"`
	Deleted     bool     `json:"deleted"`
}

// Menu is the top of the nested menus document (menus -> groups -> items).
type Menu struct {
	Name   string      `json:"name"`
	Groups []MenuGroup `json:"menuGroups"`
}

// MenuGroup may nest further groups alongside its items.
type MenuGroup struct {
	Name      string      `json:"name"`
	Items     []MenuItem  `json:"menuItems"`
	Subgroups []MenuGroup `json:"menuGroups"`
}

// MenuItem is one sellable item.
type MenuItem struct {
	GUID          string     `json:"guid"`
	Name          string     `json:"name"`
	Price         *float64   `json:"price,omitempty"`
	SalesCategory *EntityRef `json:"salesCategory,omitempty"`
	Visibility    Visibility `json:"visibility,omitempty"`
	Deleted       bool       `json:"deleted"`
}

// Visibility is rendered by the vendor as either a string or a string list.
type Visibility string

func (v *Visibility) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*v = ""
		return nil
	}
	if trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*v = Visibility(strings.Join(list, ","))
		return nil
	}
	var single string
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*v = Visibility(single)
	return nil
}
