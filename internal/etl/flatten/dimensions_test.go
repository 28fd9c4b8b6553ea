package flatten

import (
	"context"
	"testing"

	"github.com/goforsam/toast-api/internal/toast"
)

func TestMenuItemsWalksNestedGroups(t *testing.T) {
	menus := []toast.Menu{{
		Name: "Dinner",
		Groups: []toast.MenuGroup{{
			Name:  "Tacos",
			Items: []toast.MenuItem{{GUID: "item-1", Name: "Carnitas", Price: f(4.50)}},
			Subgroups: []toast.MenuGroup{{
				Name: "Specials",
				Items: []toast.MenuItem{
					{GUID: "item-2", Name: "Al Pastor"},
					{GUID: "item-1", Name: "Carnitas"}, // repeated across groups
				},
			}},
		}},
	}}

	rows := MenuItems(context.Background(), nil, "rest-1", menus, testMeta())
	if len(rows) != 2 {
		t.Fatalf("expected 2 unique items, got %d", len(rows))
	}
	if rows[0].MenuName.StringVal != "Dinner" || rows[0].GroupName.StringVal != "Tacos" {
		t.Fatalf("expected menu and group names carried, got %+v", rows[0])
	}
	if rows[1].ItemGUID != "item-2" || rows[1].GroupName.StringVal != "Specials" {
		t.Fatalf("expected subgroup item emitted, got %+v", rows[1])
	}
}

func TestMenuItemsSkipsMissingGUID(t *testing.T) {
	menus := []toast.Menu{{
		Name: "Dinner",
		Groups: []toast.MenuGroup{{
			Name:  "Tacos",
			Items: []toast.MenuItem{{Name: "No GUID"}},
		}},
	}}

	rows := MenuItems(context.Background(), nil, "rest-1", menus, testMeta())
	if len(rows) != 0 {
		t.Fatalf("expected item without guid skipped, got %d", len(rows))
	}
}

func TestRestaurantRow(t *testing.T) {
	info := &toast.RestaurantInfo{GUID: "rest-1"}
	info.General.Name = "Taqueria Uno"
	info.General.TimeZone = "America/Chicago"
	info.Location.Address.City = "Austin"

	row := Restaurant(info, testMeta())
	if row == nil {
		t.Fatal("expected row")
	}
	if row.RestaurantGUID != "rest-1" || row.Name.StringVal != "Taqueria Uno" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.City.StringVal != "Austin" {
		t.Fatalf("expected address mapped, got %+v", row)
	}
}

func TestRestaurantRowNilInput(t *testing.T) {
	if row := Restaurant(nil, testMeta()); row != nil {
		t.Fatalf("expected nil row for nil input, got %+v", row)
	}
}

func TestEmployeesAndJobs(t *testing.T) {
	employees := Employees(context.Background(), nil, "rest-1", []toast.Employee{
		{GUID: "emp-1", FirstName: "Sam", LastName: "Rivera"},
		{FirstName: "No", LastName: "GUID"},
	}, testMeta())
	if len(employees) != 1 {
		t.Fatalf("expected employee without guid skipped, got %d", len(employees))
	}
	if employees[0].EmployeeGUID != "emp-1" || employees[0].RestaurantGUID != "rest-1" {
		t.Fatalf("unexpected employee row: %+v", employees[0])
	}

	jobs := Jobs(context.Background(), nil, "rest-1", []toast.Job{
		{GUID: "job-1", Title: "Server", DefaultWage: f(2.13), Tipped: true},
	}, testMeta())
	if len(jobs) != 1 || !jobs[0].Tipped || jobs[0].DefaultWage.Float64 != 2.13 {
		t.Fatalf("unexpected job rows: %+v", jobs)
	}
}
