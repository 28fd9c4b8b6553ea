package flatten

import (
	"context"
	"testing"

	"github.com/goforsam/toast-api/internal/toast"
)

func TestLaborShiftsFlatten(t *testing.T) {
	entries := []toast.TimeEntry{
		{
			GUID:         "te-1",
			Employee:     &toast.EntityRef{GUID: "emp-1"},
			Job:          &toast.EntityRef{GUID: "job-1"},
			RegularHours: f(7.5),
			TotalPay:     f(93.75),
		},
		{GUID: "te-2", Deleted: true},
		{}, // no guid
	}

	rows := LaborShifts(context.Background(), nil, "rest-1", entries, testMeta())
	if len(rows) != 1 {
		t.Fatalf("expected deleted and keyless entries dropped, got %d rows", len(rows))
	}
	row := rows[0]
	if row.ShiftGUID != "te-1" || row.EmployeeGUID.StringVal != "emp-1" || row.JobGUID.StringVal != "job-1" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if !row.RegularHours.Valid || row.RegularHours.Float64 != 7.5 {
		t.Fatalf("expected hours carried, got %+v", row.RegularHours)
	}
	if row.OvertimeHours.Valid {
		t.Fatalf("expected absent overtime NULL, got %+v", row.OvertimeHours)
	}
}
