package toast

import (
	"encoding/json"
	"testing"
)

func TestBusinessDateUnmarshal(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"integer", `20260208`, "2026-02-08"},
		{"digit string", `"20260208"`, "2026-02-08"},
		{"iso string", `"2026-02-08"`, "2026-02-08"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d BusinessDate
			if err := json.Unmarshal([]byte(tc.input), &d); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.input, err)
			}
			if got := d.Date.String(); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestBusinessDateUnmarshalNull(t *testing.T) {
	var d BusinessDate
	if err := json.Unmarshal([]byte(`null`), &d); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if d.Valid() {
		t.Fatal("expected invalid date for null input")
	}
}

func TestBusinessDateUnmarshalRejectsGarbage(t *testing.T) {
	var d BusinessDate
	if err := json.Unmarshal([]byte(`"not-a-date"`), &d); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"vendor offset", `"2026-02-08T04:26:03.864+0000"`},
		{"negative offset", `"2026-02-08T04:26:03.864-0000"`},
		{"no millis", `"2026-02-08T04:26:03+0000"`},
		{"rfc3339", `"2026-02-08T04:26:03Z"`},
		{"rfc3339 nano", `"2026-02-08T04:26:03.864123Z"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tc.input), &ts); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.input, err)
			}
			if !ts.Valid() {
				t.Fatal("expected valid timestamp")
			}
			if got := ts.Time.UTC().Hour(); got != 4 {
				t.Fatalf("expected hour 4 in UTC, got %d", got)
			}
		})
	}
}

func TestTimestampUnmarshalNull(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`null`), &ts); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if ts.Valid() {
		t.Fatal("expected zero timestamp for null input")
	}
}

func TestSelectionMenuItemGUID(t *testing.T) {
	sel := Selection{ItemGUID: "direct"}
	if got := sel.MenuItemGUID(); got != "direct" {
		t.Fatalf("expected direct guid, got %q", got)
	}

	sel = Selection{Item: &EntityRef{GUID: "nested"}}
	if got := sel.MenuItemGUID(); got != "nested" {
		t.Fatalf("expected nested guid, got %q", got)
	}

	sel = Selection{}
	if got := sel.MenuItemGUID(); got != "" {
		t.Fatalf("expected empty guid, got %q", got)
	}
}

func TestVisibilityUnmarshal(t *testing.T) {
	var item MenuItem
	payload := `{"guid":"g1","name":"Taco","visibility":["POS","KIOSK"]}`
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal list visibility: %v", err)
	}
	if item.Visibility != "POS,KIOSK" {
		t.Fatalf("expected joined visibility, got %q", item.Visibility)
	}

	payload = `{"guid":"g1","name":"Taco","visibility":"ALL"}`
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal string visibility: %v", err)
	}
	if item.Visibility != "ALL" {
		t.Fatalf("expected ALL, got %q", item.Visibility)
	}
}
