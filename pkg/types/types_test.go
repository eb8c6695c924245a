package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		BirthDate Date `json:"birth_date"`
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"birth_date":"1990-04-12"}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.BirthDate.Year() != 1990 || got.BirthDate.Month() != time.April || got.BirthDate.Day() != 12 {
		t.Fatalf("unexpected date %v", got.BirthDate)
	}

	out, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"birth_date":"1990-04-12"}` {
		t.Fatalf("unexpected json %s", out)
	}

	if err := json.Unmarshal([]byte(`{"birth_date":"12/04/1990"}`), &got); err == nil {
		t.Fatal("expected invalid layout to fail")
	}
}

func TestDateNullIsZero(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`null`), &d); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !d.IsZero() {
		t.Fatalf("expected zero date, got %v", d)
	}
	val, err := d.Value()
	if err != nil || val != nil {
		t.Fatalf("expected nil value, got %v (%v)", val, err)
	}
}

func TestDateScanAcceptsTimestampsAndText(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2001, 2, 3, 15, 4, 5, 0, time.UTC)); err != nil {
		t.Fatalf("scan time: %v", err)
	}
	if d.String() != "2001-02-03" {
		t.Fatalf("unexpected date %s", d)
	}
	if err := d.Scan("2001-02-04 00:00:00+00:00"); err != nil {
		t.Fatalf("scan text: %v", err)
	}
	if d.String() != "2001-02-04" {
		t.Fatalf("unexpected date %s", d)
	}
}

func TestStringListScanAndContains(t *testing.T) {
	var list StringList
	if err := list.Scan([]byte(`["view_history"]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !list.Contains("view_history") {
		t.Fatalf("expected view_history in %v", list)
	}
	if list.Contains("other") {
		t.Fatal("unexpected permission")
	}

	val, err := StringList(nil).Value()
	if err != nil || val != "[]" {
		t.Fatalf("expected empty json array, got %v (%v)", val, err)
	}
}
