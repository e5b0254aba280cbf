package storage

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/javiermolinar/weekplan/internal/task"
)

func TestNewRecord_Flattens(t *testing.T) {
	r := NewRecord("user-1", &task.Task{
		ID:       3,
		Title:    "Buy milk",
		Location: task.Week{Day: task.Friday, Period: task.Afternoon, Position: 2},
	})

	if r.OwnerID != "user-1" || r.LocationType != "week" || r.Day != "friday" || r.Period != "afternoon" || r.Position != 2 {
		t.Errorf("unexpected record %+v", r)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"note":null`) {
		t.Errorf("empty note should encode as null: %s", data)
	}

	back, err := r.Task()
	if err != nil {
		t.Fatalf("Task failed: %v", err)
	}
	if back.Location != (task.Week{Day: task.Friday, Period: task.Afternoon, Position: 2}) || back.Note != "" {
		t.Errorf("unexpected task %+v", back)
	}
}

func TestRecord_ParkingHasNoDay(t *testing.T) {
	r := NewRecord("u", &task.Task{ID: 1, Title: "Someday", Note: "maybe", Location: task.Parking{Position: 4}})
	if r.Day != "" || r.Period != "" || r.LocationType != "parking" {
		t.Errorf("unexpected record %+v", r)
	}
	if r.Note == nil || *r.Note != "maybe" {
		t.Errorf("note: got %v", r.Note)
	}
}

func TestRecord_RejectsUnknownLocation(t *testing.T) {
	if _, err := (Record{LocationType: "moon"}).Task(); err == nil {
		t.Error("expected error for unknown location type")
	}
}

func TestPatchRecord_RoundTrip(t *testing.T) {
	title := "Renamed"
	p := task.Patch{Title: &title, Location: task.Week{Day: task.Monday, Period: task.Morning, Position: 1}}

	data, err := json.Marshal(NewPatchRecord(p))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var wire PatchRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	back, err := wire.Patch()
	if err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	if back.Title == nil || *back.Title != "Renamed" || back.Note != nil || back.Completed != nil {
		t.Errorf("unexpected fields %+v", back)
	}
	if back.Location != p.Location {
		t.Errorf("location: got %#v", back.Location)
	}
}
