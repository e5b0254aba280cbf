package task

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const parkingPrefix = "parking"

// SlotID returns the composite key of a week slot, e.g. "monday-morning-2".
func SlotID(day Day, period Period, position int) string {
	return fmt.Sprintf("%s-%s-%d", day, period, position)
}

// ParkingSlotID returns the composite key of a parking position, e.g. "parking-3".
func ParkingSlotID(position int) string {
	return fmt.Sprintf("%s-%d", parkingPrefix, position)
}

// LocationID returns the slot id of any location.
func LocationID(loc Location) string {
	switch l := loc.(type) {
	case Week:
		return SlotID(l.Day, l.Period, l.Position)
	case Parking:
		return ParkingSlotID(l.Position)
	default:
		return ""
	}
}

// ParseSlotID recovers the location encoded by SlotID or ParkingSlotID.
// Unknown days, periods outside morning/afternoon and positions outside the
// slot range return an error wrapping ErrInvalidSlot.
func ParseSlotID(s string) (Location, error) {
	parts := strings.Split(s, "-")
	invalid := func(reason string) (Location, error) {
		return nil, fmt.Errorf("%w %q: %s", ErrInvalidSlot, s, reason)
	}

	switch len(parts) {
	case 2:
		if parts[0] != parkingPrefix {
			return invalid("expected parking-<position>")
		}
		pos, err := parsePosition(parts[1])
		if err != nil {
			return invalid(err.Error())
		}
		return Parking{Position: pos}, nil
	case 3:
		day := Day(parts[0])
		if !day.Valid() {
			return invalid("unknown day")
		}
		period := Period(parts[1])
		if !period.Valid() {
			return invalid("unknown period")
		}
		pos, err := parsePosition(parts[2])
		if err != nil {
			return invalid(err.Error())
		}
		if pos >= MaxPositionsPerSlot {
			return invalid(fmt.Sprintf("position must be below %d", MaxPositionsPerSlot))
		}
		return Week{Day: day, Period: period, Position: pos}, nil
	default:
		return invalid("wrong number of parts")
	}
}

func parsePosition(s string) (int, error) {
	// Atoi accepts "+1" and "01"; a slot id has one spelling per position.
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("position %q is not a number", s)
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("position %q has a leading zero", s)
	}
	pos, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("position %q is not a number", s)
	}
	return pos, nil
}

// ResolveDrop turns a drop target id into a destination.
// An empty target means the task was released outside any slot.
func ResolveDrop(target string) (Location, error) {
	if strings.TrimSpace(target) == "" {
		return nil, ErrDropCancelled
	}
	loc, err := ParseSlotID(target)
	if err != nil {
		return nil, &InvalidPlacementError{Reason: err.Error()}
	}
	return loc, nil
}

// Grid is the configured addressable space: an ordered day list, two periods
// and MaxPositionsPerSlot positions each, plus parking.
type Grid struct {
	days []Day
}

// DefaultGrid returns a grid over all seven days.
func DefaultGrid() Grid {
	return Grid{days: append([]Day(nil), AllDays...)}
}

// NewGrid builds a grid over the given days, in order.
func NewGrid(days []Day) (Grid, error) {
	if len(days) == 0 {
		return Grid{}, errors.New("at least one day must be configured")
	}
	seen := make(map[Day]bool, len(days))
	for _, d := range days {
		if !d.Valid() {
			return Grid{}, fmt.Errorf("unknown day %q", d)
		}
		if seen[d] {
			return Grid{}, fmt.Errorf("duplicate day %q", d)
		}
		seen[d] = true
	}
	return Grid{days: append([]Day(nil), days...)}, nil
}

// Days returns the configured days in order.
func (g Grid) Days() []Day {
	return append([]Day(nil), g.days...)
}

// HasDay returns true if d is part of the grid.
func (g Grid) HasDay(d Day) bool {
	for _, known := range g.days {
		if known == d {
			return true
		}
	}
	return false
}

// Buckets returns every week bucket in display order, followed by parking.
func (g Grid) Buckets() []Bucket {
	out := make([]Bucket, 0, len(g.days)*len(Periods)+1)
	for _, d := range g.days {
		for _, p := range Periods {
			out = append(out, WeekBucket(d, p))
		}
	}
	return append(out, ParkingBucket())
}

// Validate checks that loc addresses a slot of this grid.
func (g Grid) Validate(loc Location) error {
	switch l := loc.(type) {
	case Week:
		dest := SlotID(l.Day, l.Period, l.Position)
		if !g.HasDay(l.Day) {
			return &InvalidPlacementError{Destination: dest, Reason: "day is not part of the planner"}
		}
		if !l.Period.Valid() {
			return &InvalidPlacementError{Destination: dest, Reason: "period must be morning or afternoon"}
		}
		if l.Position < 0 || l.Position >= MaxPositionsPerSlot {
			return &InvalidPlacementError{Destination: dest, Reason: fmt.Sprintf("position must be in [0,%d)", MaxPositionsPerSlot)}
		}
		return nil
	case Parking:
		if l.Position < 0 {
			return &InvalidPlacementError{Destination: ParkingSlotID(l.Position), Reason: "position must not be negative"}
		}
		return nil
	default:
		return &InvalidPlacementError{Reason: "no destination"}
	}
}

// ValidateBucket checks that b is a bucket of this grid.
func (g Grid) ValidateBucket(b Bucket) error {
	return g.Validate(b.At(0))
}

// ParseSlotID parses s and checks it against the configured days.
func (g Grid) ParseSlotID(s string) (Location, error) {
	loc, err := ParseSlotID(s)
	if err != nil {
		return nil, err
	}
	if w, ok := loc.(Week); ok && !g.HasDay(w.Day) {
		return nil, fmt.Errorf("%w %q: day is not part of the planner", ErrInvalidSlot, s)
	}
	return loc, nil
}
