package task

import (
	"errors"
	"fmt"
	"strings"
)

// MaxPositionsPerSlot is the number of tasks a (day, period) pair can hold.
const MaxPositionsPerSlot = 4

// Day is a day of the week, stored lowercase.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// AllDays lists the days of the week, Monday first.
var AllDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseDay parses a case-insensitive day name.
func ParseDay(s string) (Day, error) {
	d := Day(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown day %q", s)
	}
	return d, nil
}

// Valid returns true if d is one of the seven week days.
func (d Day) Valid() bool {
	for _, known := range AllDays {
		if d == known {
			return true
		}
	}
	return false
}

// Title returns the capitalised day name (e.g., "Monday").
func (d Day) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Short returns the three-letter day name (e.g., "Mon").
func (d Day) Short() string {
	t := d.Title()
	if len(t) < 3 {
		return t
	}
	return t[:3]
}

// Period is half of a day.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
)

// Periods lists the periods in display order.
var Periods = []Period{Morning, Afternoon}

// ParsePeriod parses a case-insensitive period name.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown period %q", s)
	}
	return p, nil
}

// Valid returns true if p is morning or afternoon.
func (p Period) Valid() bool {
	return p == Morning || p == Afternoon
}

// Location is where a task sits: a Week slot or the Parking area.
// The interface is sealed; Week and Parking are the only implementations.
type Location interface {
	// Bucket returns the group of tasks this location belongs to.
	Bucket() Bucket
	// Index returns the zero-based position inside the bucket.
	Index() int
	isLocation()
}

// Week places a task in a (day, period) slot.
type Week struct {
	Day      Day
	Period   Period
	Position int
}

func (w Week) Bucket() Bucket { return WeekBucket(w.Day, w.Period) }
func (w Week) Index() int     { return w.Position }
func (Week) isLocation()      {}

func (w Week) String() string { return SlotID(w.Day, w.Period, w.Position) }

// Parking places a task in the unscheduled area.
type Parking struct {
	Position int
}

func (p Parking) Bucket() Bucket { return ParkingBucket() }
func (p Parking) Index() int     { return p.Position }
func (Parking) isLocation()      {}

func (p Parking) String() string { return ParkingSlotID(p.Position) }

// Bucket identifies the set of tasks sharing a (day, period) pair, or the parking area.
type Bucket struct {
	Parking bool
	Day     Day
	Period  Period
}

// WeekBucket returns the bucket for a (day, period) pair.
func WeekBucket(day Day, period Period) Bucket {
	return Bucket{Day: day, Period: period}
}

// ParkingBucket returns the parking bucket.
func ParkingBucket() Bucket {
	return Bucket{Parking: true}
}

// At returns the location at the given position in the bucket.
func (b Bucket) At(position int) Location {
	if b.Parking {
		return Parking{Position: position}
	}
	return Week{Day: b.Day, Period: b.Period, Position: position}
}

// Capacity returns the maximum number of tasks in the bucket, or -1 if unbounded.
func (b Bucket) Capacity() int {
	if b.Parking {
		return -1
	}
	return MaxPositionsPerSlot
}

func (b Bucket) String() string {
	if b.Parking {
		return parkingPrefix
	}
	return string(b.Day) + "-" + string(b.Period)
}

// Location type tags used in the stored JSON and flattened backend rows.
const (
	LocationTypeWeek    = "week"
	LocationTypeParking = "parking"
)

// TypeOf returns the location type tag.
func TypeOf(loc Location) string {
	switch loc.(type) {
	case Week:
		return LocationTypeWeek
	case Parking:
		return LocationTypeParking
	default:
		return ""
	}
}

var errUnknownLocation = errors.New("unknown location type")

type locationJSON struct {
	Type     string `json:"type"`
	Day      Day    `json:"day,omitempty"`
	Period   Period `json:"period,omitempty"`
	Position int    `json:"position"`
}

func encodeLocation(loc Location) (locationJSON, error) {
	switch l := loc.(type) {
	case Week:
		return locationJSON{Type: LocationTypeWeek, Day: l.Day, Period: l.Period, Position: l.Position}, nil
	case Parking:
		return locationJSON{Type: LocationTypeParking, Position: l.Position}, nil
	default:
		return locationJSON{}, errUnknownLocation
	}
}

func (l locationJSON) decode() (Location, error) {
	return NewLocation(l.Type, string(l.Day), string(l.Period), l.Position)
}

// NewLocation builds a Location from flattened fields, as stored by backends.
func NewLocation(locationType, day, period string, position int) (Location, error) {
	switch locationType {
	case LocationTypeWeek:
		d, err := ParseDay(day)
		if err != nil {
			return nil, err
		}
		p, err := ParsePeriod(period)
		if err != nil {
			return nil, err
		}
		return Week{Day: d, Period: p, Position: position}, nil
	case LocationTypeParking:
		return Parking{Position: position}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownLocation, locationType)
	}
}

// Flatten splits a location into its stored fields.
func Flatten(loc Location) (locationType, day, period string, position int) {
	switch l := loc.(type) {
	case Week:
		return LocationTypeWeek, string(l.Day), string(l.Period), l.Position
	case Parking:
		return LocationTypeParking, "", "", l.Position
	default:
		return "", "", "", 0
	}
}
