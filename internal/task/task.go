// Package task defines the core domain types for weekplan.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits for task input.
const (
	TitleMinLen = 3
	TitleMaxLen = 50
	NoteMaxLen  = 200
)

// Task is a single entry on the planner.
type Task struct {
	ID        int64
	Title     string
	Note      string
	Completed bool
	Location  Location
	CreatedAt time.Time
}

// Clone returns a copy of the task. Locations are values, so the copy shares nothing.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// IsParked returns true if the task sits in the parking area.
func (t *Task) IsParked() bool {
	_, ok := t.Location.(Parking)
	return ok
}

// Input holds the user-editable fields of a new task.
type Input struct {
	Title string
	Note  string
}

// Validate checks the input against the title and note rules.
// It returns the first failing field as a *ValidationError.
func (in Input) Validate() error {
	if errs := ValidateFields(in.Title, in.Note); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (in Input) normalize() (Input, error) {
	out := Input{Title: strings.TrimSpace(in.Title), Note: strings.TrimSpace(in.Note)}
	if err := out.Validate(); err != nil {
		return Input{}, err
	}
	return out, nil
}

// ValidateFields returns every field error for the given title and note, title first.
// Lengths are counted in runes after trimming surrounding whitespace.
func ValidateFields(title, note string) []*ValidationError {
	var errs []*ValidationError
	if err := ValidateTitle(title); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateNote(note); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// ValidateTitle checks a title on its own.
func ValidateTitle(title string) *ValidationError {
	switch n := utf8.RuneCountInString(strings.TrimSpace(title)); {
	case n == 0:
		return &ValidationError{Field: "title", Rule: RuleRequired}
	case n < TitleMinLen:
		return &ValidationError{Field: "title", Rule: RuleMinLength, Limit: TitleMinLen}
	case n > TitleMaxLen:
		return &ValidationError{Field: "title", Rule: RuleMaxLength, Limit: TitleMaxLen}
	}
	return nil
}

// ValidateNote checks a note on its own. Empty notes are valid.
func ValidateNote(note string) *ValidationError {
	if utf8.RuneCountInString(strings.TrimSpace(note)) > NoteMaxLen {
		return &ValidationError{Field: "note", Rule: RuleMaxLength, Limit: NoteMaxLen}
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
// Location is only honoured by storage backends; the Board moves tasks through Move.
type Patch struct {
	Title     *string
	Note      *string
	Completed *bool
	Location  Location
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Note == nil && p.Completed == nil && p.Location == nil
}

// ApplyTo merges the patch into t in place.
func (p Patch) ApplyTo(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Note != nil {
		t.Note = strings.TrimSpace(*p.Note)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Location != nil {
		t.Location = p.Location
	}
}

// taskJSON is the stored JSON shape of a task.
type taskJSON struct {
	ID        int64        `json:"id"`
	Title     string       `json:"title"`
	Note      string       `json:"note,omitempty"`
	Completed bool         `json:"completed"`
	Location  locationJSON `json:"location"`
	CreatedAt time.Time    `json:"created_at"`
}

// MarshalJSON encodes the task with a tagged location object.
func (t Task) MarshalJSON() ([]byte, error) {
	loc, err := encodeLocation(t.Location)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taskJSON{
		ID:        t.ID,
		Title:     t.Title,
		Note:      t.Note,
		Completed: t.Completed,
		Location:  loc,
		CreatedAt: t.CreatedAt,
	})
}

// UnmarshalJSON decodes a task, rejecting unknown location types.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	loc, err := raw.Location.decode()
	if err != nil {
		return fmt.Errorf("task %d: %w", raw.ID, err)
	}
	*t = Task{
		ID:        raw.ID,
		Title:     raw.Title,
		Note:      raw.Note,
		Completed: raw.Completed,
		Location:  loc,
		CreatedAt: raw.CreatedAt,
	}
	return nil
}
