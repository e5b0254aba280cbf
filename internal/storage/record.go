package storage

import (
	"time"

	"github.com/javiermolinar/weekplan/internal/task"
)

// Record is the flattened, owner-scoped form of a task used by backends and
// the HTTP API. Parking records carry empty Day and Period.
type Record struct {
	ID           int64     `json:"id"`
	OwnerID      string    `json:"user_id"`
	Title        string    `json:"title"`
	Note         *string   `json:"note"`
	Completed    bool      `json:"completed"`
	LocationType string    `json:"location_type"`
	Day          string    `json:"day,omitempty"`
	Period       string    `json:"period,omitempty"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRecord flattens a task for the given owner. An empty note becomes null.
func NewRecord(ownerID string, t *task.Task) Record {
	typ, day, period, pos := task.Flatten(t.Location)
	r := Record{
		ID:           t.ID,
		OwnerID:      ownerID,
		Title:        t.Title,
		Completed:    t.Completed,
		LocationType: typ,
		Day:          day,
		Period:       period,
		Position:     pos,
		CreatedAt:    t.CreatedAt,
	}
	if t.Note != "" {
		note := t.Note
		r.Note = &note
	}
	return r
}

// NewRecords flattens every task for the given owner.
func NewRecords(ownerID string, tasks []*task.Task) []Record {
	out := make([]Record, len(tasks))
	for i, t := range tasks {
		out[i] = NewRecord(ownerID, t)
	}
	return out
}

// Task rebuilds the task held by the record.
func (r Record) Task() (*task.Task, error) {
	loc, err := task.NewLocation(r.LocationType, r.Day, r.Period, r.Position)
	if err != nil {
		return nil, err
	}
	t := &task.Task{
		ID:        r.ID,
		Title:     r.Title,
		Completed: r.Completed,
		Location:  loc,
		CreatedAt: r.CreatedAt,
	}
	if r.Note != nil {
		t.Note = *r.Note
	}
	return t, nil
}

// Tasks rebuilds every record, stopping at the first malformed one.
func Tasks(records []Record) ([]*task.Task, error) {
	out := make([]*task.Task, 0, len(records))
	for _, r := range records {
		t, err := r.Task()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// PatchRecord is the wire form of task.Patch. Location fields are all set or all absent.
type PatchRecord struct {
	Title        *string `json:"title,omitempty"`
	Note         *string `json:"note,omitempty"`
	Completed    *bool   `json:"completed,omitempty"`
	LocationType *string `json:"location_type,omitempty"`
	Day          *string `json:"day,omitempty"`
	Period       *string `json:"period,omitempty"`
	Position     *int    `json:"position,omitempty"`
}

// NewPatchRecord flattens a patch.
func NewPatchRecord(p task.Patch) PatchRecord {
	r := PatchRecord{Title: p.Title, Note: p.Note, Completed: p.Completed}
	if p.Location != nil {
		typ, day, period, pos := task.Flatten(p.Location)
		r.LocationType, r.Day, r.Period, r.Position = &typ, &day, &period, &pos
	}
	return r
}

// Patch rebuilds the patch held by the record.
func (r PatchRecord) Patch() (task.Patch, error) {
	p := task.Patch{Title: r.Title, Note: r.Note, Completed: r.Completed}
	if r.LocationType == nil {
		return p, nil
	}
	var day, period string
	var pos int
	if r.Day != nil {
		day = *r.Day
	}
	if r.Period != nil {
		period = *r.Period
	}
	if r.Position != nil {
		pos = *r.Position
	}
	loc, err := task.NewLocation(*r.LocationType, day, period, pos)
	if err != nil {
		return task.Patch{}, err
	}
	p.Location = loc
	return p, nil
}

// FullPatch returns a patch that overwrites every mutable field of t.
func FullPatch(t *task.Task) task.Patch {
	title, note, completed := t.Title, t.Note, t.Completed
	return task.Patch{Title: &title, Note: &note, Completed: &completed, Location: t.Location}
}
