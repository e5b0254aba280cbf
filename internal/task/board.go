package task

import (
	"slices"
	"sync"
	"time"
)

// unplacedPosition sorts tasks without a location after every parked task.
const unplacedPosition = 1 << 30

// IDSource hands out task ids.
type IDSource func() int64

// ClockIDs returns an IDSource based on the wall clock in milliseconds.
// Ids are strictly increasing even when called twice in the same millisecond.
func ClockIDs(now func() time.Time) IDSource {
	if now == nil {
		now = time.Now
	}
	var (
		mu   sync.Mutex
		last int64
	)
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		id := now().UnixMilli()
		if id <= last {
			id = last + 1
		}
		last = id
		return id
	}
}

// SequenceIDs returns an IDSource counting up from start.
func SequenceIDs(start int64) IDSource {
	next := start
	return func() int64 {
		id := next
		next++
		return id
	}
}

// Change lists every record whose stored form changed during an operation.
// Updated includes tasks that were only renumbered.
type Change struct {
	Created []*Task
	Updated []*Task
	Removed []int64
}

// IsEmpty reports whether nothing changed.
func (c Change) IsEmpty() bool {
	return len(c.Created) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Board is the in-memory task list. It keeps positions dense and zero-based
// within every bucket after each mutation. A Board is not safe for concurrent use.
type Board struct {
	grid  Grid
	ids   IDSource
	now   func() time.Time
	tasks []*Task
	maxID int64
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) BoardOption {
	return func(b *Board) { b.now = now }
}

// NewBoard creates an empty board over the grid.
func NewBoard(grid Grid, ids IDSource, opts ...BoardOption) *Board {
	if len(grid.days) == 0 {
		grid = DefaultGrid()
	}
	if ids == nil {
		ids = ClockIDs(nil)
	}
	b := &Board{grid: grid, ids: ids, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Grid returns the board's grid.
func (b *Board) Grid() Grid {
	return b.grid
}

// Len returns the number of tasks.
func (b *Board) Len() int {
	return len(b.tasks)
}

// Tasks returns copies of all tasks in creation order.
func (b *Board) Tasks() []*Task {
	return cloneAll(b.tasks)
}

// Get returns a copy of the task with the given id.
func (b *Board) Get(id int64) (*Task, bool) {
	t := b.find(id)
	if t == nil {
		return nil, false
	}
	return t.Clone(), true
}

// Bucket returns copies of the tasks in a bucket, ordered by position.
func (b *Board) Bucket(key Bucket) []*Task {
	return cloneAll(b.members(key))
}

// Parked returns copies of the parked tasks, ordered by position.
func (b *Board) Parked() []*Task {
	return b.Bucket(ParkingBucket())
}

// At returns the task occupying a week slot.
func (b *Board) At(day Day, period Period, position int) (*Task, bool) {
	for _, t := range b.members(WeekBucket(day, period)) {
		if t.Location.Index() == position {
			return t.Clone(), true
		}
	}
	return nil, false
}

// Clone returns an independent copy of the board sharing the id source.
func (b *Board) Clone() *Board {
	c := *b
	c.tasks = cloneAll(b.tasks)
	return &c
}

// Add validates the input and appends a new task to the end of the target bucket.
// A full week bucket is rejected with *SlotFullError; the task is never rerouted.
func (b *Board) Add(in Input, target Bucket) (*Task, Change, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, Change{}, err
	}
	if err := b.grid.ValidateBucket(target); err != nil {
		return nil, Change{}, err
	}

	members := b.members(target)
	if capacity := target.Capacity(); capacity >= 0 && len(members) >= capacity {
		return nil, Change{}, &SlotFullError{Day: target.Day, Period: target.Period}
	}

	t := &Task{
		ID:        b.nextID(),
		Title:     in.Title,
		Note:      in.Note,
		Location:  target.At(len(members)),
		CreatedAt: b.now(),
	}
	b.tasks = append(b.tasks, t)

	return t.Clone(), Change{Created: []*Task{t.Clone()}}, nil
}

// Update merges title, note and completed from the patch into a task.
// The patch location is ignored; use Move to relocate.
func (b *Board) Update(id int64, p Patch) (*Task, Change, error) {
	t := b.find(id)
	if t == nil {
		return nil, Change{}, &NotFoundError{ID: id}
	}

	merged := t.Clone()
	p.Location = nil
	p.ApplyTo(merged)
	if err := (Input{Title: merged.Title, Note: merged.Note}).Validate(); err != nil {
		return nil, Change{}, err
	}

	*t = *merged
	return t.Clone(), Change{Updated: []*Task{t.Clone()}}, nil
}

// ToggleComplete flips the completed flag of a task.
func (b *Board) ToggleComplete(id int64) (*Task, Change, error) {
	t := b.find(id)
	if t == nil {
		return nil, Change{}, &NotFoundError{ID: id}
	}
	t.Completed = !t.Completed
	return t.Clone(), Change{Updated: []*Task{t.Clone()}}, nil
}

// Delete removes a task and closes the gap in its bucket.
// Deleting an unknown id is a no-op.
func (b *Board) Delete(id int64) Change {
	i := b.index(id)
	if i < 0 {
		return Change{}
	}
	removed := b.tasks[i]
	b.tasks = slices.Delete(b.tasks, i, i+1)

	return Change{
		Updated: cloneAll(b.renumber(removed.Location.Bucket())),
		Removed: []int64{id},
	}
}

// Replace swaps the whole task list, as after a reload from storage.
// Positions are repaired so each bucket is dense again, keeping the stored
// order (position, then id). Tasks beyond a week bucket's capacity are moved
// to the end of parking in that order. The returned Change lists every task
// whose location differs from what was loaded, so it can be written back.
func (b *Board) Replace(tasks []*Task) Change {
	b.tasks = cloneAll(tasks)
	loaded := make(map[int64]Location, len(b.tasks))
	var keys []Bucket
	seen := make(map[Bucket]bool)
	for _, t := range b.tasks {
		loaded[t.ID] = t.Location
		if t.Location == nil {
			t.Location = Parking{Position: unplacedPosition}
		}
		if t.ID > b.maxID {
			b.maxID = t.ID
		}
		if key := t.Location.Bucket(); !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	spill := unplacedPosition
	for _, key := range keys {
		members := b.members(key)
		if c := key.Capacity(); c >= 0 && len(members) > c {
			for _, t := range members[c:] {
				t.Location = Parking{Position: spill}
				spill++
			}
			if !seen[ParkingBucket()] {
				seen[ParkingBucket()] = true
				keys = append(keys, ParkingBucket())
			}
		}
	}
	for _, key := range keys {
		b.renumber(key)
	}

	var change Change
	for _, t := range b.tasks {
		if loaded[t.ID] != t.Location {
			change.Updated = append(change.Updated, t.Clone())
		}
	}
	return change
}

// Rekey replaces a provisional id with the id assigned by storage.
func (b *Board) Rekey(oldID, newID int64) bool {
	if oldID == newID {
		return true
	}
	t := b.find(oldID)
	if t == nil || b.find(newID) != nil {
		return false
	}
	t.ID = newID
	if newID > b.maxID {
		b.maxID = newID
	}
	return true
}

func (b *Board) nextID() int64 {
	id := b.ids()
	if id <= b.maxID {
		id = b.maxID + 1
	}
	b.maxID = id
	return id
}

func (b *Board) find(id int64) *Task {
	if i := b.index(id); i >= 0 {
		return b.tasks[i]
	}
	return nil
}

func (b *Board) index(id int64) int {
	return slices.IndexFunc(b.tasks, func(t *Task) bool { return t.ID == id })
}

// members returns the live tasks of a bucket ordered by position, then id.
func (b *Board) members(key Bucket) []*Task {
	var out []*Task
	for _, t := range b.tasks {
		if t.Location.Bucket() == key {
			out = append(out, t)
		}
	}
	sortByPosition(out)
	return out
}

// renumber assigns positions 0..n-1 in current order and returns the tasks that moved.
func (b *Board) renumber(key Bucket) []*Task {
	var shifted []*Task
	for i, t := range b.members(key) {
		if t.Location.Index() != i {
			t.Location = key.At(i)
			shifted = append(shifted, t)
		}
	}
	return shifted
}

func sortByPosition(tasks []*Task) {
	slices.SortStableFunc(tasks, func(a, b *Task) int {
		if d := a.Location.Index() - b.Location.Index(); d != 0 {
			return d
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
}

func cloneAll(tasks []*Task) []*Task {
	out := make([]*Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
