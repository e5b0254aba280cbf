package task

import (
	"errors"
	"slices"
)

// Move relocates a task to dest, or reorders it when dest is in the same bucket.
//
// The destination must be part of the grid (*InvalidPlacementError) and a week
// destination must have room for the task (*SlotFullError). A rejected move
// leaves every task untouched. The requested position is clamped to the end of
// the destination bucket so positions stay dense; later tasks shift up by one and
// the source bucket closes its gap.
func (b *Board) Move(id int64, dest Location) (*Task, Change, error) {
	t := b.find(id)
	if t == nil {
		return nil, Change{}, &NotFoundError{ID: id}
	}
	if err := b.grid.Validate(dest); err != nil {
		return nil, Change{}, err
	}

	src := t.Location.Bucket()
	key := dest.Bucket()

	others := slices.DeleteFunc(b.members(key), func(m *Task) bool { return m.ID == id })
	if capacity := key.Capacity(); capacity >= 0 && len(others) >= capacity {
		return nil, Change{}, &SlotFullError{Day: key.Day, Period: key.Period}
	}

	index := min(max(dest.Index(), 0), len(others))
	if t.Location == key.At(index) {
		return t.Clone(), Change{}, nil
	}

	before := b.locations(src, key)

	ordered := slices.Insert(others, index, t)
	for i, m := range ordered {
		m.Location = key.At(i)
	}
	if src != key {
		b.renumber(src)
	}

	var change Change
	for _, m := range b.tasks {
		if prev, ok := before[m.ID]; ok && prev != m.Location {
			change.Updated = append(change.Updated, m.Clone())
		}
	}
	return t.Clone(), change, nil
}

// MoveToSlot resolves a drop target id and moves the task there.
// An empty target cancels the move without error.
func (b *Board) MoveToSlot(id int64, target string) (*Task, Change, error) {
	dest, err := ResolveDrop(target)
	if errors.Is(err, ErrDropCancelled) {
		t, ok := b.Get(id)
		if !ok {
			return nil, Change{}, &NotFoundError{ID: id}
		}
		return t, Change{}, nil
	}
	if err != nil {
		return nil, Change{}, err
	}
	return b.Move(id, dest)
}

// locations snapshots the current location of every task in the given buckets.
func (b *Board) locations(keys ...Bucket) map[int64]Location {
	out := make(map[int64]Location)
	for _, t := range b.tasks {
		if slices.Contains(keys, t.Location.Bucket()) {
			out[t.ID] = t.Location
		}
	}
	return out
}

// PlaceAfter returns copies of incoming positioned after the tasks already in
// existing. Each task stays in its bucket and keeps its relative order there.
// A task whose week bucket is already full goes to the end of parking.
func PlaceAfter(existing, incoming []*Task) []*Task {
	used := make(map[Bucket]int)
	for _, t := range existing {
		if t.Location != nil {
			used[t.Location.Bucket()]++
		}
	}

	out := cloneAll(incoming)
	var parked, week []*Task
	for _, t := range out {
		if t.Location == nil {
			t.Location = Parking{Position: unplacedPosition}
		}
		if t.Location.Bucket().Parking {
			parked = append(parked, t)
		} else {
			week = append(week, t)
		}
	}
	sortByPosition(parked)
	sortByPosition(week)

	place := func(t *Task, key Bucket) {
		t.Location = key.At(used[key])
		used[key]++
	}
	for _, t := range parked {
		place(t, ParkingBucket())
	}
	for _, t := range week {
		key := t.Location.Bucket()
		if used[key] >= key.Capacity() {
			key = ParkingBucket()
		}
		place(t, key)
	}
	return out
}
