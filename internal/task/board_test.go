package task

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"
)

var mondayMorning = WeekBucket(Monday, Morning)

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	clock := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	return NewBoard(DefaultGrid(), SequenceIDs(1), WithClock(func() time.Time { return clock }))
}

func mustAdd(t *testing.T, b *Board, title string, target Bucket) *Task {
	t.Helper()
	tk, _, err := b.Add(Input{Title: title}, target)
	if err != nil {
		t.Fatalf("Add(%q) failed: %v", title, err)
	}
	return tk
}

func titles(tasks []*Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

// assertDense fails if any bucket has positions other than 0..n-1 or a week bucket is over capacity.
func assertDense(t *testing.T, b *Board) {
	t.Helper()
	for _, key := range b.Grid().Buckets() {
		members := b.Bucket(key)
		if c := key.Capacity(); c >= 0 && len(members) > c {
			t.Fatalf("bucket %s holds %d tasks", key, len(members))
		}
		for i, m := range members {
			if m.Location.Index() != i {
				t.Fatalf("bucket %s: task %d at position %d, want %d", key, m.ID, m.Location.Index(), i)
			}
			if m.Location.Bucket() != key {
				t.Fatalf("bucket %s: task %d reports bucket %s", key, m.ID, m.Location.Bucket())
			}
		}
	}
}

func TestBoard_AddToEmptySlot(t *testing.T) {
	b := newTestBoard(t)

	tk, change, err := b.Add(Input{Title: "Buy milk"}, mondayMorning)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	want := Week{Day: Monday, Period: Morning, Position: 0}
	if tk.Location != want {
		t.Errorf("Location: got %#v, want %#v", tk.Location, want)
	}
	if tk.Completed {
		t.Error("new task should not be completed")
	}
	if len(change.Created) != 1 || change.Created[0].ID != tk.ID {
		t.Errorf("Change.Created: got %v", change.Created)
	}
	if len(change.Updated) != 0 || len(change.Removed) != 0 {
		t.Errorf("unexpected change %+v", change)
	}
}

func TestBoard_AddFillsSlotThenRejects(t *testing.T) {
	b := newTestBoard(t)
	for i := 0; i < MaxPositionsPerSlot; i++ {
		tk := mustAdd(t, b, fmt.Sprintf("Task %d", i), mondayMorning)
		if got := tk.Location.Index(); got != i {
			t.Errorf("task %d: got position %d", i, got)
		}
	}

	_, change, err := b.Add(Input{Title: "One too many"}, mondayMorning)
	var full *SlotFullError
	if !errors.As(err, &full) {
		t.Fatalf("expected *SlotFullError, got %v", err)
	}
	if full.Day != Monday || full.Period != Morning {
		t.Errorf("SlotFullError: got %s %s", full.Day, full.Period)
	}
	if !change.IsEmpty() {
		t.Errorf("rejected add produced change %+v", change)
	}
	if b.Len() != MaxPositionsPerSlot {
		t.Errorf("Len: got %d, want %d", b.Len(), MaxPositionsPerSlot)
	}
	if len(b.Parked()) != 0 {
		t.Error("rejected task must not be rerouted to parking")
	}
}

func TestBoard_AddInvalidTitle(t *testing.T) {
	b := newTestBoard(t)

	_, _, err := b.Add(Input{Title: "ab"}, mondayMorning)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "title" {
		t.Errorf("Field: got %q, want title", verr.Field)
	}
	if b.Len() != 0 {
		t.Errorf("no task should be created, got %d", b.Len())
	}
}

func TestBoard_AddValidatesTarget(t *testing.T) {
	grid, err := NewGrid([]Day{Monday, Tuesday})
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	b := NewBoard(grid, SequenceIDs(1))

	_, _, err = b.Add(Input{Title: "Weekend"}, WeekBucket(Saturday, Morning))
	if !errors.Is(err, ErrInvalidPlacement) {
		t.Fatalf("expected ErrInvalidPlacement, got %v", err)
	}
}

func TestBoard_AddTrimsInput(t *testing.T) {
	b := newTestBoard(t)
	tk, _, err := b.Add(Input{Title: "  Buy milk  ", Note: " 2 litres "}, ParkingBucket())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if tk.Title != "Buy milk" || tk.Note != "2 litres" {
		t.Errorf("got %q / %q", tk.Title, tk.Note)
	}
}

func TestBoard_DeleteRenumbers(t *testing.T) {
	b := newTestBoard(t)
	var ids []int64
	for _, title := range []string{"First", "Second", "Third", "Fourth"} {
		ids = append(ids, mustAdd(t, b, title, mondayMorning).ID)
	}

	change := b.Delete(ids[1])

	got := titles(b.Bucket(mondayMorning))
	want := []string{"First", "Third", "Fourth"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order: got %v, want %v", got, want)
	}
	assertDense(t, b)

	if len(change.Removed) != 1 || change.Removed[0] != ids[1] {
		t.Errorf("Removed: got %v", change.Removed)
	}
	if len(change.Updated) != 2 {
		t.Errorf("Updated: got %d renumbered tasks, want 2", len(change.Updated))
	}
}

func TestBoard_DeleteIsIdempotent(t *testing.T) {
	b := newTestBoard(t)
	tk := mustAdd(t, b, "Only", mondayMorning)

	b.Delete(tk.ID)
	change := b.Delete(tk.ID)
	if !change.IsEmpty() {
		t.Errorf("second delete produced change %+v", change)
	}
	if b.Len() != 0 {
		t.Errorf("Len: got %d", b.Len())
	}
}

func TestBoard_Update(t *testing.T) {
	b := newTestBoard(t)
	tk := mustAdd(t, b, "Buy milk", mondayMorning)

	note := "oat"
	got, change, err := b.Update(tk.ID, Patch{Note: &note, Location: Parking{}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Note != "oat" {
		t.Errorf("Note: got %q", got.Note)
	}
	if got.Location != tk.Location {
		t.Errorf("Update must not move the task, got %#v", got.Location)
	}
	if len(change.Updated) != 1 {
		t.Errorf("Updated: got %d", len(change.Updated))
	}

	short := "ab"
	if _, _, err := b.Update(tk.ID, Patch{Title: &short}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if cur, _ := b.Get(tk.ID); cur.Title != "Buy milk" {
		t.Errorf("failed update changed title to %q", cur.Title)
	}

	if _, _, err := b.Update(999, Patch{Note: &note}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBoard_ToggleComplete(t *testing.T) {
	b := newTestBoard(t)
	tk := mustAdd(t, b, "Buy milk", mondayMorning)

	got, _, err := b.ToggleComplete(tk.ID)
	if err != nil {
		t.Fatalf("ToggleComplete failed: %v", err)
	}
	if !got.Completed {
		t.Error("expected completed after first toggle")
	}
	got, _, _ = b.ToggleComplete(tk.ID)
	if got.Completed {
		t.Error("expected not completed after second toggle")
	}

	var nf *NotFoundError
	if _, _, err := b.ToggleComplete(42); !errors.As(err, &nf) || nf.ID != 42 {
		t.Errorf("expected *NotFoundError{42}, got %v", err)
	}
}

func TestBoard_ReplaceRepairsPositions(t *testing.T) {
	b := newTestBoard(t)
	b.Replace([]*Task{
		{ID: 10, Title: "Late", Location: Week{Day: Monday, Period: Morning, Position: 7}},
		{ID: 11, Title: "Early", Location: Week{Day: Monday, Period: Morning, Position: 2}},
		{ID: 12, Title: "Tie", Location: Week{Day: Monday, Period: Morning, Position: 2}},
		{ID: 13, Title: "Lost"},
		{ID: 14, Title: "Parked", Location: Parking{Position: 5}},
	})

	assertDense(t, b)
	if got := titles(b.Bucket(mondayMorning)); fmt.Sprint(got) != "[Early Tie Late]" {
		t.Errorf("monday morning: got %v", got)
	}
	if got := titles(b.Parked()); fmt.Sprint(got) != "[Parked Lost]" {
		t.Errorf("parking: got %v", got)
	}

	// New ids never collide with loaded ones.
	tk := mustAdd(t, b, "Fresh", ParkingBucket())
	if tk.ID <= 14 {
		t.Errorf("new id %d reuses loaded range", tk.ID)
	}
}

func TestBoard_Rekey(t *testing.T) {
	b := newTestBoard(t)
	a := mustAdd(t, b, "Alpha", mondayMorning)
	c := mustAdd(t, b, "Charlie", mondayMorning)

	if !b.Rekey(a.ID, 500) {
		t.Fatal("Rekey failed")
	}
	if _, ok := b.Get(500); !ok {
		t.Error("task not found under new id")
	}
	if b.Rekey(c.ID, 500) {
		t.Error("Rekey onto an existing id should fail")
	}
	if tk := mustAdd(t, b, "Delta", ParkingBucket()); tk.ID <= 500 {
		t.Errorf("id %d should be above rekeyed id", tk.ID)
	}
}

func TestBoard_ReturnsCopies(t *testing.T) {
	b := newTestBoard(t)
	tk := mustAdd(t, b, "Buy milk", mondayMorning)

	tk.Title = "mutated"
	got, _ := b.Get(tk.ID)
	if got.Title != "Buy milk" {
		t.Errorf("board state leaked through returned task: %q", got.Title)
	}

	clone := b.Clone()
	clone.Delete(tk.ID)
	if b.Len() != 1 {
		t.Error("deleting from a clone changed the original")
	}
}

func TestClockIDs_StrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	ids := ClockIDs(func() time.Time { return fixed })

	prev := ids()
	for i := 0; i < 10; i++ {
		id := ids()
		if id <= prev {
			t.Fatalf("id %d not above %d", id, prev)
		}
		prev = id
	}
}

// TestBoard_RandomOperations drives the board with a seeded random mix of
// operations and checks density, capacity and task count after each one.
func TestBoard_RandomOperations(t *testing.T) {
	grid := DefaultGrid()
	buckets := grid.Buckets()

	for seed := uint64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			r := rand.New(rand.NewPCG(seed, seed*7))
			b := NewBoard(grid, SequenceIDs(1))
			count := 0

			for step := 0; step < 300; step++ {
				tasks := b.Tasks()
				switch op := r.IntN(4); {
				case op == 0 || len(tasks) == 0:
					key := buckets[r.IntN(len(buckets))]
					_, _, err := b.Add(Input{Title: fmt.Sprintf("task %d", step)}, key)
					switch {
					case err == nil:
						count++
					case !errors.Is(err, ErrSlotFull):
						t.Fatalf("step %d: Add: %v", step, err)
					}
				case op == 1:
					b.Delete(tasks[r.IntN(len(tasks))].ID)
					count--
				default:
					tk := tasks[r.IntN(len(tasks))]
					key := buckets[r.IntN(len(buckets))]
					dest := key.At(r.IntN(MaxPositionsPerSlot))
					before := b.Tasks()
					_, _, err := b.Move(tk.ID, dest)
					if errors.Is(err, ErrSlotFull) {
						assertUnchanged(t, before, b.Tasks())
					} else if err != nil {
						t.Fatalf("step %d: Move(%d, %v): %v", step, tk.ID, dest, err)
					}
				}

				if b.Len() != count {
					t.Fatalf("step %d: Len %d, want %d", step, b.Len(), count)
				}
				assertDense(t, b)
			}
		})
	}
}

func assertUnchanged(t *testing.T, before, after []*Task) {
	t.Helper()
	if len(before) != len(after) {
		t.Fatalf("task count changed from %d to %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID || before[i].Location != after[i].Location {
			t.Fatalf("task %d changed from %v to %v", before[i].ID, before[i].Location, after[i].Location)
		}
	}
}

func ids(tasks []*Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestBoard_ReplaceSpillsOverfullSlotToParking(t *testing.T) {
	b := newTestBoard(t)
	loaded := []*Task{
		{ID: 1, Title: "one", Location: Week{Day: Monday, Period: Morning, Position: 0}},
		{ID: 2, Title: "two", Location: Week{Day: Monday, Period: Morning, Position: 1}},
		{ID: 3, Title: "three", Location: Week{Day: Monday, Period: Morning, Position: 2}},
		{ID: 4, Title: "four", Location: Week{Day: Monday, Period: Morning, Position: 0}},
		{ID: 5, Title: "five", Location: Week{Day: Monday, Period: Morning, Position: 1}},
		{ID: 6, Title: "six", Location: Week{Day: Monday, Period: Morning, Position: 2}},
		{ID: 7, Title: "parked", Location: Parking{Position: 0}},
	}
	change := b.Replace(loaded)

	assertDense(t, b)
	if got := ids(b.Bucket(mondayMorning)); fmt.Sprint(got) != "[1 4 2 5]" {
		t.Errorf("monday morning: got %v, want [1 4 2 5]", got)
	}
	if got := ids(b.Parked()); fmt.Sprint(got) != "[7 3 6]" {
		t.Errorf("parking: got %v, want [7 3 6]", got)
	}

	got := ids(change.Updated)
	slices.Sort(got)
	if fmt.Sprint(got) != "[2 3 4 5 6]" {
		t.Errorf("updated: got %v, want [2 3 4 5 6]", got)
	}
	if len(change.Created) != 0 || len(change.Removed) != 0 {
		t.Errorf("replace should only update, got %+v", change)
	}

	if again := b.Replace(b.Tasks()); !again.IsEmpty() {
		t.Errorf("replacing a repaired board should change nothing, got %d updates", len(again.Updated))
	}
}
