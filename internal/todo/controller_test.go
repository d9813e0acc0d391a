package todo

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ldi/todolist/pkg/models"
)

type memStore struct {
	tasks   []models.Task
	loadErr error
	saveErr error
	saves   int
}

func (s *memStore) Load(ctx context.Context) ([]models.Task, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *memStore) Save(ctx context.Context, tasks []models.Task) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.tasks = make([]models.Task, len(tasks))
	copy(s.tasks, tasks)
	return nil
}

func fixedClock() func() time.Time {
	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func newTestController(t *testing.T, store *memStore) (*Controller, *Recorder, *StaticPrompter) {
	t.Helper()
	rec := &Recorder{}
	prompt := &StaticPrompter{}
	c := NewController(store, WithRenderer(rec), WithPrompter(prompt), WithClock(fixedClock()))
	c.Load(context.Background())
	return c, rec, prompt
}

func TestAddTaskValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		text    string
		dueDate string
		wantErr error
	}{
		{"empty text", "", "2025-01-01", ErrEmptyText},
		{"blank text", "   \t", "2025-01-01", ErrEmptyText},
		{"both empty", "", "", ErrEmptyText},
		{"empty due date", "Buy milk", "", ErrEmptyDueDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			c, _, prompt := newTestController(t, store)

			_, err := c.AddTask(ctx, tt.text, tt.dueDate)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(c.Tasks()) != 0 {
				t.Errorf("expected no tasks, got %d", len(c.Tasks()))
			}
			if store.saves != 0 {
				t.Errorf("expected no saves, got %d", store.saves)
			}
			if len(prompt.Alerts) != 1 || prompt.Alerts[0] != tt.wantErr.Error() {
				t.Errorf("expected alert %q, got %v", tt.wantErr.Error(), prompt.Alerts)
			}
		})
	}
}

func TestAddTaskAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	c, rec, _ := newTestController(t, store)

	if _, err := c.AddTask(ctx, "Buy milk", "2025-01-01"); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := c.AddTask(ctx, "  Walk dog  ", "2025-01-02"); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	tasks := c.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Text != "Buy milk" || tasks[1].Text != "Walk dog" {
		t.Errorf("unexpected order: %+v", tasks)
	}
	if tasks[0].Completed || tasks[1].Completed {
		t.Error("expected new tasks to be incomplete")
	}
	if tasks[0].ID == tasks[1].ID {
		t.Errorf("expected distinct ids, both %d", tasks[0].ID)
	}
	if !reflect.DeepEqual(store.tasks, tasks) {
		t.Errorf("expected store to hold %+v, got %+v", tasks, store.tasks)
	}
	if rec.Last.Empty || len(rec.Last.Tasks) != 2 {
		t.Errorf("expected rendered view with 2 tasks, got %+v", rec.Last)
	}
}

func TestAddTaskAppendsLastUnderFilter(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t, &memStore{})

	first, _ := c.AddTask(ctx, "first", "2025-01-01")
	c.ToggleComplete(ctx, first.ID)
	c.SetFilter(models.FilterCompleted)

	if _, err := c.AddTask(ctx, "second", "2025-01-02"); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	tasks := c.Tasks()
	if tasks[len(tasks)-1].Text != "second" {
		t.Errorf("expected new task last, got %+v", tasks)
	}
	if len(c.FilteredTasks()) != 1 {
		t.Errorf("expected completed view to hold 1 task, got %d", len(c.FilteredTasks()))
	}
}

func TestToggleCompleteTwiceRestores(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t, &memStore{})

	a, _ := c.AddTask(ctx, "a", "2025-01-01")
	c.AddTask(ctx, "b", "2025-01-02")
	before := c.Tasks()

	if !c.ToggleComplete(ctx, a.ID) {
		t.Fatal("expected toggle to find task")
	}
	got, _ := c.Get(a.ID)
	if !got.Completed {
		t.Error("expected task to be completed after first toggle")
	}
	if c.Tasks()[1] != before[1] {
		t.Errorf("expected other task unchanged, got %+v", c.Tasks()[1])
	}

	c.ToggleComplete(ctx, a.ID)
	if !reflect.DeepEqual(c.Tasks(), before) {
		t.Errorf("expected %+v after two toggles, got %+v", before, c.Tasks())
	}
}

func TestToggleUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	c, _, _ := newTestController(t, store)
	c.AddTask(ctx, "a", "2025-01-01")
	saves := store.saves

	if c.ToggleComplete(ctx, 42) {
		t.Error("expected toggle of unknown id to report false")
	}
	if store.saves != saves {
		t.Error("expected no save for unknown id")
	}
}

func TestDeleteOne(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t, &memStore{})

	a, _ := c.AddTask(ctx, "a", "2025-01-01")
	b, _ := c.AddTask(ctx, "b", "2025-01-02")
	d, _ := c.AddTask(ctx, "c", "2025-01-03")
	before := c.Tasks()

	if c.DeleteOne(ctx, 7) {
		t.Error("expected delete of unknown id to report false")
	}
	if !reflect.DeepEqual(c.Tasks(), before) {
		t.Errorf("expected tasks unchanged, got %+v", c.Tasks())
	}

	if !c.DeleteOne(ctx, b.ID) {
		t.Fatal("expected delete to find task")
	}
	tasks := c.Tasks()
	if len(tasks) != 2 || tasks[0].ID != a.ID || tasks[1].ID != d.ID {
		t.Errorf("unexpected tasks after delete: %+v", tasks)
	}
	// The returned copy taken before the delete must not be disturbed.
	if before[1].ID != b.ID {
		t.Errorf("expected earlier copy to keep its contents, got %+v", before)
	}
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()

	t.Run("declined", func(t *testing.T) {
		store := &memStore{}
		c, _, prompt := newTestController(t, store)
		c.AddTask(ctx, "a", "2025-01-01")
		prompt.Answer = false

		if c.DeleteAll(ctx) {
			t.Error("expected declined delete-all to report false")
		}
		if len(c.Tasks()) != 1 {
			t.Errorf("expected 1 task, got %d", len(c.Tasks()))
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		store := &memStore{}
		c, rec, prompt := newTestController(t, store)
		c.AddTask(ctx, "a", "2025-01-01")
		c.AddTask(ctx, "b", "2025-01-02")
		prompt.Answer = true

		if !c.DeleteAll(ctx) {
			t.Fatal("expected confirmed delete-all to report true")
		}
		if len(c.Tasks()) != 0 || len(store.tasks) != 0 {
			t.Errorf("expected empty collection, got %+v / %+v", c.Tasks(), store.tasks)
		}
		for _, mode := range models.FilterModes {
			c.SetFilter(mode)
			if n := len(c.FilteredTasks()); n != 0 {
				t.Errorf("expected no tasks under %s, got %d", mode, n)
			}
		}
		if !rec.Last.Empty {
			t.Error("expected empty state to be rendered")
		}
	})
}

func TestFilteredTasks(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t, &memStore{})

	var ids []int64
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		task, _ := c.AddTask(ctx, text, "2025-01-01")
		ids = append(ids, task.ID)
	}
	c.ToggleComplete(ctx, ids[1])
	c.ToggleComplete(ctx, ids[3])

	c.SetFilter(models.FilterCompleted)
	completed := c.FilteredTasks()
	c.SetFilter(models.FilterIncomplete)
	incomplete := c.FilteredTasks()
	c.SetFilter(models.FilterAll)
	all := c.FilteredTasks()

	if len(completed) != 2 || completed[0].Text != "b" || completed[1].Text != "d" {
		t.Errorf("unexpected completed view: %+v", completed)
	}
	if len(incomplete) != 3 || incomplete[0].Text != "a" || incomplete[1].Text != "c" || incomplete[2].Text != "e" {
		t.Errorf("unexpected incomplete view: %+v", incomplete)
	}
	if !reflect.DeepEqual(all, c.Tasks()) {
		t.Errorf("expected all view to equal collection")
	}

	// Merging the two views by collection position gives back the full list.
	merged := make([]models.Task, 0, len(all))
	ci, ii := 0, 0
	for _, task := range all {
		if ci < len(completed) && completed[ci].ID == task.ID {
			merged = append(merged, completed[ci])
			ci++
		} else if ii < len(incomplete) && incomplete[ii].ID == task.ID {
			merged = append(merged, incomplete[ii])
			ii++
		}
	}
	if !reflect.DeepEqual(merged, all) {
		t.Errorf("expected union of views to equal all, got %+v", merged)
	}

	if !reflect.DeepEqual(c.FilteredTasks(), c.FilteredTasks()) {
		t.Error("expected FilteredTasks to be repeatable")
	}
}

func TestSetFilterDoesNotSave(t *testing.T) {
	store := &memStore{}
	c, rec, _ := newTestController(t, store)
	renders := rec.Count

	c.SetFilter(models.FilterCompleted)

	if store.saves != 0 {
		t.Errorf("expected no saves, got %d", store.saves)
	}
	if rec.Count != renders+1 {
		t.Errorf("expected one render, got %d", rec.Count-renders)
	}
	if rec.Last.Filter != models.FilterCompleted {
		t.Errorf("expected rendered filter completed, got %s", rec.Last.Filter)
	}
}

func TestEmptyStateUsesFullCollection(t *testing.T) {
	ctx := context.Background()
	c, rec, _ := newTestController(t, &memStore{})

	if !rec.Last.Empty {
		t.Error("expected empty state after loading nothing")
	}

	c.AddTask(ctx, "a", "2025-01-01")
	c.SetFilter(models.FilterCompleted)

	if rec.Last.Empty {
		t.Error("expected empty state hidden while collection has tasks")
	}
	if len(rec.Last.Tasks) != 0 {
		t.Errorf("expected filtered view to be empty, got %d", len(rec.Last.Tasks))
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := &memStore{}
		c, _, _ := newTestController(t, store)
		a, _ := c.AddTask(ctx, "a", "2025-01-01")
		c.AddTask(ctx, "b", "2025-01-02")
		c.ToggleComplete(ctx, a.ID)

		fresh, _, _ := newTestController(t, store)
		if !reflect.DeepEqual(fresh.Tasks(), c.Tasks()) {
			t.Errorf("expected %+v, got %+v", c.Tasks(), fresh.Tasks())
		}
	})

	t.Run("load error", func(t *testing.T) {
		loadErr := errors.New("connection reset")
		c, rec, _ := newTestController(t, &memStore{loadErr: loadErr})
		if len(c.Tasks()) != 0 {
			t.Errorf("expected empty collection, got %d", len(c.Tasks()))
		}
		if rec.Count != 1 || !rec.Last.Empty {
			t.Errorf("expected a single empty render, got %+v", rec)
		}
		if err := c.Load(ctx); !errors.Is(err, loadErr) {
			t.Errorf("expected read error to be returned, got %v", err)
		}
	})

	t.Run("duplicate ids", func(t *testing.T) {
		store := &memStore{tasks: []models.Task{
			{ID: 1, Text: "first", DueDate: "2025-01-01"},
			{ID: 1, Text: "dup", DueDate: "2025-01-01"},
			{ID: 2, Text: "second", DueDate: "2025-01-01"},
		}}
		c, _, _ := newTestController(t, store)
		tasks := c.Tasks()
		if len(tasks) != 2 || tasks[0].Text != "first" || tasks[1].Text != "second" {
			t.Errorf("unexpected tasks: %+v", tasks)
		}
	})

	t.Run("new ids stay above loaded ones", func(t *testing.T) {
		high := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
		store := &memStore{tasks: []models.Task{{ID: high, Text: "future", DueDate: "2030-01-01"}}}
		c, _, _ := newTestController(t, store)

		task, err := c.AddTask(ctx, "now", "2025-01-01")
		if err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
		if task.ID <= high {
			t.Errorf("expected id above %d, got %d", high, task.ID)
		}
	})
}

func TestSaveErrorKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	store := &memStore{saveErr: errors.New("disk full")}
	c, rec, _ := newTestController(t, store)

	if _, err := c.AddTask(ctx, "a", "2025-01-01"); err != nil {
		t.Fatalf("expected add to succeed despite save failure, got %v", err)
	}
	if len(c.Tasks()) != 1 {
		t.Errorf("expected 1 task in memory, got %d", len(c.Tasks()))
	}
	if len(rec.Last.Tasks) != 1 {
		t.Errorf("expected render after failed save, got %+v", rec.Last)
	}
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	store := &memStore{tasks: []models.Task{{ID: 1, Text: "old", DueDate: "2025-01-01"}}}
	c, rec, _ := newTestController(t, store)

	incoming := []models.Task{
		{ID: 9_000_000_000_000, Text: "a", DueDate: "2025-02-01"},
		{ID: 5, Text: "b", DueDate: "2025-02-02", Completed: true},
		{ID: 5, Text: "dup", DueDate: "2025-02-03"},
	}
	if n := c.Replace(ctx, incoming); n != 2 {
		t.Fatalf("Replace() = %d, want 2", n)
	}
	if len(store.tasks) != 2 || store.tasks[1].Text != "b" {
		t.Errorf("stored = %+v", store.tasks)
	}
	if len(rec.Last.Tasks) != 2 {
		t.Errorf("rendered %d tasks, want 2", len(rec.Last.Tasks))
	}

	added, err := c.AddTask(ctx, "next", "2025-03-01")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if added.ID <= 9_000_000_000_000 {
		t.Errorf("new id %d not above imported ids", added.ID)
	}
}

func TestSetFilterUnknownMode(t *testing.T) {
	c, rec, _ := newTestController(t, &memStore{})

	c.SetFilter(models.FilterCompleted)
	c.SetFilter(models.FilterMode("x"))
	if c.Filter() != models.FilterAll {
		t.Errorf("expected unknown mode to fall back to all, got %q", c.Filter())
	}
	if rec.Last.Filter != models.FilterAll {
		t.Errorf("expected render with all, got %q", rec.Last.Filter)
	}

	c.SetFilter(models.FilterMode("Incomplete"))
	if c.Filter() != models.FilterIncomplete {
		t.Errorf("expected case-insensitive mode, got %q", c.Filter())
	}
}
