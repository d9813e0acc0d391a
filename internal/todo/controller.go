// Package todo holds the task list controller: the in-memory collection, the
// current filter and the operations that mutate them.
package todo

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/ldi/todolist/pkg/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyText    = models.ErrEmptyText
	ErrEmptyDueDate = models.ErrEmptyDueDate
)

// ConfirmDeleteAll is the question asked before DeleteAll.
const ConfirmDeleteAll = "Are you sure you want to delete all tasks?"

// Controller owns the task collection. It is not safe for concurrent use;
// callers that serve several clients must serialize access.
type Controller struct {
	store    Store
	renderer Renderer
	prompter Prompter
	ids      *IDSource
	log      logrus.FieldLogger

	tasks  []models.Task
	filter models.FilterMode
}

type Option func(*Controller)

func WithRenderer(r Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

func WithPrompter(p Prompter) Option {
	return func(c *Controller) { c.prompter = p }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = l }
}

// WithClock sets the time source used for new ids.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.ids = NewIDSource(now) }
}

// NewController creates a controller with an empty collection. Call Load to
// read the persisted one.
func NewController(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		renderer: nopRenderer{},
		prompter: &StaticPrompter{},
		ids:      NewIDSource(nil),
		filter:   models.FilterAll,
		tasks:    []models.Task{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.log = l
	}
	return c
}

// Load replaces the collection with the persisted one and renders.
// A missing or unreadable collection becomes an empty one. The read error,
// if any, is returned so callers that must not overwrite the stored
// collection can stop.
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.store.Load(ctx)
	if err != nil {
		c.log.WithError(err).Warn("discarding persisted tasks")
		tasks = nil
	}
	c.tasks = dedupe(tasks)
	c.ids.Observe(c.tasks)
	c.log.WithField("count", len(c.tasks)).Debug("tasks loaded")
	c.Render()
	return err
}

// AddTask appends a new incomplete task. Text is trimmed; the due date is
// taken as given.
func (c *Controller) AddTask(ctx context.Context, text, dueDate string) (models.Task, error) {
	t := models.Task{
		Text:    strings.TrimSpace(text),
		DueDate: dueDate,
	}
	if err := t.Validate(); err != nil {
		c.prompter.Alert(err.Error())
		return models.Task{}, err
	}

	t.ID = c.ids.Next()
	c.tasks = append(c.tasks, t)
	c.log.WithField("id", t.ID).Debug("task added")
	c.commit(ctx)
	return t, nil
}

// ToggleComplete flips the completed flag of the task with the given id.
// It reports false if there is no such task.
func (c *Controller) ToggleComplete(ctx context.Context, id int64) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.tasks[i].Completed = !c.tasks[i].Completed
	c.log.WithFields(logrus.Fields{"id": id, "completed": c.tasks[i].Completed}).Debug("task toggled")
	c.commit(ctx)
	return true
}

// DeleteOne removes the task with the given id. It reports false if there is
// no such task.
func (c *Controller) DeleteOne(ctx context.Context, id int64) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
	c.log.WithField("id", id).Debug("task deleted")
	c.commit(ctx)
	return true
}

// DeleteAll empties the collection once the user confirms. It reports whether
// anything was done.
func (c *Controller) DeleteAll(ctx context.Context) bool {
	if !c.prompter.Confirm(ConfirmDeleteAll) {
		return false
	}
	c.tasks = []models.Task{}
	c.log.Debug("all tasks deleted")
	c.commit(ctx)
	return true
}

// Replace swaps in a whole collection, as an import does, and saves it.
// Later duplicates of an id are dropped.
func (c *Controller) Replace(ctx context.Context, tasks []models.Task) int {
	c.tasks = dedupe(tasks)
	c.ids.Observe(c.tasks)
	c.log.WithField("count", len(c.tasks)).Info("tasks replaced")
	c.commit(ctx)
	return len(c.tasks)
}

// SetFilter changes the visible subset. Storage is not touched. An unknown
// mode shows everything.
func (c *Controller) SetFilter(mode models.FilterMode) {
	if parsed, err := models.ParseFilterMode(string(mode)); err == nil {
		mode = parsed
	} else {
		mode = models.FilterAll
	}
	c.filter = mode
	c.Render()
}

func (c *Controller) Filter() models.FilterMode {
	return c.filter
}

// FilteredTasks returns the tasks visible under the current filter, in
// collection order. The result is a copy.
func (c *Controller) FilteredTasks() []models.Task {
	return Filter(c.tasks, c.filter)
}

// Tasks returns a copy of the full collection.
func (c *Controller) Tasks() []models.Task {
	out := make([]models.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Get returns the task with the given id.
func (c *Controller) Get(id int64) (models.Task, bool) {
	i := c.index(id)
	if i < 0 {
		return models.Task{}, false
	}
	return c.tasks[i], true
}

// View returns what Render would draw right now.
func (c *Controller) View() View {
	return View{
		Tasks:  c.FilteredTasks(),
		Filter: c.filter,
		Empty:  len(c.tasks) == 0,
	}
}

// Render hands the current view to the renderer.
func (c *Controller) Render() {
	c.renderer.Render(c.View())
}

// Filter returns the subsequence of tasks matching mode.
func Filter(tasks []models.Task, mode models.FilterMode) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if mode.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (c *Controller) commit(ctx context.Context) {
	if err := c.store.Save(ctx, c.Tasks()); err != nil {
		c.log.WithError(err).Warn("failed to save tasks")
	}
	c.Render()
}

func (c *Controller) index(id int64) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func dedupe(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	seen := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
