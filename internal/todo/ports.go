package todo

import (
	"context"

	"github.com/ldi/todolist/pkg/models"
)

// Store persists the whole task collection.
type Store interface {
	Load(ctx context.Context) ([]models.Task, error)
	Save(ctx context.Context, tasks []models.Task) error
}

// View is what a Renderer draws.
type View struct {
	// Tasks is the filtered view of the collection.
	Tasks  []models.Task
	Filter models.FilterMode
	// Empty is true when the full collection, not the filtered view, has no tasks.
	Empty bool
}

// Renderer draws a View. It is called after every state change.
type Renderer interface {
	Render(v View)
}

// Prompter shows blocking notices and yes/no questions to the user.
type Prompter interface {
	Alert(msg string)
	Confirm(msg string) bool
}

// Recorder is a Renderer that keeps the last View it was given.
type Recorder struct {
	Last  View
	Count int
}

func (r *Recorder) Render(v View) {
	r.Last = v
	r.Count++
}

// StaticPrompter answers every Confirm with Answer and remembers alerts.
type StaticPrompter struct {
	Answer bool
	Alerts []string
}

func (p *StaticPrompter) Alert(msg string) {
	p.Alerts = append(p.Alerts, msg)
}

func (p *StaticPrompter) Confirm(string) bool {
	return p.Answer
}

type nopRenderer struct{}

func (nopRenderer) Render(View) {}
