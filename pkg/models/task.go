package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyText    = errors.New("Please enter a task.")
	ErrEmptyDueDate = errors.New("Please select a due date.")
)

// Task is a single to-do entry.
type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	DueDate   string `json:"dueDate"`
	Completed bool   `json:"completed"`
}

// Validate reports the first required field that is missing. Text counts as
// missing when it is only whitespace.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return ErrEmptyText
	}
	if t.DueDate == "" {
		return ErrEmptyDueDate
	}
	return nil
}

// StatusLabel returns the label shown next to the task.
func (t Task) StatusLabel() string {
	if t.Completed {
		return "Completed"
	}
	return "Incomplete"
}

// ToggleLabel returns the label of the toggle action for the task.
func (t Task) ToggleLabel() string {
	if t.Completed {
		return "undo"
	}
	return "mark complete"
}

type FilterMode string

const (
	FilterAll        FilterMode = "all"
	FilterCompleted  FilterMode = "completed"
	FilterIncomplete FilterMode = "incomplete"
)

// FilterModes lists the modes in selector order.
var FilterModes = []FilterMode{FilterAll, FilterCompleted, FilterIncomplete}

// ParseFilterMode parses a selector value. An empty string means FilterAll.
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCompleted:
		return FilterCompleted, nil
	case FilterIncomplete:
		return FilterIncomplete, nil
	}
	return "", fmt.Errorf("invalid filter mode: %q", s)
}

// Next returns the mode after m in selector order, wrapping around.
func (m FilterMode) Next() FilterMode {
	for i, mode := range FilterModes {
		if mode == m {
			return FilterModes[(i+1)%len(FilterModes)]
		}
	}
	return FilterAll
}

// Title returns the human label of the mode.
func (m FilterMode) Title() string {
	switch m {
	case FilterCompleted:
		return "Completed"
	case FilterIncomplete:
		return "Incomplete"
	}
	return "All"
}

// Match reports whether t is visible under m.
func (m FilterMode) Match(t Task) bool {
	switch m {
	case FilterCompleted:
		return t.Completed
	case FilterIncomplete:
		return !t.Completed
	}
	return true
}
