package models

import "testing"

func TestParseFilterMode(t *testing.T) {
	tests := []struct {
		in      string
		want    FilterMode
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"Completed", FilterCompleted, false},
		{" incomplete ", FilterIncomplete, false},
		{"done", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFilterMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFilterMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilterMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterModeNext(t *testing.T) {
	if got := FilterAll.Next(); got != FilterCompleted {
		t.Errorf("expected completed after all, got %s", got)
	}
	if got := FilterCompleted.Next(); got != FilterIncomplete {
		t.Errorf("expected incomplete after completed, got %s", got)
	}
	if got := FilterIncomplete.Next(); got != FilterAll {
		t.Errorf("expected all after incomplete, got %s", got)
	}
}

func TestTaskLabels(t *testing.T) {
	open := Task{Text: "a"}
	done := Task{Text: "b", Completed: true}

	if open.StatusLabel() != "Incomplete" || open.ToggleLabel() != "mark complete" {
		t.Errorf("unexpected labels for open task: %s / %s", open.StatusLabel(), open.ToggleLabel())
	}
	if done.StatusLabel() != "Completed" || done.ToggleLabel() != "undo" {
		t.Errorf("unexpected labels for completed task: %s / %s", done.StatusLabel(), done.ToggleLabel())
	}
}

func TestTaskValidate(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want error
	}{
		{"valid", Task{Text: "a", DueDate: "2025-01-01"}, nil},
		{"empty text", Task{DueDate: "2025-01-01"}, ErrEmptyText},
		{"blank text", Task{Text: " \t ", DueDate: "2025-01-01"}, ErrEmptyText},
		{"no due date", Task{Text: "a"}, ErrEmptyDueDate},
		{"nothing", Task{}, ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.task.Validate(); err != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
