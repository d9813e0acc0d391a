package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/todolist/internal/todo"
	"github.com/ldi/todolist/pkg/models"
)

var (
	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Strikethrough(true)

	incompleteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	statusCompletedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true)

	statusIncompleteStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedFilterStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("12")).
				Bold(true).
				Underline(true).
				Padding(0, 1)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				Padding(0, 1)
)

// EmptyMessage is shown when the collection has no tasks at all.
const EmptyMessage = "No tasks yet. Add one to get started."

// TaskList renders a todo.View.
type TaskList struct {
	Width int
	// Cursor is the highlighted row, or -1 for none.
	Cursor  int
	ShowIDs bool
}

func NewTaskList(width int) *TaskList {
	return &TaskList{Width: width, Cursor: -1}
}

func (l *TaskList) View(v todo.View) string {
	var b strings.Builder

	b.WriteString(FilterBar(v.Filter))
	b.WriteString("\n\n")

	if v.Empty {
		b.WriteString(placeholderStyle.Render(EmptyMessage))
		return b.String()
	}
	if len(v.Tasks) == 0 {
		b.WriteString(placeholderStyle.Render(fmt.Sprintf("No %s tasks", strings.ToLower(v.Filter.Title()))))
		return b.String()
	}

	rows := make([]string, 0, len(v.Tasks))
	for i, t := range v.Tasks {
		rows = append(rows, l.row(i, t))
	}
	b.WriteString(strings.Join(rows, "\n"))
	return b.String()
}

func (l *TaskList) row(i int, t models.Task) string {
	pointer := "  "
	if i == l.Cursor {
		pointer = cursorStyle.Render("> ")
	}

	box := "[ ]"
	textStyle := incompleteStyle
	statusStyle := statusIncompleteStyle
	if t.Completed {
		box = "[✓]"
		textStyle = completedStyle
		statusStyle = statusCompletedStyle
	}

	prefix := box
	if l.ShowIDs {
		prefix = fmt.Sprintf("%d %s", t.ID, box)
	}

	suffix := fmt.Sprintf("%s  %s  %s",
		dueStyle.Render("due "+t.DueDate),
		statusStyle.Render(t.StatusLabel()),
		actionStyle.Render("("+t.ToggleLabel()+")"),
	)

	text := t.Text
	if l.Width > 0 {
		avail := l.Width - lipgloss.Width(pointer) - lipgloss.Width(prefix) - lipgloss.Width(suffix) - 3
		if avail < 8 {
			avail = 8
		}
		text = truncate(text, avail)
	}

	return fmt.Sprintf("%s%s %s  %s", pointer, prefix, textStyle.Render(text), suffix)
}

// FilterBar renders the filter selector with the active mode highlighted.
func FilterBar(active models.FilterMode) string {
	parts := make([]string, 0, len(models.FilterModes))
	for _, mode := range models.FilterModes {
		if mode == active {
			parts = append(parts, selectedFilterStyle.Render(mode.Title()))
		} else {
			parts = append(parts, filterStyle.Render(mode.Title()))
		}
	}
	return "Filter:" + strings.Join(parts, "|")
}

// Summary renders counts for the full collection.
func Summary(tasks []models.Task) string {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d tasks, %d completed, %d incomplete", len(tasks), done, len(tasks)-done)
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
