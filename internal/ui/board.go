package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/todolist/internal/todo"
	"github.com/ldi/todolist/internal/ui/components"
	"github.com/ldi/todolist/pkg/models"
	"github.com/sirupsen/logrus"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)
	confirmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("130")).
			Padding(0, 1)
	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type boardMode int

const (
	modeList boardMode = iota
	modeForm
	modeConfirm
)

// Board is the terminal to-do list. It renders the controller's views and
// answers its prompts.
type Board struct {
	ctx  context.Context
	ctrl *todo.Controller

	view   todo.View
	list   *components.TaskList
	cursor int

	mode   boardMode
	text   textinput.Model
	due    textinput.Model
	focus  int
	notice string
	answer bool
	width  int
}

// NewBoard builds a board over store and loads the collection.
func NewBoard(ctx context.Context, store todo.Store, log logrus.FieldLogger) *Board {
	text := textinput.New()
	text.Placeholder = "What needs doing?"
	text.Prompt = "Task: "
	text.CharLimit = 200

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD"
	due.Prompt = "Due:  "
	due.CharLimit = 10

	b := &Board{
		ctx:  ctx,
		list: components.NewTaskList(0),
		text: text,
		due:  due,
	}
	opts := []todo.Option{todo.WithRenderer(b), todo.WithPrompter(b)}
	if log != nil {
		opts = append(opts, todo.WithLogger(log))
	}
	b.ctrl = todo.NewController(store, opts...)
	b.ctrl.Load(ctx)
	return b
}

// Render implements todo.Renderer.
func (b *Board) Render(v todo.View) {
	b.view = v
	if b.cursor >= len(v.Tasks) {
		b.cursor = len(v.Tasks) - 1
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
}

// Alert implements todo.Prompter.
func (b *Board) Alert(msg string) {
	b.notice = msg
}

// Confirm implements todo.Prompter. The question has already been shown by
// the time the controller asks, so it returns the recorded answer.
func (b *Board) Confirm(string) bool {
	return b.answer
}

func (b *Board) Controller() *todo.Controller {
	return b.ctrl
}

func (b *Board) Notice() string {
	return b.notice
}

func (b *Board) Init() tea.Cmd {
	return nil
}

func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.list.Width = msg.Width
		return b, nil
	case tea.KeyMsg:
		switch b.mode {
		case modeForm:
			return b.updateForm(msg)
		case modeConfirm:
			return b.updateConfirm(msg)
		default:
			return b.updateList(msg)
		}
	}
	return b, nil
}

func (b *Board) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b.notice = ""

	switch msg.String() {
	case "ctrl+c", "q":
		return b, tea.Quit

	case "up", "k":
		if b.cursor > 0 {
			b.cursor--
		}

	case "down", "j":
		if b.cursor < len(b.view.Tasks)-1 {
			b.cursor++
		}

	case " ", "x":
		if t, ok := b.selected(); ok {
			b.ctrl.ToggleComplete(b.ctx, t.ID)
		}

	case "d":
		if t, ok := b.selected(); ok {
			b.ctrl.DeleteOne(b.ctx, t.ID)
		}

	case "D":
		b.mode = modeConfirm

	case "f":
		b.ctrl.SetFilter(b.view.Filter.Next())

	case "a":
		b.mode = modeForm
		b.focus = 0
		b.due.Blur()
		return b, b.text.Focus()
	}
	return b, nil
}

func (b *Board) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return b, tea.Quit

	case "esc":
		b.closeForm()
		return b, nil

	case "tab", "shift+tab":
		b.notice = ""
		if b.focus == 0 {
			b.focus = 1
			b.text.Blur()
			return b, b.due.Focus()
		}
		b.focus = 0
		b.due.Blur()
		return b, b.text.Focus()

	case "enter":
		b.notice = ""
		if _, err := b.ctrl.AddTask(b.ctx, b.text.Value(), b.due.Value()); err != nil {
			return b, nil
		}
		b.text.SetValue("")
		b.due.SetValue("")
		b.closeForm()
		b.cursor = len(b.view.Tasks) - 1
		if b.cursor < 0 {
			b.cursor = 0
		}
		return b, nil
	}

	var cmd tea.Cmd
	if b.focus == 0 {
		b.text, cmd = b.text.Update(msg)
	} else {
		b.due, cmd = b.due.Update(msg)
	}
	return b, cmd
}

func (b *Board) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return b, tea.Quit
	case "y", "Y":
		b.answer = true
		b.ctrl.DeleteAll(b.ctx)
		b.answer = false
		b.cursor = 0
	}
	b.mode = modeList
	return b, nil
}

func (b *Board) closeForm() {
	b.mode = modeList
	b.text.Blur()
	b.due.Blur()
}

func (b *Board) selected() (models.Task, bool) {
	if b.cursor < 0 || b.cursor >= len(b.view.Tasks) {
		return models.Task{}, false
	}
	return b.view.Tasks[b.cursor], true
}

func (b *Board) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("todolist"))
	s.WriteString("  ")
	s.WriteString(helpStyle.Render(components.Summary(b.ctrl.Tasks())))
	s.WriteString("\n\n")

	b.list.Cursor = -1
	if b.mode == modeList {
		b.list.Cursor = b.cursor
	}
	s.WriteString(b.list.View(b.view))
	s.WriteString("\n\n")

	if b.mode == modeForm {
		s.WriteString(formStyle.Render(b.text.View() + "\n" + b.due.View()))
		s.WriteString("\n")
	}

	if b.mode == modeConfirm {
		s.WriteString(confirmStyle.Render(todo.ConfirmDeleteAll + " (y/n)"))
		s.WriteString("\n")
	}

	if b.notice != "" {
		s.WriteString(noticeStyle.Render(b.notice))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(b.help()))
	s.WriteString("\n")
	return s.String()
}

func (b *Board) help() string {
	switch b.mode {
	case modeForm:
		return "(tab to switch field, enter to add, esc to cancel)"
	case modeConfirm:
		return "(y to delete everything, any other key to keep)"
	}
	return "(a add, space toggle, d delete, D delete all, f filter, j/k move, q quit)"
}

// RunBoard runs the board until the user quits.
func RunBoard(ctx context.Context, store todo.Store, log logrus.FieldLogger) error {
	p := tea.NewProgram(NewBoard(ctx, store, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
