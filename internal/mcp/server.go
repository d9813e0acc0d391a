package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ldi/todolist/internal/todo"
	"github.com/ldi/todolist/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// session serializes tool calls against one controller.
type session struct {
	mu      sync.Mutex
	ctrl    *todo.Controller
	confirm bool
}

func (s *session) Alert(string) {}

func (s *session) Confirm(string) bool {
	return s.confirm
}

// NewServer creates a new MCP server over the tasks held by store.
func NewServer(ctx context.Context, store todo.Store, log logrus.FieldLogger) *server.MCPServer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	sess := &session{}
	sess.ctrl = todo.NewController(store, todo.WithPrompter(sess), todo.WithLogger(log))
	sess.ctrl.Load(ctx)

	s := server.NewMCPServer("todolist", "0.1.0")

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks in insertion order. Without a filter the current selection applies."),
		mcp.WithString("filter", mcp.Description("One of all, completed, incomplete")),
	), listTasksHandler(sess))

	s.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add an incomplete task. Both text and due date are required."),
		mcp.WithString("text", mcp.Description("Task description"), mcp.Required()),
		mcp.WithString("due_date", mcp.Description("Due date, usually YYYY-MM-DD"), mcp.Required()),
	), addTaskHandler(sess))

	s.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Flip a task between completed and incomplete."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
	), toggleTaskHandler(sess))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete one task."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
	), deleteTaskHandler(sess))

	s.AddTool(mcp.NewTool("delete_all_tasks",
		mcp.WithDescription("Delete every task. Nothing happens unless confirm is true."),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to delete"), mcp.Required()),
	), deleteAllTasksHandler(sess))

	s.AddTool(mcp.NewTool("set_filter",
		mcp.WithDescription("Change which tasks list_tasks shows by default."),
		mcp.WithString("filter", mcp.Description("One of all, completed, incomplete"), mcp.Required()),
	), setFilterHandler(sess))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

type taskList struct {
	Filter models.FilterMode `json:"filter"`
	Empty  bool              `json:"empty"`
	Tasks  []models.Task     `json:"tasks"`
}

func listTasksHandler(sess *session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess.mu.Lock()
		view := sess.ctrl.View()
		all := sess.ctrl.Tasks()
		sess.mu.Unlock()

		if raw := mcp.ParseString(request, "filter", ""); raw != "" {
			mode, err := models.ParseFilterMode(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view.Filter = mode
			view.Tasks = todo.Filter(all, mode)
		}
		return jsonResult(taskList{Filter: view.Filter, Empty: view.Empty, Tasks: view.Tasks})
	}
}

func addTaskHandler(sess *session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text := mcp.ParseString(request, "text", "")
		dueDate := mcp.ParseString(request, "due_date", "")

		sess.mu.Lock()
		t, err := sess.ctrl.AddTask(ctx, text, dueDate)
		sess.mu.Unlock()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t)
	}
}

func toggleTaskHandler(sess *session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseInt64(request, "id", 0)

		sess.mu.Lock()
		found := sess.ctrl.ToggleComplete(ctx, id)
		t, _ := sess.ctrl.Get(id)
		sess.mu.Unlock()

		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("Task with id %d not found", id)), nil
		}
		return jsonResult(t)
	}
}

func deleteTaskHandler(sess *session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseInt64(request, "id", 0)

		sess.mu.Lock()
		found := sess.ctrl.DeleteOne(ctx, id)
		sess.mu.Unlock()

		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("Task with id %d not found", id)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %d deleted", id)), nil
	}
}

func deleteAllTasksHandler(sess *session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess.mu.Lock()
		sess.confirm = mcp.ParseBoolean(request, "confirm", false)
		done := sess.ctrl.DeleteAll(ctx)
		sess.confirm = false
		sess.mu.Unlock()

		if !done {
			return mcp.NewToolResultError("Deletion not confirmed; pass confirm=true"), nil
		}
		return mcp.NewToolResultText("All tasks deleted"), nil
	}
}

func setFilterHandler(sess *session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mode, err := models.ParseFilterMode(mcp.ParseString(request, "filter", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		sess.mu.Lock()
		sess.ctrl.SetFilter(mode)
		sess.mu.Unlock()

		return mcp.NewToolResultText(fmt.Sprintf("Filter set to %s", mode)), nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
