package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ldi/todolist/internal/config"
	"github.com/ldi/todolist/internal/mcp"
	"github.com/ldi/todolist/internal/server"
	"github.com/ldi/todolist/internal/store"
	"github.com/ldi/todolist/internal/ui"
	"github.com/ldi/todolist/internal/ui/components"
	"github.com/ldi/todolist/pkg/models"
)

var (
	dataDir    string
	configPath string
	backend    string
	verbose    bool
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

// Swapped out in tests.
var (
	runBoard = ui.RunBoard
	runMenu  = ui.RunMenu
)

// errReported means the user has already been told what went wrong.
var errReported = errors.New("reported")

func main() {
	flag.StringVar(&dataDir, "data-dir", config.DefaultDataDir, "Directory holding the task store and config")
	flag.StringVar(&configPath, "config", "", "Path to config file (default <data-dir>/config.toml)")
	flag.StringVar(&backend, "backend", "", "Storage backend: sqlite, mysql, mongo, file or memory")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	flag.Parse()

	if err := execute(flag.Args()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func execute(argv []string) error {
	var command string
	var args []string

	if len(argv) == 0 {
		selected, err := runMenu()
		if err != nil {
			return fmt.Errorf("menu: %w", err)
		}
		if selected == "" {
			return nil
		}
		command = selected
	} else {
		command = argv[0]
		args = argv[1:]
	}

	switch command {
	case "init":
		return runInit(args)
	case "add":
		return runAdd(args)
	case "list":
		return runList(args)
	case "toggle":
		return runToggle(args)
	case "delete":
		return runDelete(args)
	case "clear":
		return runClear(args)
	case "board":
		return runBoardCommand(args)
	case "web":
		return runWeb(args)
	case "mcp":
		return runMCP(args)
	case "export":
		return runExport(args)
	case "import":
		return runImport(args)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runInit(args []string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dataDir, err)
	}
	fmt.Fprintf(stdout, "✓ Created %s/ directory\n", dataDir)

	gitignorePath := filepath.Join(dataDir, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("todolist.db*\n*.log*\n"), 0644); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	fmt.Fprintf(stdout, "✓ Created %s\n", gitignorePath)

	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = filepath.Join(dataDir, config.DefaultConfigFile)
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if err := os.WriteFile(cfgFile, []byte(config.Example), 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(stdout, "✓ Wrote %s\n", cfgFile)
	}

	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	fmt.Fprintf(stdout, "✓ Opened %s store\n", e.cfg.Storage.Backend)

	// Seed from an existing snapshot when the store is still empty.
	snap := e.cfg.SnapshotPath()
	if _, err := os.Stat(snap); err == nil {
		ctrl, _, err := e.controller(ctx, nil)
		if err != nil {
			return err
		}
		if len(ctrl.Tasks()) == 0 {
			tasks, err := store.ImportSnapshot(snap)
			if err != nil {
				return fmt.Errorf("failed to import snapshot: %w", err)
			}
			n := ctrl.Replace(ctx, tasks)
			fmt.Fprintf(stdout, "✓ Imported %d tasks from %s\n", n, snap)
		}
	}

	fmt.Fprintln(stdout, "✓ todolist initialized successfully")
	return nil
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ctrl, _, err := e.controller(ctx, newPrompter(false))
	if err != nil {
		return err
	}
	t, err := ctrl.AddTask(ctx, strings.Join(fs.Args(), " "), *due)
	if err != nil {
		return errReported
	}
	fmt.Fprintf(stdout, "Added task %d: %s (due %s)\n", t.ID, t.Text, t.DueDate)
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	filter := fs.String("filter", "all", "Filter: all, completed, incomplete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mode, err := models.ParseFilterMode(*filter)
	if err != nil {
		return err
	}

	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ctrl, rec, err := e.controller(ctx, nil)
	if err != nil {
		return err
	}
	ctrl.SetFilter(mode)
	view := rec.Last

	list := components.NewTaskList(0)
	list.ShowIDs = true
	fmt.Fprintln(stdout, list.View(view))
	if len(view.Tasks) > 0 {
		fmt.Fprintf(stdout, "\n%s\n", components.Summary(ctrl.Tasks()))
	}
	return nil
}

func runToggle(args []string) error {
	id, err := parseID("toggle", args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ctrl, _, err := e.controller(ctx, nil)
	if err != nil {
		return err
	}
	if !ctrl.ToggleComplete(ctx, id) {
		return fmt.Errorf("task %d not found", id)
	}
	t, _ := ctrl.Get(id)
	fmt.Fprintf(stdout, "Task %d is now %s\n", id, strings.ToLower(t.StatusLabel()))
	return nil
}

func runDelete(args []string) error {
	id, err := parseID("delete", args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ctrl, _, err := e.controller(ctx, nil)
	if err != nil {
		return err
	}
	if !ctrl.DeleteOne(ctx, id) {
		return fmt.Errorf("task %d not found", id)
	}
	fmt.Fprintf(stdout, "Deleted task %d\n", id)
	return nil
}

func runClear(args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ctrl, _, err := e.controller(ctx, newPrompter(*yes))
	if err != nil {
		return err
	}
	if !ctrl.DeleteAll(ctx) {
		fmt.Fprintln(stdout, "Nothing deleted")
		return nil
	}
	fmt.Fprintln(stdout, "All tasks deleted")
	return nil
}

func runBoardCommand(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	return runBoard(ctx, e.store, e.log)
}

func runWeb(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	webFlags := flag.NewFlagSet("web", flag.ContinueOnError)
	webFlags.SetOutput(stderr)
	addr := webFlags.String("addr", e.cfg.Web.Addr, "Address to listen on")
	if err := webFlags.Parse(args); err != nil {
		return err
	}

	srv := server.NewServer(ctx, e.store, e.log)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(stdout, "Serving on http://localhost%s\n", *addr)
	if err := srv.Start(*addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func runMCP(args []string) error {
	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	s := mcp.NewServer(ctx, e.store, e.log)
	return mcp.Serve(s)
}

func runExport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: todolist export <path>")
	}

	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ctrl, _, err := e.controller(ctx, nil)
	if err != nil {
		return err
	}
	meta, err := store.ExportSnapshot(args[0], ctrl.Tasks())
	if err != nil {
		return fmt.Errorf("failed to export snapshot: %w", err)
	}
	fmt.Fprintf(stdout, "✓ Exported %d tasks to %s (snapshot %s)\n", meta.Count, args[0], meta.SnapshotID)
	return nil
}

func runImport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: todolist import <path>")
	}

	tasks, err := store.ImportSnapshot(args[0])
	if err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}

	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ctrl, _, err := e.controller(ctx, nil)
	if err != nil {
		return err
	}
	n := ctrl.Replace(ctx, tasks)
	fmt.Fprintf(stdout, "✓ Imported %d tasks from %s\n", n, args[0])
	return nil
}

func parseID(command string, args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: todolist %s <id>", command)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}
