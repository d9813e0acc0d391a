package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ldi/todolist/internal/config"
	"github.com/ldi/todolist/internal/store"
	"github.com/ldi/todolist/pkg/models"
)

func TestInit(t *testing.T) {
	out, _ := setupTestEnv(t, "")

	if err := runInit(nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	gitignorePath := filepath.Join(dataDir, ".gitignore")
	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		t.Fatalf("failed to read .gitignore: %v", err)
	}
	if string(content) != "todolist.db*\n*.log*\n" {
		t.Errorf(".gitignore content mismatch, got %q", string(content))
	}

	cfg, err := os.ReadFile(filepath.Join(dataDir, config.DefaultConfigFile))
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if string(cfg) != config.Example {
		t.Errorf("config file does not hold the example config")
	}

	if _, err := os.Stat(filepath.Join(dataDir, "todolist.db")); os.IsNotExist(err) {
		t.Errorf("database file was not created")
	}
	if !strings.Contains(out.String(), "initialized successfully") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestInitKeepsExistingConfig(t *testing.T) {
	setupTestEnv(t, "")

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}
	cfgPath := filepath.Join(dataDir, config.DefaultConfigFile)
	custom := "[storage]\nbackend = \"file\"\n"
	if err := os.WriteFile(cfgPath, []byte(custom), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if err := runInit(nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	content, _ := os.ReadFile(cfgPath)
	if string(content) != custom {
		t.Errorf("config was overwritten: %q", string(content))
	}
	if _, err := os.Stat(filepath.Join(dataDir, "todolist.db")); err == nil {
		t.Errorf("expected no sqlite database for the file backend")
	}
}

func TestInitWithExistingSnapshot(t *testing.T) {
	out, _ := setupTestEnv(t, "")

	seed := []models.Task{
		{ID: 1700000000000, Text: "from snapshot", DueDate: "2025-01-01"},
		{ID: 1700000000001, Text: "done", DueDate: "2025-01-02", Completed: true},
	}
	if _, err := store.ExportSnapshot(filepath.Join(dataDir, "snapshot.jsonl"), seed); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}

	if err := runInit(nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}
	if !strings.Contains(out.String(), "Imported 2 tasks") {
		t.Errorf("expected snapshot import, got %q", out.String())
	}

	tasks := storedTasks(t)
	if len(tasks) != 2 || tasks[0] != seed[0] || tasks[1] != seed[1] {
		t.Errorf("unexpected tasks after init: %+v", tasks)
	}

	// A second init leaves the populated store alone.
	out.Reset()
	if err := runInit(nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}
	if strings.Contains(out.String(), "Imported") {
		t.Errorf("expected no second import, got %q", out.String())
	}
}
