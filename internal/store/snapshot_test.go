package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/ldi/todolist/pkg/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	want := sampleTasks()

	meta, err := ExportSnapshot(path, want)
	if err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}
	if meta.Count != len(want) {
		t.Errorf("expected count %d, got %d", len(want), meta.Count)
	}
	if _, err := uuid.Parse(meta.SnapshotID); err != nil {
		t.Errorf("expected uuid snapshot id, got %q", meta.SnapshotID)
	}

	got, err := ImportSnapshot(path)
	if err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSnapshotFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	if _, err := ExportSnapshot(path, sampleTasks()[:1]); err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		lines = append(lines, m)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["record_type"] != "meta" {
		t.Errorf("expected meta first, got %v", lines[0]["record_type"])
	}
	if lines[1]["record_type"] != "task" || lines[1]["text"] != "Buy milk" || lines[1]["dueDate"] != "2025-01-01" {
		t.Errorf("unexpected task line: %v", lines[1])
	}
}

func TestImportSnapshotSkipsDuplicatesAndUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	content := `{"record_type":"meta","count":3}
{"record_type":"task","id":1,"text":"a","dueDate":"2025-01-01","completed":false}

{"record_type":"note","text":"ignored"}
{"record_type":"task","id":1,"text":"dup","dueDate":"2025-01-01","completed":true}
{"record_type":"task","id":2,"text":"b","dueDate":"2025-01-02","completed":true}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := ImportSnapshot(path)
	if err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}
	want := []models.Task{
		{ID: 1, Text: "a", DueDate: "2025-01-01"},
		{ID: 2, Text: "b", DueDate: "2025-01-02", Completed: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestImportSnapshotSkipsInvalidTasks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	content := `{"record_type":"task"}
{"record_type":"task","id":5,"text":"   ","dueDate":""}
{"record_type":"task","id":6,"text":"no date","dueDate":""}
{"record_type":"task","id":7,"text":"ok","dueDate":"2025-01-01"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := ImportSnapshot(path)
	if err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}
	want := []models.Task{{ID: 7, Text: "ok", DueDate: "2025-01-01"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestImportSnapshotInvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	if err := os.WriteFile(path, []byte("{broken\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := ImportSnapshot(path); err == nil {
		t.Error("expected error for invalid line")
	}
}

func TestAutoSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auto.jsonl")

	s := NewTaskStore(NewMemoryKV())
	s.EnableAutoSnapshot(path, nil)

	if err := s.Save(ctx, sampleTasks()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := ImportSnapshot(path)
	if err != nil {
		t.Fatalf("snapshot was not written: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 tasks in snapshot, got %d", len(got))
	}

	if err := s.Save(ctx, nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, _ = ImportSnapshot(path)
	if len(got) != 0 {
		t.Errorf("expected snapshot to follow the latest save, got %d tasks", len(got))
	}
}
