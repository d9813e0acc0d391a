package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ldi/todolist/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	recordMeta = "meta"
	recordTask = "task"
)

// SnapshotMeta is the first line of a snapshot file.
type SnapshotMeta struct {
	RecordType string    `json:"record_type"`
	SnapshotID string    `json:"snapshot_id"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
}

type taskRecord struct {
	RecordType string `json:"record_type"`
	models.Task
}

// EnableAutoSnapshot exports a snapshot to path after every successful Save.
// Export failures are logged and do not fail the Save.
func (s *TaskStore) EnableAutoSnapshot(path string, log logrus.FieldLogger) {
	s.SetOnSave(func(ctx context.Context, tasks []models.Task) {
		if _, err := ExportSnapshot(path, tasks); err != nil && log != nil {
			log.WithError(err).WithField("path", path).Warn("failed to export snapshot")
		}
	})
}

// ExportSnapshot writes tasks to path as JSONL: a meta line followed by one
// line per task, in collection order.
func ExportSnapshot(path string, tasks []models.Task) (SnapshotMeta, error) {
	meta := SnapshotMeta{
		RecordType: recordMeta,
		SnapshotID: uuid.New().String(),
		ExportedAt: time.Now().UTC(),
		Count:      len(tasks),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(meta); err != nil {
		return SnapshotMeta{}, fmt.Errorf("failed to encode snapshot meta: %w", err)
	}
	for _, t := range tasks {
		if err := enc.Encode(taskRecord{RecordType: recordTask, Task: t}); err != nil {
			return SnapshotMeta{}, fmt.Errorf("failed to encode task %d: %w", t.ID, err)
		}
	}

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return SnapshotMeta{}, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return meta, nil
}

// ImportSnapshot reads a snapshot written by ExportSnapshot. Unknown record
// types are skipped, and so are task records without an id, text or due
// date. Tasks with an id seen earlier in the file are dropped.
func ImportSnapshot(path string) ([]models.Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	tasks := []models.Task{}
	seen := map[int64]bool{}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var base struct {
			RecordType string `json:"record_type"`
		}
		if err := json.Unmarshal(line, &base); err != nil {
			return nil, fmt.Errorf("failed to unmarshal line %d: %w", lineNo, err)
		}
		if base.RecordType != recordTask {
			continue
		}

		var rec taskRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task on line %d: %w", lineNo, err)
		}
		if rec.ID <= 0 || rec.Validate() != nil || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		tasks = append(tasks, rec.Task)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return tasks, nil
}
