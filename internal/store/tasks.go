package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ldi/todolist/pkg/models"
)

// TasksKey is the key the collection is stored under.
const TasksKey = "todos"

// TaskStore keeps the task collection as a JSON array under TasksKey.
type TaskStore struct {
	kv     KV
	key    string
	onSave func(ctx context.Context, tasks []models.Task)
}

func NewTaskStore(kv KV) *TaskStore {
	return &TaskStore{kv: kv, key: TasksKey}
}

// SetOnSave registers fn to run after every successful Save.
func (s *TaskStore) SetOnSave(fn func(ctx context.Context, tasks []models.Task)) {
	s.onSave = fn
}

// Load returns the stored collection. An absent key or a JSON null yields an
// empty collection; anything that is not a task array yields ErrMalformed.
func (s *TaskStore) Load(ctx context.Context) ([]models.Task, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	if !ok {
		return []models.Task{}, nil
	}
	return decodeTasks([]byte(raw))
}

// Save replaces the stored collection with tasks.
func (s *TaskStore) Save(ctx context.Context, tasks []models.Task) error {
	raw, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("failed to write tasks: %w", err)
	}
	if s.onSave != nil {
		s.onSave(ctx, tasks)
	}
	return nil
}

func decodeTasks(raw []byte) ([]models.Task, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Task{}, nil
	}
	if err := validatePayload(trimmed); err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return tasks, nil
}

func encodeTasks(tasks []models.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tasks: %w", err)
	}
	return raw, nil
}
