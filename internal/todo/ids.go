package todo

import (
	"time"

	"github.com/ldi/todolist/pkg/models"
)

// IDSource hands out task ids that look like millisecond timestamps but are
// strictly increasing, so two tasks created in the same millisecond never collide.
type IDSource struct {
	last int64
	now  func() time.Time
}

func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

// Next returns a fresh id.
func (s *IDSource) Next() int64 {
	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe raises the floor to the largest id in tasks.
func (s *IDSource) Observe(tasks []models.Task) {
	for _, t := range tasks {
		if t.ID > s.last {
			s.last = t.ID
		}
	}
}
