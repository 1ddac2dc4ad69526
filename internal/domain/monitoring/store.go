package monitoring

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound = errors.New("monitoring task not found")
	ErrTaskDone     = errors.New("monitoring task already completed")
)

// TaskStore is a mutex-guarded in-memory task store. Insertion order is
// preserved so listings are deterministic.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
	order []uuid.UUID
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[uuid.UUID]*Task)}
}

// Create stores the task, assigning an ID when absent.
func (s *TaskStore) Create(t *Task) error {
	if t.PatientID == uuid.Nil {
		return errors.New("patient_id is required")
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
	s.order = append(s.order, t.ID)
	return nil
}

// Get returns a copy of the task.
func (s *TaskStore) Get(id uuid.UUID) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

// ListByPatient returns the patient's tasks in creation order.
func (s *TaskStore) ListByPatient(patientID uuid.UUID) []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Task
	for _, id := range s.order {
		t := s.tasks[id]
		if t.PatientID != patientID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out
}

// ListActive returns every non-done task in creation order.
func (s *TaskStore) ListActive() []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Task
	for _, id := range s.order {
		t := s.tasks[id]
		if !t.Active() {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out
}

// SetStatus moves the task to the given status. Done tasks are terminal.
func (s *TaskStore) SetStatus(id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status == StatusDone {
		return ErrTaskDone
	}
	t.Status = status
	return nil
}

// SetDueAt re-anchors an active task's deadline. Done and overdue tasks are
// left alone.
func (s *TaskStore) SetDueAt(id uuid.UUID, due time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status == StatusDone {
		return ErrTaskDone
	}
	if t.Status == StatusOverdue {
		return nil
	}
	t.DueAt = due
	return nil
}

// Complete marks the task done at the given time.
func (s *TaskStore) Complete(id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status == StatusDone {
		return ErrTaskDone
	}
	t.Status = StatusDone
	t.CompletedAt = &at
	return nil
}
