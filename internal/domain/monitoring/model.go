package monitoring

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses. done is terminal; overdue is entered at most once, by the
// scheduler, and only from an active status.
const (
	StatusPending = "pending"
	StatusOrdered = "ordered"
	StatusDue     = "due"
	StatusOverdue = "overdue"
	StatusDone    = "done"
)

// Task is a scheduled piece of monitoring work for a patient, typically a
// repeat observation round. Tasks live outside the journey log: flipping one
// to overdue is scheduler state, not clinical history.
type Task struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	PatientID    uuid.UUID  `json:"patient_id" db:"patient_id"`
	Kind         string     `json:"kind" db:"kind"`
	Status       string     `json:"status" db:"status"`
	AssigneeRole string     `json:"assignee_role,omitempty" db:"assignee_role"`
	DueAt        time.Time  `json:"due_at" db:"due_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Active reports whether the task can still transition.
func (t *Task) Active() bool {
	return t.Status != StatusDone
}

// Breachable reports whether the scheduler may flip the task to overdue.
func (t *Task) Breachable() bool {
	switch t.Status {
	case StatusPending, StatusOrdered, StatusDue:
		return true
	}
	return false
}
