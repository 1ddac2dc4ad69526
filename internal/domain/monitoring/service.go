package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/domain/journey"
)

// DueCalculator supplies the acuity-based observation deadline for a
// patient. Satisfied by the tracking service's NextDue.
type DueCalculator interface {
	NextDue(ctx context.Context, patientID uuid.UUID) (*time.Time, error)
}

// defaultDueIn is used when the patient has no vitals history yet.
const defaultDueIn = time.Hour

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock overrides the wall clock, for tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// Service manages monitoring orders and their tasks, recording each
// lifecycle change in the journey log.
type Service struct {
	log   *journey.Log
	tasks *TaskStore
	due   DueCalculator
	now   func() time.Time
}

func NewService(log *journey.Log, tasks *TaskStore, due DueCalculator, opts ...ServiceOption) *Service {
	s := &Service{log: log, tasks: tasks, due: due, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartMonitoring opens a monitoring order for the patient: appends a
// monitoring_start event and creates the first observation task, due at the
// patient's acuity deadline.
func (s *Service) StartMonitoring(ctx context.Context, patientID uuid.UUID, taskKind, assigneeRole string) (*Task, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if taskKind == "" {
		taskKind = "observation_round"
	}

	dueAt := s.now().Add(defaultDueIn)
	if s.due != nil {
		if due, err := s.due.NextDue(ctx, patientID); err == nil && due != nil {
			dueAt = *due
		}
	}

	task := &Task{
		PatientID:    patientID,
		Kind:         taskKind,
		Status:       StatusOrdered,
		AssigneeRole: assigneeRole,
		DueAt:        dueAt,
		CreatedAt:    s.now(),
	}
	if err := s.tasks.Create(task); err != nil {
		return nil, err
	}

	if err := s.appendLifecycle(ctx, patientID, journey.KindMonitoringStart, "Monitoring started", task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateMonitoring re-anchors the patient's active tasks to the current
// acuity deadline and appends a monitoring_update event. Overdue tasks stay
// overdue.
func (s *Service) UpdateMonitoring(ctx context.Context, patientID uuid.UUID) ([]*Task, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}

	var due *time.Time
	if s.due != nil {
		if d, err := s.due.NextDue(ctx, patientID); err == nil {
			due = d
		}
	}
	if due == nil {
		d := s.now().Add(defaultDueIn)
		due = &d
	}

	active := s.tasks.ListByPatient(patientID)
	updated := make([]*Task, 0, len(active))
	for _, t := range active {
		if !t.Active() || t.Status == StatusOverdue {
			continue
		}
		if err := s.tasks.SetDueAt(t.ID, *due); err != nil {
			continue
		}
		t.DueAt = *due
		updated = append(updated, t)
	}

	detail, err := journey.EncodeDetail(journey.MonitoringDetail{DueAt: due})
	if err != nil {
		return nil, err
	}
	e := &journey.Event{
		PatientID: patientID,
		Kind:      journey.KindMonitoringUpdate,
		Label:     "Monitoring interval updated",
		Detail:    detail,
	}
	if err := s.log.Append(ctx, e); err != nil {
		return nil, err
	}
	return updated, nil
}

// StopMonitoring completes the patient's active tasks and appends a
// monitoring_stop event.
func (s *Service) StopMonitoring(ctx context.Context, patientID uuid.UUID) error {
	if patientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}

	at := s.now()
	for _, t := range s.tasks.ListByPatient(patientID) {
		if !t.Active() {
			continue
		}
		if err := s.tasks.Complete(t.ID, at); err != nil {
			return err
		}
	}

	e := &journey.Event{
		PatientID: patientID,
		Kind:      journey.KindMonitoringStop,
		Label:     "Monitoring stopped",
	}
	return s.log.Append(ctx, e)
}

// CompleteTask marks a single task done. Terminal: completing twice fails.
func (s *Service) CompleteTask(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	if err := s.tasks.Complete(taskID, s.now()); err != nil {
		return nil, err
	}
	return s.tasks.Get(taskID)
}

// TasksForPatient lists the patient's tasks in creation order.
func (s *Service) TasksForPatient(patientID uuid.UUID) []*Task {
	return s.tasks.ListByPatient(patientID)
}

func (s *Service) appendLifecycle(ctx context.Context, patientID uuid.UUID, kind journey.EventKind, label string, task *Task) error {
	detail, err := journey.EncodeDetail(journey.MonitoringDetail{
		TaskKind:     task.Kind,
		AssigneeRole: task.AssigneeRole,
		DueAt:        &task.DueAt,
	})
	if err != nil {
		return err
	}
	e := &journey.Event{
		PatientID: patientID,
		Kind:      kind,
		Label:     label,
		Detail:    detail,
	}
	return s.log.Append(ctx, e)
}
