package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/domain/journey"
)

// fixedDue is a DueCalculator returning a canned deadline per patient.
type fixedDue struct {
	due map[uuid.UUID]time.Time
}

func (f *fixedDue) NextDue(_ context.Context, patientID uuid.UUID) (*time.Time, error) {
	if f == nil || f.due == nil {
		return nil, nil
	}
	d, ok := f.due[patientID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func newTestMonitoring(t *testing.T, due DueCalculator, opts ...ServiceOption) (*Service, *journey.Log, *TaskStore) {
	t.Helper()
	log := journey.NewLog(journey.NewMemoryStore())
	tasks := NewTaskStore()
	return NewService(log, tasks, due, opts...), log, tasks
}

func TestStartMonitoring_UsesAcuityDeadline(t *testing.T) {
	patient := uuid.New()
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	deadline := at.Add(15 * time.Minute)
	calc := &fixedDue{due: map[uuid.UUID]time.Time{patient: deadline}}
	svc, log, _ := newTestMonitoring(t, calc, WithServiceClock(func() time.Time { return at }))

	task, err := svc.StartMonitoring(context.Background(), patient, "", "nurse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Kind != "observation_round" {
		t.Errorf("expected default kind, got %q", task.Kind)
	}
	if task.Status != StatusOrdered {
		t.Errorf("expected ordered, got %q", task.Status)
	}
	if !task.DueAt.Equal(deadline) {
		t.Errorf("expected due %v, got %v", deadline, task.DueAt)
	}

	events, err := log.ListForPatient(context.Background(), patient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Kind != journey.KindMonitoringStart {
		t.Fatalf("expected one monitoring_start event, got %v", events)
	}
	var detail journey.MonitoringDetail
	if err := journey.DecodeDetail(events[0], &detail); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.TaskKind != "observation_round" || detail.DueAt == nil || !detail.DueAt.Equal(deadline) {
		t.Errorf("unexpected payload: %+v", detail)
	}
}

func TestStartMonitoring_FallbackWithoutVitalsHistory(t *testing.T) {
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newTestMonitoring(t, &fixedDue{}, WithServiceClock(func() time.Time { return at }))

	task, err := svc.StartMonitoring(context.Background(), uuid.New(), "recheck", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.DueAt.Equal(at.Add(time.Hour)) {
		t.Errorf("expected hourly fallback, got %v", task.DueAt)
	}
}

func TestUpdateMonitoring_ReanchorsActiveTasks(t *testing.T) {
	patient := uuid.New()
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	calc := &fixedDue{due: map[uuid.UUID]time.Time{patient: at.Add(30 * time.Minute)}}
	svc, log, tasks := newTestMonitoring(t, calc, WithServiceClock(func() time.Time { return at }))

	task, err := svc.StartMonitoring(context.Background(), patient, "", "nurse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Acuity worsened: deadline moves in.
	calc.due[patient] = at.Add(15 * time.Minute)
	updated, err := svc.UpdateMonitoring(context.Background(), patient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated) != 1 || !updated[0].DueAt.Equal(at.Add(15*time.Minute)) {
		t.Errorf("expected re-anchored deadline, got %+v", updated)
	}
	got, _ := tasks.Get(task.ID)
	if !got.DueAt.Equal(at.Add(15 * time.Minute)) {
		t.Errorf("store not updated: %v", got.DueAt)
	}

	events, _ := log.ListForPatient(context.Background(), patient)
	last := events[len(events)-1]
	if last.Kind != journey.KindMonitoringUpdate {
		t.Errorf("expected monitoring_update event, got %s", last.Kind)
	}
}

func TestUpdateMonitoring_LeavesOverdueAlone(t *testing.T) {
	patient := uuid.New()
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	calc := &fixedDue{due: map[uuid.UUID]time.Time{patient: at.Add(15 * time.Minute)}}
	svc, _, tasks := newTestMonitoring(t, calc, WithServiceClock(func() time.Time { return at }))

	task, err := svc.StartMonitoring(context.Background(), patient, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tasks.SetStatus(task.ID, StatusOverdue); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calc.due[patient] = at.Add(2 * time.Hour)
	updated, err := svc.UpdateMonitoring(context.Background(), patient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated) != 0 {
		t.Errorf("expected no re-anchored tasks, got %d", len(updated))
	}
	got, _ := tasks.Get(task.ID)
	if !got.DueAt.Equal(at.Add(15 * time.Minute)) {
		t.Error("expected overdue deadline untouched")
	}
}

func TestStopMonitoring_CompletesTasksAndLogs(t *testing.T) {
	patient := uuid.New()
	svc, log, tasks := newTestMonitoring(t, &fixedDue{})

	first, err := svc.StartMonitoring(context.Background(), patient, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.StartMonitoring(context.Background(), patient, "recheck", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.StopMonitoring(context.Background(), patient); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		got, _ := tasks.Get(id)
		if got.Status != StatusDone {
			t.Errorf("task %s: expected done, got %q", id, got.Status)
		}
	}

	events, _ := log.ListForPatient(context.Background(), patient)
	last := events[len(events)-1]
	if last.Kind != journey.KindMonitoringStop {
		t.Errorf("expected monitoring_stop event, got %s", last.Kind)
	}
}

func TestCompleteTask(t *testing.T) {
	svc, _, _ := newTestMonitoring(t, &fixedDue{})
	task, err := svc.StartMonitoring(context.Background(), uuid.New(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done, err := svc.CompleteTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.Status != StatusDone || done.CompletedAt == nil {
		t.Errorf("expected terminal done, got %+v", done)
	}

	if _, err := svc.CompleteTask(context.Background(), task.ID); err == nil {
		t.Error("expected error on double completion")
	}
}

func TestStartMonitoring_RequiresPatient(t *testing.T) {
	svc, _, _ := newTestMonitoring(t, &fixedDue{})
	if _, err := svc.StartMonitoring(context.Background(), uuid.Nil, "", ""); err == nil {
		t.Error("expected error for nil patient id")
	}
}
