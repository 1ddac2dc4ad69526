package journey

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Listener is notified synchronously after an event has been appended.
// Listeners observe a patient's events in append order and must not block.
type Listener interface {
	OnEvent(ctx context.Context, e *Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, e *Event)

func (f ListenerFunc) OnEvent(ctx context.Context, e *Event) { f(ctx, e) }

// Log is the journey event log service. It owns the append discipline:
// every mutation in the system flows through Append, which validates the
// event, fills generated fields, persists, and then fans out to registered
// listeners. There is no update or delete.
type Log struct {
	store EventStore
	now   func() time.Time

	mu        sync.RWMutex
	listeners []Listener
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithClock overrides the wall clock used to stamp events without one.
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) { l.now = now }
}

// NewLog creates a Log over the given store.
func NewLog(store EventStore, opts ...LogOption) *Log {
	l := &Log{store: store, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// AddListener registers an append listener. Registration order is
// notification order.
func (l *Log) AddListener(ln Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, ln)
}

// Append validates and persists an event, assigning an id and timestamp when
// absent, then notifies listeners. Legacy kind aliases are normalized on the
// way in so stored history uses the closed kind set.
func (l *Log) Append(ctx context.Context, e *Event) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if !KnownKind(e.Kind) {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	e.Kind = CanonicalKind(e.Kind)
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}

	if err := l.store.Append(ctx, e); err != nil {
		return err
	}

	l.mu.RLock()
	listeners := l.listeners
	l.mu.RUnlock()
	for _, ln := range listeners {
		ln.OnEvent(ctx, e.Clone())
	}
	return nil
}

// ListForPatient returns the patient's full event history in append order.
func (l *Log) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Event, error) {
	return l.store.ListByPatient(ctx, patientID)
}

// ListForPatientSince returns the patient's events after the given sequence
// number, for incremental projection maintenance.
func (l *Log) ListForPatientSince(ctx context.Context, patientID uuid.UUID, afterSeq int64) ([]*Event, error) {
	return l.store.ListByPatientSince(ctx, patientID, afterSeq)
}

// Version returns the patient's current log version (count of events).
func (l *Log) Version(ctx context.Context, patientID uuid.UUID) (int64, error) {
	return l.store.CountByPatient(ctx, patientID)
}

// Patients returns all patients with journey history.
func (l *Log) Patients(ctx context.Context) ([]uuid.UUID, error) {
	return l.store.Patients(ctx)
}
