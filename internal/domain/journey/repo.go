package journey

import (
	"context"

	"github.com/google/uuid"
)

// EventStore is the append-only persistence contract for journey events.
// Append is the only mutation; no update or delete exists. Reads are
// repeatable and return events in per-patient append order.
type EventStore interface {
	Append(ctx context.Context, e *Event) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Event, error)
	// ListByPatientSince returns events with Seq > afterSeq, for incremental
	// projection maintenance.
	ListByPatientSince(ctx context.Context, patientID uuid.UUID, afterSeq int64) ([]*Event, error)
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int64, error)
	// Patients returns the ids of all patients with at least one event.
	Patients(ctx context.Context) ([]uuid.UUID, error)
}
