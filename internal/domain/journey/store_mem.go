package journey

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a thread-safe in-memory EventStore. Appends are atomic
// under a single mutex, so concurrent readers never observe a partial
// write; per-patient order is the order appends were issued.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[uuid.UUID][]*Event
	// patientOrder keeps Patients() deterministic.
	patientOrder []uuid.UUID
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[uuid.UUID][]*Event)}
}

func (s *MemoryStore) Append(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[e.PatientID]; !ok {
		s.patientOrder = append(s.patientOrder, e.PatientID)
	}
	e.Seq = int64(len(s.events[e.PatientID])) + 1
	s.events[e.PatientID] = append(s.events[e.PatientID], e.Clone())
	return nil
}

func (s *MemoryStore) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.events[patientID]
	out := make([]*Event, 0, len(stored))
	for _, e := range stored {
		out = append(out, e.Clone())
	}
	return out, nil
}

func (s *MemoryStore) ListByPatientSince(_ context.Context, patientID uuid.UUID, afterSeq int64) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Event
	for _, e := range s.events[patientID] {
		if e.Seq > afterSeq {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) CountByPatient(_ context.Context, patientID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.events[patientID])), nil
}

func (s *MemoryStore) Patients(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, len(s.patientOrder))
	copy(out, s.patientOrder)
	return out, nil
}
