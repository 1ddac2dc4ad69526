package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/domain/journey"
	"github.com/edflow/edflow/internal/domain/vitals"
)

// BoardEntry is one row of the cross-patient tracking board.
type BoardEntry struct {
	PatientID uuid.UUID `json:"patient_id"`
	Phase     Phase     `json:"phase"`
	Room      string    `json:"room,omitempty"`
	// Version is the log version the entry was computed at.
	Version int64 `json:"version"`
}

// Service exposes the derived read models over the journey log and the
// mutation entry points that write through it. Per-patient projections
// refold from the log on every read; only the cross-patient board index is
// maintained incrementally, via an append listener, and may briefly lag a
// read-side refold. AssignRoom refreshes the board synchronously so that
// path reads its own write.
type Service struct {
	log    *journey.Log
	scores *vitals.Registry
	algoID string
	now    func() time.Time

	mu    sync.RWMutex
	board map[uuid.UUID]*BoardEntry

	// obsMu serializes the read-score-append sequence in RecordObservation.
	// Without it two concurrent observations can both read the same previous
	// score and each emit an ews_change for an identical score.
	obsMu sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithAlgorithm selects the scoring algorithm used for new observations.
func WithAlgorithm(algoID string) ServiceOption {
	return func(s *Service) { s.algoID = algoID }
}

// WithServiceClock overrides the wall clock.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates the tracking service and registers it as an append
// listener on the log so the board index stays current.
func NewService(log *journey.Log, scores *vitals.Registry, opts ...ServiceOption) *Service {
	s := &Service{
		log:    log,
		scores: scores,
		algoID: vitals.DefaultAlgorithmID,
		now:    time.Now,
		board:  make(map[uuid.UUID]*BoardEntry),
	}
	for _, o := range opts {
		o(s)
	}
	log.AddListener(journey.ListenerFunc(s.onEvent))
	return s
}

// onEvent maintains the board index incrementally. Applying one event to
// the cached entry is equivalent to refolding the full log; the projection
// tests hold the two strategies to the same result.
func (s *Service) onEvent(_ context.Context, e *journey.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.board[e.PatientID]
	if !ok {
		entry = &BoardEntry{PatientID: e.PatientID, Phase: PhaseWaiting}
		s.board[e.PatientID] = entry
	}
	entry.Phase = advancePhase(entry.Phase, e)
	if r := roomFromEvent(e); r != "" {
		entry.Room = r
	}
	entry.Version = e.Seq
}

// refreshPatient rebuilds a patient's board entry from the log. Used when
// read-after-write consistency is required and as the out-of-band recovery
// path for a stale cache.
func (s *Service) refreshPatient(ctx context.Context, patientID uuid.UUID) error {
	events, err := s.log.ListForPatient(ctx, patientID)
	if err != nil {
		return err
	}
	entry := &BoardEntry{PatientID: patientID, Phase: PhaseOf(events), Room: RoomOf(events)}
	if n := len(events); n > 0 {
		entry.Version = events[n-1].Seq
	}
	s.mu.Lock()
	s.board[patientID] = entry
	s.mu.Unlock()
	return nil
}

// RecordObservation normalizes and scores a raw vital-sign entry, appends
// the vitals event, and appends an ews_change event only when the score
// differs from the previous persisted score. The returned observation
// carries the persisted score and algorithm id.
func (s *Service) RecordObservation(ctx context.Context, patientID uuid.UUID, raw vitals.RawObservation, actorRole string) (*vitals.Observation, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}

	obs := vitals.Normalize(raw)
	score, err := s.scores.Compute(obs, s.algoID)
	if err != nil {
		return nil, err
	}
	obs.EWS = score
	obs.AlgoID = s.algoID
	obs.Taken = s.now()

	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	before, err := s.log.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	prev, hasPrev := PreviousEWS(before)

	detail, err := journey.EncodeDetail(journey.VitalsDetail{Observation: obs})
	if err != nil {
		return nil, err
	}
	var actor *journey.Actor
	if actorRole != "" {
		actor = &journey.Actor{Role: actorRole}
	}
	e := &journey.Event{
		PatientID: patientID,
		Timestamp: obs.Taken,
		Kind:      journey.KindVitals,
		Label:     fmt.Sprintf("Vitals recorded (EWS %d)", score),
		Detail:    detail,
		Actor:     actor,
	}
	if score >= 5 {
		e.Severity = journey.SeverityWarn
	}
	if err := s.log.Append(ctx, e); err != nil {
		return nil, err
	}

	if !hasPrev || prev != score {
		changeDetail, err := journey.EncodeDetail(journey.EWSChangeDetail{
			Previous: prev,
			Current:  score,
			AlgoID:   s.algoID,
		})
		if err != nil {
			return nil, err
		}
		change := &journey.Event{
			PatientID: patientID,
			Timestamp: obs.Taken,
			Kind:      journey.KindEWSChange,
			Label:     fmt.Sprintf("EWS %d → %d", prev, score),
			Detail:    changeDetail,
		}
		if score >= 5 {
			change.Severity = journey.SeverityWarn
		}
		if err := s.log.Append(ctx, change); err != nil {
			return nil, err
		}
	}

	return &obs, nil
}

// AssignRoom appends a room_change event and synchronously refreshes the
// board index before returning.
func (s *Service) AssignRoom(ctx context.Context, patientID uuid.UUID, room, actorName string) error {
	if patientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if room == "" {
		return fmt.Errorf("room is required")
	}

	from := ""
	if events, err := s.log.ListForPatient(ctx, patientID); err == nil {
		from = RoomOf(events)
	}
	detail, err := journey.EncodeDetail(journey.RoomChangeDetail{Room: room, From: from})
	if err != nil {
		return err
	}
	var actor *journey.Actor
	if actorName != "" {
		actor = &journey.Actor{Role: "nurse", Name: actorName}
	}
	e := &journey.Event{
		PatientID: patientID,
		Kind:      journey.KindRoomChange,
		Label:     room,
		Detail:    detail,
		Actor:     actor,
	}
	if err := s.log.Append(ctx, e); err != nil {
		return err
	}
	return s.refreshPatient(ctx, patientID)
}

// Phase returns the patient's current clinical phase, refolded from the log.
func (s *Service) Phase(ctx context.Context, patientID uuid.UUID) (Phase, error) {
	events, err := s.log.ListForPatient(ctx, patientID)
	if err != nil {
		return "", err
	}
	return PhaseOf(events), nil
}

// Room returns the patient's current room, "" when never roomed.
func (s *Service) Room(ctx context.Context, patientID uuid.UUID) (string, error) {
	events, err := s.log.ListForPatient(ctx, patientID)
	if err != nil {
		return "", err
	}
	return RoomOf(events), nil
}

// History returns the patient's ordered observation history.
func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]vitals.Observation, error) {
	events, err := s.log.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return HistoryOf(events), nil
}

// NextDue returns when the patient's next observation is due, nil when
// there is no vitals history yet.
func (s *Service) NextDue(ctx context.Context, patientID uuid.UUID) (*time.Time, error) {
	events, err := s.log.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return NextObsDue(events), nil
}

// Board returns the cross-patient room/phase index in patient first-seen
// order.
func (s *Service) Board(ctx context.Context) ([]*BoardEntry, error) {
	patients, err := s.log.Patients(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*BoardEntry, 0, len(patients))
	for _, pid := range patients {
		if entry, ok := s.board[pid]; ok {
			cp := *entry
			out = append(out, &cp)
		}
	}
	return out, nil
}
