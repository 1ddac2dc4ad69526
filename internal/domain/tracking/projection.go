package tracking

import (
	"encoding/json"
	"time"

	"github.com/edflow/edflow/internal/domain/journey"
	"github.com/edflow/edflow/internal/domain/vitals"
)

// Phase is a patient's clinical phase, derived purely from journey events.
type Phase string

const (
	PhaseWaiting     Phase = "Waiting"
	PhaseInTriage    Phase = "InTriage"
	PhaseRoomed      Phase = "Roomed"
	PhaseDiagnostics Phase = "Diagnostics"
	PhaseReview      Phase = "Review"
)

// phaseRank orders phases for the forward-only fold. A transition only
// applies when it moves the patient forward; late documentation (e.g. a
// triage event after rooming) never regresses the phase.
var phaseRank = map[Phase]int{
	PhaseWaiting:     0,
	PhaseInTriage:    1,
	PhaseRoomed:      2,
	PhaseDiagnostics: 3,
	PhaseReview:      4,
}

// Observation intervals by early warning score. Higher acuity, tighter
// monitoring.
const (
	intervalHigh   = 15 * time.Minute // EWS >= 5
	intervalMedium = 30 * time.Minute // EWS >= 3
	intervalLow    = 60 * time.Minute
)

// ObservationInterval returns the monitoring interval implied by a score.
func ObservationInterval(ews int) time.Duration {
	switch {
	case ews >= 5:
		return intervalHigh
	case ews >= 3:
		return intervalMedium
	default:
		return intervalLow
	}
}

// advancePhase applies a single event to the current phase. Events the fold
// does not understand leave the phase untouched.
func advancePhase(current Phase, e *journey.Event) Phase {
	var next Phase
	switch journey.CanonicalKind(e.Kind) {
	case journey.KindTriage:
		next = PhaseInTriage
	case journey.KindRoomChange:
		next = PhaseRoomed
	case journey.KindOrder:
		if current != PhaseRoomed {
			return current
		}
		next = PhaseDiagnostics
	case journey.KindResult:
		if current != PhaseDiagnostics {
			return current
		}
		next = PhaseReview
	default:
		return current
	}
	if phaseRank[next] <= phaseRank[current] {
		return current
	}
	return next
}

// PhaseOf folds the patient's ordered events into a clinical phase.
func PhaseOf(events []*journey.Event) Phase {
	phase := PhaseWaiting
	for _, e := range events {
		phase = advancePhase(phase, e)
	}
	return phase
}

// roomFromEvent extracts a room label from a room-change family event,
// tolerating both the tagged payload and legacy opaque string payloads.
// Returns "" when the event carries no usable label.
func roomFromEvent(e *journey.Event) string {
	if journey.CanonicalKind(e.Kind) != journey.KindRoomChange {
		return ""
	}
	var detail journey.RoomChangeDetail
	if err := journey.DecodeDetail(e, &detail); err == nil && detail.Room != "" {
		return detail.Room
	}
	// Migration window: older records stored the bare room label.
	var legacy string
	if err := json.Unmarshal(e.Detail, &legacy); err == nil && legacy != "" {
		return legacy
	}
	// Only legacy-alias records carry the bare room name in Label; a
	// canonical room_change label is display text, not a room.
	if e.Kind != journey.KindRoomChange && e.Label != "" {
		return e.Label
	}
	return ""
}

// RoomOf returns the last non-empty room label in the patient's history,
// or "" when the patient has never been roomed.
func RoomOf(events []*journey.Event) string {
	room := ""
	for _, e := range events {
		if r := roomFromEvent(e); r != "" {
			room = r
		}
	}
	return room
}

// HistoryOf folds the patient's events into the ordered observation
// history. Malformed vitals payloads are skipped, never fatal.
func HistoryOf(events []*journey.Event) []vitals.Observation {
	var out []vitals.Observation
	for _, e := range events {
		if journey.CanonicalKind(e.Kind) != journey.KindVitals {
			continue
		}
		var detail journey.VitalsDetail
		if err := journey.DecodeDetail(e, &detail); err != nil {
			continue
		}
		out = append(out, detail.Observation)
	}
	return out
}

// PreviousEWS returns the most recent persisted score in the given history,
// and whether one exists. Callers evaluating a new observation pass the
// events preceding the write, so the result is the score strictly before it.
func PreviousEWS(events []*journey.Event) (int, bool) {
	history := HistoryOf(events)
	if len(history) == 0 {
		return 0, false
	}
	return history[len(history)-1].EWS, true
}

// NextObsDue returns when the next observation is due: the last vitals time
// plus the acuity interval for its score. Nil when there is no vitals
// history yet.
func NextObsDue(events []*journey.Event) *time.Time {
	var (
		last  *journey.Event
		score int
	)
	for _, e := range events {
		if journey.CanonicalKind(e.Kind) != journey.KindVitals {
			continue
		}
		var detail journey.VitalsDetail
		if err := journey.DecodeDetail(e, &detail); err != nil {
			continue
		}
		last = e
		score = detail.Observation.EWS
	}
	if last == nil {
		return nil
	}
	due := last.Timestamp.Add(ObservationInterval(score))
	return &due
}
