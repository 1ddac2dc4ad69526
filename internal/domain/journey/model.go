package journey

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/domain/vitals"
)

// EventKind tags an entry in a patient's journey log.
type EventKind string

const (
	KindArrival           EventKind = "arrival"
	KindTriage            EventKind = "triage"
	KindRoomChange        EventKind = "room_change"
	KindVitals            EventKind = "vitals"
	KindEWSChange         EventKind = "ews_change"
	KindOrder             EventKind = "order"
	KindResult            EventKind = "result"
	KindTask              EventKind = "task"
	KindMedAdmin          EventKind = "med_admin"
	KindNote              EventKind = "note"
	KindCommunication     EventKind = "communication"
	KindAlert             EventKind = "alert"
	KindNursingAssessment EventKind = "assessment_nursing"
	KindMonitoringStart   EventKind = "monitoring_start"
	KindMonitoringUpdate  EventKind = "monitoring_update"
	KindMonitoringStop    EventKind = "monitoring_stop"
	KindDispositionSet    EventKind = "disposition_set"
)

// SeverityWarn is the only severity hint emitted today. It is a derived
// display hint, never authoritative.
const SeverityWarn = "warn"

// legacyKinds maps event tags written by earlier chart versions onto the
// closed kind set. The table exists for a migration window only; folds treat
// anything not listed here and not in the closed set as opaque.
var legacyKinds = map[EventKind]EventKind{
	"location_change": KindRoomChange,
	"room_assign":     KindRoomChange,
	"bed_assign":      KindRoomChange,
	"transfer":        KindRoomChange,
	"obs":             KindVitals,
	"observation":     KindVitals,
}

var knownKinds = map[EventKind]bool{
	KindArrival: true, KindTriage: true, KindRoomChange: true,
	KindVitals: true, KindEWSChange: true, KindOrder: true,
	KindResult: true, KindTask: true, KindMedAdmin: true,
	KindNote: true, KindCommunication: true, KindAlert: true,
	KindNursingAssessment: true, KindMonitoringStart: true,
	KindMonitoringUpdate: true, KindMonitoringStop: true,
	KindDispositionSet: true,
}

// CanonicalKind resolves legacy aliases onto the closed kind set. Unknown
// kinds are returned unchanged; projections ignore what they don't
// understand.
func CanonicalKind(k EventKind) EventKind {
	if mapped, ok := legacyKinds[k]; ok {
		return mapped
	}
	return k
}

// KnownKind reports whether k (after alias resolution) belongs to the
// closed kind set.
func KnownKind(k EventKind) bool {
	return knownKinds[CanonicalKind(k)]
}

// Actor identifies who performed an action. Absent for system-generated
// events.
type Actor struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// Event is one immutable entry in a patient's journey log. Once appended it
// is never mutated or removed; Seq is the per-patient append sequence and is
// the authoritative order (wall-clock timestamps are not guaranteed
// monotonic).
type Event struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	PatientID uuid.UUID       `db:"patient_id" json:"patient_id"`
	Seq       int64           `db:"seq" json:"seq"`
	Timestamp time.Time       `db:"ts" json:"timestamp"`
	Kind      EventKind       `db:"kind" json:"kind"`
	Label     string          `db:"label" json:"label"`
	Detail    json.RawMessage `db:"detail" json:"detail,omitempty"`
	Actor     *Actor          `db:"actor" json:"actor,omitempty"`
	Severity  string          `db:"severity" json:"severity,omitempty"`
}

// Clone returns a deep-enough copy for hand-out across the store boundary:
// callers can never mutate appended history through a returned event.
func (e *Event) Clone() *Event {
	cp := *e
	if e.Detail != nil {
		cp.Detail = append(json.RawMessage(nil), e.Detail...)
	}
	if e.Actor != nil {
		actor := *e.Actor
		cp.Actor = &actor
	}
	return &cp
}

// VitalsDetail is the payload of a vitals event.
type VitalsDetail struct {
	Observation vitals.Observation `json:"observation"`
}

// RoomChangeDetail is the payload of a room_change event.
type RoomChangeDetail struct {
	Room string `json:"room"`
	From string `json:"from,omitempty"`
}

// EWSChangeDetail is the payload of an ews_change event.
type EWSChangeDetail struct {
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	AlgoID   string `json:"algo_id"`
}

// MonitoringDetail is the payload of the monitoring_start/update/stop
// events.
type MonitoringDetail struct {
	TaskKind     string     `json:"task_kind"`
	AssigneeRole string     `json:"assignee_role,omitempty"`
	DueAt        *time.Time `json:"due_at,omitempty"`
}

// DispositionDetail is the payload of a disposition_set event.
type DispositionDetail struct {
	Disposition string `json:"disposition"`
	Destination string `json:"destination,omitempty"`
}

// EncodeDetail marshals a typed payload for storage on an event.
func EncodeDetail(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode event detail: %w", err)
	}
	return data, nil
}

// DecodeDetail unmarshals an event payload into the given typed struct.
// Legacy opaque string payloads and malformed history fail decoding; callers
// fold past such events rather than erroring.
func DecodeDetail(e *Event, v interface{}) error {
	if len(e.Detail) == 0 {
		return fmt.Errorf("event %s has no detail", e.ID)
	}
	if err := json.Unmarshal(e.Detail, v); err != nil {
		return fmt.Errorf("decode %s detail: %w", e.Kind, err)
	}
	return nil
}
