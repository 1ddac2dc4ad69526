package vitals

import "time"

// AVPU level-of-consciousness scale values. Free-form input is accepted;
// anything other than Alert scores as altered consciousness.
const (
	LOCAlert        = "A"
	LOCVerbal       = "V"
	LOCPain         = "P"
	LOCUnresponsive = "U"
)

// Observation source values.
const (
	SourceManual = "manual"
	SourceDevice = "device"
)

// RawObservation is the loosely-typed vital-sign input as it arrives from
// entry forms or device feeds. Numeric fields are strings so that empty and
// malformed values can be distinguished from zero.
type RawObservation struct {
	RespiratoryRate string `json:"rr"`
	HeartRate       string `json:"hr"`
	SystolicBP      string `json:"sbp"`
	SpO2            string `json:"spo2"`
	Temperature     string `json:"temp"`
	TempUnit        string `json:"temp_unit,omitempty"` // "C" (default) or "F"
	LOC             string `json:"loc,omitempty"`
	OxygenInUse     bool   `json:"o2,omitempty"`
	OxygenDevice    string `json:"o2_device,omitempty"`
	OxygenFlowRate  string `json:"o2_flow,omitempty"`
	Source          string `json:"source,omitempty"`
}

// Observation is the canonical vital-sign set. Absent fields are nil, never
// zero. EWS and AlgoID are set at write time and immutable thereafter:
// switching the active algorithm affects only future observations.
type Observation struct {
	RespiratoryRate *int     `json:"rr,omitempty"`   // breaths/min
	HeartRate       *int     `json:"hr,omitempty"`   // bpm
	SystolicBP      *int     `json:"sbp,omitempty"`  // mmHg
	SpO2            *int     `json:"spo2,omitempty"` // %
	Temperature     *float64 `json:"temp,omitempty"` // °C
	LOC             string   `json:"loc,omitempty"`
	OxygenInUse     bool     `json:"o2,omitempty"`
	OxygenDevice    string   `json:"o2_device,omitempty"`
	OxygenFlowRate  string   `json:"o2_flow,omitempty"`

	EWS    int       `json:"ews"`
	AlgoID string    `json:"algo_id"`
	Source string    `json:"source,omitempty"`
	Taken  time.Time `json:"taken"`
}
