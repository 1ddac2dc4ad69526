package vitals

import (
	"math"
	"strconv"
	"strings"
)

// Plausible physiological ranges. Out-of-range readings are clamped rather
// than rejected so that transient device noise never blocks charting.
const (
	minRR, maxRR     = 4, 60
	minHR, maxHR     = 20, 220
	minSBP, maxSBP   = 50, 250
	minSpO2, maxSpO2 = 50, 100
	minTemp, maxTemp = 30.0, 43.0
)

// Normalize converts a raw vital-sign entry into the canonical observation.
// It is pure and never fails: empty or unparsable numerics become absent
// (nil), Fahrenheit temperatures are converted to Celsius, and every numeric
// field is clamped to its plausible range. LOC and oxygen metadata pass
// through unvalidated.
func Normalize(raw RawObservation) Observation {
	obs := Observation{
		LOC:            strings.TrimSpace(raw.LOC),
		OxygenInUse:    raw.OxygenInUse,
		OxygenDevice:   raw.OxygenDevice,
		OxygenFlowRate: raw.OxygenFlowRate,
		Source:         raw.Source,
	}
	if obs.Source == "" {
		obs.Source = SourceManual
	}

	obs.RespiratoryRate = parseClampedInt(raw.RespiratoryRate, minRR, maxRR)
	obs.HeartRate = parseClampedInt(raw.HeartRate, minHR, maxHR)
	obs.SystolicBP = parseClampedInt(raw.SystolicBP, minSBP, maxSBP)
	obs.SpO2 = parseClampedInt(raw.SpO2, minSpO2, maxSpO2)

	if t := parseFloat(raw.Temperature); t != nil {
		c := *t
		if strings.EqualFold(strings.TrimSpace(raw.TempUnit), "F") {
			c = (c - 32) * 5 / 9
		}
		c = math.Round(c*10) / 10
		c = clampFloat(c, minTemp, maxTemp)
		obs.Temperature = &c
	}

	return obs
}

// parseClampedInt clamps in float64 space before converting: a huge finite
// value must land on max, not overflow the int conversion.
func parseClampedInt(s string, min, max int) *int {
	f := parseFloat(s)
	if f == nil {
		return nil
	}
	v := math.Round(*f)
	if v < float64(min) {
		v = float64(min)
	}
	if v > float64(max) {
		v = float64(max)
	}
	n := int(v)
	return &n
}

// parseFloat returns nil for anything that is not a finite number; NaN and
// infinities degrade to absent like any other unparsable input.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
