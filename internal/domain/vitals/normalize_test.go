package vitals

import "testing"

func TestNormalize_EmptyInputIsAbsent(t *testing.T) {
	obs := Normalize(RawObservation{})
	if obs.RespiratoryRate != nil || obs.HeartRate != nil || obs.SystolicBP != nil ||
		obs.SpO2 != nil || obs.Temperature != nil {
		t.Error("expected all numeric fields to be absent for empty input")
	}
	if obs.Source != SourceManual {
		t.Errorf("expected default source %q, got %q", SourceManual, obs.Source)
	}
}

func TestNormalize_MalformedNumericIsAbsent(t *testing.T) {
	obs := Normalize(RawObservation{HeartRate: "fast", SpO2: "??"})
	if obs.HeartRate != nil {
		t.Errorf("expected malformed hr to be absent, got %d", *obs.HeartRate)
	}
	if obs.SpO2 != nil {
		t.Errorf("expected malformed spo2 to be absent, got %d", *obs.SpO2)
	}
}

func TestNormalize_NonFiniteNumericIsAbsent(t *testing.T) {
	obs := Normalize(RawObservation{
		HeartRate:       "NaN",
		SpO2:            "+Inf",
		RespiratoryRate: "-Inf",
		Temperature:     "NaN",
	})
	if obs.HeartRate != nil {
		t.Errorf("expected NaN hr to be absent, got %d", *obs.HeartRate)
	}
	if obs.SpO2 != nil {
		t.Errorf("expected +Inf spo2 to be absent, got %d", *obs.SpO2)
	}
	if obs.RespiratoryRate != nil {
		t.Errorf("expected -Inf rr to be absent, got %d", *obs.RespiratoryRate)
	}
	if obs.Temperature != nil {
		t.Errorf("expected NaN temp to be absent, got %v", *obs.Temperature)
	}
}

func TestNormalize_OverflowingNumericClampsToMax(t *testing.T) {
	// A finite but absurd reading must clamp to the range maximum; the
	// float→int conversion must not overflow into the minimum.
	obs := Normalize(RawObservation{HeartRate: "1e300", SystolicBP: "1e300"})
	if obs.HeartRate == nil || *obs.HeartRate != maxHR {
		t.Errorf("hr: expected clamp to %d, got %v", maxHR, obs.HeartRate)
	}
	if obs.SystolicBP == nil || *obs.SystolicBP != maxSBP {
		t.Errorf("sbp: expected clamp to %d, got %v", maxSBP, obs.SystolicBP)
	}
}

func TestNormalize_ParsesNumerics(t *testing.T) {
	obs := Normalize(RawObservation{
		RespiratoryRate: "18",
		HeartRate:       " 72 ",
		SystolicBP:      "121",
		SpO2:            "97",
		Temperature:     "36.8",
	})
	if obs.RespiratoryRate == nil || *obs.RespiratoryRate != 18 {
		t.Errorf("rr: got %v", obs.RespiratoryRate)
	}
	if obs.HeartRate == nil || *obs.HeartRate != 72 {
		t.Errorf("hr: got %v", obs.HeartRate)
	}
	if obs.SystolicBP == nil || *obs.SystolicBP != 121 {
		t.Errorf("sbp: got %v", obs.SystolicBP)
	}
	if obs.SpO2 == nil || *obs.SpO2 != 97 {
		t.Errorf("spo2: got %v", obs.SpO2)
	}
	if obs.Temperature == nil || *obs.Temperature != 36.8 {
		t.Errorf("temp: got %v", obs.Temperature)
	}
}

func TestNormalize_FahrenheitConversion(t *testing.T) {
	obs := Normalize(RawObservation{Temperature: "98.6", TempUnit: "F"})
	if obs.Temperature == nil || *obs.Temperature != 37.0 {
		t.Errorf("expected 37.0°C from 98.6°F, got %v", obs.Temperature)
	}

	obs = Normalize(RawObservation{Temperature: "101.3", TempUnit: "f"})
	if obs.Temperature == nil || *obs.Temperature != 38.5 {
		t.Errorf("expected 38.5°C from 101.3°F, got %v", obs.Temperature)
	}
}

func TestNormalize_ClampsToPlausibleRanges(t *testing.T) {
	obs := Normalize(RawObservation{
		RespiratoryRate: "2",
		HeartRate:       "400",
		SystolicBP:      "10",
		SpO2:            "120",
		Temperature:     "50",
	})
	if *obs.RespiratoryRate != minRR {
		t.Errorf("rr: expected clamp to %d, got %d", minRR, *obs.RespiratoryRate)
	}
	if *obs.HeartRate != maxHR {
		t.Errorf("hr: expected clamp to %d, got %d", maxHR, *obs.HeartRate)
	}
	if *obs.SystolicBP != minSBP {
		t.Errorf("sbp: expected clamp to %d, got %d", minSBP, *obs.SystolicBP)
	}
	if *obs.SpO2 != maxSpO2 {
		t.Errorf("spo2: expected clamp to %d, got %d", maxSpO2, *obs.SpO2)
	}
	if *obs.Temperature != maxTemp {
		t.Errorf("temp: expected clamp to %v, got %v", maxTemp, *obs.Temperature)
	}
}

func TestNormalize_PassesThroughLOCAndOxygen(t *testing.T) {
	obs := Normalize(RawObservation{
		LOC:            "V",
		OxygenInUse:    true,
		OxygenDevice:   "nasal cannula",
		OxygenFlowRate: "2 L/min",
		Source:         SourceDevice,
	})
	if obs.LOC != "V" {
		t.Errorf("loc: got %q", obs.LOC)
	}
	if !obs.OxygenInUse || obs.OxygenDevice != "nasal cannula" || obs.OxygenFlowRate != "2 L/min" {
		t.Error("expected oxygen metadata to pass through")
	}
	if obs.Source != SourceDevice {
		t.Errorf("source: got %q", obs.Source)
	}
}
