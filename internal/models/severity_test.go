package models

import (
	"encoding/json"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"low", SeverityLow},
		{"Medium", SeverityMedium},
		{" HIGH ", SeverityHigh},
		{"emergency", SeverityEmergency},
		{"critical", SeverityUnknown},
		{"", SeverityUnknown},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSeverity_Rank(t *testing.T) {
	if SeverityUnknown.Rank() != 1 {
		t.Errorf("unknown should rank as low, got %d", SeverityUnknown.Rank())
	}
	if SeverityEmergency.Rank() != 4 || SeverityHigh.Rank() != 3 || SeverityMedium.Rank() != 2 {
		t.Error("unexpected rank ordering")
	}
	if Severity(42).Rank() != 1 {
		t.Error("out of range severity should rank as 1")
	}
}

func TestMaxSeverity(t *testing.T) {
	if got := MaxSeverity(SeverityUnknown, SeverityUnknown); got != SeverityLow {
		t.Errorf("max of unknowns = %v, want low", got)
	}
	if got := MaxSeverity(SeverityHigh, SeverityMedium); got != SeverityHigh {
		t.Errorf("got %v, want high", got)
	}
	if !SeverityEmergency.Urgent() || !SeverityHigh.Urgent() || SeverityMedium.Urgent() {
		t.Error("urgent should be true only for high and emergency")
	}
}

func TestSeverity_JSON(t *testing.T) {
	data, err := json.Marshal(Symptom{ID: 1, Name: "Fever", Severity: SeverityMedium})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["severity_level"] != "medium" {
		t.Errorf("severity_level = %v, want medium", decoded["severity_level"])
	}

	var s Symptom
	if err := json.Unmarshal([]byte(`{"id":2,"severity_level":"emergency"}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.Severity != SeverityEmergency {
		t.Errorf("decoded severity = %v", s.Severity)
	}
}
