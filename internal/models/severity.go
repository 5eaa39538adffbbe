package models

import "strings"

// Severity is the ordinal urgency classification shared by symptoms and advice entries.
// The zero value is SeverityUnknown, which ranks the same as SeverityLow.
type Severity int

const (
	// SeverityUnknown is an unrecognized or missing label.
	SeverityUnknown Severity = iota
	// SeverityLow is self-care territory.
	SeverityLow
	// SeverityMedium suggests a consultation if symptoms persist.
	SeverityMedium
	// SeverityHigh suggests prompt medical evaluation.
	SeverityHigh
	// SeverityEmergency requires immediate care.
	SeverityEmergency
)

// ParseSeverity maps a label (case-insensitive) to a Severity.
// Unrecognized labels return SeverityUnknown.
func ParseSeverity(label string) Severity {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "emergency":
		return SeverityEmergency
	default:
		return SeverityUnknown
	}
}

// String returns the lowercase label.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Rank returns the ordinal used for sorting and aggregation: low=1 .. emergency=4.
// Unknown severities rank as 1.
func (s Severity) Rank() int {
	if s < SeverityLow || s > SeverityEmergency {
		return 1
	}
	return int(s)
}

// Known reports whether s is one of the four recognized levels.
func (s Severity) Known() bool {
	return s >= SeverityLow && s <= SeverityEmergency
}

// Urgent reports whether s warrants an emergency warning (high or emergency).
func (s Severity) Urgent() bool {
	return s == SeverityHigh || s == SeverityEmergency
}

// SeverityFromRank maps an ordinal back to its Severity. Out-of-range ranks clamp.
func SeverityFromRank(rank int) Severity {
	if rank <= 1 {
		return SeverityLow
	}
	if rank >= 4 {
		return SeverityEmergency
	}
	return Severity(rank)
}

// MaxSeverity returns the higher-ranked of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return SeverityFromRank(b.Rank())
	}
	return SeverityFromRank(a.Rank())
}

// MarshalText implements encoding.TextMarshaler so severities serialize as labels.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown labels decode to SeverityUnknown.
func (s *Severity) UnmarshalText(text []byte) error {
	*s = ParseSeverity(string(text))
	return nil
}
