// Package models defines core data structures for symptoms, advice, and ranked results.
package models

import "time"

// Symptom is an immutable catalog entry describing a reportable condition.
type Symptom struct {
	ID          int64    `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Severity    Severity `json:"severity_level" yaml:"severity_level"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// AdviceEntry is an immutable recommendation record.
type AdviceEntry struct {
	ID              int64    `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Description     string   `json:"description" yaml:"description"`
	Recommendation  string   `json:"recommendation" yaml:"recommendation"`
	Severity        Severity `json:"severity_level" yaml:"severity_level"`
	Category        string   `json:"category" yaml:"category"`
	WhenToSeeDoctor string   `json:"when_to_see_doctor,omitempty" yaml:"when_to_see_doctor,omitempty"`
	EmergencySigns  string   `json:"emergency_signs,omitempty" yaml:"emergency_signs,omitempty"`
}

// Mapping associates one symptom with one advice entry. A (symptom, advice) pair is unique.
type Mapping struct {
	SymptomID int64   `json:"symptom_id" yaml:"symptom_id"`
	AdviceID  int64   `json:"advice_id" yaml:"advice_id"`
	Weight    float64 `json:"weight" yaml:"weight"`
}

// WeightedAdvice is a mapping row joined with its advice entry, as returned by weight lookups.
type WeightedAdvice struct {
	Mapping
	Advice AdviceEntry
}

// SessionRecord is one analytics row written after a successful advice request.
type SessionRecord struct {
	SessionID  string    `json:"session_id"`
	SymptomIDs []int64   `json:"symptom_ids"`
	AdviceIDs  []int64   `json:"advice_ids"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
