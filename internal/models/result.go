package models

// RankedAdvice is an advice entry scored against one request.
type RankedAdvice struct {
	AdviceEntry
	RelevanceScore   float64 `json:"relevance_score"`
	MatchingSymptoms int     `json:"matching_symptoms"`
	MatchPercentage  float64 `json:"symptom_match_percentage"`
}

// RankingResult is the output of the ranking engine for one request.
// Advice is empty (not nil) when nothing clears the thresholds.
type RankingResult struct {
	Advice           []RankedAdvice `json:"advice"`
	Symptoms         []Symptom      `json:"symptoms"`
	OverallSeverity  Severity       `json:"overall_severity"`
	EmergencyWarning bool           `json:"emergency_warning"`
}

// AdviceIDs returns the ids of the surfaced advice entries in rank order.
func (r *RankingResult) AdviceIDs() []int64 {
	ids := make([]int64, 0, len(r.Advice))
	for _, a := range r.Advice {
		ids = append(ids, a.ID)
	}
	return ids
}

// AdviceResponse is the structured-selection response envelope.
type AdviceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	*RankingResult
	Timestamp string `json:"timestamp,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ReplyType distinguishes the outcomes of a chat request.
type ReplyType string

const (
	// ReplyNoSymptoms means extraction found nothing in the message.
	ReplyNoSymptoms ReplyType = "no_symptoms"
	// ReplyNoAdvice means symptoms were found but no advice cleared the thresholds.
	ReplyNoAdvice ReplyType = "no_advice"
	// ReplyAdvice carries ranked advice items.
	ReplyAdvice ReplyType = "advice"
	// ReplyFallback is the degraded keyword-only reply used when lookups fail.
	ReplyFallback ReplyType = "fallback"
)

// AdviceItem is one advice entry shaped for a chat reply.
type AdviceItem struct {
	Title           string   `json:"title"`
	Recommendation  string   `json:"recommendation"`
	Severity        Severity `json:"severity"`
	Matches         int      `json:"matches"`
	MatchPercentage float64  `json:"match_percentage"`
	DoctorAdvice    string   `json:"doctor_advice,omitempty"`
	EmergencySigns  string   `json:"emergency_signs,omitempty"`
}

// ChatReply is the response to a free-text chat request.
type ChatReply struct {
	Success          bool         `json:"success"`
	Type             ReplyType    `json:"type"`
	Message          string       `json:"message,omitempty"`
	Symptoms         []string     `json:"symptoms,omitempty"`
	Suggestions      []string     `json:"suggestions,omitempty"`
	AdviceCount      int          `json:"advice_count,omitempty"`
	AdviceItems      []AdviceItem `json:"advice_items,omitempty"`
	Tips             []string     `json:"tips,omitempty"`
	OverallSeverity  Severity     `json:"overall_severity,omitempty"`
	EmergencyWarning bool         `json:"emergency_warning,omitempty"`
}
