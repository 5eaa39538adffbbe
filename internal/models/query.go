package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AdviceRequest is the structured-selection request body.
// Symptoms may mix numbers and numeric strings; see ParseSymptomIDs.
type AdviceRequest struct {
	Symptoms  []interface{} `json:"symptoms"`
	SessionID string        `json:"session_id,omitempty"`
}

// ChatRequest is the free-text request body.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ParseSymptomIDs keeps entries that are positive whole numbers (as JSON numbers or numeric
// strings), dropping everything else. Duplicates collapse, first occurrence wins.
func ParseSymptomIDs(raw []interface{}) []int64 {
	seen := make(map[int64]struct{}, len(raw))
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, ok := toSymptomID(v)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// DedupeIDs drops non-positive ids and duplicates, preserving first-seen order.
func DedupeIDs(in []int64) []int64 {
	raw := make([]interface{}, len(in))
	for i, id := range in {
		raw[i] = id
	}
	return ParseSymptomIDs(raw)
}

func toSymptomID(v interface{}) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
