package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shindan/internal/models"
)

func TestFormatter_NoSymptoms(t *testing.T) {
	f := NewFormatter(nil)
	reply := f.NoSymptoms()
	assert.Equal(t, models.ReplyNoSymptoms, reply.Type)
	assert.True(t, reply.Success)
	assert.Equal(t, DefaultSuggestions, reply.Suggestions)

	f = NewFormatter(&Config{Suggestions: []string{"My knee hurts"}})
	assert.Equal(t, []string{"My knee hurts"}, f.NoSymptoms().Suggestions)
}

func TestFormatter_Format_noAdvice(t *testing.T) {
	f := NewFormatter(nil)
	extracted := []models.Symptom{{ID: 1, Name: "Headache"}}
	reply := f.Format(&models.RankingResult{Advice: []models.RankedAdvice{}}, extracted)

	assert.Equal(t, models.ReplyNoAdvice, reply.Type)
	assert.Equal(t, []string{"Headache"}, reply.Symptoms)
	assert.Contains(t, reply.Message, "healthcare professional")
	assert.Empty(t, reply.AdviceItems)
}

func TestFormatter_Format_advice(t *testing.T) {
	f := NewFormatter(nil)
	long := strings.Repeat("Drink water regularly. ", 12)
	result := &models.RankingResult{
		Advice: []models.RankedAdvice{
			{
				AdviceEntry: models.AdviceEntry{
					ID: 4, Title: "Emergency Care Required", Recommendation: "Call emergency services.",
					Severity: models.SeverityEmergency, EmergencySigns: "Crushing chest pain",
				},
				RelevanceScore: 1.8, MatchingSymptoms: 2, MatchPercentage: 100,
			},
			{
				AdviceEntry: models.AdviceEntry{
					ID: 1, Title: "Rest and Hydration", Recommendation: long,
					Severity: models.SeverityLow, WhenToSeeDoctor: long,
				},
				RelevanceScore: 1.0, MatchingSymptoms: 1, MatchPercentage: 50,
			},
		},
		OverallSeverity:  models.SeverityEmergency,
		EmergencyWarning: true,
	}
	extracted := []models.Symptom{{ID: 15, Name: "Chest pain"}, {ID: 16, Name: "Shortness of breath"}}

	reply := f.Format(result, extracted)
	require.Equal(t, models.ReplyAdvice, reply.Type)
	require.Len(t, reply.AdviceItems, 2)
	assert.Equal(t, 2, reply.AdviceCount)
	assert.Equal(t, []string{"Chest pain", "Shortness of breath"}, reply.Symptoms)
	assert.True(t, reply.EmergencyWarning)
	assert.Equal(t, models.SeverityEmergency, reply.OverallSeverity)

	first := reply.AdviceItems[0]
	assert.Equal(t, "Emergency Care Required", first.Title)
	assert.Equal(t, "Crushing chest pain", first.EmergencySigns)
	assert.Empty(t, first.DoctorAdvice)
	assert.Equal(t, 2, first.Matches)
	assert.Equal(t, 100.0, first.MatchPercentage)

	second := reply.AdviceItems[1]
	assert.True(t, strings.HasSuffix(second.Recommendation, "..."))
	assert.LessOrEqual(t, len(second.Recommendation), 153)
	assert.LessOrEqual(t, len(second.DoctorAdvice), 103)
	assert.Empty(t, second.EmergencySigns)
	assert.Equal(t, models.SeverityLow, second.Severity)
}

func TestFormatter_Format_unknownSeverityShownAsLow(t *testing.T) {
	f := NewFormatter(nil)
	result := &models.RankingResult{
		Advice: []models.RankedAdvice{{AdviceEntry: models.AdviceEntry{ID: 1, Title: "x"}, MatchingSymptoms: 1}},
	}
	reply := f.Format(result, nil)
	assert.Equal(t, models.SeverityLow, reply.AdviceItems[0].Severity)
}

func TestFallback(t *testing.T) {
	reply := Fallback("My STOMACH hurts and I feel dizzy")
	assert.Equal(t, models.ReplyFallback, reply.Type)
	assert.Equal(t, []string{"stomach", "dizzy"}, reply.Symptoms)
	assert.Len(t, reply.Tips, 4)

	reply = Fallback("hello")
	assert.Equal(t, models.ReplyFallback, reply.Type)
	assert.Empty(t, reply.Tips)
	assert.Contains(t, reply.Suggestions, "My stomach hurts")
}
