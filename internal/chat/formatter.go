// Package chat shapes ranking results into short conversational replies.
package chat

import (
	"strings"

	"github.com/hyperjump/shindan/internal/models"
	"github.com/hyperjump/shindan/pkg/utils"
)

const (
	noSymptomsMessage = "I didn't detect any symptoms. Describe what you're feeling."
	noAdviceMessage   = "I couldn't find specific advice for your symptoms. Consider consulting a healthcare professional."
	adviceMessage     = "Based on your symptoms, here is what I recommend:"
	urgentMessage     = "Some of your symptoms may need prompt medical attention. If they are severe or getting worse, seek care immediately."
)

// Formatter builds ChatReply values. It is safe for concurrent use.
type Formatter struct {
	config Config
}

// NewFormatter creates a Formatter. A nil config uses defaults.
func NewFormatter(config *Config) *Formatter {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.ApplyDefaults()
	return &Formatter{config: cfg}
}

// NoSymptoms is the reply for a message in which nothing was detected.
func (f *Formatter) NoSymptoms() *models.ChatReply {
	suggestions := make([]string, len(f.config.Suggestions))
	copy(suggestions, f.config.Suggestions)
	return &models.ChatReply{
		Success:     true,
		Type:        models.ReplyNoSymptoms,
		Message:     noSymptomsMessage,
		Suggestions: suggestions,
	}
}

// Format turns a ranking result into a no_advice or advice reply.
func (f *Formatter) Format(result *models.RankingResult, extracted []models.Symptom) *models.ChatReply {
	symptomNames := make([]string, 0, len(extracted))
	for _, s := range extracted {
		symptomNames = append(symptomNames, s.Name)
	}

	if result == nil || len(result.Advice) == 0 {
		return &models.ChatReply{
			Success:  true,
			Type:     models.ReplyNoAdvice,
			Message:  noAdviceMessage,
			Symptoms: symptomNames,
		}
	}

	items := make([]models.AdviceItem, 0, len(result.Advice))
	for _, a := range result.Advice {
		item := models.AdviceItem{
			Title:           a.Title,
			Recommendation:  utils.Shorten(a.Recommendation, f.config.RecommendationLength),
			Severity:        models.SeverityFromRank(a.Severity.Rank()),
			Matches:         a.MatchingSymptoms,
			MatchPercentage: a.MatchPercentage,
		}
		if doctor := strings.TrimSpace(a.WhenToSeeDoctor); doctor != "" {
			item.DoctorAdvice = utils.Shorten(doctor, f.config.DoctorAdviceLength)
		}
		if signs := strings.TrimSpace(a.EmergencySigns); signs != "" {
			item.EmergencySigns = a.EmergencySigns
		}
		items = append(items, item)
	}

	message := adviceMessage
	if result.EmergencyWarning {
		message = urgentMessage + " " + adviceMessage
	}
	return &models.ChatReply{
		Success:          true,
		Type:             models.ReplyAdvice,
		Message:          message,
		Symptoms:         symptomNames,
		AdviceCount:      len(items),
		AdviceItems:      items,
		OverallSeverity:  result.OverallSeverity,
		EmergencyWarning: result.EmergencyWarning,
	}
}
