package chat

import (
	"strings"

	"github.com/hyperjump/shindan/internal/models"
)

// fallbackKeywords are recognized without any catalog access.
var fallbackKeywords = []string{
	"headache", "fever", "cough", "fatigue", "chest pain",
	"sore throat", "stomach", "nausea", "dizzy",
}

var fallbackTips = []string{
	"Monitor your symptoms",
	"Stay hydrated and rest",
	"Consider over-the-counter remedies if appropriate",
	"Consult a healthcare provider if symptoms persist",
}

var fallbackExamples = []string{
	"I have a headache",
	"I feel tired and have fever",
	"My stomach hurts",
}

// Fallback answers from a fixed keyword list when the catalog is unavailable.
func Fallback(text string) *models.ChatReply {
	lower := strings.ToLower(text)
	var hits []string
	for _, kw := range fallbackKeywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, kw)
		}
	}

	if len(hits) == 0 {
		return &models.ChatReply{
			Success:     true,
			Type:        models.ReplyFallback,
			Message:     "Please describe your symptoms. For example:",
			Suggestions: append([]string(nil), fallbackExamples...),
		}
	}
	return &models.ChatReply{
		Success:  true,
		Type:     models.ReplyFallback,
		Message:  "I understand you're experiencing some symptoms. Here are some general recommendations:",
		Symptoms: hits,
		Tips:     append([]string(nil), fallbackTips...),
	}
}
