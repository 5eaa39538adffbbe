package extract

// KeywordMapping maps a phrase found in free text to a canonical symptom name.
// Misspellings are listed as their own entries.
type KeywordMapping struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Symptom string `yaml:"symptom" json:"symptom"`
}

// DefaultKeywords is the canonical keyword table, scanned in declaration order.
func DefaultKeywords() []KeywordMapping {
	return []KeywordMapping{
		{Keyword: "cold", Symptom: "Common cold symptoms"},
		{Keyword: "headache", Symptom: "Headache"},
		{Keyword: "heache", Symptom: "Headache"},
		{Keyword: "head ache", Symptom: "Headache"},
		{Keyword: "head pain", Symptom: "Headache"},
		{Keyword: "cough", Symptom: "Persistent cough"},
		{Keyword: "cogh", Symptom: "Persistent cough"},
		{Keyword: "coughing", Symptom: "Persistent cough"},
		{Keyword: "fever", Symptom: "Fever"},
		{Keyword: "runny nose", Symptom: "Runny nose"},
		{Keyword: "stuffy nose", Symptom: "Nasal congestion"},
		{Keyword: "sore throat", Symptom: "Sore throat"},
		{Keyword: "fatigue", Symptom: "Fatigue"},
		{Keyword: "tired", Symptom: "Fatigue"},
	}
}

// DefaultSynonyms lists alternative phrasings keyed by lowercased canonical symptom name.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		"headache":            {"head ache", "head pain", "migraine", "head hurts", "heache", "headach"},
		"fever":               {"high temperature", "hot", "burning up", "feverish", "temperature"},
		"cough":               {"coughing", "hacking", "dry cough", "wet cough", "cof", "cogh"},
		"fatigue":             {"tired", "exhausted", "weak", "no energy", "sleepy", "weakness"},
		"chest pain":          {"chest ache", "heart pain", "chest hurts"},
		"sore throat":         {"throat pain", "throat ache", "throat hurts"},
		"runny nose":          {"stuffy nose", "nasal congestion", "blocked nose", "cold", "common cold", "runny"},
		"nasal congestion":    {"stuffy nose", "blocked nose", "cold", "common cold"},
		"common cold":         {"cold", "runny nose", "stuffy nose"},
		"stomach pain":        {"stomach ache", "belly pain", "abdominal pain", "tummy ache"},
		"shortness of breath": {"hard to breathe", "cant breathe", "breathing difficulty"},
		"nausea":              {"feel sick", "queasy", "want to vomit"},
		"dizziness":           {"dizzy", "lightheaded", "spinning"},
		"muscle pain":         {"muscle ache", "body ache", "sore muscles"},
		"sneezing":            {"sneeze", "sneezing"},
		"body aches":          {"body ache", "muscle pain", "aches"},
	}
}
