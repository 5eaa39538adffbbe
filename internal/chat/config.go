package chat

// Config controls reply shaping.
type Config struct {
	RecommendationLength int      `yaml:"recommendation_length"` // default: 150
	DoctorAdviceLength   int      `yaml:"doctor_advice_length"`  // default: 100
	Suggestions          []string `yaml:"suggestions"`
}

// DefaultSuggestions are example messages offered when no symptom is detected.
var DefaultSuggestions = []string{
	"I have a headache",
	"I feel tired and have fever",
	"I have chest pain",
	"I have a cough and runny nose",
}

// DefaultConfig returns the default formatter configuration.
func DefaultConfig() *Config {
	suggestions := make([]string, len(DefaultSuggestions))
	copy(suggestions, DefaultSuggestions)
	return &Config{
		RecommendationLength: 150,
		DoctorAdviceLength:   100,
		Suggestions:          suggestions,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.RecommendationLength <= 0 {
		c.RecommendationLength = defaults.RecommendationLength
	}
	if c.DoctorAdviceLength <= 0 {
		c.DoctorAdviceLength = defaults.DoctorAdviceLength
	}
	if len(c.Suggestions) == 0 {
		c.Suggestions = defaults.Suggestions
	}
}
