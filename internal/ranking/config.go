package ranking

// RankingConfig holds the thresholds applied to aggregated advice scores.
type RankingConfig struct {
	MinRelevance float64 `yaml:"min_relevance"` // default: 1
	MinMatches   int     `yaml:"min_matches"`   // default: 1
	MaxResults   int     `yaml:"max_results"`   // default: 2
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		MinRelevance: 1,
		MinMatches:   1,
		MaxResults:   2,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *RankingConfig) ApplyDefaults() {
	defaults := DefaultRankingConfig()

	if c.MinRelevance <= 0 {
		c.MinRelevance = defaults.MinRelevance
	}
	if c.MinMatches <= 0 {
		c.MinMatches = defaults.MinMatches
	}
	if c.MaxResults <= 0 {
		c.MaxResults = defaults.MaxResults
	}
}
