// Package ranking aggregates symptom-to-advice weights into an ordered, thresholded advice list.
package ranking

import (
	"errors"
	"sort"

	"github.com/hyperjump/shindan/internal/models"
	"github.com/hyperjump/shindan/pkg/utils"
)

// ErrEmptySymptomSet is returned when no valid symptom id remains to rank against.
var ErrEmptySymptomSet = errors.New("no valid symptom ids")

// Ranker scores advice entries against a set of requested symptoms.
// It holds no mutable state and is safe for concurrent use.
type Ranker struct {
	config *RankingConfig
}

// NewRanker creates a new Ranker with the given configuration.
func NewRanker(config *RankingConfig) *Ranker {
	if config == nil {
		config = DefaultRankingConfig()
	}
	cfg := *config
	cfg.ApplyDefaults()
	return &Ranker{config: &cfg}
}

// GetConfig returns the ranking configuration.
func (r *Ranker) GetConfig() *RankingConfig {
	return r.config
}

// aggregate accumulates the weight rows for one advice entry.
type aggregate struct {
	advice   models.AdviceEntry
	score    float64
	symptoms map[int64]struct{}
}

// Rank aggregates rows for the requested symptom ids and returns the surfaced advice,
// the supplied symptom records, and the derived overall severity.
// Rows referencing symptoms outside ids are ignored. An empty result is not an error.
func (r *Ranker) Rank(ids []int64, symptoms []models.Symptom, rows []models.WeightedAdvice) (*models.RankingResult, error) {
	requested := models.DedupeIDs(ids)
	if len(requested) == 0 {
		return nil, ErrEmptySymptomSet
	}
	idSet := make(map[int64]struct{}, len(requested))
	for _, id := range requested {
		idSet[id] = struct{}{}
	}

	byAdvice := make(map[int64]*aggregate)
	order := make([]int64, 0)
	for _, row := range rows {
		if _, ok := idSet[row.SymptomID]; !ok {
			continue
		}
		agg, ok := byAdvice[row.Advice.ID]
		if !ok {
			agg = &aggregate{advice: row.Advice, symptoms: make(map[int64]struct{})}
			byAdvice[row.Advice.ID] = agg
			order = append(order, row.Advice.ID)
		}
		if _, seen := agg.symptoms[row.SymptomID]; seen {
			continue
		}
		agg.symptoms[row.SymptomID] = struct{}{}
		agg.score += row.Weight
	}

	ranked := make([]models.RankedAdvice, 0, len(order))
	for _, adviceID := range order {
		agg := byAdvice[adviceID]
		count := len(agg.symptoms)
		ranked = append(ranked, models.RankedAdvice{
			AdviceEntry:      agg.advice,
			RelevanceScore:   roundScore(agg.score),
			MatchingSymptoms: count,
			MatchPercentage:  MatchPercentage(count, len(requested)),
		})
	}

	ranked = FilterByThresholds(ranked, r.config.MinRelevance, r.config.MinMatches)
	SortAdvice(ranked)
	ranked = TopN(ranked, r.config.MaxResults)

	result := &models.RankingResult{
		Advice:   ranked,
		Symptoms: symptoms,
	}
	if result.Symptoms == nil {
		result.Symptoms = []models.Symptom{}
	}
	result.OverallSeverity = OverallSeverity(result.Symptoms, ranked)
	result.EmergencyWarning = result.OverallSeverity.Urgent()
	return result, nil
}

// SortAdvice orders advice by matching symptom count, then relevance score, then severity,
// all descending. Entries equal on all three keep their relative order.
func SortAdvice(advice []models.RankedAdvice) {
	sort.SliceStable(advice, func(i, j int) bool {
		a, b := advice[i], advice[j]
		if a.MatchingSymptoms != b.MatchingSymptoms {
			return a.MatchingSymptoms > b.MatchingSymptoms
		}
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		return a.Severity.Rank() > b.Severity.Rank()
	})
}

// OverallSeverity returns the highest severity among the symptoms and the surfaced advice.
// With nothing recognized it is low.
func OverallSeverity(symptoms []models.Symptom, advice []models.RankedAdvice) models.Severity {
	overall := models.SeverityLow
	for _, s := range symptoms {
		overall = models.MaxSeverity(overall, s.Severity)
	}
	for _, a := range advice {
		overall = models.MaxSeverity(overall, a.Severity)
	}
	return overall
}

// MatchPercentage returns matched*100/total rounded to one decimal place.
func MatchPercentage(matched, total int) float64 {
	if total <= 0 {
		return 0
	}
	return utils.RoundTo(float64(matched)*100/float64(total), 1)
}

// roundScore trims float noise from summed weights so 0.3+0.7 compares equal to 1.
func roundScore(score float64) float64 {
	return utils.RoundTo(score, 6)
}

// FilterByThresholds drops advice below the minimum relevance score or matching symptom count.
func FilterByThresholds(advice []models.RankedAdvice, minScore float64, minMatches int) []models.RankedAdvice {
	filtered := make([]models.RankedAdvice, 0, len(advice))
	for _, a := range advice {
		if a.RelevanceScore >= minScore && a.MatchingSymptoms >= minMatches {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// TopN returns the top N results.
func TopN(advice []models.RankedAdvice, n int) []models.RankedAdvice {
	if n >= len(advice) {
		return advice
	}
	return advice[:n]
}
