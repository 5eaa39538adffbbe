// Package extract finds catalog symptoms mentioned in free text.
package extract

import (
	"strings"

	"github.com/hyperjump/shindan/internal/models"
)

// Extractor matches normalized text against a keyword table and per-symptom synonyms.
// Tables are copied at construction; an Extractor is safe for concurrent use.
type Extractor struct {
	keywords []KeywordMapping
	synonyms map[string][]string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithKeywords replaces the keyword table. A nil or empty table keeps the default.
func WithKeywords(keywords []KeywordMapping) Option {
	return func(e *Extractor) {
		if len(keywords) > 0 {
			e.keywords = keywords
		}
	}
}

// WithSynonyms replaces the synonym table. A nil or empty table keeps the default.
func WithSynonyms(synonyms map[string][]string) Option {
	return func(e *Extractor) {
		if len(synonyms) > 0 {
			e.synonyms = synonyms
		}
	}
}

// NewExtractor returns an Extractor using the default tables unless overridden.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		keywords: DefaultKeywords(),
		synonyms: DefaultSynonyms(),
	}
	for _, opt := range opts {
		opt(e)
	}

	keywords := make([]KeywordMapping, 0, len(e.keywords))
	for _, k := range e.keywords {
		kw := Normalize(k.Keyword)
		if kw == "" || strings.TrimSpace(k.Symptom) == "" {
			continue
		}
		keywords = append(keywords, KeywordMapping{Keyword: kw, Symptom: k.Symptom})
	}
	synonyms := make(map[string][]string, len(e.synonyms))
	for name, list := range e.synonyms {
		key := strings.ToLower(strings.TrimSpace(name))
		for _, syn := range list {
			if s := Normalize(syn); s != "" {
				synonyms[key] = append(synonyms[key], s)
			}
		}
	}
	e.keywords = keywords
	e.synonyms = synonyms
	return e
}

// Keywords returns a copy of the keyword table in scan order.
func (e *Extractor) Keywords() []KeywordMapping {
	out := make([]KeywordMapping, len(e.keywords))
	copy(out, e.keywords)
	return out
}

// Synonyms returns the synonyms registered for a canonical symptom name.
func (e *Extractor) Synonyms(name string) []string {
	return e.synonyms[strings.ToLower(strings.TrimSpace(name))]
}

// Normalize lowercases text, replaces every character outside [a-z0-9 ] with a space,
// collapses whitespace runs, and trims.
func Normalize(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Extract returns the catalog symptoms mentioned in text, in discovery order.
// The keyword table is scanned first; keywords whose canonical name is not in the catalog are
// skipped. Remaining catalog symptoms are then matched by name and by synonym.
// An empty result means nothing was detected.
func (e *Extractor) Extract(text string, catalog []models.Symptom) []models.Symptom {
	normalized := Normalize(text)
	found := make([]models.Symptom, 0)
	if normalized == "" || len(catalog) == 0 {
		return found
	}

	byName := make(map[string]models.Symptom, len(catalog))
	for _, s := range catalog {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if _, exists := byName[key]; !exists {
			byName[key] = s
		}
	}

	seen := make(map[int64]struct{})
	add := func(s models.Symptom) {
		if _, ok := seen[s.ID]; ok {
			return
		}
		seen[s.ID] = struct{}{}
		found = append(found, s)
	}

	for _, k := range e.keywords {
		if !strings.Contains(normalized, k.Keyword) {
			continue
		}
		if s, ok := byName[strings.ToLower(strings.TrimSpace(k.Symptom))]; ok {
			add(s)
		}
	}

	for _, s := range catalog {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		name := Normalize(s.Name)
		if name != "" && strings.Contains(normalized, name) {
			add(s)
			continue
		}
		for _, syn := range e.Synonyms(s.Name) {
			if strings.Contains(normalized, syn) {
				add(s)
				break
			}
		}
	}
	return found
}
