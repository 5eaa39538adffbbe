package knowledge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid marks every validation failure.
var ErrInvalid = errors.New("invalid knowledge base")

type pair struct{ symptom, advice int64 }

// Validate checks ids, names, severities, and mapping integrity.
// All problems are reported together.
func (b *Base) Validate() error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if len(b.Symptoms) == 0 {
		fail("no symptoms")
	}
	if len(b.Advice) == 0 {
		fail("no advice entries")
	}

	symptomIDs := make(map[int64]struct{}, len(b.Symptoms))
	names := make(map[string]int64, len(b.Symptoms))
	for i, s := range b.Symptoms {
		if s.ID <= 0 {
			fail("symptom #%d: id must be positive", i+1)
			continue
		}
		if _, dup := symptomIDs[s.ID]; dup {
			fail("symptom %d: duplicate id", s.ID)
		}
		symptomIDs[s.ID] = struct{}{}
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			fail("symptom %d: name is required", s.ID)
		} else if other, dup := names[name]; dup {
			fail("symptom %d: name %q already used by symptom %d", s.ID, s.Name, other)
		} else {
			names[name] = s.ID
		}
		if !s.Severity.Known() {
			fail("symptom %d: unknown severity_level", s.ID)
		}
	}

	adviceIDs := make(map[int64]struct{}, len(b.Advice))
	for i, a := range b.Advice {
		if a.ID <= 0 {
			fail("advice #%d: id must be positive", i+1)
			continue
		}
		if _, dup := adviceIDs[a.ID]; dup {
			fail("advice %d: duplicate id", a.ID)
		}
		adviceIDs[a.ID] = struct{}{}
		if strings.TrimSpace(a.Title) == "" {
			fail("advice %d: title is required", a.ID)
		}
		if !a.Severity.Known() {
			fail("advice %d: unknown severity_level", a.ID)
		}
	}

	pairs := make(map[pair]struct{}, len(b.Mappings))
	for _, m := range b.Mappings {
		if _, ok := symptomIDs[m.SymptomID]; !ok {
			fail("mapping %d->%d: unknown symptom", m.SymptomID, m.AdviceID)
		}
		if _, ok := adviceIDs[m.AdviceID]; !ok {
			fail("mapping %d->%d: unknown advice", m.SymptomID, m.AdviceID)
		}
		if m.Weight <= 0 {
			fail("mapping %d->%d: weight must be positive", m.SymptomID, m.AdviceID)
		}
		p := pair{m.SymptomID, m.AdviceID}
		if _, dup := pairs[p]; dup {
			fail("mapping %d->%d: duplicate pair", m.SymptomID, m.AdviceID)
		}
		pairs[p] = struct{}{}
	}

	for i, k := range b.Keywords {
		if strings.TrimSpace(k.Keyword) == "" || strings.TrimSpace(k.Symptom) == "" {
			fail("keyword #%d: keyword and symptom are required", i+1)
		}
	}

	return errors.Join(errs...)
}
