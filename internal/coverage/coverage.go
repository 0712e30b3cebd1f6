// Package coverage annotates each objective with how well the requirement
// set covers its in-scope capabilities and success criteria. Rules read the
// annotations instead of re-deriving them.
package coverage

import (
	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
)

// DefaultMatchRatio is the minimum token-overlap for a requirement to count
// as satisfying a success criterion.
const DefaultMatchRatio = 0.6

// Annotate fills obj.Annotations.Coverage for every objective in the corpus.
// A capability counts as covered only by a non-negated mention; a criterion
// counts as mapped when some requirement reaches the overlap ratio.
func Annotate(corpus *ir.Corpus, m *match.Matcher, ratio float64) {
	if ratio <= 0 {
		ratio = DefaultMatchRatio
	}
	texts := make([]string, len(corpus.Requirements))
	for i, r := range corpus.Requirements {
		texts[i] = r.Text()
	}

	for i := range corpus.Objectives {
		obj := &corpus.Objectives[i]
		cov := ir.Coverage{
			Capabilities: len(obj.InScope),
			Criteria:     len(obj.Criteria),
		}
		for j, item := range obj.InScope {
			if coveredBy(m, texts, item.Text) {
				cov.Covered++
			} else {
				cov.Uncovered = append(cov.Uncovered, j)
			}
		}
		for j, c := range obj.Criteria {
			if mappedBy(m, texts, c.Text, ratio) {
				cov.Mapped++
			} else {
				cov.Unmapped = append(cov.Unmapped, j)
			}
		}
		obj.Annotations.Coverage = cov
	}
}

func coveredBy(m *match.Matcher, texts []string, capability string) bool {
	for _, t := range texts {
		if hit, ok := m.FindPhrase(t, capability); ok && !hit.Negated {
			return true
		}
	}
	return false
}

func mappedBy(m *match.Matcher, texts []string, criterion string, ratio float64) bool {
	for _, t := range texts {
		if m.OverlapRatio(t, criterion) >= ratio {
			return true
		}
	}
	return false
}
