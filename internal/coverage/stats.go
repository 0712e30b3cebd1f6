package coverage

import "github.com/reqlint/reqlint/internal/ir"

// Stats are corpus totals used by report headers and the serve-mode gauges.
type Stats struct {
	Documents     int `json:"documents"`
	Objectives    int `json:"objectives"`
	Requirements  int `json:"requirements"`
	GlossaryTerms int `json:"glossary_terms"`
	Capabilities  int `json:"capabilities"`
	Covered       int `json:"covered"`
	Criteria      int `json:"criteria"`
	Mapped        int `json:"mapped"`
}

// Collect sums per-objective coverage. Call after Annotate.
func Collect(corpus ir.Corpus) Stats {
	s := Stats{
		Documents:     len(corpus.Documents),
		Objectives:    len(corpus.Objectives),
		Requirements:  len(corpus.Requirements),
		GlossaryTerms: len(corpus.Glossary),
	}
	for _, o := range corpus.Objectives {
		cov := o.Annotations.Coverage
		s.Capabilities += cov.Capabilities
		s.Covered += cov.Covered
		s.Criteria += cov.Criteria
		s.Mapped += cov.Mapped
	}
	return s
}
