package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
)

func testCorpus() *ir.Corpus {
	return &ir.Corpus{
		Objectives: []ir.Objective{{
			ID: "OBJ-01",
			InScope: []ir.ScopeItem{
				{Text: "booking cancellation"},
				{Text: "booking modification"},
				{Text: "customer notifications"},
			},
			Criteria: []ir.Criterion{
				{ID: "SC-1", Text: "90% of bookings complete in under three minutes"},
				{ID: "SC-2", Text: "weekly usage report delivered to managers"},
			},
		}},
		Requirements: []ir.Requirement{
			{ID: "BR-01", Title: "Support booking modification", Body: "Agents edit traveler details."},
			{ID: "BR-02", Title: "Cancellation policy", Body: "The desk won't support booking cancellation."},
			{ID: "BR-03", Title: "Booking completion time", Body: "A booking must complete in under three minutes for 90% of attempts."},
			{ID: "BR-04", Title: "Notify travelers", Body: "Send client notifications after booking changes."},
		},
		Glossary: []ir.GlossaryEntry{{Term: "customer", Aliases: []string{"client"}}},
	}
}

func TestAnnotate(t *testing.T) {
	corpus := testCorpus()
	m := match.NewMatcher(corpus.Glossary)

	Annotate(corpus, m, 0) // zero ratio falls back to the default

	cov := corpus.Objectives[0].Annotations.Coverage
	assert.Equal(t, 3, cov.Capabilities)
	// BR-02 only mentions cancellation negated, so it does not cover it;
	// the glossary makes "client notifications" cover "customer notifications".
	assert.Equal(t, 2, cov.Covered)
	assert.Equal(t, []int{0}, cov.Uncovered)
	assert.Equal(t, 2, cov.Criteria)
	assert.Equal(t, 1, cov.Mapped)
	assert.Equal(t, []int{1}, cov.Unmapped)
}

func TestAnnotate_RatioTightensMapping(t *testing.T) {
	corpus := testCorpus()
	m := match.NewMatcher(corpus.Glossary)

	Annotate(corpus, m, 1.01) // nothing can reach a ratio above 1
	cov := corpus.Objectives[0].Annotations.Coverage
	assert.Equal(t, 0, cov.Mapped)
	assert.Equal(t, []int{0, 1}, cov.Unmapped)
}

func TestCollect(t *testing.T) {
	corpus := testCorpus()
	m := match.NewMatcher(corpus.Glossary)
	Annotate(corpus, m, 0)

	s := Collect(*corpus)
	assert.Equal(t, 1, s.Objectives)
	assert.Equal(t, 4, s.Requirements)
	assert.Equal(t, 1, s.GlossaryTerms)
	assert.Equal(t, 3, s.Capabilities)
	assert.Equal(t, 2, s.Covered)
	assert.Equal(t, 2, s.Criteria)
	assert.Equal(t, 1, s.Mapped)
}
