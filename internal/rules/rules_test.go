package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqlint/reqlint/internal/coverage"
	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
	"github.com/reqlint/reqlint/internal/storage"
)

func docs(names ...string) []ir.Document {
	out := make([]ir.Document, len(names))
	for i, n := range names {
		out[i] = ir.Document{Name: n}
	}
	return out
}

// annotate runs the coverage pass the way the pipeline does before Evaluate.
func annotate(corpus *ir.Corpus) {
	coverage.Annotate(corpus, match.NewMatcher(corpus.Glossary), 0)
}

func TestList_FixedOrder(t *testing.T) {
	var ids []string
	for _, r := range List(Settings{}) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{
		"SCOPE-CONTRADICTION",
		"COVERAGE-MISSING",
		"CRITERIA-UNMAPPED",
		"ASSUMPTION-CONFLICT",
		"CONSTRAINT-VIOLATION",
		"TERMINOLOGY-MISMATCH",
		"TEMPLATE-STRUCTURE",
	}, ids)

	ids = ids[:0]
	for _, r := range List(Settings{Disabled: map[string]bool{"SCOPE-CONTRADICTION": true}}) {
		ids = append(ids, r.ID)
	}
	assert.NotContains(t, ids, "SCOPE-CONTRADICTION")
	assert.Len(t, ids, 6)
}

// An objective marks refunds out of scope while BR-03 supports refund
// requests: exactly one CRITICAL scope contradiction referencing BR-03.
func TestEvaluate_ScopeContradiction(t *testing.T) {
	corpus := &ir.Corpus{
		Documents: docs("objectives.md", "requirements.md"),
		Objectives: []ir.Objective{{
			ID: "OBJ-01", Doc: "objectives.md", Line: 3,
			Raw:        "## OBJ-01: Focus the spring release",
			OutOfScope: []ir.ScopeItem{{Text: "refunds", Line: 8, Raw: "refunds"}},
		}},
		Requirements: []ir.Requirement{{
			ID: "BR-03", Title: "Support refund requests", Doc: "requirements.md", Line: 3,
			Raw: "## BR-03: Support refund requests\nAgents file refund requests on behalf of travelers.",
		}},
	}
	annotate(corpus)

	issues := Evaluate(corpus, nil, Settings{})
	require.Len(t, issues, 1)
	iss := issues[0]
	assert.Equal(t, "ISS-001", iss.ID)
	assert.Equal(t, "SCOPE-CONTRADICTION", iss.RuleID)
	assert.Equal(t, ir.SeverityCritical, iss.Severity)
	assert.Equal(t, "requirements.md", iss.Doc)
	assert.Equal(t, "BR-03", iss.Section)
	assert.Equal(t, 3, iss.Line)
	assert.Contains(t, iss.Description, "BR-03")
	assert.Equal(t, "## BR-03: Support refund requests", iss.Evidence)
	assert.NotEmpty(t, iss.SuggestedFix)
}

// A negated mention of the excluded capability is not a contradiction.
func TestEvaluate_ScopeContradiction_NegatedMention(t *testing.T) {
	corpus := &ir.Corpus{
		Documents: docs("objectives.md", "requirements.md"),
		Objectives: []ir.Objective{{
			ID: "OBJ-01", Doc: "objectives.md", Line: 3,
			OutOfScope: []ir.ScopeItem{{Text: "refunds", Line: 8, Raw: "refunds"}},
		}},
		Requirements: []ir.Requirement{{
			ID: "BR-05", Title: "Cancellation desk", Doc: "requirements.md", Line: 3,
			Raw: "## BR-05: Cancellation desk\nThe desk does not issue refunds.",
		}},
	}
	annotate(corpus)

	assert.Empty(t, Evaluate(corpus, nil, Settings{}))
}

// An in-scope capability with no covering requirement: one MAJOR issue.
func TestEvaluate_CoverageMissing(t *testing.T) {
	corpus := &ir.Corpus{
		Documents: docs("objectives.md", "requirements.md"),
		Objectives: []ir.Objective{{
			ID: "OBJ-01", Doc: "objectives.md", Line: 3,
			InScope: []ir.ScopeItem{{Text: "booking cancellation", Line: 6, Raw: "booking cancellation"}},
		}},
		Requirements: []ir.Requirement{{
			ID: "BR-01", Title: "Send weekly digest emails", Doc: "requirements.md", Line: 3,
			Raw: "## BR-01: Send weekly digest emails",
		}},
	}
	annotate(corpus)

	issues := Evaluate(corpus, nil, Settings{})
	require.Len(t, issues, 1)
	iss := issues[0]
	assert.Equal(t, "ISS-001", iss.ID)
	assert.Equal(t, "COVERAGE-MISSING", iss.RuleID)
	assert.Equal(t, ir.SeverityMajor, iss.Severity)
	assert.Equal(t, "objectives.md", iss.Doc)
	assert.Equal(t, "OBJ-01", iss.Section)
	assert.Equal(t, 6, iss.Line)
	assert.Equal(t, "booking cancellation", iss.Evidence)
}

// "customer" and "client" across documents with no glossary entry: one
// MINOR terminology mismatch; adding the glossary entry silences it.
func TestEvaluate_TerminologyMismatch(t *testing.T) {
	corpus := &ir.Corpus{
		Documents: docs("objectives.md", "requirements.md"),
		Objectives: []ir.Objective{{
			ID: "OBJ-01", Doc: "objectives.md", Line: 3,
			Raw: "## OBJ-01: Improve customer onboarding\nCustomer feedback drives the redesign.",
		}},
		Requirements: []ir.Requirement{{
			ID: "BR-01", Title: "Collect client feedback", Doc: "requirements.md", Line: 3,
			Raw: "## BR-01: Collect client feedback\nSurvey every client after onboarding.",
		}},
	}
	annotate(corpus)

	issues := Evaluate(corpus, nil, Settings{})
	require.Len(t, issues, 1)
	iss := issues[0]
	assert.Equal(t, "TERMINOLOGY-MISMATCH", iss.RuleID)
	assert.Equal(t, ir.SeverityMinor, iss.Severity)
	assert.Equal(t, "requirements.md", iss.Doc)
	assert.Equal(t, "BR-01", iss.Section)
	assert.Contains(t, iss.Description, `"customer"`)
	assert.Contains(t, iss.Description, `"client"`)
	assert.Contains(t, iss.Description, "objectives.md and requirements.md")
	assert.Equal(t, "## BR-01: Collect client feedback", iss.Evidence)

	corpus.Glossary = []ir.GlossaryEntry{{Term: "customer", Aliases: []string{"client"}}}
	annotate(corpus)
	assert.Empty(t, Evaluate(corpus, nil, Settings{}))
}

func TestEvaluate_AssumptionConflict(t *testing.T) {
	corpus := &ir.Corpus{
		Documents: docs("objectives.md", "requirements.md"),
		Objectives: []ir.Objective{{
			ID: "OBJ-02", Doc: "objectives.md", Line: 3,
			Assumptions: []ir.Statement{{Text: "payments are handled by the existing gateway", Line: 9}},
		}},
		Requirements: []ir.Requirement{
			{
				ID: "BR-09", Title: "Gateway ownership", Doc: "requirements.md", Line: 3,
				Raw: "## BR-09: Gateway ownership\nPayments are not handled by the existing gateway.",
			},
			{
				ID: "BR-12", Title: "Gateway reuse", Doc: "requirements.md", Line: 7,
				Raw: "## BR-12: Gateway reuse\nPayments are handled by the existing gateway.",
			},
		},
	}
	annotate(corpus)

	issues := Evaluate(corpus, nil, Settings{})
	require.Len(t, issues, 1)
	iss := issues[0]
	assert.Equal(t, "ASSUMPTION-CONFLICT", iss.RuleID)
	assert.Equal(t, ir.SeverityMajor, iss.Severity)
	assert.Equal(t, "BR-09", iss.Section)
	assert.Equal(t, 4, iss.Line)
	assert.Equal(t, "Payments are not handled by the existing gateway.", iss.Evidence)
}

func TestEvaluate_ConstraintViolation(t *testing.T) {
	corpus := &ir.Corpus{
		Documents: docs("objectives.md", "requirements.md"),
		Objectives: []ir.Objective{{
			ID: "OBJ-03", Doc: "objectives.md", Line: 3,
			Constraints: []ir.Statement{{Text: "must not store card numbers", Line: 11}},
		}},
		Requirements: []ir.Requirement{
			{
				ID: "BR-10", Title: "Audit export", Doc: "requirements.md", Line: 3,
				Raw: "## BR-10: Audit export\nThe exporter stores card numbers for audit.",
			},
			{
				ID: "BR-11", Title: "Logging policy", Doc: "requirements.md", Line: 7,
				Raw: "## BR-11: Logging policy\nMust not store card numbers in logs.",
			},
		},
	}
	annotate(corpus)

	issues := Evaluate(corpus, nil, Settings{})
	require.Len(t, issues, 1)
	iss := issues[0]
	assert.Equal(t, "CONSTRAINT-VIOLATION", iss.RuleID)
	assert.Equal(t, ir.SeverityCritical, iss.Severity)
	assert.Equal(t, "BR-10", iss.Section)
	assert.Equal(t, "The exporter stores card numbers for audit.", iss.Evidence)
}

func TestEvaluate_TemplateStructure(t *testing.T) {
	corpus := &ir.Corpus{
		Documents: docs("objectives.md", "template.md"),
		Objectives: []ir.Objective{{
			ID: "OBJ-01", Doc: "objectives.md", Line: 3,
			Sections: []string{"In scope"},
		}},
		Template: &ir.Template{
			Doc:      "template.md",
			Sections: []string{"In scope", "Out of scope", "Success criteria"},
		},
	}
	annotate(corpus)

	issues := Evaluate(corpus, nil, Settings{})
	require.Len(t, issues, 2)
	assert.Equal(t, "TEMPLATE-STRUCTURE", issues[0].RuleID)
	assert.Equal(t, "Out of scope", issues[0].Evidence)
	assert.Equal(t, "Success criteria", issues[1].Evidence)

	corpus.Template = nil
	assert.Empty(t, Evaluate(corpus, nil, Settings{}))
}

// Issues come out in fixed rule order, then document order, with
// sequential unique IssueIDs.
func orderingCorpus() *ir.Corpus {
	return &ir.Corpus{
		Documents: docs("objectives.md", "requirements.md"),
		Objectives: []ir.Objective{{
			ID: "OBJ-01", Doc: "objectives.md", Line: 3,
			Raw:        "## OBJ-01: Booking platform relaunch\nCustomer accounts migrate automatically.",
			InScope:    []ir.ScopeItem{{Text: "booking cancellation", Line: 6, Raw: "booking cancellation"}},
			OutOfScope: []ir.ScopeItem{{Text: "refunds", Line: 8, Raw: "refunds"}},
			Criteria:   []ir.Criterion{{ID: "SC-1", Text: "weekly usage report delivered to managers", Line: 10, Raw: "SC-1: weekly usage report delivered to managers"}},
		}},
		Requirements: []ir.Requirement{
			{
				ID: "BR-03", Title: "Support refund requests", Doc: "requirements.md", Line: 3,
				Raw: "## BR-03: Support refund requests",
			},
			{
				ID: "BR-04", Title: "Notify the client", Doc: "requirements.md", Line: 6,
				Raw: "## BR-04: Notify the client\nSend the client a digest.",
			},
		},
	}
}

func TestEvaluate_OrderingAndIssueIDs(t *testing.T) {
	corpus := orderingCorpus()
	annotate(corpus)

	issues := Evaluate(corpus, nil, Settings{})
	require.Len(t, issues, 4)

	var ruleIDs, ids []string
	seen := map[string]bool{}
	for _, iss := range issues {
		ruleIDs = append(ruleIDs, iss.RuleID)
		ids = append(ids, iss.ID)
		assert.False(t, seen[iss.ID], "duplicate issue id %s", iss.ID)
		seen[iss.ID] = true
		assert.NotEmpty(t, iss.Evidence)
	}
	assert.Equal(t, []string{"SCOPE-CONTRADICTION", "COVERAGE-MISSING", "CRITERIA-UNMAPPED", "TERMINOLOGY-MISMATCH"}, ruleIDs)
	assert.Equal(t, []string{"ISS-001", "ISS-002", "ISS-003", "ISS-004"}, ids)
}

func TestEvaluate_LoaderIssuesComeFirst(t *testing.T) {
	corpus := orderingCorpus()
	annotate(corpus)

	loader := []ir.Issue{{
		RuleID:   ir.RuleRefUnparseable,
		Severity: ir.SeverityMinor,
		Doc:      "objectives.md",
		Section:  "obj_2",
		Line:     12,
		Evidence: "## obj_2: misc",
	}}
	issues := Evaluate(corpus, loader, Settings{})
	require.Len(t, issues, 5)
	assert.Equal(t, ir.RuleRefUnparseable, issues[0].RuleID)
	assert.Equal(t, "ISS-001", issues[0].ID)
	assert.Equal(t, "SCOPE-CONTRADICTION", issues[1].RuleID)
}

func TestEvaluate_ThresholdAndOverrides(t *testing.T) {
	corpus := orderingCorpus()
	annotate(corpus)

	// threshold CRITICAL keeps only the scope contradiction
	issues := Evaluate(corpus, nil, Settings{SeverityThreshold: "CRITICAL"})
	require.Len(t, issues, 1)
	assert.Equal(t, "SCOPE-CONTRADICTION", issues[0].RuleID)
	assert.Equal(t, "ISS-001", issues[0].ID) // IDs stay contiguous after filtering

	// overriding terminology to CRITICAL pulls it past the threshold
	issues = Evaluate(corpus, nil, Settings{
		SeverityThreshold: "CRITICAL",
		Severities:        map[string]ir.Severity{"TERMINOLOGY-MISMATCH": ir.SeverityCritical},
	})
	require.Len(t, issues, 2)
	assert.Equal(t, "TERMINOLOGY-MISMATCH", issues[1].RuleID)
	assert.Equal(t, ir.SeverityCritical, issues[1].Severity)

	// disabling a rule removes its issues entirely
	issues = Evaluate(corpus, nil, Settings{Disabled: map[string]bool{"SCOPE-CONTRADICTION": true}})
	require.Len(t, issues, 3)
	assert.Equal(t, "COVERAGE-MISSING", issues[0].RuleID)
	assert.Equal(t, "ISS-001", issues[0].ID)
}

func TestEvaluate_EmptyCorpus(t *testing.T) {
	corpus := &ir.Corpus{}
	annotate(corpus)
	assert.Empty(t, Evaluate(corpus, nil, Settings{}))
}

func TestApplyWaivers(t *testing.T) {
	in := []ir.Issue{
		{ID: "ISS-001", RuleID: "SCOPE-CONTRADICTION", Doc: "requirements.md", Section: "BR-03", Evidence: "## BR-03: Support refund requests"},
		{ID: "ISS-002", RuleID: "COVERAGE-MISSING", Doc: "objectives.md", Section: "OBJ-01", Evidence: "booking cancellation"},
	}

	kept, waived := ApplyWaivers(in, []storage.Waiver{
		{RuleID: "COVERAGE-MISSING", Section: "OBJ-01", PatternSub: "booking"},
	})
	assert.Equal(t, 1, waived)
	require.Len(t, kept, 1)
	assert.Equal(t, "ISS-001", kept[0].ID)

	// non-matching pattern keeps everything
	kept, waived = ApplyWaivers(in, []storage.Waiver{
		{RuleID: "COVERAGE-MISSING", PatternSub: "no such text"},
	})
	assert.Equal(t, 0, waived)
	assert.Len(t, kept, 2)
}
