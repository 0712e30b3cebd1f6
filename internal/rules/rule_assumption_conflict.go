package rules

import (
	"fmt"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
)

// assertionRatio is the content-token overlap at which a requirement line
// counts as restating an assumption or constraint.
const assertionRatio = 0.75

func init() {
	Register(Rule{
		ID:              "ASSUMPTION-CONFLICT",
		Summary:         "A requirement states the negation of a stated assumption.",
		Order:           40,
		DefaultSeverity: ir.SeverityMajor,
		Eval:            evalAssumptionConflict,
	})
}

func evalAssumptionConflict(corpus *ir.Corpus, env *Env) []ir.Issue {
	var out []ir.Issue
	for _, obj := range corpus.Objectives {
		for _, stmt := range obj.Assumptions {
			core, negative := match.ParseModal(stmt.Text)
			polarity := negative || match.HasNegator(core)
			for _, req := range corpus.Requirements {
				hit, ok := env.Matcher.FindAssertion(req.Raw, core, assertionRatio)
				if !ok || hit.Negated == polarity {
					continue
				}
				out = append(out, ir.Issue{
					RuleID:       "ASSUMPTION-CONFLICT",
					Doc:          req.Doc,
					Section:      req.ID,
					Line:         req.Line + hit.LineNo - 1,
					Description:  fmt.Sprintf("%s contradicts the assumption of %s: %q", req.ID, obj.ID, stmt.Text),
					Evidence:     hit.LineText,
					SuggestedFix: fmt.Sprintf("Align %s with the assumption, or revise the assumption in %s.", req.ID, obj.ID),
				})
			}
		}
	}
	return out
}
