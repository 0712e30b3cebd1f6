package rules

import (
	"fmt"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
)

func init() {
	Register(Rule{
		ID:              "CONSTRAINT-VIOLATION",
		Summary:         "A requirement contradicts a stated constraint.",
		Order:           50,
		DefaultSeverity: ir.SeverityCritical,
		Eval:            evalConstraintViolation,
	})
}

func evalConstraintViolation(corpus *ir.Corpus, env *Env) []ir.Issue {
	var out []ir.Issue
	for _, obj := range corpus.Objectives {
		for _, stmt := range obj.Constraints {
			core, negative := match.ParseModal(stmt.Text)
			polarity := negative || match.HasNegator(core)
			for _, req := range corpus.Requirements {
				hit, ok := env.Matcher.FindAssertion(req.Raw, core, assertionRatio)
				if !ok || hit.Negated == polarity {
					// matching polarity just restates the constraint
					continue
				}
				out = append(out, ir.Issue{
					RuleID:       "CONSTRAINT-VIOLATION",
					Doc:          req.Doc,
					Section:      req.ID,
					Line:         req.Line + hit.LineNo - 1,
					Description:  fmt.Sprintf("%s violates the constraint of %s: %q", req.ID, obj.ID, stmt.Text),
					Evidence:     hit.LineText,
					SuggestedFix: fmt.Sprintf("Rework %s to respect the constraint, or relax it in %s.", req.ID, obj.ID),
				})
			}
		}
	}
	return out
}
