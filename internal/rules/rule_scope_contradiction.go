package rules

import (
	"fmt"

	"github.com/reqlint/reqlint/internal/ir"
)

func init() {
	Register(Rule{
		ID:              "SCOPE-CONTRADICTION",
		Summary:         "A requirement asserts a capability an objective marks out of scope.",
		Order:           10,
		DefaultSeverity: ir.SeverityCritical,
		Eval:            evalScopeContradiction,
	})
}

func evalScopeContradiction(corpus *ir.Corpus, env *Env) []ir.Issue {
	var out []ir.Issue
	for _, obj := range corpus.Objectives {
		for _, item := range obj.OutOfScope {
			for _, req := range corpus.Requirements {
				hit, ok := env.Matcher.FindPhrase(req.Raw, item.Text)
				if !ok || hit.Negated {
					// a negated mention does not contradict the exclusion
					continue
				}
				out = append(out, ir.Issue{
					RuleID:       "SCOPE-CONTRADICTION",
					Doc:          req.Doc,
					Section:      req.ID,
					Line:         req.Line + hit.LineNo - 1,
					Description:  fmt.Sprintf("%s asserts %q, which %s marks out of scope", req.ID, item.Text, obj.ID),
					Evidence:     hit.LineText,
					SuggestedFix: fmt.Sprintf("Drop %s, or move %q into the scope of %s.", req.ID, item.Text, obj.ID),
				})
			}
		}
	}
	return out
}
