package rules

import (
	"fmt"

	"github.com/reqlint/reqlint/internal/ir"
)

func init() {
	Register(Rule{
		ID:              "CRITERIA-UNMAPPED",
		Summary:         "A success criterion maps to no requirement.",
		Order:           30,
		DefaultSeverity: ir.SeverityMajor,
		Eval:            evalCriteriaUnmapped,
	})
}

func evalCriteriaUnmapped(corpus *ir.Corpus, env *Env) []ir.Issue {
	var out []ir.Issue
	for _, obj := range corpus.Objectives {
		for _, j := range obj.Annotations.Coverage.Unmapped {
			c := obj.Criteria[j]
			label := c.ID
			if label == "" {
				label = fmt.Sprintf("criterion %d", j+1)
			}
			out = append(out, ir.Issue{
				RuleID:  "CRITERIA-UNMAPPED",
				Doc:     obj.Doc,
				Section: obj.ID,
				Line:    c.Line,
				Description: fmt.Sprintf("no requirement satisfies %s of %s (token overlap below %.2f)",
					label, obj.ID, env.Settings.CriteriaMatchRatio),
				Evidence:     c.Raw,
				SuggestedFix: fmt.Sprintf("Add or reword a requirement so that %s is measurably addressed.", label),
			})
		}
	}
	return out
}
