package rules

import (
	"fmt"

	"github.com/reqlint/reqlint/internal/ir"
)

func init() {
	Register(Rule{
		ID:              "COVERAGE-MISSING",
		Summary:         "An in-scope capability has no requirement covering it.",
		Order:           20,
		DefaultSeverity: ir.SeverityMajor,
		Eval:            evalCoverageMissing,
	})
}

// Reads the coverage annotations; see coverage.Annotate for how a
// capability counts as covered.
func evalCoverageMissing(corpus *ir.Corpus, _ *Env) []ir.Issue {
	var out []ir.Issue
	for _, obj := range corpus.Objectives {
		for _, j := range obj.Annotations.Coverage.Uncovered {
			item := obj.InScope[j]
			out = append(out, ir.Issue{
				RuleID:       "COVERAGE-MISSING",
				Doc:          obj.Doc,
				Section:      obj.ID,
				Line:         item.Line,
				Description:  fmt.Sprintf("no requirement covers the in-scope capability %q of %s", item.Text, obj.ID),
				Evidence:     item.Raw,
				SuggestedFix: fmt.Sprintf("Add a requirement for %q, or remove it from the scope of %s.", item.Text, obj.ID),
			})
		}
	}
	return out
}
