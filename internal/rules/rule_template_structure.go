package rules

import (
	"fmt"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
)

func init() {
	Register(Rule{
		ID:              "TEMPLATE-STRUCTURE",
		Summary:         "An objective is missing a section the template requires.",
		Order:           70,
		DefaultSeverity: ir.SeverityMajor,
		Eval:            evalTemplateStructure,
	})
}

// Inactive unless a template document was loaded.
func evalTemplateStructure(corpus *ir.Corpus, _ *Env) []ir.Issue {
	if corpus.Template == nil {
		return nil
	}
	var out []ir.Issue
	for _, obj := range corpus.Objectives {
		have := map[string]bool{}
		for _, s := range obj.Sections {
			have[match.SectionKey(s)] = true
		}
		for _, want := range corpus.Template.Sections {
			if have[match.SectionKey(want)] {
				continue
			}
			out = append(out, ir.Issue{
				RuleID:       "TEMPLATE-STRUCTURE",
				Doc:          obj.Doc,
				Section:      obj.ID,
				Line:         obj.Line,
				Description:  fmt.Sprintf("%s has no %q section required by the template", obj.ID, want),
				Evidence:     want,
				SuggestedFix: fmt.Sprintf("Add a %q section to %s.", want, obj.ID),
			})
		}
	}
	return out
}
