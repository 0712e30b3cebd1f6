package rules

import (
	"strings"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/storage"
)

// ApplyWaivers filters out issues that match any active waiver.
// Returns (kept, waivedCount). IssueIDs are not reassigned, so a waived
// issue leaves a gap in the sequence rather than renumbering the rest.
func ApplyWaivers(in []ir.Issue, waivers []storage.Waiver) ([]ir.Issue, int) {
	if len(waivers) == 0 || len(in) == 0 {
		return in, 0
	}
	var out []ir.Issue
	waived := 0
nextIssue:
	for _, iss := range in {
		for _, w := range waivers {
			if !eqCI(iss.RuleID, w.RuleID) {
				continue
			}
			if w.Doc != "" && !eqCI(iss.Doc, w.Doc) {
				continue
			}
			if w.Section != "" && !eqCI(iss.Section, w.Section) {
				continue
			}
			if w.PatternSub != "" {
				ps := strings.ToUpper(w.PatternSub)
				if !strings.Contains(strings.ToUpper(iss.Evidence), ps) &&
					!strings.Contains(strings.ToUpper(iss.Description), ps) {
					continue
				}
			}
			waived++
			continue nextIssue
		}
		out = append(out, iss)
	}
	return out, waived
}

func eqCI(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }
