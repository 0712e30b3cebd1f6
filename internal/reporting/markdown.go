package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reqlint/reqlint/internal/coverage"
	"github.com/reqlint/reqlint/internal/ir"
)

// RenderMarkdown produces the consistency report for a run. Output depends
// only on the run's corpus and issues, so identical inputs render identical
// bytes: no timestamps, no run IDs.
func RenderMarkdown(run *ir.Run) string {
	var b strings.Builder
	st := coverage.Collect(run.Corpus)

	b.WriteString("# Consistency Report\n\n")

	// Input summary
	if st.Documents == 0 {
		b.WriteString("Checked 0 documents.\n")
	} else {
		var names []string
		for _, d := range run.Corpus.Documents {
			names = append(names, d.Name)
		}
		fmt.Fprintf(&b, "Checked %s: %s.\n", plural(st.Documents, "document", "documents"), strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "Corpus: %s, %s", plural(st.Objectives, "objective", "objectives"), plural(st.Requirements, "requirement", "requirements"))
	if st.GlossaryTerms > 0 {
		fmt.Fprintf(&b, ", %s", plural(st.GlossaryTerms, "glossary term", "glossary terms"))
	}
	b.WriteString(".\n")
	if run.Corpus.Template != nil {
		fmt.Fprintf(&b, "Template: %s.\n", run.Corpus.Template.Doc)
	}
	b.WriteString("\n")

	// Issue counts
	var critical, major, minor int
	for _, iss := range run.Issues {
		switch iss.Severity {
		case ir.SeverityCritical:
			critical++
		case ir.SeverityMajor:
			major++
		default:
			minor++
		}
	}
	if len(run.Issues) == 0 {
		b.WriteString("Issues: 0 total.\n")
	} else {
		fmt.Fprintf(&b, "Issues: %d total (%d critical, %d major, %d minor).\n", len(run.Issues), critical, major, minor)
	}
	if run.Waived > 0 {
		fmt.Fprintf(&b, "%s suppressed by active waivers.\n", plural(run.Waived, "issue", "issues"))
	}
	b.WriteString("\n")

	if len(run.Issues) == 0 {
		fmt.Fprintf(&b, "No issues found at or above the %s threshold.", effectiveThreshold(run.Context))
		if st.Objectives == 0 && st.Requirements == 0 {
			b.WriteString(" The corpus contains no objectives or requirements.")
		}
		b.WriteString("\n\n")
	} else {
		b.WriteString("| Issue | Severity | Location | Description | Evidence | Suggested fix |\n")
		b.WriteString("|-------|----------|----------|-------------|----------|---------------|\n")
		for _, iss := range run.Issues {
			loc := iss.Location()
			if iss.Line > 0 {
				loc = fmt.Sprintf("%s (line %d)", loc, iss.Line)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				cell(iss.ID),
				cell(string(iss.Severity)),
				cell(loc),
				cell(iss.Description),
				cell(iss.Evidence),
				cell(iss.SuggestedFix),
			)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Next actions\n\n")
	for i, a := range nextActions(run) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a)
	}

	return b.String()
}

// WriteMarkdown renders the report to <outDir>/<runID>.md.
func WriteMarkdown(runID, outDir string, run *ir.Run) (string, error) {
	path := filepath.Join(outDir, runID+".md")
	if err := os.WriteFile(path, []byte(RenderMarkdown(run)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// nextActions derives the ordered follow-up list from what actually fired.
func nextActions(run *ir.Run) []string {
	counts := map[string]int{}
	var critical int
	for _, iss := range run.Issues {
		counts[iss.RuleID]++
		if iss.Severity == ir.SeverityCritical {
			critical++
		}
	}

	var out []string
	if n := counts[ir.RuleRefUnparseable]; n > 0 {
		out = append(out, fmt.Sprintf("Rename the %s so the skipped sections re-enter analysis.", plural(n, "malformed identifier", "malformed identifiers")))
	}
	if critical > 0 {
		out = append(out, fmt.Sprintf("Resolve the %s before sign-off; scope and constraint conflicts invalidate the plan.", plural(critical, "critical issue", "critical issues")))
	}
	if n := counts["COVERAGE-MISSING"]; n > 0 {
		out = append(out, fmt.Sprintf("Add requirements covering the %s nothing addresses.", plural(n, "in-scope capability", "in-scope capabilities")))
	}
	if n := counts["CRITERIA-UNMAPPED"]; n > 0 {
		out = append(out, fmt.Sprintf("Map the %s to measurable requirements.", plural(n, "success criterion", "success criteria")))
	}
	if n := counts["ASSUMPTION-CONFLICT"]; n > 0 {
		out = append(out, fmt.Sprintf("Reconcile the %s that contradict stated assumptions.", plural(n, "requirement", "requirements")))
	}
	if n := counts["TEMPLATE-STRUCTURE"]; n > 0 {
		out = append(out, fmt.Sprintf("Fill in the %s required by the template.", plural(n, "missing section", "missing sections")))
	}
	if n := counts["TERMINOLOGY-MISMATCH"]; n > 0 {
		out = append(out, fmt.Sprintf("Unify the %s or add glossary entries linking the variants.", plural(n, "drifting term pair", "drifting term pairs")))
	}
	if len(out) == 0 {
		out = append(out, "No further action required.")
	}
	return out
}

func effectiveThreshold(ctx ir.Context) string {
	if ctx.SeverityThreshold == "" {
		return "MINOR"
	}
	return ctx.SeverityThreshold
}

// cell makes a string safe inside a markdown table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
