package reporting

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"

	"github.com/reqlint/reqlint/internal/coverage"
	"github.com/reqlint/reqlint/internal/ir"
)

func WriteHTML(runID, outDir string, run *ir.Run) (string, error) {
	path := filepath.Join(outDir, runID+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	st := coverage.Collect(run.Corpus)
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

	// Head + styles
	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(runID))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace} .sev-CRITICAL{color:#b00020;font-weight:bold} .sev-MAJOR{color:#b36b00} .sev-MINOR{color:#666}</style>")
	fmt.Fprint(f, "</head><body>")

	// Title + summary
	fmt.Fprintf(f, "<h1>reqlint report &ndash; <span class='mono'>%s</span></h1>", html.EscapeString(runID))
	fmt.Fprintf(f, "<p>Documents: %d &nbsp; Objectives: %d &nbsp; Requirements: %d &nbsp; Glossary terms: %d</p>",
		st.Documents, st.Objectives, st.Requirements, st.GlossaryTerms)
	fmt.Fprintf(f, "<p><b>Issues</b>: %d total &nbsp; <span class='sev-CRITICAL'>%d critical</span> &nbsp; <span class='sev-MAJOR'>%d major</span> &nbsp; <span class='sev-MINOR'>%d minor</span></p>",
		len(run.Issues), critical, major, minor)
	if st.Capabilities > 0 {
		fmt.Fprintf(f, "<p class='dim'>Coverage: %d/%d capabilities have a requirement &nbsp; %d/%d criteria are mapped</p>",
			st.Covered, st.Capabilities, st.Mapped, st.Criteria)
	}

	// Severity/disabled banner
	fmt.Fprintf(f, "<p class='dim'>Severity threshold: %s", html.EscapeString(effectiveThreshold(run.Context)))
	if n := len(run.Context.DisabledRules); n > 0 {
		fmt.Fprintf(f, " &nbsp; Disabled rules: %d", n)
	}
	if run.Waived > 0 {
		fmt.Fprintf(f, " &nbsp; Waived: %d", run.Waived)
	}
	fmt.Fprint(f, "</p>")

	// Worst first (by severity rank, then issue id), capped
	if len(run.Issues) > 0 {
		tops := make([]ir.Issue, len(run.Issues))
		copy(tops, run.Issues)
		sort.SliceStable(tops, func(i, j int) bool {
			if tops[i].Severity.Rank() != tops[j].Severity.Rank() {
				return tops[i].Severity.Rank() > tops[j].Severity.Rank()
			}
			return tops[i].ID < tops[j].ID
		})
		limit := len(tops)
		if limit > 20 {
			limit = 20
		}
		fmt.Fprint(f, "<h2>Worst Issues</h2><table><tr><th>Issue</th><th>Severity</th><th>Rule</th><th>Location</th><th>Description</th></tr>")
		for i := 0; i < limit; i++ {
			iss := tops[i]
			fmt.Fprintf(f, "<tr><td class='mono'>%s</td><td class='sev-%s'>%s</td><td>%s</td><td class='mono'>%s</td><td>%s</td></tr>",
				html.EscapeString(iss.ID),
				html.EscapeString(string(iss.Severity)),
				html.EscapeString(string(iss.Severity)),
				html.EscapeString(iss.RuleID),
				html.EscapeString(iss.Location()),
				html.EscapeString(iss.Description),
			)
		}
		fmt.Fprint(f, "</table>")
	}

	// All issues, in report order
	if len(run.Issues) > 0 {
		fmt.Fprint(f, "<h2>All Issues</h2><table><tr><th>Issue</th><th>Severity</th><th>Location</th><th>Description</th><th>Evidence</th><th>Suggested fix</th></tr>")
		for _, iss := range run.Issues {
			loc := iss.Location()
			if iss.Line > 0 {
				loc = fmt.Sprintf("%s:%d", loc, iss.Line)
			}
			fmt.Fprintf(f, "<tr><td class='mono'>%s</td><td class='sev-%s'>%s</td><td class='mono'>%s</td><td>%s</td><td class='mono'>%s</td><td>%s</td></tr>",
				html.EscapeString(iss.ID),
				html.EscapeString(string(iss.Severity)),
				html.EscapeString(string(iss.Severity)),
				html.EscapeString(loc),
				html.EscapeString(iss.Description),
				html.EscapeString(iss.Evidence),
				html.EscapeString(iss.SuggestedFix),
			)
		}
		fmt.Fprint(f, "</table>")
	} else {
		fmt.Fprint(f, "<h2>All Issues</h2><p class='dim'>No issues at or above the configured threshold.</p>")
	}

	fmt.Fprint(f, "</body></html>")
	return path, nil
}
