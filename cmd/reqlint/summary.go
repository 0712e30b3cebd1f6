package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/reqlint/reqlint/internal/ir"
)

var (
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	majorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	minorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// printSummary writes the styled one-screen result to stderr; stdout stays
// free for --print output.
func printSummary(run *ir.Run, paths reportPaths) {
	w := os.Stderr

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

	fmt.Fprintf(w, "Run %s: %d documents, %d objectives, %d requirements\n",
		run.ID, len(run.Corpus.Documents), len(run.Corpus.Objectives), len(run.Corpus.Requirements))

	if len(run.Issues) == 0 {
		fmt.Fprintln(w, okStyle.Render("No issues found."))
	} else {
		fmt.Fprintf(w, "%s  %s  %s\n",
			criticalStyle.Render(fmt.Sprintf("%d critical", critical)),
			majorStyle.Render(fmt.Sprintf("%d major", major)),
			minorStyle.Render(fmt.Sprintf("%d minor", minor)),
		)
	}
	if run.Waived > 0 {
		fmt.Fprintf(w, "%d waived\n", run.Waived)
	}
	if paths.Markdown != "" {
		fmt.Fprintln(w, pathStyle.Render("report: "+paths.Markdown))
	}
}
