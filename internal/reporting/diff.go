package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reqlint/reqlint/internal/ir"
)

type diffPayload struct {
	BaseID   string        `json:"base_id"`
	HeadID   string        `json:"head_id"`
	Summary  diffSummary   `json:"summary"`
	New      []diffIssue   `json:"new"`
	Resolved []diffIssue   `json:"resolved"`
	Changed  []diffChanged `json:"changed"`
}

type diffSummary struct {
	NewCount      int `json:"new"`
	ResolvedCount int `json:"resolved"`
	ChangedCount  int `json:"changed"`
}

type diffIssue struct {
	RuleID      string `json:"rule_id"`
	Doc         string `json:"doc"`
	Section     string `json:"section,omitempty"`
	Line        int    `json:"line,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description,omitempty"`
}

type diffChanged struct {
	Key     string    `json:"key"`
	Base    diffIssue `json:"base"`
	Head    diffIssue `json:"head"`
	Changed []string  `json:"fields_changed"`
}

// WriteDiffJSON compares two stored runs. Issues match on rule, document,
// section and evidence; ISS ids are per-run and deliberately ignored.
func WriteDiffJSON(baseID, headID, outDir string, base, head *ir.Run) (string, error) {
	path := filepath.Join(outDir, "diff_"+baseID+"__"+headID+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	// index issues
	bm := map[string]ir.Issue{}
	hm := map[string]ir.Issue{}
	for _, iss := range base.Issues {
		bm[keyOf(iss)] = iss
	}
	for _, iss := range head.Issues {
		hm[keyOf(iss)] = iss
	}

	var added []diffIssue
	var resolved []diffIssue
	var changed []diffChanged

	// additions & changes
	for k, hi := range hm {
		if bi, ok := bm[k]; !ok {
			added = append(added, asDiff(hi))
		} else {
			var fields []string
			if norm(string(bi.Severity)) != norm(string(hi.Severity)) {
				fields = append(fields, "severity")
			}
			if strings.TrimSpace(bi.Description) != strings.TrimSpace(hi.Description) {
				fields = append(fields, "description")
			}
			if bi.Line != hi.Line {
				fields = append(fields, "line")
			}
			if len(fields) > 0 {
				changed = append(changed, diffChanged{
					Key:     k,
					Base:    asDiff(bi),
					Head:    asDiff(hi),
					Changed: fields,
				})
			}
		}
	}
	// resolutions
	for k, bi := range bm {
		if _, ok := hm[k]; !ok {
			resolved = append(resolved, asDiff(bi))
		}
	}

	// stable sort
	sort.Slice(added, func(i, j int) bool { return diffLess(added[i], added[j]) })
	sort.Slice(resolved, func(i, j int) bool { return diffLess(resolved[i], resolved[j]) })
	sort.Slice(changed, func(i, j int) bool { return changed[i].Key < changed[j].Key })

	payload := diffPayload{
		BaseID: baseID, HeadID: headID,
		Summary: diffSummary{
			NewCount:      len(added),
			ResolvedCount: len(resolved),
			ChangedCount:  len(changed),
		},
		New:      added,
		Resolved: resolved,
		Changed:  changed,
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

func keyOf(iss ir.Issue) string {
	// evidence drives logical identity; line numbers shift on every edit
	parts := []string{norm(iss.RuleID), norm(iss.Doc), norm(iss.Section), norm(iss.Evidence)}
	return strings.Join(parts, "|")
}

func asDiff(iss ir.Issue) diffIssue {
	return diffIssue{
		RuleID:      iss.RuleID,
		Doc:         iss.Doc,
		Section:     iss.Section,
		Line:        iss.Line,
		Severity:    string(iss.Severity),
		Description: iss.Description,
	}
}

func diffLess(a, b diffIssue) bool {
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	if a.Doc != b.Doc {
		return a.Doc < b.Doc
	}
	return a.Section < b.Section
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
