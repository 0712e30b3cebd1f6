package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
)

var (
	headingPattern   = regexp.MustCompile(`^(#{2,3})\s+(.+?)\s*$`)
	idHeadingPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]{0,11})\s*:\s*(.+)$`)
	identifierOK     = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,6}-\d{1,4}$`)
	bulletPattern    = regexp.MustCompile(`^[-*]\s+(.+)$`)
	criterionIDPat   = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]{0,6}-\d{1,4})\s*:\s*(.+)$`)
	objectiveRefPat  = regexp.MustCompile(`(?i)^objective:\s*(\S+)\s*$`)
	aliasesPattern   = regexp.MustCompile(`(?i)^aliases:\s*(.+)$`)
	digitPattern     = regexp.MustCompile(`[0-9]`)
)

// section is one "## …" block of a document: the heading, the free body
// lines before the first "###", and any "###" subsections.
type section struct {
	id    string // empty for glossary terms and prose headings
	title string
	line  int // 1-based heading line
	lines []string
	body  []string
	subs  []subsection
}

type subsection struct {
	title   string
	line    int
	bullets []bullet
}

type bullet struct {
	text string
	line int
}

func parseDocument(doc ir.Document, corpus *ir.Corpus, diags *Diagnostics) {
	switch doc.Kind {
	case ir.DocTemplate:
		corpus.Template = parseTemplate(doc)
	case ir.DocGlossary:
		corpus.Glossary = append(corpus.Glossary, parseGlossary(doc)...)
	case ir.DocObjectives:
		for _, sec := range scanEntitySections(doc, diags) {
			corpus.Objectives = append(corpus.Objectives, buildObjective(doc, sec))
		}
	case ir.DocRequirements:
		for _, sec := range scanEntitySections(doc, diags) {
			corpus.Requirements = append(corpus.Requirements, buildRequirement(doc, sec, diags))
		}
	}
}

// scanLines splits raw into lines with Windows endings trimmed, marking
// frontmatter and fenced-code lines so they are never read as structure.
func scanLines(raw string) ([]string, []bool) {
	lines := strings.Split(raw, "\n")
	skip := make([]bool, len(lines))
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}

	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "---" {
		skip[0] = true
		for i := 1; i < len(lines); i++ {
			skip[i] = true
			if t := strings.TrimSpace(lines[i]); t == "---" || t == "..." {
				break
			}
		}
	}

	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			skip[i] = true
			continue
		}
		if inFence {
			skip[i] = true
		}
	}
	return lines, skip
}

// scanEntitySections walks an objectives or requirements document and
// returns one section per well-formed "## ID: Title" heading. Headings whose
// token is ID-like but malformed produce a diagnostics issue and are
// skipped; prose headings are ignored entirely.
func scanEntitySections(doc ir.Document, diags *Diagnostics) []section {
	lines, skip := scanLines(doc.Raw)
	var sections []section
	var cur *section
	var curSub *subsection
	skipping := false
	seen := map[string]bool{}

	flush := func() {
		if cur == nil {
			return
		}
		if curSub != nil {
			cur.subs = append(cur.subs, *curSub)
			curSub = nil
		}
		for len(cur.lines) > 0 && strings.TrimSpace(cur.lines[len(cur.lines)-1]) == "" {
			cur.lines = cur.lines[:len(cur.lines)-1]
		}
		sections = append(sections, *cur)
		cur = nil
	}

	for i, line := range lines {
		if skip[i] {
			if cur != nil {
				cur.lines = append(cur.lines, line)
			}
			continue
		}
		m := headingPattern.FindStringSubmatch(line)
		if m != nil && m[1] == "##" {
			flush()
			skipping = false
			id, title, ok := splitIDHeading(m[2])
			if !ok {
				if isMalformedID(m[2]) {
					tok, _, _ := strings.Cut(m[2], ":")
					diags.Issues = append(diags.Issues, ir.Issue{
						RuleID:       ir.RuleRefUnparseable,
						Severity:     ir.SeverityMinor,
						Doc:          doc.Name,
						Section:      strings.TrimSpace(tok),
						Line:         i + 1,
						Description:  fmt.Sprintf("identifier %q does not match the expected ID pattern; the section was skipped", strings.TrimSpace(tok)),
						Evidence:     strings.TrimSpace(line),
						SuggestedFix: "Rename the identifier to the UPPERCASE-prefix form, e.g. BR-01 or OBJ-2.",
					})
					skipping = true
				}
				continue
			}
			if seen[id] {
				diags.Warnings = append(diags.Warnings, fmt.Sprintf("%s: duplicate identifier %s at line %d", doc.Name, id, i+1))
			}
			seen[id] = true
			cur = &section{id: id, title: title, line: i + 1, lines: []string{line}}
			continue
		}
		if skipping {
			continue
		}
		if cur == nil {
			continue
		}
		cur.lines = append(cur.lines, line)
		if m != nil && m[1] == "###" {
			if curSub != nil {
				cur.subs = append(cur.subs, *curSub)
			}
			curSub = &subsection{title: m[2], line: i + 1}
			continue
		}
		if curSub != nil {
			if bm := bulletPattern.FindStringSubmatch(strings.TrimSpace(line)); bm != nil {
				curSub.bullets = append(curSub.bullets, bullet{text: strings.TrimSpace(bm[1]), line: i + 1})
			}
			continue
		}
		cur.body = append(cur.body, line)
	}
	flush()
	return sections
}

// splitIDHeading extracts a well-formed identifier and title from a "##"
// heading body. ok is false both for prose headings and malformed IDs.
func splitIDHeading(text string) (id, title string, ok bool) {
	m := idHeadingPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	if !identifierOK.MatchString(m[1]) {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// isMalformedID reports whether a heading body was meant to carry an
// identifier but fails the pattern. Digits are the tell: "Overview" or
// "Follow-up: next steps" stay prose, "br-03: x" and "BR_7: x" are flagged.
func isMalformedID(text string) bool {
	tok, _, found := strings.Cut(text, ":")
	if !found {
		return false
	}
	tok = strings.TrimSpace(tok)
	if tok == "" || strings.ContainsAny(tok, " \t") || len(tok) > 12 {
		return false
	}
	return digitPattern.MatchString(tok) && !identifierOK.MatchString(tok)
}

func buildObjective(doc ir.Document, sec section) ir.Objective {
	obj := ir.Objective{
		ID:    sec.id,
		Title: sec.title,
		Doc:   doc.Name,
		Line:  sec.line,
		Raw:   strings.Join(sec.lines, "\n"),
	}
	for _, sub := range sec.subs {
		obj.Sections = append(obj.Sections, sub.title)
		switch match.SectionKey(sub.title) {
		case "inscope":
			for _, b := range sub.bullets {
				obj.InScope = append(obj.InScope, ir.ScopeItem{Text: b.text, Line: b.line, Raw: b.text})
			}
		case "outofscope":
			for _, b := range sub.bullets {
				obj.OutOfScope = append(obj.OutOfScope, ir.ScopeItem{Text: b.text, Line: b.line, Raw: b.text})
			}
		case "successcriteria":
			for _, b := range sub.bullets {
				c := ir.Criterion{Text: b.text, Line: b.line, Raw: b.text}
				if m := criterionIDPat.FindStringSubmatch(b.text); m != nil {
					c.ID, c.Text = m[1], strings.TrimSpace(m[2])
				}
				obj.Criteria = append(obj.Criteria, c)
			}
		case "assumptions":
			for _, b := range sub.bullets {
				obj.Assumptions = append(obj.Assumptions, ir.Statement{Text: b.text, Line: b.line, Raw: b.text})
			}
		case "constraints":
			for _, b := range sub.bullets {
				obj.Constraints = append(obj.Constraints, ir.Statement{Text: b.text, Line: b.line, Raw: b.text})
			}
		}
	}
	return obj
}

func buildRequirement(doc ir.Document, sec section, diags *Diagnostics) ir.Requirement {
	req := ir.Requirement{
		ID:    sec.id,
		Title: sec.title,
		Doc:   doc.Name,
		Line:  sec.line,
		Raw:   strings.Join(sec.lines, "\n"),
	}
	var body []string
	for i, line := range sec.body {
		if m := objectiveRefPat.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			ref := m[1]
			if identifierOK.MatchString(ref) {
				req.ObjectiveRef = ref
			} else {
				diags.Issues = append(diags.Issues, ir.Issue{
					RuleID:       ir.RuleRefUnparseable,
					Severity:     ir.SeverityMinor,
					Doc:          doc.Name,
					Section:      sec.id,
					Line:         sec.line + i + 1,
					Description:  fmt.Sprintf("%s references objective %q, which does not match the expected ID pattern", sec.id, ref),
					Evidence:     strings.TrimSpace(line),
					SuggestedFix: "Point the Objective line at a well-formed objective ID, e.g. OBJ-01.",
				})
			}
			continue
		}
		body = append(body, line)
	}
	req.Body = strings.TrimSpace(strings.Join(body, "\n"))
	return req
}

func parseGlossary(doc ir.Document) []ir.GlossaryEntry {
	lines, skip := scanLines(doc.Raw)
	var entries []ir.GlossaryEntry
	var cur *ir.GlossaryEntry
	var def []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Definition = strings.TrimSpace(strings.Join(def, "\n"))
		entries = append(entries, *cur)
		cur, def = nil, nil
	}

	for i, line := range lines {
		if skip[i] {
			continue
		}
		if m := headingPattern.FindStringSubmatch(line); m != nil && m[1] == "##" {
			flush()
			cur = &ir.GlossaryEntry{Term: strings.TrimSpace(m[2]), Doc: doc.Name, Line: i + 1}
			continue
		}
		if cur == nil {
			continue
		}
		if m := aliasesPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			for _, a := range strings.Split(m[1], ",") {
				if a = strings.TrimSpace(a); a != "" {
					cur.Aliases = append(cur.Aliases, a)
				}
			}
			continue
		}
		def = append(def, line)
	}
	flush()
	return entries
}

// parseTemplate reads the heading skeleton. "###" headings name the sections
// objectives must instantiate; documents with none fall back to "##"
// headings, minus ID placeholders like "OBJ-00: <title>".
func parseTemplate(doc ir.Document) *ir.Template {
	lines, skip := scanLines(doc.Raw)
	var level2, level3 []string
	for i, line := range lines {
		if skip[i] {
			continue
		}
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch m[1] {
		case "###":
			level3 = append(level3, m[2])
		case "##":
			if _, _, ok := splitIDHeading(m[2]); !ok && !isMalformedID(m[2]) {
				level2 = append(level2, m[2])
			}
		}
	}
	sections := level3
	if len(sections) == 0 {
		sections = level2
	}
	return &ir.Template{Doc: doc.Name, Sections: sections}
}
