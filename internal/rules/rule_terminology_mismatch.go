package rules

import (
	"fmt"
	"strings"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
)

func init() {
	Register(Rule{
		ID:              "TERMINOLOGY-MISMATCH",
		Summary:         "Two synonymous terms are used without a glossary entry linking them.",
		Order:           60,
		DefaultSeverity: ir.SeverityMinor,
		Eval:            evalTerminologyMismatch,
	})
}

// defaultTermPairs are the synonym pairs checked out of the box. Callers
// extend the list through Settings.TermPairs.
var defaultTermPairs = [][2]string{
	{"customer", "client"},
	{"user", "end user"},
	{"booking", "reservation"},
}

func evalTerminologyMismatch(corpus *ir.Corpus, env *Env) []ir.Issue {
	var out []ir.Issue
	pairs := append(append([][2]string{}, defaultTermPairs...), env.Settings.TermPairs...)
	for _, pair := range pairs {
		if iss, ok := TermPairIssue(corpus, pair[0], pair[1]); ok {
			out = append(out, iss)
		}
	}
	return out
}

// TermPairIssue reports the unreconciled use of two synonymous terms, if
// both occur in the corpus. RuleID and Severity are left empty for the
// registry to fill, so pack-defined term_pair rules reuse it under their
// own identifiers.
func TermPairIssue(corpus *ir.Corpus, a, b string) (ir.Issue, bool) {
	if a == "" || b == "" || glossaryLinks(corpus.Glossary, a, b) {
		return ir.Issue{}, false
	}
	occA, okA := firstUse(corpus, a, b)
	occB, okB := firstUse(corpus, b, a)
	if !okA || !okB {
		return ir.Issue{}, false
	}
	// anchor the issue at the later of the two first uses
	anchor, other := occB, occA
	if occA.after(occB) {
		anchor, other = occA, occB
	}
	where := anchor.doc
	if other.doc != anchor.doc {
		where = other.doc + " and " + anchor.doc
	}
	return ir.Issue{
		Doc:          anchor.doc,
		Section:      anchor.section,
		Line:         anchor.line,
		Description:  fmt.Sprintf("%q and %q are used in %s with no glossary entry linking them", a, b, where),
		Evidence:     anchor.evidence,
		SuggestedFix: fmt.Sprintf("Add a glossary entry for %q listing %q as an alias, or standardize on one term.", a, b),
	}, true
}

// glossaryLinks reports whether one glossary entry names both terms, either
// as the term itself or among its aliases.
func glossaryLinks(glossary []ir.GlossaryEntry, a, b string) bool {
	ka, kb := tokenKey(a), tokenKey(b)
	for _, e := range glossary {
		names := map[string]bool{tokenKey(e.Term): true}
		for _, al := range e.Aliases {
			names[tokenKey(al)] = true
		}
		if names[ka] && names[kb] {
			return true
		}
	}
	return false
}

func tokenKey(s string) string { return strings.Join(match.Tokens(s), " ") }

type occurrence struct {
	docRank  int
	doc      string
	section  string
	line     int
	evidence string
}

func (o occurrence) after(p occurrence) bool {
	if o.docRank != p.docRank {
		return o.docRank > p.docRank
	}
	return o.line > p.line
}

// firstUse finds the earliest standalone use of term in load order, scanning
// objectives then requirements. Occurrences that sit inside a use of the
// partner term do not count, so "end user" lines never count as "user".
// Glossary and template files do not count as usage at all.
func firstUse(corpus *ir.Corpus, term, partner string) (occurrence, bool) {
	want := match.Tokens(term)
	cover := match.Tokens(partner)
	if len(want) == 0 {
		return occurrence{}, false
	}

	rank := map[string]int{}
	for i, d := range corpus.Documents {
		rank[d.Name] = i
	}

	var best occurrence
	found := false
	consider := func(doc, section string, baseLine int, raw string) {
		for n, line := range strings.Split(raw, "\n") {
			toks := match.Tokens(line)
			if !standaloneUse(toks, want, cover) {
				continue
			}
			occ := occurrence{
				docRank:  rank[doc],
				doc:      doc,
				section:  section,
				line:     baseLine + n,
				evidence: strings.TrimSpace(line),
			}
			if !found || best.after(occ) {
				best, found = occ, true
			}
			return
		}
	}

	for _, obj := range corpus.Objectives {
		consider(obj.Doc, obj.ID, obj.Line, obj.Raw)
	}
	for _, req := range corpus.Requirements {
		consider(req.Doc, req.ID, req.Line, req.Raw)
	}
	return best, found
}

// standaloneUse reports whether want occurs in toks outside every span
// where cover occurs.
func standaloneUse(toks, want, cover []string) bool {
	spans := seqIndexes(toks, cover)
	for _, i := range seqIndexes(toks, want) {
		inside := false
		for _, j := range spans {
			if i >= j && i+len(want) <= j+len(cover) {
				inside = true
				break
			}
		}
		if !inside {
			return true
		}
	}
	return false
}

func seqIndexes(toks, seq []string) []int {
	if len(seq) == 0 || len(seq) > len(toks) {
		return nil
	}
	var out []int
	for i := 0; i+len(seq) <= len(toks); i++ {
		hit := true
		for k := range seq {
			if toks[i+k] != seq[k] {
				hit = false
				break
			}
		}
		if hit {
			out = append(out, i)
		}
	}
	return out
}
