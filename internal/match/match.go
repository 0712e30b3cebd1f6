// Package match implements the deterministic text comparison used by the
// rule evaluator: token normalization, glossary-alias expansion, negation
// detection, and token-overlap scoring. No scoring is probabilistic; the
// same inputs always produce the same matches.
package match

import (
	"strings"

	"github.com/reqlint/reqlint/internal/ir"
)

// Match locates a phrase occurrence inside a raw text block.
type Match struct {
	LineText string // trimmed source line containing the phrase
	LineNo   int    // 1-based line number within the searched block
	Negated  bool   // a negator appears just before the phrase
}

// Matcher resolves phrases against document text, treating glossary terms
// and their aliases as interchangeable.
type Matcher struct {
	groups [][][]string      // each group: token sequences considered equivalent
	canon  map[string]string // single-token alias -> canonical token
}

func NewMatcher(glossary []ir.GlossaryEntry) *Matcher {
	m := &Matcher{canon: map[string]string{}}
	for _, e := range glossary {
		group := [][]string{}
		names := append([]string{e.Term}, e.Aliases...)
		var canonical string
		for _, n := range names {
			toks := Tokens(n)
			if len(toks) == 0 {
				continue
			}
			group = append(group, toks)
			if len(toks) == 1 {
				if canonical == "" {
					canonical = toks[0]
				}
				m.canon[toks[0]] = canonical
			}
		}
		if len(group) > 1 {
			m.groups = append(m.groups, group)
		}
	}
	return m
}

// Canon maps a folded token to its glossary-canonical form, if any.
func (m *Matcher) Canon(tok string) string {
	if c, ok := m.canon[tok]; ok {
		return c
	}
	return tok
}

// ContainsPhrase reports whether text contains phrase (or any glossary
// variant of it) as a contiguous token sequence.
func (m *Matcher) ContainsPhrase(text, phrase string) bool {
	toks := Tokens(text)
	for _, v := range m.variants(Tokens(phrase)) {
		if indexOfSeq(toks, v) >= 0 {
			return true
		}
	}
	return false
}

// FindPhrase scans raw line by line and returns the first line containing
// the phrase (or a glossary variant), with its negation state.
func (m *Matcher) FindPhrase(raw, phrase string) (Match, bool) {
	variants := m.variants(Tokens(phrase))
	if len(variants) == 0 {
		return Match{}, false
	}
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		toks := Tokens(line)
		for _, v := range variants {
			if idx := indexOfSeq(toks, v); idx >= 0 {
				return Match{
					LineText: strings.TrimSpace(line),
					LineNo:   i + 1,
					Negated:  negatedAt(toks, idx),
				}, true
			}
		}
	}
	return Match{}, false
}

// FindAssertion scans raw line by line for a line that restates statement:
// the first line whose content-token overlap reaches minRatio. Unlike
// FindPhrase, Negated here reports whether the line carries any negator at
// all, so "payments are not handled by the gateway" reads as a negated
// restatement of "payments are handled by the gateway".
func (m *Matcher) FindAssertion(raw, statement string, minRatio float64) (Match, bool) {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if m.OverlapRatio(line, statement) < minRatio {
			continue
		}
		return Match{
			LineText: strings.TrimSpace(line),
			LineNo:   i + 1,
			Negated:  HasNegator(line),
		}, true
	}
	return Match{}, false
}

// HasNegator reports whether s contains a negation token anywhere.
func HasNegator(s string) bool {
	toks := Tokens(s)
	for i, t := range toks {
		if negators[t] || (t == "won" && i+1 < len(toks) && toks[i+1] == "t") {
			return true
		}
	}
	return false
}

// OverlapRatio scores how much of a criterion's content vocabulary appears
// in text, in [0,1]. Tokens are glossary-canonicalized on both sides.
func (m *Matcher) OverlapRatio(text, criterion string) float64 {
	want := ContentTokens(criterion)
	if len(want) == 0 {
		return 0
	}
	have := make(map[string]bool)
	for _, t := range Tokens(text) {
		have[m.Canon(t)] = true
	}
	distinct := make(map[string]bool)
	hits := 0
	for _, t := range want {
		c := m.Canon(t)
		if distinct[c] {
			continue
		}
		distinct[c] = true
		if have[c] {
			hits++
		}
	}
	return float64(hits) / float64(len(distinct))
}

// variants expands a phrase into its glossary-equivalent forms. Each variant
// substitutes one group member for another; a single substitution per
// variant is enough for the small documents this tool handles.
func (m *Matcher) variants(phrase []string) [][]string {
	if len(phrase) == 0 {
		return nil
	}
	out := [][]string{phrase}
	for _, group := range m.groups {
		for _, member := range group {
			idx := indexOfSeq(phrase, member)
			if idx < 0 {
				continue
			}
			for _, alt := range group {
				if seqEqual(alt, member) {
					continue
				}
				v := make([]string, 0, len(phrase)-len(member)+len(alt))
				v = append(v, phrase[:idx]...)
				v = append(v, alt...)
				v = append(v, phrase[idx+len(member):]...)
				out = append(out, v)
			}
		}
	}
	return out
}

// negators includes contraction stems: "don't" tokenizes to "don","t".
var negators = map[string]bool{
	"no": true, "not": true, "never": true, "without": true,
	"cannot": true, "cant": true, "dont": true, "don": true,
	"doesnt": true, "doesn": true, "wont": true,
	"shouldnt": true, "shouldn": true, "mustnt": true, "mustn": true,
	"isnt": true, "isn": true, "arent": true, "aren": true,
	"excludes": true, "excluding": true, "excluded": true,
}

// negatedAt reports whether a negator occurs within the three tokens
// preceding idx. "won" counts only as part of the "won't" contraction,
// since it is also the past tense of win.
func negatedAt(toks []string, idx int) bool {
	lo := idx - 3
	if lo < 0 {
		lo = 0
	}
	for i := lo; i < idx; i++ {
		if negators[toks[i]] {
			return true
		}
		if toks[i] == "won" && i+1 < len(toks) && toks[i+1] == "t" {
			return true
		}
	}
	return false
}

// ParseModal splits a constraint or assumption statement into its core
// phrase and polarity. "must not store card numbers" yields
// ("store card numbers", true); text without a leading modal is returned
// whole with positive polarity.
func ParseModal(s string) (core string, negative bool) {
	t := strings.TrimSpace(s)
	lower := strings.ToLower(t)
	for _, p := range []string{"must not ", "must never ", "shall not ", "should not ", "may not ", "will not "} {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(t[len(p):]), true
		}
	}
	for _, p := range []string{"must ", "shall ", "should ", "will ", "may "} {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(t[len(p):]), false
		}
	}
	return t, false
}

// SectionKey folds a section heading to a comparison key of lowercase
// letters only, so "Out of scope", "Out-of-Scope" and "out_of_scope" agree.
func SectionKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// Tokens lowercases, splits on non-alphanumerics, and folds plurals so that
// "refunds" and "refund" compare equal.
func Tokens(s string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out = append(out, fold(b.String()))
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "with": true, "and": true,
	"or": true, "is": true, "are": true, "be": true, "been": true,
	"was": true, "were": true, "will": true, "within": true, "under": true,
	"over": true, "by": true, "from": true, "as": true, "it": true,
	"its": true, "this": true, "that": true, "these": true, "those": true,
	"all": true, "any": true, "each": true, "per": true, "via": true,
	"must": true, "shall": true, "should": true, "can": true, "may": true,
}

// ContentTokens returns Tokens minus stopwords and negators. Negation is
// polarity, judged separately, so it never counts toward overlap.
func ContentTokens(s string) []string {
	var out []string
	for _, t := range Tokens(s) {
		if !stopwords[t] && !negators[t] {
			out = append(out, t)
		}
	}
	return out
}

// fold trims plural suffixes. Deliberately crude: enough to equate
// "policies"/"policy" and "refunds"/"refund" without a stemmer dependency.
func fold(tok string) string {
	if len(tok) > 4 && strings.HasSuffix(tok, "ies") {
		return tok[:len(tok)-3] + "y"
	}
	if len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
		return tok[:len(tok)-1]
	}
	return tok
}

func indexOfSeq(toks, seq []string) int {
	if len(seq) == 0 || len(seq) > len(toks) {
		return -1
	}
	for i := 0; i+len(seq) <= len(toks); i++ {
		if seqEqual(toks[i:i+len(seq)], seq) {
			return i
		}
	}
	return -1
}

func seqEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
