package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
)

var (
	registry  []Rule
	ruleIndex = map[string]int{} // UPPER(ruleID) -> index
)

// Register adds a rule. Re-registering an existing ID replaces the earlier
// rule, so later-loaded packs win duplicate IDs.
func Register(r Rule) {
	key := strings.ToUpper(strings.TrimSpace(r.ID))
	if idx, ok := ruleIndex[key]; ok {
		registry[idx] = r
		return
	}
	registry = append(registry, r)
	ruleIndex[key] = len(registry) - 1
}

// List returns the enabled rules in evaluation order: Order, then ID, so
// the sequence never depends on registration order.
func List(s Settings) []Rule {
	s = s.normalized()
	out := make([]Rule, 0, len(registry))
	for _, r := range registry {
		if s.disabled(r.ID) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns a rule by ID if registered (used by the HTML report and the
// API rule catalog).
func Get(id string) (Rule, bool) {
	idx, ok := ruleIndex[strings.ToUpper(strings.TrimSpace(id))]
	if !ok || idx < 0 || idx >= len(registry) {
		return Rule{}, false
	}
	return registry[idx], true
}

// Evaluate runs every enabled rule over the annotated corpus and returns
// the run's issues in report order: loader issues first, then each rule's
// issues in rule order, each batch sorted by document load order and line.
// IssueIDs (ISS-001, ...) are assigned sequentially once the order is final,
// after threshold and disabled-rule filtering, so they stay contiguous.
func Evaluate(corpus *ir.Corpus, loaderIssues []ir.Issue, s Settings) []ir.Issue {
	s = s.normalized()
	env := &Env{
		Matcher:  match.NewMatcher(corpus.Glossary),
		Settings: s,
	}

	docRank := map[string]int{}
	for i, d := range corpus.Documents {
		docRank[d.Name] = i
	}

	ordered := sortBatch(append([]ir.Issue(nil), loaderIssues...), docRank)
	for _, rule := range List(s) {
		batch := rule.Eval(corpus, env)
		for k := range batch {
			if batch[k].RuleID == "" {
				batch[k].RuleID = rule.ID
			}
			if batch[k].Severity == "" {
				batch[k].Severity = rule.DefaultSeverity
			}
		}
		ordered = append(ordered, sortBatch(batch, docRank)...)
	}

	out := make([]ir.Issue, 0, len(ordered))
	for _, iss := range ordered {
		if s.disabled(iss.RuleID) {
			continue
		}
		iss.Severity = s.severityFor(iss.RuleID, iss.Severity)
		if !s.severityOK(iss.Severity) {
			continue
		}
		iss.ID = fmt.Sprintf("ISS-%03d", len(out)+1)
		out = append(out, iss)
	}
	return out
}

func sortBatch(batch []ir.Issue, docRank map[string]int) []ir.Issue {
	sort.SliceStable(batch, func(i, j int) bool {
		ri, rj := docRank[batch[i].Doc], docRank[batch[j].Doc]
		if ri != rj {
			return ri < rj
		}
		return batch[i].Line < batch[j].Line
	})
	return batch
}
