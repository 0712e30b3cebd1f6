package rules

import (
	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
)

// Rule represents a single consistency rule executed over the corpus.
type Rule struct {
	ID      string
	Summary string
	// Order fixes the rule's slot in the emission sequence: every issue
	// from a lower order precedes every issue from a higher one.
	Order int
	// DefaultSeverity applies unless the caller overrides it in
	// Settings.Severities.
	DefaultSeverity ir.Severity
	// Eval inspects the annotated corpus and returns issues. IssueIDs are
	// assigned later by Evaluate, once the full sequence is ordered.
	Eval func(corpus *ir.Corpus, env *Env) []ir.Issue
}

// Env is the per-evaluation context handed to each rule: the glossary-aware
// matcher plus the caller's settings. Rules hold no state between runs.
type Env struct {
	Matcher  *match.Matcher
	Settings Settings
}
