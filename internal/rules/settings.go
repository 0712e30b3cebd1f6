package rules

import (
	"strings"

	"github.com/reqlint/reqlint/internal/coverage"
	"github.com/reqlint/reqlint/internal/ir"
)

// Settings tune one evaluation. They are passed to Evaluate explicitly;
// the registry holds registered rules only, never run state.
type Settings struct {
	SeverityThreshold  string                 // minimum severity to report, default MINOR
	Disabled           map[string]bool        // UPPER(ruleID) -> true
	Severities         map[string]ir.Severity // UPPER(ruleID) -> override
	CriteriaMatchRatio float64                // token overlap needed to satisfy a criterion
	TermPairs          [][2]string            // synonym pairs checked in addition to the built-ins
}

func (s Settings) normalized() Settings {
	if s.SeverityThreshold == "" {
		s.SeverityThreshold = string(ir.SeverityMinor)
	}
	if s.Disabled == nil {
		s.Disabled = map[string]bool{}
	}
	if s.Severities == nil {
		s.Severities = map[string]ir.Severity{}
	}
	if s.CriteriaMatchRatio <= 0 {
		s.CriteriaMatchRatio = coverage.DefaultMatchRatio
	}
	return s
}

func (s Settings) disabled(ruleID string) bool {
	return s.Disabled[strings.ToUpper(strings.TrimSpace(ruleID))]
}

func (s Settings) severityFor(ruleID string, def ir.Severity) ir.Severity {
	if ov, ok := s.Severities[strings.ToUpper(strings.TrimSpace(ruleID))]; ok {
		return ov
	}
	return def
}

func (s Settings) severityOK(sev ir.Severity) bool {
	min := ir.Severity(strings.ToUpper(strings.TrimSpace(s.SeverityThreshold)))
	return sev.Rank() >= min.Rank()
}
