package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/parser"
	"github.com/reqlint/reqlint/internal/rules"
	"github.com/reqlint/reqlint/internal/shared"
)

// checkOptions carries everything one analysis pass needs. Flags override
// config values; config fills whatever the flags leave empty.
type checkOptions struct {
	objectives   []string
	requirements []string
	glossary     []string
	template     string
	rulepacks    []string

	threshold string
	ratio     float64
	disabled  []string
	terms     []string

	outDir string
	dbPath string
}

func (o *checkOptions) applyConfig(cfg shared.Config) {
	if len(o.objectives) == 0 {
		o.objectives = cfg.Sources.Objectives
	}
	if len(o.requirements) == 0 {
		o.requirements = cfg.Sources.Requirements
	}
	if len(o.glossary) == 0 {
		o.glossary = cfg.Sources.Glossary
	}
	if o.template == "" {
		o.template = cfg.Sources.Template
	}
	o.rulepacks = append(o.rulepacks, cfg.Analysis.Rulepacks...)

	if o.threshold == "" {
		o.threshold = cfg.Analysis.Threshold
	}
	if o.ratio == 0 {
		o.ratio = cfg.Analysis.Ratio
	}
	o.disabled = append(o.disabled, cfg.Analysis.Disabled...)
	o.terms = append(o.terms, cfg.Analysis.Terms...)

	if o.outDir == "" {
		o.outDir = cfg.Reporting.OutDir
	}
	if o.dbPath == "" {
		o.dbPath = cfg.Database.DSN
	}
}

func (o *checkOptions) sources() parser.Sources {
	return parser.Sources{
		Objectives:   o.objectives,
		Requirements: o.requirements,
		Glossary:     o.glossary,
		Template:     o.template,
	}
}

func (o *checkOptions) settings(cfg shared.Config) (rules.Settings, error) {
	s := rules.Settings{
		SeverityThreshold:  strings.ToUpper(o.threshold),
		Disabled:           map[string]bool{},
		Severities:         map[string]ir.Severity{},
		CriteriaMatchRatio: o.ratio,
	}
	for _, id := range o.disabled {
		if id = strings.TrimSpace(id); id != "" {
			s.Disabled[strings.ToUpper(id)] = true
		}
	}
	for id, sev := range cfg.Analysis.Severity {
		s.Severities[strings.ToUpper(id)] = ir.Severity(strings.ToUpper(sev))
	}
	pairs, err := parseTermPairs(o.terms)
	if err != nil {
		return rules.Settings{}, err
	}
	s.TermPairs = pairs
	return s, nil
}

// parseTermPairs turns "customer=client" strings into term pairs.
func parseTermPairs(terms []string) ([][2]string, error) {
	var out [][2]string
	for _, t := range terms {
		a, b, ok := strings.Cut(t, "=")
		a, b = strings.TrimSpace(a), strings.TrimSpace(b)
		if !ok || a == "" || b == "" {
			return nil, fmt.Errorf("bad term pair %q (want \"termA=termB\")", t)
		}
		out = append(out, [2]string{a, b})
	}
	return out, nil
}

func (o *checkOptions) context(s rules.Settings) ir.Context {
	var disabled []string
	for id := range s.Disabled {
		disabled = append(disabled, id)
	}
	sort.Strings(disabled)
	return ir.Context{
		SeverityThreshold:  s.SeverityThreshold,
		DisabledRules:      disabled,
		CriteriaMatchRatio: s.CriteriaMatchRatio,
	}
}
