// Package rulepack loads organization-specific rules from YAML files and
// registers them alongside the built-ins. Packs extend the rule set without
// recompiling; a pack rule reusing a built-in ID replaces it.
package rulepack

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/rules"
)

type packFile struct {
	Rules []packRule `yaml:"rules"`
}

type packRule struct {
	ID       string `yaml:"id"`
	Summary  string `yaml:"summary"`
	Kind     string `yaml:"kind"`     // forbidden_pattern | required_pattern | term_pair
	Severity string `yaml:"severity"` // CRITICAL | MAJOR | MINOR
	Message  string `yaml:"message"`
	Fix      string `yaml:"fix"`

	Where struct {
		Scope   string `yaml:"scope"`   // objectives | requirements | any (default any)
		Pattern string `yaml:"pattern"` // regex, matched case-insensitively per line
		A       string `yaml:"a"`       // term_pair only
		B       string `yaml:"b"`
	} `yaml:"where"`
}

type compiled struct {
	rule packRule
	re   *regexp.Regexp
}

// packOrder places pack rules after every built-in; each registration
// claims the next slot so issues keep pack file order.
var packOrder = 100

// LoadAndRegister reads one YAML pack and registers its rules.
// Returns the number of rules registered.
func LoadAndRegister(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rule pack: %w", err)
	}
	var pack packFile
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return 0, fmt.Errorf("parse yaml: %w", err)
	}
	var n int
	for _, r := range pack.Rules {
		cr, err := compile(r)
		if err != nil {
			return n, fmt.Errorf("compile rule %q: %w", r.ID, err)
		}
		registerCompiled(*cr)
		n++
	}
	return n, nil
}

func compile(r packRule) (*compiled, error) {
	if r.ID == "" || r.Kind == "" || r.Severity == "" {
		return nil, fmt.Errorf("missing required fields (id/kind/severity)")
	}
	sev := ir.Severity(strings.ToUpper(strings.TrimSpace(r.Severity)))
	switch sev {
	case ir.SeverityCritical, ir.SeverityMajor, ir.SeverityMinor:
	default:
		return nil, fmt.Errorf("unknown severity %q", r.Severity)
	}
	r.Severity = string(sev)

	switch strings.ToLower(r.Kind) {
	case "forbidden_pattern", "required_pattern":
		if r.Where.Pattern == "" {
			return nil, fmt.Errorf("kind %s needs where.pattern", r.Kind)
		}
		if r.Message == "" {
			return nil, fmt.Errorf("kind %s needs a message", r.Kind)
		}
		re, err := regexp.Compile("(?i)" + r.Where.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		switch r.Where.Scope {
		case "", "any", "objectives", "requirements":
		default:
			return nil, fmt.Errorf("unknown scope %q", r.Where.Scope)
		}
		return &compiled{rule: r, re: re}, nil
	case "term_pair":
		if r.Where.A == "" || r.Where.B == "" {
			return nil, fmt.Errorf("kind term_pair needs where.a and where.b")
		}
		return &compiled{rule: r}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", r.Kind)
	}
}

func registerCompiled(c compiled) {
	order := packOrder
	packOrder++

	var eval func(corpus *ir.Corpus, env *rules.Env) []ir.Issue
	switch strings.ToLower(c.rule.Kind) {
	case "forbidden_pattern":
		eval = c.evalForbidden
	case "required_pattern":
		eval = c.evalRequired
	default:
		a, b := c.rule.Where.A, c.rule.Where.B
		eval = func(corpus *ir.Corpus, _ *rules.Env) []ir.Issue {
			if iss, ok := rules.TermPairIssue(corpus, a, b); ok {
				return []ir.Issue{iss}
			}
			return nil
		}
	}

	rules.Register(rules.Rule{
		ID:              c.rule.ID,
		Summary:         c.rule.Summary,
		Order:           order,
		DefaultSeverity: ir.Severity(c.rule.Severity),
		Eval:            eval,
	})
}

func (c compiled) evalForbidden(corpus *ir.Corpus, _ *rules.Env) []ir.Issue {
	var out []ir.Issue
	c.eachEntity(corpus, func(doc, id string, baseLine int, raw string) {
		for n, line := range strings.Split(raw, "\n") {
			if !c.re.MatchString(line) {
				continue
			}
			out = append(out, ir.Issue{
				Doc:          doc,
				Section:      id,
				Line:         baseLine + n,
				Description:  c.rule.Message,
				Evidence:     strings.TrimSpace(line),
				SuggestedFix: c.rule.Fix,
			})
		}
	})
	return out
}

func (c compiled) evalRequired(corpus *ir.Corpus, _ *rules.Env) []ir.Issue {
	var out []ir.Issue
	c.eachEntity(corpus, func(doc, id string, baseLine int, raw string) {
		if c.re.MatchString(raw) {
			return
		}
		heading, _, _ := strings.Cut(raw, "\n")
		out = append(out, ir.Issue{
			Doc:          doc,
			Section:      id,
			Line:         baseLine,
			Description:  fmt.Sprintf("%s: %s", id, c.rule.Message),
			Evidence:     strings.TrimSpace(heading),
			SuggestedFix: c.rule.Fix,
		})
	})
	return out
}

func (c compiled) eachEntity(corpus *ir.Corpus, fn func(doc, id string, baseLine int, raw string)) {
	scope := c.rule.Where.Scope
	if scope == "" {
		scope = "any"
	}
	if scope == "any" || scope == "objectives" {
		for _, obj := range corpus.Objectives {
			fn(obj.Doc, obj.ID, obj.Line, obj.Raw)
		}
	}
	if scope == "any" || scope == "requirements" {
		for _, req := range corpus.Requirements {
			fn(req.Doc, req.ID, req.Line, req.Raw)
		}
	}
}
