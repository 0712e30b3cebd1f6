package ir

import "time"

const Version = "1.0"

// Severity of an issue. Scope and constraint violations default to CRITICAL,
// coverage gaps to MAJOR, terminology drift to MINOR; the mapping is
// overridable per rule via configuration.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
)

// Rank orders severities for threshold filtering. Unknown values rank MINOR.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMajor:
		return 2
	default:
		return 1
	}
}

type Run struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	SchemaVersion string    `json:"schema_version,omitempty"`

	Context Context `json:"context"`
	Corpus  Corpus  `json:"corpus"`
	Issues  []Issue `json:"issues,omitempty"`
	Waived  int     `json:"waived,omitempty"`
}

type Context struct {
	SeverityThreshold  string   `json:"severity_threshold,omitempty"`
	DisabledRules      []string `json:"disabled_rules,omitempty"`
	CriteriaMatchRatio float64  `json:"criteria_match_ratio,omitempty"`
}

// Corpus is the parsed form of all input documents. Slices keep load order;
// evaluation iterates them directly so issue emission stays deterministic.
type Corpus struct {
	Documents    []Document      `json:"documents"`
	Objectives   []Objective     `json:"objectives"`
	Requirements []Requirement   `json:"requirements"`
	Glossary     []GlossaryEntry `json:"glossary,omitempty"`
	Template     *Template       `json:"template,omitempty"`
}

type DocKind string

const (
	DocObjectives   DocKind = "objectives"
	DocRequirements DocKind = "requirements"
	DocGlossary     DocKind = "glossary"
	DocTemplate     DocKind = "template"
)

type Document struct {
	Name string  `json:"name"` // base filename, unique within a run
	Path string  `json:"path"`
	Kind DocKind `json:"kind"`
	Raw  string  `json:"raw,omitempty"`
}

type Objective struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Doc   string `json:"doc"`
	Line  int    `json:"line"`
	Raw   string `json:"raw,omitempty"`

	InScope     []ScopeItem `json:"in_scope,omitempty"`
	OutOfScope  []ScopeItem `json:"out_of_scope,omitempty"`
	Criteria    []Criterion `json:"criteria,omitempty"`
	Assumptions []Statement `json:"assumptions,omitempty"`
	Constraints []Statement `json:"constraints,omitempty"`

	// Sections lists the objective's subsection headings as written, in
	// document order, including ones the loader does not model.
	Sections []string `json:"sections,omitempty"`

	Annotations ObjectiveAnno `json:"annotations,omitempty"`
}

// ScopeItem is one capability bullet from an In scope / Out of scope section.
// Raw keeps the source line verbatim for evidence citation.
type ScopeItem struct {
	Text string `json:"text"`
	Line int    `json:"line"`
	Raw  string `json:"raw"`
}

type Criterion struct {
	ID   string `json:"id,omitempty"` // optional SC-n label
	Text string `json:"text"`
	Line int    `json:"line"`
	Raw  string `json:"raw"`
}

type Statement struct {
	Text string `json:"text"`
	Line int    `json:"line"`
	Raw  string `json:"raw"`
}

type Requirement struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Body         string `json:"body,omitempty"`
	Doc          string `json:"doc"`
	Line         int    `json:"line"`
	Raw          string `json:"raw,omitempty"`
	ObjectiveRef string `json:"objective_ref,omitempty"`
}

// Text is the prose rules match against: title plus body, no heading markup.
func (r Requirement) Text() string {
	if r.Body == "" {
		return r.Title
	}
	return r.Title + "\n" + r.Body
}

type GlossaryEntry struct {
	Term       string   `json:"term"`
	Aliases    []string `json:"aliases,omitempty"`
	Definition string   `json:"definition,omitempty"`
	Doc        string   `json:"doc"`
	Line       int      `json:"line"`
}

// Template lists section headings every objective must instantiate.
type Template struct {
	Doc      string   `json:"doc"`
	Sections []string `json:"sections"`
}

type ObjectiveAnno struct {
	Coverage Coverage `json:"coverage,omitempty"`
}

// Coverage is filled by the annotation pass before rules run. Uncovered and
// Unmapped hold indexes into the objective's InScope and Criteria slices.
type Coverage struct {
	Capabilities int   `json:"capabilities"`
	Covered      int   `json:"covered"`
	Criteria     int   `json:"criteria"`
	Mapped       int   `json:"mapped"`
	Uncovered    []int `json:"uncovered,omitempty"`
	Unmapped     []int `json:"unmapped,omitempty"`
}

// RuleRefUnparseable is the one rule identifier minted by the loader rather
// than the evaluator: malformed identifiers surface as MINOR issues under it.
const RuleRefUnparseable = "REF-UNPARSEABLE"

type Issue struct {
	ID           string   `json:"id"` // ISS-001, sequential in emission order
	RuleID       string   `json:"rule_id"`
	Severity     Severity `json:"severity"`
	Doc          string   `json:"doc"`
	Section      string   `json:"section,omitempty"`
	Line         int      `json:"line,omitempty"`
	Description  string   `json:"description"`
	Evidence     string   `json:"evidence"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// Location renders the document+section reference used in reports,
// e.g. "requirements.md#BR-03".
func (i Issue) Location() string {
	if i.Section == "" {
		return i.Doc
	}
	return i.Doc + "#" + i.Section
}
