package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqlint/reqlint/internal/ir"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_ObjectivesAndRequirements(t *testing.T) {
	dir := t.TempDir()
	obj := writeDoc(t, dir, "objectives.md", strings.Join([]string{
		"# Product goals",
		"",
		"## OBJ-01: Streamline booking workflow",
		"Make the booking flow faster for travel agents.",
		"",
		"### In scope",
		"- booking cancellation",
		"- booking modification",
		"",
		"### Out of scope",
		"- refunds",
		"",
		"### Success criteria",
		"- SC-1: 90% of bookings complete in under three minutes",
		"",
		"### Assumptions",
		"- payments are handled by the existing gateway",
		"",
		"### Constraints",
		"- must not store card numbers",
	}, "\n"))
	req := writeDoc(t, dir, "requirements.md", strings.Join([]string{
		"# Requirements",
		"",
		"## BR-01: Support booking cancellation",
		"Agents can cancel a booking before the travel date.",
		"Objective: OBJ-01",
		"",
		"## BR-02: Export booking history",
		"Objective: OBJ-77",
	}, "\n"))

	corpus, diags, err := Load(Sources{Objectives: []string{obj}, Requirements: []string{req}})
	require.NoError(t, err)
	assert.Empty(t, diags.Issues)

	require.Len(t, corpus.Objectives, 1)
	o := corpus.Objectives[0]
	assert.Equal(t, "OBJ-01", o.ID)
	assert.Equal(t, "Streamline booking workflow", o.Title)
	assert.Equal(t, "objectives.md", o.Doc)
	assert.Equal(t, 3, o.Line)
	assert.Equal(t, []string{"In scope", "Out of scope", "Success criteria", "Assumptions", "Constraints"}, o.Sections)

	require.Len(t, o.InScope, 2)
	assert.Equal(t, "booking cancellation", o.InScope[0].Text)
	assert.Equal(t, 7, o.InScope[0].Line)
	require.Len(t, o.OutOfScope, 1)
	assert.Equal(t, "refunds", o.OutOfScope[0].Text)
	require.Len(t, o.Criteria, 1)
	assert.Equal(t, "SC-1", o.Criteria[0].ID)
	assert.Equal(t, "90% of bookings complete in under three minutes", o.Criteria[0].Text)
	assert.Equal(t, 14, o.Criteria[0].Line)
	require.Len(t, o.Assumptions, 1)
	require.Len(t, o.Constraints, 1)
	assert.Equal(t, "must not store card numbers", o.Constraints[0].Text)

	// Raw is the section verbatim, usable for evidence citation.
	assert.True(t, strings.HasPrefix(o.Raw, "## OBJ-01:"))
	assert.Contains(t, corpus.Documents[0].Raw, o.Raw)

	require.Len(t, corpus.Requirements, 2)
	r := corpus.Requirements[0]
	assert.Equal(t, "BR-01", r.ID)
	assert.Equal(t, "Support booking cancellation", r.Title)
	assert.Equal(t, "OBJ-01", r.ObjectiveRef)
	assert.Equal(t, "Agents can cancel a booking before the travel date.", r.Body)
	assert.Equal(t, 3, r.Line)
	assert.Equal(t, "OBJ-77", corpus.Requirements[1].ObjectiveRef)

	require.Len(t, corpus.Documents, 2)
	assert.Equal(t, ir.DocObjectives, corpus.Documents[0].Kind)
	assert.Equal(t, ir.DocRequirements, corpus.Documents[1].Kind)
}

func TestLoad_MissingFileIsFatal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.md")

	_, _, err := Load(Sources{Objectives: []string{missing}})
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, missing, le.Path)
}

func TestLoad_MalformedIdentifierRecovered(t *testing.T) {
	dir := t.TempDir()
	req := writeDoc(t, dir, "requirements.md", strings.Join([]string{
		"## br-03: handle refunds",
		"Some text under the bad heading.",
		"",
		"## Overview",
		"Narrative prose, not an entity.",
		"",
		"## BR-04: Notify the customer",
		"Body.",
	}, "\n"))

	corpus, diags, err := Load(Sources{Requirements: []string{req}})
	require.NoError(t, err)

	require.Len(t, corpus.Requirements, 1)
	assert.Equal(t, "BR-04", corpus.Requirements[0].ID)

	require.Len(t, diags.Issues, 1)
	iss := diags.Issues[0]
	assert.Equal(t, ir.RuleRefUnparseable, iss.RuleID)
	assert.Equal(t, ir.SeverityMinor, iss.Severity)
	assert.Equal(t, "requirements.md", iss.Doc)
	assert.Equal(t, "br-03", iss.Section)
	assert.Equal(t, 1, iss.Line)
	assert.Equal(t, "## br-03: handle refunds", iss.Evidence)
}

func TestLoad_MalformedObjectiveRef(t *testing.T) {
	dir := t.TempDir()
	req := writeDoc(t, dir, "requirements.md", strings.Join([]string{
		"## BR-05: Archive bookings",
		"Bookings older than two years move to cold storage.",
		"Objective: obj_1",
	}, "\n"))

	corpus, diags, err := Load(Sources{Requirements: []string{req}})
	require.NoError(t, err)

	require.Len(t, corpus.Requirements, 1)
	assert.Empty(t, corpus.Requirements[0].ObjectiveRef)
	assert.NotContains(t, corpus.Requirements[0].Body, "Objective:")

	require.Len(t, diags.Issues, 1)
	assert.Equal(t, ir.RuleRefUnparseable, diags.Issues[0].RuleID)
	assert.Equal(t, "BR-05", diags.Issues[0].Section)
	assert.Equal(t, 3, diags.Issues[0].Line)
	assert.Equal(t, "Objective: obj_1", diags.Issues[0].Evidence)
}

func TestLoad_GlossaryAliases(t *testing.T) {
	dir := t.TempDir()
	glos := writeDoc(t, dir, "glossary.md", strings.Join([]string{
		"# Glossary",
		"",
		"## customer",
		"Aliases: client, consumer",
		"A person who books travel through the agency.",
		"",
		"## booking",
		"A confirmed reservation.",
	}, "\n"))

	corpus, _, err := Load(Sources{Glossary: []string{glos}})
	require.NoError(t, err)

	require.Len(t, corpus.Glossary, 2)
	assert.Equal(t, "customer", corpus.Glossary[0].Term)
	assert.Equal(t, []string{"client", "consumer"}, corpus.Glossary[0].Aliases)
	assert.Equal(t, "A person who books travel through the agency.", corpus.Glossary[0].Definition)
	assert.Equal(t, 3, corpus.Glossary[0].Line)
	assert.Empty(t, corpus.Glossary[1].Aliases)
}

func TestLoad_Template(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeDoc(t, dir, "template.md", strings.Join([]string{
		"## OBJ-00: <objective title>",
		"### In scope",
		"### Out of scope",
		"### Success criteria",
		"### Assumptions",
		"### Constraints",
	}, "\n"))

	corpus, _, err := Load(Sources{Template: tmpl})
	require.NoError(t, err)
	require.NotNil(t, corpus.Template)
	assert.Equal(t, []string{"In scope", "Out of scope", "Success criteria", "Assumptions", "Constraints"},
		corpus.Template.Sections)

	flat := writeDoc(t, dir, "flat.md", "## In scope\n## Out of scope\n")
	corpus, _, err = Load(Sources{Template: flat})
	require.NoError(t, err)
	assert.Equal(t, []string{"In scope", "Out of scope"}, corpus.Template.Sections)
}

func TestLoad_GlobResolution(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a_objectives.md", "## OBJ-01: First\n")
	writeDoc(t, dir, "b_objectives.md", "## OBJ-02: Second\n")

	corpus, diags, err := Load(Sources{Objectives: []string{filepath.Join(dir, "*_objectives.md")}})
	require.NoError(t, err)

	require.Len(t, corpus.Objectives, 2)
	assert.Equal(t, "OBJ-01", corpus.Objectives[0].ID)
	assert.Equal(t, "OBJ-02", corpus.Objectives[1].ID)

	corpus, diags, err = Load(Sources{Objectives: []string{filepath.Join(dir, "*.nothing")}})
	require.NoError(t, err)
	assert.Empty(t, corpus.Objectives)
	require.NotEmpty(t, diags.Warnings)
	assert.Contains(t, diags.Warnings[0], "matched no files")
}

func TestLoad_FrontmatterAndFences(t *testing.T) {
	dir := t.TempDir()
	obj := writeDoc(t, dir, "objectives.md", strings.Join([]string{
		"---",
		"title: Objectives",
		"owner: pm-team",
		"---",
		"## OBJ-09: Ship the importer",
		"",
		"### In scope",
		"- csv import",
		"",
		"```text",
		"## OBJ-99: not a real heading",
		"```",
	}, "\n"))

	corpus, diags, err := Load(Sources{Objectives: []string{obj}})
	require.NoError(t, err)
	assert.Empty(t, diags.Issues)

	require.Len(t, corpus.Objectives, 1)
	o := corpus.Objectives[0]
	assert.Equal(t, "OBJ-09", o.ID)
	// line numbers count physical file lines, frontmatter included
	assert.Equal(t, 5, o.Line)
	require.Len(t, o.InScope, 1)
	assert.Equal(t, 8, o.InScope[0].Line)
}

func TestLoad_EmptySourcesWarn(t *testing.T) {
	dir := t.TempDir()
	obj := writeDoc(t, dir, "objectives.md", "# Nothing structured here\n\nJust prose.\n")

	corpus, diags, err := Load(Sources{Objectives: []string{obj}})
	require.NoError(t, err)
	assert.Empty(t, corpus.Objectives)
	require.NotEmpty(t, diags.Warnings)
	assert.Contains(t, diags.Warnings[len(diags.Warnings)-1], "no objectives or requirements")
}
