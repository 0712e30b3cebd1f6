// Package parser loads objective, requirement, glossary, and template
// documents from disk into an ir.Corpus. Inputs are plain markdown; section
// structure is recovered by line scanning, never by executing anything.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/reqlint/reqlint/internal/ir"
)

// Sources names the input documents for one run. It is passed to Load
// explicitly; the loader keeps no package-level state.
type Sources struct {
	Objectives   []string // paths or doublestar globs
	Requirements []string
	Glossary     []string
	Template     string // optional single path
}

// Diagnostics carries non-fatal load findings. Issues holds the MINOR
// unparseable-reference entries produced for malformed identifiers; the
// evaluator merges them into the run with final IssueIDs.
type Diagnostics struct {
	Warnings []string
	Issues   []ir.Issue
}

// LoadError is fatal: a referenced input file is absent or unreadable.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Load reads all configured sources and returns the parsed corpus.
// Missing files abort with a *LoadError; malformed identifiers are skipped
// and recorded in Diagnostics.Issues so the run can continue.
func Load(src Sources) (ir.Corpus, Diagnostics, error) {
	var corpus ir.Corpus
	var diags Diagnostics
	used := map[string]bool{}

	load := func(kind ir.DocKind, patterns []string) error {
		paths, warns, err := resolve(patterns)
		if err != nil {
			return err
		}
		diags.Warnings = append(diags.Warnings, warns...)
		for _, p := range paths {
			doc, err := readDocument(kind, p, used)
			if err != nil {
				return err
			}
			corpus.Documents = append(corpus.Documents, doc)
			parseDocument(doc, &corpus, &diags)
		}
		return nil
	}

	if err := load(ir.DocObjectives, src.Objectives); err != nil {
		return ir.Corpus{}, diags, err
	}
	if err := load(ir.DocRequirements, src.Requirements); err != nil {
		return ir.Corpus{}, diags, err
	}
	if err := load(ir.DocGlossary, src.Glossary); err != nil {
		return ir.Corpus{}, diags, err
	}
	if src.Template != "" {
		if err := load(ir.DocTemplate, []string{src.Template}); err != nil {
			return ir.Corpus{}, diags, err
		}
	}

	if len(corpus.Objectives) == 0 && len(corpus.Requirements) == 0 {
		diags.Warnings = append(diags.Warnings, "no objectives or requirements parsed from the given sources")
	}
	return corpus, diags, nil
}

// resolve expands glob patterns to concrete files. A literal path must
// exist; a glob matching nothing only warns, since an empty corpus is a
// valid (zero-issue) run.
func resolve(patterns []string) ([]string, []string, error) {
	var out []string
	var warns []string
	seen := map[string]bool{}
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if !strings.ContainsAny(pattern, "*?[{") {
			clean := filepath.Clean(pattern)
			if _, err := os.Stat(clean); err != nil {
				return nil, nil, &LoadError{Path: clean, Err: err}
			}
			if !seen[clean] {
				seen[clean] = true
				out = append(out, clean)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, nil, &LoadError{Path: pattern, Err: err}
		}
		if len(matches) == 0 {
			warns = append(warns, fmt.Sprintf("pattern %q matched no files", pattern))
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			clean := filepath.Clean(m)
			if !seen[clean] {
				seen[clean] = true
				out = append(out, clean)
			}
		}
	}
	return out, warns, nil
}

func readDocument(kind ir.DocKind, path string, used map[string]bool) (ir.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ir.Document{}, &LoadError{Path: path, Err: err}
	}
	name := filepath.Base(path)
	if used[name] {
		// Base-name collision across directories: fall back to the full path.
		name = filepath.ToSlash(path)
	}
	used[name] = true
	return ir.Document{
		Name: name,
		Path: filepath.ToSlash(path),
		Kind: kind,
		Raw:  string(b),
	}, nil
}
