package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/coverage"
	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/match"
	"github.com/reqlint/reqlint/internal/parser"
	"github.com/reqlint/reqlint/internal/reporting"
	"github.com/reqlint/reqlint/internal/rulepack"
	"github.com/reqlint/reqlint/internal/rules"
	"github.com/reqlint/reqlint/internal/shared"
	"github.com/reqlint/reqlint/internal/storage"
)

var checkOpts = checkOptions{}

var (
	checkPrint  bool
	checkFailOn string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a document set and emit the consistency report",
	Long: `Loads the objectives, requirements, glossary and template sources,
evaluates all registered rules, and writes markdown, JSON and HTML reports
to the output directory. With a database configured the run is persisted
and active waivers are applied before emission.`,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringSliceVar(&checkOpts.objectives, "objectives", nil, "objectives documents (paths or globs)")
	f.StringSliceVar(&checkOpts.requirements, "requirements", nil, "requirements documents (paths or globs)")
	f.StringSliceVar(&checkOpts.glossary, "glossary", nil, "glossary documents (paths or globs)")
	f.StringVar(&checkOpts.template, "template", "", "objective template document")
	f.StringSliceVar(&checkOpts.rulepacks, "rulepack", nil, "extra YAML rule packs")
	f.StringVar(&checkOpts.threshold, "threshold", "", "minimum severity to report (CRITICAL, MAJOR, MINOR)")
	f.Float64Var(&checkOpts.ratio, "ratio", 0, "token overlap ratio for criteria mapping")
	f.StringSliceVar(&checkOpts.disabled, "disable", nil, "rule ids to skip")
	f.StringSliceVar(&checkOpts.terms, "term", nil, "extra term pairs, e.g. customer=client")
	f.StringVar(&checkOpts.outDir, "out", "", "report output directory")
	f.StringVar(&checkOpts.dbPath, "db", "", "SQLite database path (enables run history)")
	f.BoolVar(&checkPrint, "print", false, "render the markdown report to stdout")
	f.StringVar(&checkFailOn, "fail-on", "CRITICAL", "exit non-zero when issues at or above this severity remain (NONE disables)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := checkOpts
	opts.applyConfig(cfg)
	if err := loadRulePacks(opts.rulepacks); err != nil {
		return err
	}

	run, paths, err := executeCheck(cfg, &opts)
	if err != nil {
		return err
	}

	printSummary(run, paths)
	if checkPrint {
		if err := printMarkdown(reporting.RenderMarkdown(run)); err != nil {
			return err
		}
	}

	if fail := strings.ToUpper(checkFailOn); fail != "" && fail != "NONE" {
		min := ir.Severity(fail).Rank()
		var over int
		for _, iss := range run.Issues {
			if iss.Severity.Rank() >= min {
				over++
			}
		}
		if over > 0 {
			return fmt.Errorf("%d issue(s) at or above %s", over, fail)
		}
	}
	return nil
}

// executeCheck is the full pipeline: load, annotate, evaluate, waive,
// persist, emit. The watch command reuses it on every trigger.
func executeCheck(cfg shared.Config, opts *checkOptions) (*ir.Run, reportPaths, error) {
	settings, err := opts.settings(cfg)
	if err != nil {
		return nil, reportPaths{}, err
	}

	corpus, diags, err := parser.Load(opts.sources())
	if err != nil {
		return nil, reportPaths{}, err
	}
	if len(diags.Warnings) > 0 {
		slog.Warn("load warnings", "warnings", diags.Warnings)
	}

	coverage.Annotate(&corpus, match.NewMatcher(corpus.Glossary), settings.CriteriaMatchRatio)
	issues := rules.Evaluate(&corpus, diags.Issues, settings)

	run := &ir.Run{
		ID:            "run-" + uuid.NewString()[:8],
		StartedAt:     time.Now().UTC(),
		SchemaVersion: ir.Version,
		Context:       opts.context(settings),
		Corpus:        corpus,
		Issues:        issues,
	}

	if opts.dbPath != "" {
		db, err := storage.OpenSQLite(opts.dbPath)
		if err != nil {
			return nil, reportPaths{}, fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		if err := db.CreateSchema(); err != nil {
			return nil, reportPaths{}, fmt.Errorf("create schema: %w", err)
		}
		waivers, err := db.ListWaivers(true)
		if err != nil {
			return nil, reportPaths{}, fmt.Errorf("list waivers: %w", err)
		}
		run.Issues, run.Waived = rules.ApplyWaivers(run.Issues, waivers)
		if err := db.SaveRun(run); err != nil {
			return nil, reportPaths{}, fmt.Errorf("save run: %w", err)
		}
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return nil, reportPaths{}, fmt.Errorf("create out dir: %w", err)
	}
	var paths reportPaths
	if paths.Markdown, err = reporting.WriteMarkdown(run.ID, opts.outDir, run); err != nil {
		return nil, reportPaths{}, err
	}
	if paths.JSON, err = reporting.WriteJSON(run.ID, opts.outDir, run); err != nil {
		return nil, reportPaths{}, err
	}
	if paths.HTML, err = reporting.WriteHTML(run.ID, opts.outDir, run); err != nil {
		return nil, reportPaths{}, err
	}

	slog.Info("check complete",
		"run", run.ID,
		"issues", len(run.Issues),
		"waived", run.Waived,
		"markdown", paths.Markdown,
	)
	return run, paths, nil
}

type reportPaths struct {
	Markdown string
	JSON     string
	HTML     string
}

// loadRulePacks registers extra packs once per process.
func loadRulePacks(packs []string) error {
	for _, pack := range packs {
		n, err := rulepack.LoadAndRegister(pack)
		if err != nil {
			return fmt.Errorf("rule pack %s: %w", pack, err)
		}
		slog.Info("rule pack loaded", "path", pack, "rules", n)
	}
	return nil
}

// printMarkdown renders the report for the terminal, falling back to the
// raw text when no renderer can be built (e.g. dumb terminals).
func printMarkdown(md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(out)
	return nil
}
