package shared

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Database struct {
		DSN string `koanf:"dsn"` // path to the SQLite file; empty disables run history
	} `koanf:"database"`

	Sources struct {
		Objectives   []string `koanf:"objectives"`   // paths or globs
		Requirements []string `koanf:"requirements"` // paths or globs
		Glossary     []string `koanf:"glossary"`
		Template     string   `koanf:"template"`
	} `koanf:"sources"`

	Analysis struct {
		Threshold string            `koanf:"threshold"` // CRITICAL|MAJOR|MINOR
		Ratio     float64           `koanf:"ratio"`     // criteria token-overlap ratio
		Disabled  []string          `koanf:"disabled"`  // rule ids to skip
		Severity  map[string]string `koanf:"severity"`  // rule id -> severity override
		Terms     []string          `koanf:"terms"`     // extra "customer=client" pairs
		Rulepacks []string          `koanf:"rulepacks"` // YAML rule pack paths
	} `koanf:"analysis"`

	Reporting struct {
		OutDir string `koanf:"outdir"`
	} `koanf:"reporting"`

	Server struct {
		Addr         string `koanf:"addr"`
		SessionHours int    `koanf:"sessionhours"`
	} `koanf:"server"`

	Watch struct {
		Debounce string `koanf:"debounce"` // e.g. "400ms"
	} `koanf:"watch"`

	Logging struct {
		Format string `koanf:"format"` // "json"|"text"
		Level  string `koanf:"level"`  // "info"|"debug"|"warn"|"error"
	} `koanf:"logging"`
}

// LoadConfig layers defaults, an optional YAML file, and REQLINT_* environment
// variables (REQLINT_DATABASE_DSN -> database.dsn), last one wins.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("analysis.threshold", "MINOR")
	k.Set("analysis.ratio", 0.6)
	k.Set("reporting.outdir", "./reports")
	k.Set("server.addr", ":8787")
	k.Set("server.sessionhours", 12)
	k.Set("watch.debounce", "400ms")
	k.Set("logging.format", "json")
	k.Set("logging.level", "info")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	if err := k.Load(env.Provider("REQLINT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "REQLINT_")), "_", ".", -1)
	}), nil); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
