// Package config loads the settings of an ensemble run.
//
// Settings come from compiled-in defaults, then an optional YAML file, then ENSEMBLE_*
// environment variables. Command line flags are applied last by the caller.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-tipping-ensemble/pkg/ensemble"
	"github.com/askiada/go-tipping-ensemble/pkg/sampler"
	"github.com/askiada/go-tipping-ensemble/pkg/schema"
	"github.com/askiada/go-tipping-ensemble/pkg/serializer"
)

// Environment variables read by Load.
const (
	EnvSamples  = "ENSEMBLE_SAMPLES"
	EnvSeed     = "ENSEMBLE_SEED"
	EnvOutDir   = "ENSEMBLE_OUT_DIR"
	EnvLogLevel = "ENSEMBLE_LOG_LEVEL"
)

// DefaultSamples is the ensemble size of the reference design.
const DefaultSamples = 1000

// Config holds every setting of an ensemble run.
type Config struct {
	Samples     int    `yaml:"samples"`
	Seed        int64  `yaml:"seed"`
	Sampler     string `yaml:"sampler"`     // jittered, centered
	Concurrency int    `yaml:"concurrency"` // goroutines assembling members

	LaunchPrefix string `yaml:"launch_prefix"`
	RunIDWidth   int    `yaml:"run_id_width"` // 0 picks the narrowest width that fits

	Schema  SchemaConfig  `yaml:"schema"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Draw is the path of a DOT rendering of the pipeline, empty to skip it.
	Draw string `yaml:"draw"`
}

// SchemaConfig edits the reference schema.
type SchemaConfig struct {
	Exclude    []string                `yaml:"exclude"`
	Ranges     map[string]schema.Range `yaml:"ranges"`
	FixedValue float64                 `yaml:"fixed_value"`
}

// OutputConfig names the files written by a run. Relative names are joined to Dir.
type OutputConfig struct {
	Dir string `yaml:"dir"`
	// Files are the names of the command table. Empty means lhs_no-<excluded>_<N>.txt and
	// latin_sh_file.txt.
	Files  []string `yaml:"files"`
	Values string   `yaml:"values"`
	SQLite string   `yaml:"sqlite"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// MetricsConfig configures the pipeline measurements export.
type MetricsConfig struct {
	// Textfile is written in the Prometheus text format after a successful run.
	Textfile string `yaml:"textfile"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Samples:      DefaultSamples,
		Seed:         0,
		Sampler:      string(sampler.Jittered),
		Concurrency:  1,
		LaunchPrefix: ensemble.DefaultLaunchPrefix,
		Schema: SchemaConfig{
			Exclude:    []string{string(schema.NINO)},
			FixedValue: schema.DefaultFixedValue,
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)

		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrap(err, "failed to read config")
		default:
			err = yaml.Unmarshal(data, cfg)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse config %s", path)
			}
		}
	}

	err := cfg.applyEnvOverrides()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvSamples); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ensemble.NewConfigurationError("env "+EnvSamples, errors.Wrapf(err, "parse %q", v))
		}

		c.Samples = n
	}

	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ensemble.NewConfigurationError("env "+EnvSeed, errors.Wrapf(err, "parse %q", v))
		}

		c.Seed = seed
	}

	if v := os.Getenv(EnvOutDir); v != "" {
		c.Output.Dir = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}

	return nil
}

// Validate checks the settings that do not need the schema.
func (c *Config) Validate() error {
	if c.Samples < 0 {
		return ensemble.NewConfigurationError("validate config", errors.Errorf("samples must not be negative, got %d", c.Samples))
	}

	if c.Concurrency < 1 {
		return ensemble.NewConfigurationError("validate config", errors.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}

	if c.RunIDWidth < 0 {
		return ensemble.NewConfigurationError("validate config", errors.Errorf("run id width must not be negative, got %d", c.RunIDWidth))
	}

	_, err := sampler.ParseMode(c.Sampler)
	if err != nil {
		return ensemble.NewConfigurationError("validate config", err)
	}

	_, err = zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return ensemble.NewConfigurationError("validate config", errors.Wrap(err, "logging level"))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return ensemble.NewConfigurationError("validate config", errors.Errorf("unknown logging format %q", c.Logging.Format))
	}

	return nil
}

// Excluded returns the excluded elements, upper-cased.
func (c *Config) Excluded() []schema.Element {
	out := make([]schema.Element, 0, len(c.Schema.Exclude))
	for _, el := range c.Schema.Exclude {
		out = append(out, schema.Element(strings.ToUpper(strings.TrimSpace(el))))
	}

	return out
}

// Definition returns the reference schema definition edited by the schema settings.
func (c *Config) Definition() (schema.Definition, error) {
	def := schema.ReferenceDefinition().WithExclude(c.Excluded()...)
	def.FixedValue = c.Schema.FixedValue

	if len(c.Schema.Ranges) == 0 {
		return def, nil
	}

	def, err := def.WithRanges(c.Schema.Ranges)
	if err != nil {
		return schema.Definition{}, ensemble.NewConfigurationError("schema ranges", err)
	}

	return def, nil
}

// CommandPaths returns the paths the command table is written to.
func (c *Config) CommandPaths(excluded []schema.Element) []string {
	names := c.Output.Files
	if len(names) == 0 {
		names = serializer.DefaultCommandFiles(excluded, c.Samples)
	}

	out := make([]string, len(names))
	for i, name := range names {
		out[i] = c.path(name)
	}

	return out
}

// ValuesPath returns the path of the values table, empty when disabled.
func (c *Config) ValuesPath() string {
	return c.path(c.Output.Values)
}

// SQLitePath returns the path of the SQLite database, empty when disabled.
func (c *Config) SQLitePath() string {
	return c.path(c.Output.SQLite)
}

func (c *Config) path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.Output.Dir, name)
}
