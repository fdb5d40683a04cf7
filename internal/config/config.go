// Package config loads payrecon settings from a YAML file and the
// environment.
//
// A file is checked against an embedded CUE schema before it is decoded, so
// unknown keys and out-of-range values are rejected with a path to the
// offending field. Values absent from the file keep their defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/roach88/payrecon/internal/gateway/square"
	"github.com/roach88/payrecon/internal/ledger"
)

//go:embed schema.cue
var schemaSource string

// DefaultTokenEnv names the variable holding the gateway access token.
const DefaultTokenEnv = "SQUARE_ACCESS_TOKEN"

// Config is the full set of settings.
type Config struct {
	Database  string          `yaml:"database"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
}

// LedgerConfig selects the authoritative ledger.
type LedgerConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// GatewayConfig configures the Square client.
type GatewayConfig struct {
	BaseURL        string   `yaml:"base_url"`
	AccessTokenEnv string   `yaml:"access_token_env"`
	SquareVersion  string   `yaml:"square_version"`
	LocationID     string   `yaml:"location_id"`
	Timeout        Duration `yaml:"timeout"`
}

// ReconcileConfig holds reconcile run defaults.
type ReconcileConfig struct {
	BatchSize int  `yaml:"batch_size"`
	OnlyNew   bool `yaml:"only_new"`
}

// ScheduleConfig holds cron expressions for the schedule command.
type ScheduleConfig struct {
	Ingest    string `yaml:"ingest"`
	Reconcile string `yaml:"reconcile"`
	Purge     string `yaml:"purge"`
}

// Duration is a time.Duration written as "30s" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Database: "payrecon.db",
		Ledger: LedgerConfig{
			Driver: ledger.DriverSQLite,
			DSN:    "ledger.db",
		},
		Gateway: GatewayConfig{
			BaseURL:        square.ProductionURL,
			AccessTokenEnv: DefaultTokenEnv,
			SquareVersion:  square.DefaultVersion,
			Timeout:        Duration(30 * time.Second),
		},
		Reconcile: ReconcileConfig{
			BatchSize: 100,
		},
		Schedule: ScheduleConfig{
			Ingest:    "@every 1h",
			Reconcile: "@every 1h",
			Purge:     "@daily",
		},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates data against the schema and decodes it into cfg.
// Fields absent from data are left as they are in cfg.
func Parse(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		return nil
	}
	if err := validateSchema(raw); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return cfg.Validate()
}

func validateSchema(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %s", cueerrors.Details(err, nil))
	}
	return nil
}

// Validate checks constraints the schema cannot express.
func (c Config) Validate() error {
	if c.Gateway.Timeout < 0 {
		return errors.New("gateway.timeout must not be negative")
	}
	for name, spec := range map[string]string{
		"schedule.ingest":    c.Schedule.Ingest,
		"schedule.reconcile": c.Schedule.Reconcile,
		"schedule.purge":     c.Schedule.Purge,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// LoadEnv loads .env files into the process environment. Missing files are
// skipped and variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// AccessToken returns the gateway token from the configured variable.
func (c Config) AccessToken() (string, error) {
	name := c.Gateway.AccessTokenEnv
	if name == "" {
		name = DefaultTokenEnv
	}
	token := os.Getenv(name)
	if token == "" {
		return "", fmt.Errorf("gateway access token: %s is not set", name)
	}
	return token, nil
}
