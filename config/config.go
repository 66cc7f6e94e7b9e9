// Package config loads the settings for proposal-anchor and the content
// store daemon.
//
// Configuration comes from an optional YAML file, selected with --config or
// ANCHOR_CONFIG, followed by a fixed set of environment overrides. Nothing
// is read implicitly after Load returns: callers pass the resulting Config
// to each component they construct.
//
// Validate reports every problem at once, before any network access, so a
// bad setting never surfaces halfway through anchoring.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/decred/slog"
	"gopkg.in/yaml.v3"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/anchor"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/storeconfig"
)

// Environment variables read by Load.
const (
	EnvConfig            = "ANCHOR_CONFIG"
	EnvBlockfrostKey     = "BLOCKFROST_API_KEY"
	EnvBlockfrostNetwork = "BLOCKFROST_NETWORK"
	EnvMetadataLabel     = "METADATA_LABEL"
	EnvKeyFile           = "ANCHOR_KEY_FILE"
	EnvLedger            = "ANCHOR_LEDGER"
	EnvDevnetPath        = "ANCHOR_DEVNET_PATH"
	EnvLogLevel          = "ANCHOR_LOG_LEVEL"
)

// Ledger kinds.
const (
	LedgerBlockfrost = "blockfrost"
	LedgerDevnet     = "devnet"
)

// Config is the complete configuration.
type Config struct {
	// Network is mainnet, preprod or preview.
	Network string `yaml:"network"`

	Ledger  LedgerConfig       `yaml:"ledger"`
	Key     KeyConfig          `yaml:"key"`
	Anchor  AnchorConfig       `yaml:"anchor"`
	Storage storeconfig.Config `yaml:"storage"`
	Log     LogConfig          `yaml:"log"`
}

// LedgerConfig selects and configures the ledger adapter.
type LedgerConfig struct {
	// Kind is "blockfrost" or "devnet".
	Kind       string           `yaml:"kind"`
	Blockfrost BlockfrostConfig `yaml:"blockfrost"`
	Devnet     DevnetConfig     `yaml:"devnet"`
}

type BlockfrostConfig struct {
	// ProjectID authenticates requests. Usually supplied through
	// BLOCKFROST_API_KEY rather than the file.
	ProjectID string `yaml:"project_id"`
	// BaseURL overrides the API root for Network.
	BaseURL string `yaml:"base_url,omitempty"`
	// Timeout bounds each HTTP request.
	// Default: 30s
	Timeout string `yaml:"timeout,omitempty"`
}

type DevnetConfig struct {
	// Path is the database directory. Empty keeps the ledger in memory,
	// which only lasts for one command.
	Path string `yaml:"path"`
	// Params overrides the protocol parameters of a new devnet.
	Params *ledger.Params `yaml:"params,omitempty"`
}

type KeyConfig struct {
	// File holds the payment signing key.
	File string `yaml:"file"`
}

type AnchorConfig struct {
	// Label is the metadata label anchor records are written to and read
	// from.
	Label uint64 `yaml:"metadata_label"`
	// Selection is "all" or "largest-first".
	Selection string `yaml:"input_selection"`
	// Retry bounds resubmission after transient failures.
	Retry RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

type LogConfig struct {
	// Level is one of trace, debug, info, warn, error, critical, off.
	Level string `yaml:"level"`
}

// Default returns the configuration used before the file and environment
// are applied.
func Default() *Config {
	return &Config{
		Network: string(ledger.Preprod),
		Ledger: LedgerConfig{
			Kind:       LedgerBlockfrost,
			Blockfrost: BlockfrostConfig{Timeout: "30s"},
		},
		Key: KeyConfig{File: "payment.skey"},
		Anchor: AnchorConfig{
			Label:     anchor.DefaultLabel,
			Selection: anchor.SelectAll.String(),
			Retry: RetryConfig{
				Attempts:   anchor.DefaultRetry.Attempts,
				Backoff:    anchor.DefaultRetry.Backoff.String(),
				MaxBackoff: anchor.DefaultRetry.MaxBackoff.String(),
			},
		},
		Storage: storeconfig.Config{
			Backends: []storeconfig.BackendConfig{{
				Name:   "localfs",
				Config: map[string]string{"localfs-dir": "anchor-store"},
			}},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from the file at path, when path is not
// empty, and then the environment as reported by getenv. A nil getenv
// reads the process environment.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the config file named by flag, or else by ANCHOR_CONFIG.
func Path(flag string, getenv func(string) string) string {
	if flag != "" {
		return flag
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	return getenv(EnvConfig)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	// Backends listed in the file replace the default list.
	var probe struct {
		Storage *storeconfig.Config `yaml:"storage"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	if probe.Storage != nil {
		c.Storage = storeconfig.Config{}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvBlockfrostKey); v != "" {
		c.Ledger.Blockfrost.ProjectID = v
	}
	if v := getenv(EnvBlockfrostNetwork); v != "" {
		c.Network = v
	}
	if v := getenv(EnvMetadataLabel); v != "" {
		label, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvMetadataLabel, err)
		}
		c.Anchor.Label = label
	}
	if v := getenv(EnvKeyFile); v != "" {
		c.Key.File = v
	}
	if v := getenv(EnvLedger); v != "" {
		c.Ledger.Kind = v
	}
	if v := getenv(EnvDevnetPath); v != "" {
		c.Ledger.Devnet.Path = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Operation names what the configuration is about to be used for; each
// needs a different subset of settings.
type Operation int

const (
	// OpAnchor stores content and submits transactions.
	OpAnchor Operation = iota
	// OpVerify reads metadata and content.
	OpVerify
	// OpStatus inspects the key and ledger without writing. A missing key
	// file is reported by the status checks rather than by Validate.
	OpStatus
	// OpStore only touches content stores.
	OpStore
)

// Problem is one invalid setting.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string { return p.Field + ": " + p.Message }

// Report lists every problem found by Validate.
type Report struct {
	Problems []Problem `json:"problems"`
}

// OK reports whether no problems were found.
func (r Report) OK() bool { return len(r.Problems) == 0 }

// Err returns nil for an empty report and a *ReportError otherwise.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return &ReportError{Report: r}
}

func (r *Report) add(field, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ReportError carries a failed validation.
type ReportError struct {
	Report Report
}

func (e *ReportError) Error() string {
	parts := make([]string, len(e.Report.Problems))
	for i, p := range e.Report.Problems {
		parts[i] = p.String()
	}
	return "config: " + strings.Join(parts, "; ")
}

// Validate checks the settings op needs.
func (c *Config) Validate(op Operation) Report {
	var r Report

	net, err := ledger.ParseNetwork(c.Network)
	if err != nil {
		r.add("network", "must be one of mainnet, preprod, preview; got %q", c.Network)
	}

	if op != OpStore {
		switch c.Ledger.Kind {
		case LedgerBlockfrost:
			bf := c.Ledger.Blockfrost
			if bf.ProjectID == "" {
				r.add("ledger.blockfrost.project_id", "is required (set %s)", EnvBlockfrostKey)
			} else if err == nil && !projectMatches(bf.ProjectID, net) {
				r.add("ledger.blockfrost.project_id", "belongs to another network than %s", net)
			}
			if bf.Timeout != "" {
				if _, err := time.ParseDuration(bf.Timeout); err != nil {
					r.add("ledger.blockfrost.timeout", "%v", err)
				}
			}
		case LedgerDevnet:
			if p := c.Ledger.Devnet.Params; p != nil {
				if err := p.Validate(); err != nil {
					r.add("ledger.devnet.params", "%v", err)
				}
			}
		default:
			r.add("ledger.kind", "must be %q or %q; got %q", LedgerBlockfrost, LedgerDevnet, c.Ledger.Kind)
		}
	}

	if op == OpAnchor || op == OpStatus {
		if c.Key.File == "" {
			r.add("key.file", "is required (set %s)", EnvKeyFile)
		} else if _, err := os.Stat(c.Key.File); err != nil && op == OpAnchor {
			r.add("key.file", "%v", err)
		}
	}

	if op == OpAnchor || op == OpVerify {
		if c.Anchor.Label == 0 {
			r.add("anchor.metadata_label", "must be positive")
		}
	}

	if op == OpAnchor {
		if _, err := anchor.ParseSelection(c.Anchor.Selection); err != nil {
			r.add("anchor.input_selection", "%v", err)
		}
		rc := c.Anchor.Retry
		if rc.Attempts < 1 {
			r.add("anchor.retry.attempts", "must be at least 1")
		}
		for field, v := range map[string]string{"anchor.retry.backoff": rc.Backoff, "anchor.retry.max_backoff": rc.MaxBackoff} {
			if v == "" {
				continue
			}
			if d, err := time.ParseDuration(v); err != nil || d < 0 {
				r.add(field, "invalid duration %q", v)
			}
		}
	}

	if op != OpStatus {
		if err := c.Storage.Validate(); err != nil {
			r.add("storage", "%v", err)
		}
	}

	if _, ok := slog.LevelFromString(c.Log.Level); !ok {
		r.add("log.level", "unknown level %q", c.Log.Level)
	}

	// Map iteration above makes problem order vary; keep reports stable.
	sortProblems(r.Problems)
	return r
}

func sortProblems(ps []Problem) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && ps[j].Field < ps[j-1].Field; j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
}

// Blockfrost project ids start with the network they were issued for.
func projectMatches(projectID string, net ledger.Network) bool {
	for _, n := range ledger.Networks {
		if strings.HasPrefix(projectID, string(n)) {
			return n == net
		}
	}
	return true
}

// ParsedNetwork returns the configured network. Call Validate first.
func (c *Config) ParsedNetwork() ledger.Network {
	n, _ := ledger.ParseNetwork(c.Network)
	return n
}

// RetryPolicy returns the anchoring retry settings. Call Validate first.
func (c *Config) RetryPolicy() anchor.Retry {
	rc := c.Anchor.Retry
	r := anchor.Retry{Attempts: rc.Attempts}
	r.Backoff, _ = time.ParseDuration(rc.Backoff)
	r.MaxBackoff, _ = time.ParseDuration(rc.MaxBackoff)
	return r
}

// InputSelection returns the configured selection. Call Validate first.
func (c *Config) InputSelection() anchor.Selection {
	s, _ := anchor.ParseSelection(c.Anchor.Selection)
	return s
}

// BlockfrostTimeout returns the request timeout, or zero for the client
// default.
func (c *Config) BlockfrostTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Ledger.Blockfrost.Timeout)
	return d
}

// LogLevel returns the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	lvl, ok := slog.LevelFromString(c.Log.Level)
	if !ok {
		return slog.LevelInfo
	}
	return lvl
}

var errNoKeyFile = errors.New("config: no key file configured")

// KeyFile returns the configured key path.
func (c *Config) KeyFile() (string, error) {
	if c.Key.File == "" {
		return "", errNoKeyFile
	}
	return c.Key.File, nil
}
