// Package config loads the middleware's server-side configuration document:
// the set of NiFi servers callers may select between, the expert-help LLM
// provider settings, and the workflow execution limits.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NiFiServer describes one configured NiFi REST endpoint callers can select
// via the X-Nifi-Server-Id header.
type NiFiServer struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TLSVerify   bool   `yaml:"tls_verify"`
}

// ExpertHelp configures the optional LLM-backed expert-help tool, which
// calls the provider's HTTP completion endpoint itself (see
// internal/tools) with these provider/model identifiers and API key.
type ExpertHelp struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// Workflow bounds guided-workflow execution.
type Workflow struct {
	// ActionCeiling is the maximum number of tool calls a single workflow
	// node may make before it is terminated with action_limit_exceeded.
	ActionCeiling int `yaml:"action_ceiling"`
	// RetryAttempts is loaded and validated here; no other package reads
	// it, so workflow nodes are not retried on its account.
	RetryAttempts int `yaml:"retry_attempts"`
}

// Telemetry selects and configures the structured-logging/tracing backend.
type Telemetry struct {
	// Backend is "slog" (default, log/slog to stdout) or "clue"
	// (goa.design/clue/log, the teacher repo's own logging dependency).
	Backend string `yaml:"backend"`
	// Debug enables clue's verbose debug-level logging. Ignored by the
	// slog backend, which always logs at slog's default levels.
	Debug bool `yaml:"debug"`
}

// Config is the fully resolved, validated configuration document.
type Config struct {
	ListenAddr  string       `yaml:"listen_addr"`
	NiFiServers []NiFiServer `yaml:"nifi_servers"`
	ExpertHelp  ExpertHelp   `yaml:"expert_help"`
	Workflow    Workflow     `yaml:"workflow"`
	Telemetry   Telemetry    `yaml:"telemetry"`
}

// defaults mirror the values the original implementation falls back to
// when no override is present (spec.md §4.I, §6).
func defaults() Config {
	return Config{
		ListenAddr: ":8000",
		Workflow: Workflow{
			ActionCeiling: 10,
			RetryAttempts: 1,
		},
		Telemetry: Telemetry{
			Backend: "slog",
		},
	}
}

// Load reads the YAML document at path (if it exists) and layers
// environment variable overrides on top of it using the NIFIMCP_ prefix,
// e.g. NIFIMCP_LISTEN_ADDR, NIFIMCP_WORKFLOW_ACTION_CEILING. A missing file
// is not an error: the defaults plus any environment overrides are used.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if uerr := yaml.Unmarshal(data, &cfg); uerr != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, uerr)
			}
		case os.IsNotExist(err):
			// fall through to defaults + env
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("nifimcp")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.IsSet("listen_addr") {
		cfg.ListenAddr = v.GetString("listen_addr")
	}
	if v.IsSet("workflow_action_ceiling") {
		cfg.Workflow.ActionCeiling = v.GetInt("workflow_action_ceiling")
	}
	if v.IsSet("workflow_retry_attempts") {
		cfg.Workflow.RetryAttempts = v.GetInt("workflow_retry_attempts")
	}
	if v.IsSet("expert_help_api_key") {
		cfg.ExpertHelp.APIKey = v.GetString("expert_help_api_key")
	}
	if v.IsSet("expert_help_provider") {
		cfg.ExpertHelp.Provider = v.GetString("expert_help_provider")
	}
	if v.IsSet("expert_help_model") {
		cfg.ExpertHelp.Model = v.GetString("expert_help_model")
	}
	if v.IsSet("telemetry_backend") {
		cfg.Telemetry.Backend = v.GetString("telemetry_backend")
	}
	if v.IsSet("telemetry_debug") {
		cfg.Telemetry.Debug = v.GetBool("telemetry_debug")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the structural invariants the rest of the middleware
// assumes: at least one NiFi server, unique ids, positive workflow limits.
func (c Config) Validate() error {
	if len(c.NiFiServers) == 0 {
		return fmt.Errorf("config: at least one nifi_servers entry is required")
	}
	seen := make(map[string]bool, len(c.NiFiServers))
	for _, s := range c.NiFiServers {
		if s.ID == "" {
			return fmt.Errorf("config: nifi_servers entry missing id")
		}
		if seen[s.ID] {
			return fmt.Errorf("config: duplicate nifi_servers id %q", s.ID)
		}
		seen[s.ID] = true
		if s.URL == "" {
			return fmt.Errorf("config: nifi_servers[%s] missing url", s.ID)
		}
	}
	if c.Workflow.ActionCeiling <= 0 {
		return fmt.Errorf("config: workflow.action_ceiling must be positive")
	}
	if c.Workflow.RetryAttempts < 0 {
		return fmt.Errorf("config: workflow.retry_attempts must not be negative")
	}
	if c.Telemetry.Backend != "slog" && c.Telemetry.Backend != "clue" {
		return fmt.Errorf("config: telemetry.backend must be \"slog\" or \"clue\", got %q", c.Telemetry.Backend)
	}
	return nil
}

// Find returns the NiFi server entry with the given id, if configured.
func (c Config) Find(id string) (NiFiServer, bool) {
	for _, s := range c.NiFiServers {
		if s.ID == id {
			return s, true
		}
	}
	return NiFiServer{}, false
}
