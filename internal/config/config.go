// ABOUTME: Configuration loading and parsing for the agent client.
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Console ConsoleConfig `yaml:"console"`
	Stream  StreamConfig  `yaml:"stream"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds agent server endpoint configuration.
type ServerConfig struct {
	// BaseURL is the agent server root, e.g. "http://localhost:8000".
	BaseURL string `yaml:"base_url"`
	// StreamPath is the SSE endpoint path.
	StreamPath string `yaml:"stream_path"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// Token is the bearer token; env var and token file are consulted when empty.
	Token string `yaml:"token"`
}

// ConsoleConfig holds interactive console behavior.
type ConsoleConfig struct {
	// PauseEachStep asks the server to pause after every step.
	PauseEachStep bool `yaml:"pause_each_step"`
	// ShowToolArguments prints tool call arguments inline.
	ShowToolArguments bool `yaml:"show_tool_arguments"`
}

// StreamConfig holds stream transport timing configuration.
type StreamConfig struct {
	ConnectTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	ConnectTimeoutRaw string `yaml:"connect_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:    "http://localhost:8000",
			StreamPath: "/api/coding-agent/stream",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Path returns the config file location.
// Priority: AGENT_CLIENT_CONFIG env var > XDG_CONFIG_HOME/agent-web-client/config.yaml
// > ~/.config/agent-web-client/config.yaml
func Path() string {
	if envPath := os.Getenv("AGENT_CLIENT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "agent-web-client", "config.yaml")
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Server.StreamPath == "" {
		return fmt.Errorf("server.stream_path is required")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Stream.ConnectTimeoutRaw != "" {
		cfg.Stream.ConnectTimeout, err = time.ParseDuration(cfg.Stream.ConnectTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing connect_timeout %q: %w", cfg.Stream.ConnectTimeoutRaw, err)
		}
	}

	return nil
}
