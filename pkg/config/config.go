package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Supported model providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Policies for string tool input that is not a JSON object.
const (
	UnparsedDrop   = "drop"
	UnparsedReject = "reject"
)

// EnvPrefix scopes environment overrides, e.g. BROWSER_AGENT_MCP_SERVER_URL.
const EnvPrefix = "BROWSER_AGENT"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "config.yaml"

// Config holds all runtime configuration for the agent.
type Config struct {
	Model     ModelConfig     `mapstructure:"model" yaml:"model"`
	MCPServer MCPServerConfig `mapstructure:"mcp_server" yaml:"mcp_server"`
	Agent     AgentConfig     `mapstructure:"agent" yaml:"agent"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
}

// ModelConfig selects and tunes the language model.
type ModelConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	Name              string        `mapstructure:"name" yaml:"name"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	RetryMaxElapsed   time.Duration `mapstructure:"retry_max_elapsed" yaml:"retry_max_elapsed"`
}

// MCPServerConfig points at the remote automation server.
type MCPServerConfig struct {
	URL              string        `mapstructure:"url" yaml:"url"`
	CallTimeout      time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
	DiscoveryTimeout time.Duration `mapstructure:"discovery_timeout" yaml:"discovery_timeout"`
	UnparsedInput    string        `mapstructure:"unparsed_input" yaml:"unparsed_input"`
}

// AgentConfig bounds the reasoning loop.
type AgentConfig struct {
	MaxIterations       int           `mapstructure:"max_iterations" yaml:"max_iterations"`
	MaxExecutionTime    time.Duration `mapstructure:"max_execution_time" yaml:"max_execution_time"`
	HandleParsingErrors bool          `mapstructure:"handle_parsing_errors" yaml:"handle_parsing_errors"`
	PromptFile          string        `mapstructure:"prompt_file" yaml:"prompt_file,omitempty"`
}

// LoggerConfig configures the zap logger and its optional rotating file.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file,omitempty"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// SessionConfig controls conversation persistence.
type SessionConfig struct {
	// TranscriptPath is a sqlite file; empty disables persistence.
	TranscriptPath string `mapstructure:"transcript_path" yaml:"transcript_path,omitempty"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", ProviderGemini)
	v.SetDefault("model.name", "gemini-2.5-flash")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.temperature", 0)
	v.SetDefault("model.timeout", "120s")
	v.SetDefault("model.requests_per_minute", 30)
	v.SetDefault("model.retry_max_elapsed", "2m")

	v.SetDefault("mcp_server.url", "http://localhost:3000")
	v.SetDefault("mcp_server.call_timeout", "60s")
	v.SetDefault("mcp_server.discovery_timeout", "10s")
	v.SetDefault("mcp_server.unparsed_input", UnparsedDrop)

	v.SetDefault("agent.max_iterations", 50)
	v.SetDefault("agent.max_execution_time", "900s")
	v.SetDefault("agent.handle_parsing_errors", true)
	v.SetDefault("agent.prompt_file", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)

	v.SetDefault("session.transcript_path", "")
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("unmarshal default config: %v", err))
	}
	return cfg
}

// Load reads path (or ./config.yaml when path is empty), applies
// BROWSER_AGENT_* environment overrides and resolves the provider API key.
// A missing default file is not an error; a missing explicit path is.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultFile, filepath.Ext(DefaultFile)))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if strings.TrimSpace(cfg.Model.APIKey) == "" {
		cfg.Model.APIKey = os.Getenv(APIKeyEnv(cfg.Model.Provider))
	}
	return Normalize(cfg), nil
}

// APIKeyEnv names the environment variable holding the provider's key.
func APIKeyEnv(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	defaults := DefaultConfig()

	cfg.Model.Provider = strings.ToLower(strings.TrimSpace(cfg.Model.Provider))
	cfg.Model.Name = strings.TrimSpace(cfg.Model.Name)
	cfg.Model.APIKey = strings.TrimSpace(cfg.Model.APIKey)
	cfg.Model.BaseURL = strings.TrimSpace(cfg.Model.BaseURL)
	if cfg.Model.Provider == "" {
		cfg.Model.Provider = defaults.Model.Provider
	}
	if cfg.Model.Timeout <= 0 {
		cfg.Model.Timeout = defaults.Model.Timeout
	}

	cfg.MCPServer.URL = strings.TrimSpace(cfg.MCPServer.URL)
	cfg.MCPServer.UnparsedInput = strings.ToLower(strings.TrimSpace(cfg.MCPServer.UnparsedInput))
	if cfg.MCPServer.UnparsedInput == "" {
		cfg.MCPServer.UnparsedInput = defaults.MCPServer.UnparsedInput
	}

	if cfg.Agent.MaxIterations <= 0 {
		cfg.Agent.MaxIterations = 1
	}
	cfg.Agent.PromptFile = strings.TrimSpace(cfg.Agent.PromptFile)

	cfg.Logger.Level = strings.ToLower(strings.TrimSpace(cfg.Logger.Level))
	cfg.Logger.Format = strings.ToLower(strings.TrimSpace(cfg.Logger.Format))
	cfg.Logger.LogFile = strings.TrimSpace(cfg.Logger.LogFile)
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = defaults.Logger.Level
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = defaults.Logger.Format
	}

	cfg.Session.TranscriptPath = strings.TrimSpace(cfg.Session.TranscriptPath)
	return cfg
}

// Validate reports the first invalid setting. The API key is checked
// separately by ValidateModel because offline commands do not need it.
func (c Config) Validate() error {
	switch c.Model.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("model.provider must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.Model.Provider)
	}
	if c.Model.Name == "" {
		return errors.New("model.name is required")
	}
	if c.Model.RequestsPerMinute < 0 {
		return errors.New("model.requests_per_minute must not be negative")
	}

	if c.MCPServer.URL == "" {
		return errors.New("mcp_server.url is required")
	}
	u, err := url.Parse(c.MCPServer.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("mcp_server.url must be an absolute http(s) URL, got %q", c.MCPServer.URL)
	}
	if c.MCPServer.CallTimeout < 0 || c.MCPServer.DiscoveryTimeout < 0 {
		return errors.New("mcp_server timeouts must not be negative")
	}
	switch c.MCPServer.UnparsedInput {
	case UnparsedDrop, UnparsedReject:
	default:
		return fmt.Errorf("mcp_server.unparsed_input must be %q or %q, got %q", UnparsedDrop, UnparsedReject, c.MCPServer.UnparsedInput)
	}

	if c.Agent.MaxExecutionTime < 0 {
		return errors.New("agent.max_execution_time must not be negative")
	}

	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}
	return nil
}

// ValidateModel checks what a live model call needs on top of Validate.
func (c Config) ValidateModel() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Model.APIKey == "" {
		return fmt.Errorf("%s is not set", APIKeyEnv(c.Model.Provider))
	}
	return nil
}

// WriteFile renders cfg as YAML at path. Secrets are never written; an
// existing file is kept unless overwrite is set.
func WriteFile(path string, cfg Config, overwrite bool) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := yaml.Marshal(newDocument(cfg))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// document is the on-disk shape of Config: durations are written as text
// ("60s") so the file stays editable.
type document struct {
	Model struct {
		Provider          string  `yaml:"provider"`
		Name              string  `yaml:"name"`
		BaseURL           string  `yaml:"base_url,omitempty"`
		Temperature       float32 `yaml:"temperature"`
		Timeout           string  `yaml:"timeout"`
		RequestsPerMinute int     `yaml:"requests_per_minute"`
		RetryMaxElapsed   string  `yaml:"retry_max_elapsed"`
	} `yaml:"model"`
	MCPServer struct {
		URL              string `yaml:"url"`
		CallTimeout      string `yaml:"call_timeout"`
		DiscoveryTimeout string `yaml:"discovery_timeout"`
		UnparsedInput    string `yaml:"unparsed_input"`
	} `yaml:"mcp_server"`
	Agent struct {
		MaxIterations       int    `yaml:"max_iterations"`
		MaxExecutionTime    string `yaml:"max_execution_time"`
		HandleParsingErrors bool   `yaml:"handle_parsing_errors"`
		PromptFile          string `yaml:"prompt_file,omitempty"`
	} `yaml:"agent"`
	Logger  LoggerConfig  `yaml:"logger"`
	Session SessionConfig `yaml:"session"`
}

func newDocument(cfg Config) document {
	var d document
	d.Model.Provider = cfg.Model.Provider
	d.Model.Name = cfg.Model.Name
	d.Model.BaseURL = cfg.Model.BaseURL
	d.Model.Temperature = cfg.Model.Temperature
	d.Model.Timeout = cfg.Model.Timeout.String()
	d.Model.RequestsPerMinute = cfg.Model.RequestsPerMinute
	d.Model.RetryMaxElapsed = cfg.Model.RetryMaxElapsed.String()

	d.MCPServer.URL = cfg.MCPServer.URL
	d.MCPServer.CallTimeout = cfg.MCPServer.CallTimeout.String()
	d.MCPServer.DiscoveryTimeout = cfg.MCPServer.DiscoveryTimeout.String()
	d.MCPServer.UnparsedInput = cfg.MCPServer.UnparsedInput

	d.Agent.MaxIterations = cfg.Agent.MaxIterations
	d.Agent.MaxExecutionTime = cfg.Agent.MaxExecutionTime.String()
	d.Agent.HandleParsingErrors = cfg.Agent.HandleParsingErrors
	d.Agent.PromptFile = cfg.Agent.PromptFile

	d.Logger = cfg.Logger
	d.Session = cfg.Session
	return d
}
