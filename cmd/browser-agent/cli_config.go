package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	configpkg "github.com/minhyannv/browser-agent-go/pkg/config"
	loggerpkg "github.com/minhyannv/browser-agent-go/pkg/logger"
	"github.com/minhyannv/browser-agent-go/pkg/mcp"
)

// cliOptions holds the persistent flags shared by every command.
type cliOptions struct {
	configPath string
	envFile    string
	verbose    bool
}

// loadCLIConfig loads .env, then the config file and environment overrides,
// and builds the logger.
func loadCLIConfig(opts cliOptions, stderr io.Writer) (configpkg.Config, *zap.Logger, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil {
			return configpkg.Config{}, nil, fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := configpkg.Load(opts.configPath)
	if err != nil {
		return configpkg.Config{}, nil, err
	}
	if opts.verbose {
		cfg.Logger.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return configpkg.Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := loggerpkg.New(cfg.Logger, stderr)
	if err != nil {
		return configpkg.Config{}, nil, err
	}
	return cfg, logger, nil
}

// keyValueFlag supports repeatable --arg key=value flags. Values that parse
// as JSON keep their type; anything else is a string.
type keyValueFlag struct {
	args mcp.Arguments
}

func (f *keyValueFlag) String() string {
	if f == nil || len(f.args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f.args))
	for k := range f.args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, f.args[k]))
	}
	return strings.Join(parts, ",")
}

func (f *keyValueFlag) Set(value string) error {
	key, raw, ok := strings.Cut(value, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	if f.args == nil {
		f.args = mcp.Arguments{}
	}
	f.args[key] = parseFlagValue(raw)
	return nil
}

func (f *keyValueFlag) Type() string { return "key=value" }

func (f *keyValueFlag) values() mcp.Arguments {
	out := make(mcp.Arguments, len(f.args))
	for k, v := range f.args {
		out[k] = v
	}
	return out
}

func parseFlagValue(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}
