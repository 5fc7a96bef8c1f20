// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config path.
const EnvVar = "TICKWIRE_CONFIG"

// Config is the tickwire-host configuration.
type Config struct {
	Listen ListenConfig `yaml:"listen"`
	Bridge BridgeConfig `yaml:"bridge"`
	Host   HostConfig   `yaml:"host"`
	Ops    OpsConfig    `yaml:"ops"`
	Log    LogConfig    `yaml:"log"`
}

// ListenConfig is the client-facing TCP endpoint.
type ListenConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// BridgeConfig tunes the connection handler.
type BridgeConfig struct {
	// AwaitTimeout bounds how long one request waits for the
	// emulation goroutine.
	AwaitTimeout time.Duration `yaml:"await_timeout"`

	// TimeoutReplyEchoesID makes timeout replies carry the request id.
	// Off by default: existing clients expect id 0 on a timeout.
	TimeoutReplyEchoesID bool `yaml:"timeout_reply_echoes_id"`

	// MaxFrameBytes bounds one request line.
	MaxFrameBytes int `yaml:"max_frame_bytes"`
}

// HostConfig is the emulation loop.
type HostConfig struct {
	// TickRate is loop iterations per second.
	TickRate int `yaml:"tick_rate"`

	// ROM, if set, is started free-running at startup.
	ROM string `yaml:"rom"`
}

// OpsConfig is the operator socket. An empty SocketPath disables it.
type OpsConfig struct {
	SocketPath string `yaml:"socket_path"`
}

// LogConfig selects the daemon's slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Address: "127.0.0.1", Port: 12345},
		Bridge: BridgeConfig{
			AwaitTimeout:  30 * time.Second,
			MaxFrameBytes: 64 * 1024,
		},
		Host: HostConfig{TickRate: 60},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// Resolve picks the config file (flagPath, then $TICKWIRE_CONFIG),
// loads it over the defaults and validates the result. With no file
// named it returns the validated defaults.
func Resolve(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return LoadFile(path)
}

// LoadFile loads path over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension (want .yaml, .yml, .json or .jsonc)", path)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddress returns the TCP listen address as host:port.
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.Listen.Address, strconv.Itoa(c.Listen.Port))
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		errs = append(errs, fmt.Errorf("listen.port must be 1-65535, got %d", c.Listen.Port))
	}
	if c.Bridge.AwaitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("bridge.await_timeout must be positive, got %v", c.Bridge.AwaitTimeout))
	}
	if c.Bridge.MaxFrameBytes < 256 {
		errs = append(errs, fmt.Errorf("bridge.max_frame_bytes must be at least 256, got %d", c.Bridge.MaxFrameBytes))
	}
	if c.Host.TickRate < 1 || c.Host.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("host.tick_rate must be 1-1000, got %d", c.Host.TickRate))
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %v, got %q", logLevels, c.Log.Level))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of %v, got %q", logFormats, c.Log.Format))
	}

	return errors.Join(errs...)
}

// NewLogger builds the daemon logger described by the log section.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	options := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, options))
	}
	return slog.New(slog.NewTextHandler(w, options))
}

func (c *Config) expandVariables() {
	c.Host.ROM = expandVars(c.Host.ROM)
	c.Ops.SocketPath = expandVars(c.Ops.SocketPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}
