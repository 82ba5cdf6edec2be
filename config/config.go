package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputConfig controls how data files are written.
type OutputConfig struct {
	DataDir       string `yaml:"data_dir"`
	ByteOrder     string `yaml:"byte_order"` // "native", "little" or "big"
	Lock          bool   `yaml:"lock"`
	LockTimeout   string `yaml:"lock_timeout"`
	Sync          bool   `yaml:"sync"`
	RemoveOnError bool   `yaml:"remove_on_error"`
	SizeHintBytes int64  `yaml:"size_hint_bytes"`

	// DebugFiles logs every sink open, write failure and close.
	DebugFiles bool `yaml:"debug_files"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stdout", "stderr", "file", "none"
	File   string `yaml:"file"`   // Path to the log file, used if output is "file"
	Format string `yaml:"format"` // "auto", "text" or "json"
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // e.g., "localhost:4317" for gRPC OTLP collector
	Protocol string `yaml:"protocol"` // "grpc" or "http"
}

// Package kinds.
const (
	KindStrings = "strings"
	KindLookup  = "lookup"
)

// PackageConfig describes one data file to build.
type PackageConfig struct {
	Kind          string `yaml:"kind"`
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Dir           string `yaml:"dir"` // overrides output.data_dir
	Source        string `yaml:"source"`
	Comment       string `yaml:"comment"`
	Format        string `yaml:"format"` // 4-character data format signature
	Compression   string `yaml:"compression"`
	FormatVersion string `yaml:"format_version"` // dotted, e.g. "1.0"
	DataVersion   string `yaml:"data_version"`
}

// Config is the top-level configuration struct.
type Config struct {
	Output   OutputConfig    `yaml:"output"`
	Logging  LoggingConfig   `yaml:"logging"`
	Tracing  TracingConfig   `yaml:"tracing"`
	Packages []PackageConfig `yaml:"packages"`
}

// ParseDuration parses a duration string. Returns the default duration if the string is empty or invalid.
// Logs a warning if the string is invalid but not empty.
func ParseDuration(durationStr string, defaultDuration time.Duration, logger *slog.Logger) time.Duration {
	if durationStr == "" || durationStr == "0" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		if logger != nil {
			logger.Warn("Invalid duration format, using default", "input", durationStr, "default", defaultDuration.String(), "error", err)
		}
		return defaultDuration
	}
	return d
}

// ParseByteOrder maps a byte_order setting to a binary.ByteOrder.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native":
		return binary.NativeEndian, nil
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", s)
	}
}

// ParseVersion parses a dotted version of up to four components, each
// 0-255, e.g. "2.1" -> {2, 1, 0, 0}.
func ParseVersion(s string) ([4]byte, error) {
	var v [4]byte
	s = strings.TrimSpace(s)
	if s == "" {
		return v, nil
	}
	parts := strings.Split(s, ".")
	if len(parts) > len(v) {
		return v, fmt.Errorf("version %q has more than %d components", s, len(v))
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return v, fmt.Errorf("invalid version %q: %w", s, err)
		}
		v[i] = byte(n)
	}
	return v, nil
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseByteOrder(c.Output.ByteOrder); err != nil {
		errs = append(errs, fmt.Errorf("output.byte_order: %w", err))
	}
	seen := make(map[string]bool, len(c.Packages))
	for i, p := range c.Packages {
		prefix := fmt.Sprintf("packages[%d]", i)
		switch p.Kind {
		case KindStrings, KindLookup:
		default:
			errs = append(errs, fmt.Errorf("%s.kind: unknown kind %q", prefix, p.Kind))
		}
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if p.Source == "" {
			errs = append(errs, fmt.Errorf("%s.source is required", prefix))
		}
		if p.Format != "" && len(p.Format) != 4 {
			errs = append(errs, fmt.Errorf("%s.format %q must be exactly 4 bytes", prefix, p.Format))
		}
		if _, err := ParseVersion(p.FormatVersion); err != nil {
			errs = append(errs, fmt.Errorf("%s.format_version: %w", prefix, err))
		}
		if _, err := ParseVersion(p.DataVersion); err != nil {
			errs = append(errs, fmt.Errorf("%s.data_version: %w", prefix, err))
		}
		key := p.Dir + "\x00" + p.Name + "\x00" + p.Type
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s: duplicate output %s.%s", prefix, p.Name, p.Type))
		}
		seen[key] = true
	}
	return errors.Join(errs...)
}

// Load reads configuration from an io.Reader.
// This is the core logic, separated for testability.
func Load(r io.Reader) (*Config, error) {
	// Set default values
	cfg := &Config{
		Output: OutputConfig{
			DataDir:     "./data",
			ByteOrder:   "native",
			LockTimeout: "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			File:   "datagen.log",
			Format: "auto",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Protocol: "grpc",
		},
	}

	// If the reader is nil, it's like an empty file, return defaults.
	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	// Unmarshal YAML into the config struct, overwriting defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// If file doesn't exist, return default config by calling Load with a nil reader.
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}
