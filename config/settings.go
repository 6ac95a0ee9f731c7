// Package config loads and validates actor system settings from TOML or YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/hedisam/actorcell/internal/logging"
)

const (
	EnvSystemName      = "ACTORCELL_SYSTEM"
	EnvMailboxCapacity = "ACTORCELL_MAILBOX_CAPACITY"
)

// Format is a settings file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Settings configures an actor system.
type Settings struct {
	// System names the actor system and its root path.
	System   string `toml:"system" yaml:"system"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
	// MailboxCapacity is the user queue size of actors without a named mailbox.
	MailboxCapacity uint64                    `toml:"mailbox_capacity" yaml:"mailbox_capacity"`
	Mailboxes       map[string]MailboxSettings `toml:"mailboxes" yaml:"mailboxes"`
	// Deployment maps actor paths relative to the system root, e.g. "/user/worker".
	Deployment map[string]DeploymentSettings `toml:"deployment" yaml:"deployment"`
}

type MailboxSettings struct {
	Capacity uint64 `toml:"capacity" yaml:"capacity"`
}

// DeploymentSettings is the textual form of a deployment entry.
type DeploymentSettings struct {
	Dispatcher string `toml:"dispatcher" yaml:"dispatcher"`
	Mailbox    string `toml:"mailbox" yaml:"mailbox"`
	Scope      string `toml:"scope" yaml:"scope"`
	Router     string `toml:"router" yaml:"router"`
	Instances  int    `toml:"nr_of_instances" yaml:"nr_of_instances"`
	// Config is free form YAML merged into the deployment's config.
	Config string `toml:"config" yaml:"config"`
}

// Default returns settings usable without any file.
func Default() *Settings {
	return &Settings{
		System:          "default",
		LogLevel:        "info",
		MailboxCapacity: 1024,
		Mailboxes:       map[string]MailboxSettings{},
		Deployment:      map[string]DeploymentSettings{},
	}
}

// Load reads path, choosing the format by extension, applies environment overrides
// and validates the result.
func Load(path string) (*Settings, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return s, nil
}

// FormatOf maps a file extension to a Format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported config format: %q", filepath.Ext(path))
	}
}

// Parse decodes data over the defaults.
func Parse(data []byte, format Format) (*Settings, error) {
	s := Default()
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), s); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %q", format)
	}
	return s, nil
}

func (s *Settings) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvSystemName)); v != "" {
		s.System = v
	}
	if v := strings.TrimSpace(os.Getenv(logging.EnvLogLevel)); v != "" {
		s.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMailboxCapacity)); v != "" {
		capacity, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMailboxCapacity, err)
		}
		s.MailboxCapacity = capacity
	}
	return nil
}

// Validate checks names, levels and capacities.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.System) == "" {
		return fmt.Errorf("system name is required")
	}
	if strings.ContainsAny(s.System, "/# ") {
		return fmt.Errorf("invalid system name: %q", s.System)
	}
	if _, ok := logging.ParseLevel(s.LogLevel); !ok {
		return fmt.Errorf("invalid log level: %q", s.LogLevel)
	}
	if s.MailboxCapacity == 0 {
		return fmt.Errorf("mailbox capacity must be positive")
	}
	for name, mb := range s.Mailboxes {
		if mb.Capacity == 0 {
			return fmt.Errorf("mailbox %q: capacity must be positive", name)
		}
	}
	for p, d := range s.Deployment {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("deployment %q: path must start with /", p)
		}
		if d.Mailbox != "" {
			if _, ok := s.Mailboxes[d.Mailbox]; !ok {
				return fmt.Errorf("deployment %q: unknown mailbox %q", p, d.Mailbox)
			}
		}
		if d.Instances < 0 {
			return fmt.Errorf("deployment %q: nr_of_instances must not be negative", p)
		}
	}
	return nil
}

// MailboxCapacityFor returns the capacity of the named mailbox, falling back to the
// default capacity.
func (s *Settings) MailboxCapacityFor(name string) uint64 {
	if mb, ok := s.Mailboxes[name]; ok && mb.Capacity > 0 {
		return mb.Capacity
	}
	return s.MailboxCapacity
}
