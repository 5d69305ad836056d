// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package config loads bot settings from the environment and an optional
// configuration file.
//
// Environment variables take precedence over the file. Command-line flags
// are applied on top by the caller.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.astrophena.name/incidentbot/internal/mastodon"
)

// Errors returned by this package.
var (
	ErrMissing       = errors.New("missing required setting")
	ErrUnknownFormat = errors.New("unknown config file format")
)

// Config holds bot settings.
type Config struct {
	FeedURL         string
	StatusAPIURL    string
	MastodonURL     string
	MastodonToken   string
	StateFile       string
	Visibility      string // as written; see [Config.PostVisibility]
	MessageTemplate string

	stateDefaulted bool
}

// settings maps config file keys to environment variables. Keys without a
// variable can only be set in the file.
var settings = []struct {
	key, env string
	field    func(*Config) *string
}{
	{"feed_url", "FEED_URL", func(c *Config) *string { return &c.FeedURL }},
	{"status_api_url", "STATUS_API_URL", func(c *Config) *string { return &c.StatusAPIURL }},
	{"mastodon_url", "MASTODON_URL", func(c *Config) *string { return &c.MastodonURL }},
	{"mastodon_token", "MASTODON_TOKEN", func(c *Config) *string { return &c.MastodonToken }},
	{"state_file", "STATE_FILE", func(c *Config) *string { return &c.StateFile }},
	{"visibility", "VISIBILITY", func(c *Config) *string { return &c.Visibility }},
	{"message_template", "", func(c *Config) *string { return &c.MessageTemplate }},
}

func isKnown(key string) bool {
	for _, s := range settings {
		if s.key == key {
			return true
		}
	}
	return false
}

// Load builds the configuration for the command called name. If path is not
// empty, the configuration file at path is read first.
func Load(getenv func(string) string, name, path string) (*Config, error) {
	file := make(map[string]string)
	if path != "" {
		var err error
		file, err = ReadFile(path, getenv)
		if err != nil {
			return nil, err
		}
	}

	c := new(Config)
	for _, s := range settings {
		var env string
		if s.env != "" {
			env = getenv(s.env)
		}
		*s.field(c) = cmp.Or(env, file[s.key])
	}

	if c.StateFile == "" {
		def, err := DefaultStateFile(getenv, name)
		if err != nil {
			return nil, err
		}
		c.StateFile = def
		c.stateDefaulted = true
	}

	return c, nil
}

// Require returns an error wrapping [ErrMissing] for the first of the named
// settings that is empty.
func (c *Config) Require(keys ...string) error {
	for _, key := range keys {
		for _, s := range settings {
			if s.key != key {
				continue
			}
			if *s.field(c) == "" {
				if s.env != "" {
					return fmt.Errorf("%w: %s (set %s)", ErrMissing, key, s.env)
				}
				return fmt.Errorf("%w: %s", ErrMissing, key)
			}
		}
	}
	return nil
}

// PostVisibility returns override if it is set. Otherwise it parses the
// configured visibility, falling back to [mastodon.DefaultVisibility].
func (c *Config) PostVisibility(override mastodon.Visibility) (mastodon.Visibility, error) {
	if override != "" {
		return override, nil
	}
	if c.Visibility == "" {
		return mastodon.DefaultVisibility, nil
	}
	return mastodon.ParseVisibility(c.Visibility)
}

// SetStateFile overrides the state location.
func (c *Config) SetStateFile(location string) {
	c.StateFile = location
	c.stateDefaulted = false
}

// EnsureStateDir creates the directory of the default state file. It does
// nothing when the state location was configured explicitly.
func (c *Config) EnsureStateDir() error {
	if !c.stateDefaulted {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.StateFile), 0o700)
}

// DefaultStateFile returns where the command called name keeps its state
// unless told otherwise: $STATE_DIRECTORY (set by systemd), then
// $XDG_STATE_HOME/incidentbot, then ~/.local/state/incidentbot.
func DefaultStateFile(getenv func(string) string, name string) (string, error) {
	file := name + ".state"

	// systemd passes a colon-separated list when several directories are
	// configured.
	if dir, _, _ := strings.Cut(getenv("STATE_DIRECTORY"), ":"); dir != "" {
		return filepath.Join(dir, file), nil
	}
	if base := getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, "incidentbot", file), nil
	}

	home := getenv("HOME")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(home, ".local", "state", "incidentbot", file), nil
}

// ReadFile reads the configuration file at path. The format is chosen by
// extension: ".star" files are evaluated as Starlark, ".yaml" and ".yml"
// files are decoded as YAML.
func ReadFile(path string, getenv func(string) string) (map[string]string, error) {
	var parse func(path string, b []byte) (map[string]string, error)
	switch ext := filepath.Ext(path); ext {
	case ".star":
		parse = func(path string, b []byte) (map[string]string, error) {
			return parseStarlark(path, b, getenv)
		}
	case ".yaml", ".yml":
		parse = parseYAML
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(path, b)
}
