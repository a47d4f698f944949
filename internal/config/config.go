// Package config resolves the shell settings from command-line flags, the
// environment and the td.conf file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethanyzhang/tdq/tdclient"
	"github.com/ethanyzhang/tdq/tdclient/tdauth/oauth2"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

const (
	// EnvAPIKey overrides the apikey of the config file.
	EnvAPIKey = "TD_API_KEY"
	// EnvServer overrides the endpoint of the config file.
	EnvServer = "TD_SERVER"

	// AccountSection is the config file section holding the settings.
	AccountSection = "account"
)

var (
	ErrMissingAPIKey   = errors.New("no API key: set TD_API_KEY or apikey in the [account] section of td.conf")
	ErrMissingEndpoint = errors.New("no endpoint configured")
)

// Flags are the command-line settings. Empty fields were not given.
type Flags struct {
	Database string
	Endpoint string
	Engine   string
}

// Config is the resolved connection and session settings.
type Config struct {
	APIKey   string
	Endpoint string
	Database string
	Engine   tdclient.Engine
	OAuth2   oauth2.Config

	// Path is the config file that was read, empty when none existed.
	Path string
}

// DefaultPath returns ~/.td/td.conf.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate the config file: %w", err)
	}
	return filepath.Join(home, ".td", "td.conf"), nil
}

// Load reads the [account] section of the file at path and merges it with
// the environment and flags. A missing file is not an error.
//
// Precedence:
//   - API key: TD_API_KEY, then apikey
//   - endpoint: flag, then TD_SERVER, then endpoint, then tdclient.DefaultEndpoint
//   - database: flag, then database
//   - engine: flag, then engine, then presto
func Load(path string, flags Flags) (*Config, error) {
	file := ini.Empty()
	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			file, err = ini.Load(path)
			if err != nil {
				return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
			}
			cfg.Path = path
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}
	account := file.Section(AccountSection)
	value := func(key string) string {
		return account.Key(key).String()
	}

	cfg.APIKey = firstNonEmpty(os.Getenv(EnvAPIKey), value("apikey"))
	cfg.Endpoint = firstNonEmpty(flags.Endpoint, os.Getenv(EnvServer), value("endpoint"), tdclient.DefaultEndpoint)
	cfg.Database = firstNonEmpty(flags.Database, value("database"))

	engine := firstNonEmpty(flags.Engine, value("engine"))
	if engine != "" {
		parsed, err := tdclient.ParseEngine(engine)
		if err != nil {
			return nil, fmt.Errorf("invalid engine setting: %w", err)
		}
		cfg.Engine = parsed
	} else {
		cfg.Engine = tdclient.EnginePresto
	}

	cfg.OAuth2 = oauth2.Config{
		ClientID:     value("oauth2_client_id"),
		ClientSecret: value("oauth2_client_secret"),
		TokenURL:     value("oauth2_token_url"),
		Scopes:       oauth2.ParseScopes(value("oauth2_scopes")),
	}

	log.Debug().Str("path", cfg.Path).Str("endpoint", cfg.Endpoint).Str("database", cfg.Database).
		Stringer("engine", cfg.Engine).Bool("oauth2", cfg.OAuth2.Enabled()).Msg("configuration loaded")
	return cfg, nil
}

// Validate reports settings the shell cannot start without.
func (c *Config) Validate() error {
	if c.APIKey == "" && !c.OAuth2.Enabled() {
		return ErrMissingAPIKey
	}
	if c.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

// NewClient builds a job API client from the settings. With OAuth2
// settings every request carries a client-credentials bearer token.
func (c *Config) NewClient() (*tdclient.Client, error) {
	client, err := tdclient.NewClient(c.APIKey, c.Endpoint)
	if err != nil {
		return nil, err
	}
	if c.OAuth2.Enabled() {
		opt, err := oauth2.NewRequestOption(c.OAuth2)
		if err != nil {
			return nil, err
		}
		client.RequestOptions(opt)
	}
	return client, nil
}

// MaskedAPIKey returns the last three characters of the API key, as shown
// in the startup banner.
func (c *Config) MaskedAPIKey() string {
	key := []rune(c.APIKey)
	if len(key) > 3 {
		key = key[len(key)-3:]
	}
	return "..." + string(key)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
