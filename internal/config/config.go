// Package config handles the XDG configuration directory, file paths, and
// settings loaded from config.toml and the environment.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
)

const (
	// AppName is the application directory name.
	AppName = "todosync"

	// EnvPrefix prefixes environment overrides, e.g. TODOSYNC_API_URL.
	EnvPrefix = "TODOSYNC"

	// SettingsFile is the optional settings filename.
	SettingsFile = "config.toml"

	// OAuthClientFile is the OAuth client credentials filename (googletasks backend).
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored credential filename.
	TokenFile = "token.json"

	// StoreFile is the default local store filename.
	StoreFile = "cache.db"

	// LogFile is the default log filename.
	LogFile = "todosync.log"
)

// Backend names accepted by the backend setting.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

// Settings are the tunables read from config.toml and TODOSYNC_* variables.
type Settings struct {
	Backend         string        `mapstructure:"backend"`
	APIURL          string        `mapstructure:"api_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	StorePath       string        `mapstructure:"store_path"`
	LogFile         string        `mapstructure:"log_file"`
	LogLevel        string        `mapstructure:"log_level"`
	SyncConcurrency int           `mapstructure:"sync_concurrency"`
	RateLimit       float64       `mapstructure:"rate_limit"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings are populated by Load. New fills them with defaults.
	Settings Settings
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todosync or $HOME/.config/todosync.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	c := &Config{Dir: dir}
	c.Settings = Defaults(dir)
	return c, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Defaults returns the settings used when nothing overrides them.
func Defaults(dir string) Settings {
	return Settings{
		Backend:         BackendREST,
		APIURL:          "http://localhost:3000/api",
		RequestTimeout:  5 * time.Second,
		StorePath:       filepath.Join(dir, StoreFile),
		LogFile:         filepath.Join(dir, LogFile),
		LogLevel:        "info",
		SyncConcurrency: 4,
		RateLimit:       0,
	}
}

func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("backend", d.Backend)
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("request_timeout", d.RequestTimeout.String())
	v.SetDefault("store_path", d.StorePath)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("sync_concurrency", d.SyncConcurrency)
	v.SetDefault("rate_limit", d.RateLimit)
}

// Load reads config.toml from the config directory, if present, and applies
// TODOSYNC_* environment overrides on top of the defaults.
func (c *Config) Load() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Defaults(c.Dir))

	path := c.SettingsPath()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return errors.Wrap(err, "failed to unmarshal settings")
	}
	if err := s.validate(); err != nil {
		return errors.WithHint(err, "check "+path)
	}
	c.Settings = s
	return nil
}

func (s Settings) validate() error {
	switch s.Backend {
	case BackendREST, BackendGoogleTasks:
	default:
		return errors.Newf("unknown backend %q", s.Backend)
	}
	if s.RequestTimeout <= 0 {
		return errors.Newf("request_timeout must be positive, got %s", s.RequestTimeout)
	}
	if s.SyncConcurrency < 1 {
		return errors.Newf("sync_concurrency must be at least 1, got %d", s.SyncConcurrency)
	}
	if s.RateLimit < 0 {
		return errors.Newf("rate_limit must not be negative, got %v", s.RateLimit)
	}
	return nil
}

// SettingsPath returns the path to config.toml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored credential file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// LoadToken reads token.json.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read token.json")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, errors.Wrap(err, "invalid token.json")
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("token.json holds no credential")
	}
	return &tok, nil
}

// SaveToken writes token.json with mode 0600.
func (c *Config) SaveToken(tok *oauth2.Token) error {
	if err := c.EnsureDir(); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode token")
	}
	if err := os.WriteFile(c.TokenPath(), data, 0600); err != nil {
		return errors.Wrap(err, "failed to write token.json")
	}
	return nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
