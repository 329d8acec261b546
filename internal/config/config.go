package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type CurrencyConfig struct {
	Digits int    `json:"digits" yaml:"digits"`
	Factor int64  `json:"factor" yaml:"factor"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

type CallbackConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	PublicURL    string `json:"public_url" yaml:"public_url"`
	Address      string `json:"address" yaml:"address"`
	Port         int    `json:"port" yaml:"port"`
	SharedSecret string `json:"shared_secret" yaml:"shared_secret"`
}

// AutoForwardConfig lists the chats that automatically receive a shared
// message for every newly created collective operation.
type AutoForwardConfig struct {
	Communism []int64 `json:"communism" yaml:"communism"`
	Poll      []int64 `json:"poll" yaml:"poll"`
	Refund    []int64 `json:"refund" yaml:"refund"`
}

// Chats returns the configured receivers for a raw share type value.
func (a AutoForwardConfig) Chats(shareType string) ([]int64, bool) {
	switch shareType {
	case "communism":
		return a.Communism, true
	case "poll":
		return a.Poll, true
	case "refund":
		return a.Refund, true
	default:
		return nil, false
	}
}

type ChatConfig struct {
	Transactions []int64 `json:"transactions" yaml:"transactions"`
	Notification []int64 `json:"notification" yaml:"notification"`
	Debugging    []int64 `json:"debugging" yaml:"debugging"`
}

type RedisConfig struct {
	URL      string `json:"url" yaml:"url"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // trace|debug|info|warn|error
	Format string `json:"format" yaml:"format"` // json|console
}

type Config struct {
	Application   string            `json:"application" yaml:"application"`
	Password      string            `json:"password" yaml:"password"`
	DatabaseURL   string            `json:"database_url" yaml:"database_url"`
	DatabaseDebug bool              `json:"database_debug" yaml:"database_debug"`
	Server        string            `json:"server" yaml:"server"`
	SSLVerify     bool              `json:"ssl_verify" yaml:"ssl_verify"`
	CAPath        string            `json:"ca_path" yaml:"ca_path"`
	UserAgent     string            `json:"user_agent" yaml:"user_agent"`
	Token         string            `json:"token" yaml:"token"`
	Workers       int               `json:"workers" yaml:"workers"`
	Currency      CurrencyConfig    `json:"currency" yaml:"currency"`
	Callback      CallbackConfig    `json:"callback" yaml:"callback"`
	AutoForward   AutoForwardConfig `json:"auto_forward" yaml:"auto_forward"`
	Chats         ChatConfig        `json:"chats" yaml:"chats"`
	Redis         RedisConfig       `json:"redis" yaml:"redis"`
	Logging       LogConfig         `json:"logging" yaml:"logging"`

	Runtime RuntimeConfig `json:"-" yaml:"-"`
}

// DefaultPaths are probed in order when no explicit path is given.
var DefaultPaths = []string{"config.json", "/etc/matebot-telegram/config.json"}

// Load reads the first existing configuration file from the given paths.
// JSON is the primary format; files ending in .yaml/.yml are parsed as YAML.
func Load(dev bool, paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return loadFile(path, dev)
	}
	return nil, fmt.Errorf("no configuration file found (tried %s)", strings.Join(paths, ", "))
}

func loadFile(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Currency.Factor <= 0 {
		cfg.Currency.Factor = 100
	}
	if cfg.Currency.Symbol == "" {
		cfg.Currency.Symbol = "€"
	}
	if cfg.Callback.Address == "" {
		cfg.Callback.Address = "127.0.0.1"
	}
	if cfg.Callback.Port == 0 {
		cfg.Callback.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Application == "" || len(cfg.Application) > 255 {
		return errors.New("application name is required (max 255 chars)")
	}
	if cfg.Password == "" || len(cfg.Password) > 255 {
		return errors.New("application password is required (max 255 chars)")
	}
	if cfg.Server == "" {
		return errors.New("server URL is required")
	}
	if !strings.HasPrefix(cfg.Server, "http://") && !strings.HasPrefix(cfg.Server, "https://") {
		return fmt.Errorf("server URL %q must be a http(s) URL", cfg.Server)
	}
	if cfg.Token == "" {
		return errors.New("telegram bot token is required")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if cfg.Currency.Digits < 0 {
		return errors.New("currency.digits must not be negative")
	}
	if n := len([]rune(cfg.Currency.Symbol)); n < 1 || n > 4 {
		return errors.New("currency.symbol must be 1 to 4 characters")
	}
	if cfg.Callback.Port < 1 || cfg.Callback.Port >= 65536 {
		return errors.New("callback.port must be in range 1..65535")
	}
	if cfg.Callback.Enabled && cfg.Callback.PublicURL == "" {
		return errors.New("callback.public_url is required when the callback server is enabled")
	}
	if len(cfg.Callback.SharedSecret) > 2047 {
		return errors.New("callback.shared_secret is too long (max 2047 chars)")
	}
	return nil
}
