package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Ledger LedgerConfig
	Import ImportConfig
	Log    LogConfig
	Rates  RatesConfig
}

// LedgerConfig selects the default account file and system locale.
type LedgerConfig struct {
	Path   string
	Locale string
}

// ImportConfig holds the colors given to imported rows that carry none.
type ImportConfig struct {
	TransactionColor string `mapstructure:"transaction_color"`
	GroupColor       string `mapstructure:"group_color"`
}

type LogConfig struct {
	Level string
}

// RatesConfig configures currency conversion. Static maps "FROM:TO" to a rate.
type RatesConfig struct {
	CachePath string            `mapstructure:"cache_path"`
	Static    map[string]string `mapstructure:"static"`
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "moneyvault")
}

// Path is where Save writes and Load looks first.
func Path() string {
	if p := os.Getenv("MONEYVAULT_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "moneyvault", "config.toml")
}

// Load reads configuration from file and env. A .env file in the working
// directory is applied first. Env var overrides use prefix MONEYVAULT_.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// default values
	v.SetDefault("ledger.path", filepath.Join(dataDir(), "default.nmoney"))
	v.SetDefault("ledger.locale", "")
	v.SetDefault("import.transaction_color", "#00000000")
	v.SetDefault("import.group_color", "#00000000")
	v.SetDefault("log.level", "info")
	v.SetDefault("rates.cache_path", filepath.Join(dataDir(), "rates.db"))
	v.SetDefault("rates.static", map[string]string{})

	v.SetConfigType("toml")

	if cfgPath := os.Getenv("MONEYVAULT_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "moneyvault"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MONEYVAULT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to Path, creating the config directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("ledger.path", cfg.Ledger.Path)
	v.Set("ledger.locale", cfg.Ledger.Locale)
	v.Set("import.transaction_color", cfg.Import.TransactionColor)
	v.Set("import.group_color", cfg.Import.GroupColor)
	v.Set("log.level", cfg.Log.Level)
	v.Set("rates.cache_path", cfg.Rates.CachePath)
	v.Set("rates.static", cfg.Rates.Static)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
