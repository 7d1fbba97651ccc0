package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries everything the client needs to run. All fields have working
// defaults; a config file is optional.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Log       LogConfig       `mapstructure:"log"`
}

type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DownloadsConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads the config file at path (optional when empty: ~/.askdesk.yaml is
// tried), applies ASKDESK_* environment overrides, and fills defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 90*time.Second)
	v.SetDefault("downloads.dir", defaultDownloadsDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", defaultLogFile())

	v.SetEnvPrefix("ASKDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigFile(filepath.Join(home, ".askdesk.yaml"))
		// Missing default config is fine; a broken one is not.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "askdesk")
	}
	return filepath.Join(home, "Downloads")
}

func defaultLogFile() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "askdesk", "askdesk.log")
}
