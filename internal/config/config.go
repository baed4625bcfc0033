// Package config loads application configuration with viper: defaults,
// an optional YAML file and DM_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "comfyui-data-manager/internal/errors"
)

const appName = "data-manager"

// Config holds all application settings.
type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Server  ServerConfig  `mapstructure:"server"`
	SSH     SSHConfig     `mapstructure:"ssh"`
	Preview PreviewConfig `mapstructure:"preview"`
	UI      UIConfig      `mapstructure:"ui"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig configures the /dm/* backend.
type ServerConfig struct {
	Listen   string `mapstructure:"listen"`    // "127.0.0.1:0" picks a free port
	BaseDir  string `mapstructure:"base_dir"`  // what "." resolves to
	TrashDir string `mapstructure:"trash_dir"` // target of use_trash deletes

	// AllowedOrigins lists browser origins besides the Wails shell that
	// may call the backend.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SSHConfig configures outgoing SSH connections.
type SSHConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	KnownHosts     string        `mapstructure:"known_hosts"`
	ConfigFile     string        `mapstructure:"config_file"` // hosts offered in the connect dialog
}

// PreviewConfig holds renderer limits.
type PreviewConfig struct {
	PanelMaxChars    int `mapstructure:"panel_max_chars"`
	FloatingMaxChars int `mapstructure:"floating_max_chars"`
	TableMaxRows     int `mapstructure:"table_max_rows"`
}

// UIConfig holds panel defaults.
type UIConfig struct {
	Locale            string        `mapstructure:"locale"`
	ThemePollInterval time.Duration `mapstructure:"theme_poll_interval"`
	DefaultView       string        `mapstructure:"default_view"`
	UseTrash          bool          `mapstructure:"use_trash"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. An empty path searches the user config dir
// for data-manager.yaml; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, appName))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, apperrors.NewConfigError("load", "failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigError("load", "failed to decode config", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	_ = cfg.finalize()
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "")
	v.SetDefault("server.listen", "127.0.0.1:0")
	v.SetDefault("server.base_dir", ".")
	v.SetDefault("server.trash_dir", "")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("ssh.connect_timeout", 10*time.Second)
	v.SetDefault("ssh.known_hosts", "")
	v.SetDefault("ssh.config_file", "")
	v.SetDefault("preview.panel_max_chars", 50000)
	v.SetDefault("preview.floating_max_chars", 200000)
	v.SetDefault("preview.table_max_rows", 1000)
	v.SetDefault("ui.locale", "en")
	v.SetDefault("ui.theme_poll_interval", 3*time.Second)
	v.SetDefault("ui.default_view", "list")
	v.SetDefault("ui.use_trash", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// finalize fills paths that depend on the environment.
func (c *Config) finalize() error {
	if c.DataDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.DataDir = filepath.Join(dir, appName)
	}
	if c.Server.TrashDir == "" {
		c.Server.TrashDir = filepath.Join(c.DataDir, "trash")
	}
	if home, err := os.UserHomeDir(); err == nil {
		if c.SSH.KnownHosts == "" {
			c.SSH.KnownHosts = filepath.Join(home, ".ssh", "known_hosts")
		}
		if c.SSH.ConfigFile == "" {
			c.SSH.ConfigFile = filepath.Join(home, ".ssh", "config")
		}
	}
	switch c.UI.DefaultView {
	case "list", "grid":
	default:
		return apperrors.NewConfigError("validate", fmt.Sprintf("invalid ui.default_view %q", c.UI.DefaultView), nil)
	}
	if c.Preview.TableMaxRows <= 0 || c.Preview.PanelMaxChars <= 0 || c.Preview.FloatingMaxChars <= 0 {
		return apperrors.NewConfigError("validate", "preview limits must be positive", nil)
	}
	return nil
}
