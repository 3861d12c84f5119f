package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LOGINFLOW_REMOTE_BASE_URL.
const EnvPrefix = "LOGINFLOW"

// EnvConfigPath names the variable that points at a config file.
const EnvConfigPath = "LOGINFLOW_CONFIG"

// Config holds application configuration.
type Config struct {
	Remote      RemoteConfig      `mapstructure:"remote" json:"remote"`
	Journal     JournalConfig     `mapstructure:"journal" json:"journal"`
	Render      RenderConfig      `mapstructure:"render" json:"render"`
	Credentials CredentialsConfig `mapstructure:"credentials" json:"credentials"`
	Log         LogConfig         `mapstructure:"log" json:"log"`
}

// RemoteConfig locates the server.
type RemoteConfig struct {
	BaseURL     string `mapstructure:"base_url" json:"base_url"`
	LoginPath   string `mapstructure:"login_path" json:"login_path"`
	FriendsPath string `mapstructure:"friends_path" json:"friends_path"`
}

// JournalConfig holds sqlite settings.
type JournalConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

// RenderConfig holds presentation settings.
type RenderConfig struct {
	Pause bool `mapstructure:"pause" json:"pause"`
}

// CredentialsConfig holds the demo login.
type CredentialsConfig struct {
	Username string `mapstructure:"username" json:"username"`
	Password string `mapstructure:"password" json:"password"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// New returns a viper instance with defaults, env overrides and the config
// file location set. path wins over $LOGINFLOW_CONFIG; with neither,
// $HOME/.config/loginflow/config.yaml is used if it exists.
//
// Callers may bind flags to the returned instance before calling Decode.
func New(path string) *viper.Viper {
	v := viper.New()

	v.SetDefault("remote.base_url", "https://httpbin.org")
	v.SetDefault("remote.login_path", "basic-auth/admin/secret")
	v.SetDefault("remote.friends_path", "basic-auth/admin/secret")
	v.SetDefault("journal.path", ":memory:")
	v.SetDefault("render.pause", true)
	v.SetDefault("credentials.username", "admin")
	v.SetDefault("credentials.password", "secret")
	v.SetDefault("log.level", "info")

	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "loginflow"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

// Decode reads the config file, if any, and returns the validated config.
// A missing file at the default location is not an error; a missing file
// that was asked for explicitly is.
func Decode(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load is New followed by Decode.
func Load(path string) (Config, error) {
	return Decode(New(path))
}

// SlogLevel maps Log.Level to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
