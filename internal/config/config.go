package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the full application configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	DB     DBConfig     `koanf:"db"`
	Notify NotifyConfig `koanf:"notify"`
	Debug  bool         `koanf:"debug"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type DBConfig struct {
	Path string `koanf:"path"`
}

// NotifyConfig controls the local notification gateway.
type NotifyConfig struct {
	// Enabled models the OS notification permission grant. When false the
	// gateway fails closed and reminders are created without a handle.
	Enabled bool `koanf:"enabled"`
	// Body is the notification body text; the title comes from the reminder.
	Body string `koanf:"body"`
}

func defaults() *confmap.Confmap {
	return confmap.Provider(map[string]interface{}{
		"server.port":    8080,
		"db.path":        "tickler.db",
		"notify.enabled": true,
		"notify.body":    "Reminder",
		"debug":          false,
	}, ".")
}

// Load builds the configuration from defaults, an optional YAML file and
// TICKLER_-prefixed environment variables, in that order of precedence.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(defaults(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// TICKLER_SERVER_PORT -> server.port
	if err := k.Load(env.Provider("TICKLER_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "TICKLER_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
