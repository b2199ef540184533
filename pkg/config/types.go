package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent larder configuration stored as config.toml
// in the .larder/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Providers   []ProviderConfig  `toml:"providers"`
	Client      ClientConfig      `toml:"client"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Log         LogConfig         `toml:"log"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig selects and configures the ingredient store.
type StorageConfig struct {
	// Driver is one of "postgres", "sqlite" or "memory".
	Driver      string `toml:"driver,omitempty"`
	PostgresURL string `toml:"postgres_url,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
}

// ProviderConfig describes one upstream language-model provider. Only the
// first entry is used for requests; every entry gets a usage counter.
type ProviderConfig struct {
	Name     string `toml:"name" mapstructure:"name"`
	Family   string `toml:"family,omitempty" mapstructure:"family"`
	Endpoint string `toml:"endpoint,omitempty" mapstructure:"endpoint"`
	Model    string `toml:"model,omitempty" mapstructure:"model"`
	Window   string `toml:"window,omitempty" mapstructure:"window"`
	Limit    int    `toml:"limit,omitempty" mapstructure:"limit"`
	Referer  string `toml:"referer,omitempty" mapstructure:"referer"`
	Title    string `toml:"title,omitempty" mapstructure:"title"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// server (e.g. larder chat). Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventStreamConfig configures turn event publishing. Events go to Kafka
// when brokers are set and to the debug log otherwise.
type EventStreamConfig struct {
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	JSON bool   `toml:"json,omitempty"`
	File string `toml:"file,omitempty"`
}

// TelemetryConfig configures OpenTelemetry metrics export.
type TelemetryConfig struct {
	Enabled     bool   `toml:"enabled,omitempty"`
	MetricsFile string `toml:"metrics_file,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// activeProvider returns the provider used for requests, creating an entry
// when the list is empty so that provider.* keys can be set.
func activeProvider(c *Config) *ProviderConfig {
	if len(c.Providers) == 0 {
		c.Providers = append(c.Providers, ProviderConfig{})
	}
	return &c.Providers[0]
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure. The
// provider.* keys address the first configured provider.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error {
			if !IsValidStorageDriver(v) {
				return fmt.Errorf("invalid value for storage.driver: %q (available: %s)", v, strings.Join(StorageDrivers(), ", "))
			}
			c.Storage.Driver = v
			return nil
		},
	},
	"storage.postgres_url": {
		get: func(c *Config) string { return c.Storage.PostgresURL },
		set: func(c *Config, v string) error { c.Storage.PostgresURL = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"provider.name": {
		get: func(c *Config) string { return activeProvider(c).Name },
		set: func(c *Config, v string) error { activeProvider(c).Name = v; return nil },
	},
	"provider.model": {
		get: func(c *Config) string { return activeProvider(c).Model },
		set: func(c *Config, v string) error { activeProvider(c).Model = v; return nil },
	},
	"provider.endpoint": {
		get: func(c *Config) string { return activeProvider(c).Endpoint },
		set: func(c *Config, v string) error { activeProvider(c).Endpoint = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error { c.EventStream.Brokers = splitList(v); return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
	"log.json": boolKey("log.json", func(c *Config) *bool { return &c.Log.JSON }),
	"log.file": {
		get: func(c *Config) string { return c.Log.File },
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
	},
	"telemetry.enabled": boolKey("telemetry.enabled", func(c *Config) *bool { return &c.Telemetry.Enabled }),
	"telemetry.metrics_file": {
		get: func(c *Config) string { return c.Telemetry.MetricsFile },
		set: func(c *Config, v string) error { c.Telemetry.MetricsFile = v; return nil },
	},
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
