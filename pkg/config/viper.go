package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/larder/pkg/dotdir"
)

// envAliases binds variables used by hosted deployments (PORT,
// DATABASE_URL) alongside the LARDER_ prefixed names.
var envAliases = map[string][]string{
	"server.listen":        {"LARDER_SERVER_LISTEN", "PORT"},
	"storage.postgres_url": {"LARDER_STORAGE_POSTGRES_URL", "DATABASE_URL"},
}

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the LARDER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (LARDER_SERVER_LISTEN, PORT, DATABASE_URL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: LARDER_SERVER_LISTEN, LARDER_STORAGE_DRIVER, etc.
	v.SetEnvPrefix("LARDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
// Providers are a list and are defaulted in Load instead.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("server.listen", d.Server.Listen)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.postgres_url", d.Storage.PostgresURL)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	v.SetDefault("client.api_target", d.Client.APITarget)

	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.metrics_file", d.Telemetry.MetricsFile)
}

// Load builds a Config from the resolved viper values.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen: normalizeListen(v.GetString("server.listen")),
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			PostgresURL: v.GetString("storage.postgres_url"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		EventStream: EventStreamConfig{
			Brokers: brokers(v.GetStringSlice("eventstream.brokers")),
			Topic:   v.GetString("eventstream.topic"),
		},
		Log: LogConfig{
			JSON: v.GetBool("log.json"),
			File: v.GetString("log.file"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     v.GetBool("telemetry.enabled"),
			MetricsFile: v.GetString("telemetry.metrics_file"),
		},
	}

	if err := v.UnmarshalKey("providers", &cfg.Providers); err != nil {
		return nil, fmt.Errorf("parsing providers: %w", err)
	}
	applyProviderDefaults(cfg)

	return cfg, nil
}

// normalizeListen turns a bare port such as "3000" (the PORT convention)
// into a listen address.
func normalizeListen(listen string) string {
	if listen != "" && !strings.Contains(listen, ":") {
		return ":" + listen
	}
	return listen
}

// brokers accepts both a TOML list and a comma separated environment value.
func brokers(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, splitList(v)...)
	}
	return out
}
