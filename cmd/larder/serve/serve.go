// Package servecmder provides the serve command that runs the larder API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/papercomputeco/larder/api"
	"github.com/papercomputeco/larder/pkg/chat"
	"github.com/papercomputeco/larder/pkg/config"
	"github.com/papercomputeco/larder/pkg/conversation"
	"github.com/papercomputeco/larder/pkg/credentials"
	"github.com/papercomputeco/larder/pkg/dotdir"
	"github.com/papercomputeco/larder/pkg/eventstream"
	"github.com/papercomputeco/larder/pkg/eventstream/kafka"
	"github.com/papercomputeco/larder/pkg/eventstream/logpub"
	"github.com/papercomputeco/larder/pkg/eventstream/worker"
	"github.com/papercomputeco/larder/pkg/llm/provider"
	"github.com/papercomputeco/larder/pkg/logger"
	"github.com/papercomputeco/larder/pkg/storage"
	"github.com/papercomputeco/larder/pkg/storage/inmemory"
	"github.com/papercomputeco/larder/pkg/storage/postgres"
	"github.com/papercomputeco/larder/pkg/storage/sqlite"
	"github.com/papercomputeco/larder/pkg/telemetry"
	"github.com/papercomputeco/larder/pkg/usage"
	"github.com/papercomputeco/larder/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

type serveCommander struct {
	flags config.FlagSet

	listen      string
	driver      string
	postgresURL string
	sqlitePath  string
	brokers     string
	topic       string
	logJSON     bool
	logFile     string
	telemetry   bool
	metricsFile string

	debug     bool
	configDir string

	cfg    *config.Config
	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagStorageDriver,
	config.FlagPostgresURL,
	config.FlagSQLite,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagLogJSON,
	config.FlagLogFile,
	config.FlagTelemetry,
	config.FlagMetricsFile,
}

const serveLongDesc string = `Run the larder API server.

The server answers food questions through the first configured provider,
falls back to canned advice when the provider is unavailable and manages
the ingredient store.

Settings come from flags, LARDER_ environment variables, config.toml and
built-in defaults, in that order. PORT and DATABASE_URL are also honored.
Provider API keys come from OPENROUTER_API_KEY / HUGGINGFACE_API_KEY or
from "larder auth".

Examples:
  larder serve
  larder serve --storage sqlite
  larder serve --listen :8080 --postgres-url postgres://localhost/larder
  larder serve --kafka-brokers localhost:9092 --telemetry`

const serveShortDesc string = "Run the larder API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			return cmder.loadConfig(v, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagStorageDriver, &cmder.driver)
	config.AddStringFlag(cmd, cmder.flags, config.FlagPostgresURL, &cmder.postgresURL)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagKafkaBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, cmder.flags, config.FlagKafkaTopic, &cmder.topic)
	config.AddBoolFlag(cmd, cmder.flags, config.FlagLogJSON, &cmder.logJSON)
	config.AddStringFlag(cmd, cmder.flags, config.FlagLogFile, &cmder.logFile)
	config.AddBoolFlag(cmd, cmder.flags, config.FlagTelemetry, &cmder.telemetry)
	config.AddStringFlag(cmd, cmder.flags, config.FlagMetricsFile, &cmder.metricsFile)

	return cmd
}

// loadConfig resolves the effective config and fills the local file
// defaults that live in the .larder/ directory.
func (c *serveCommander) loadConfig(v *viper.Viper, cmd *cobra.Command) error {
	config.BindRegisteredFlags(v, cmd, c.flags, serveFlags)

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dirs := dotdir.NewManager()
	if cfg.Storage.Driver == config.StorageDriverSQLite && cfg.Storage.SQLitePath == "" {
		if cfg.Storage.SQLitePath, err = dirs.Path(c.configDir, dotdir.DatabaseFile); err != nil {
			return err
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsFile == "" {
		if cfg.Telemetry.MetricsFile, err = dirs.Path(c.configDir, dotdir.MetricsFile); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	return nil
}

func (c *serveCommander) run(ctx context.Context) error {
	logOpts := []logger.Option{
		logger.WithDebug(c.debug),
		logger.WithJSON(c.cfg.Log.JSON),
		logger.WithPretty(!c.cfg.Log.JSON),
	}
	if c.cfg.Log.File != "" {
		logOpts = append(logOpts, logger.WithFile(&logger.FileConfig{
			Path:       c.cfg.Log.File,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		}))
	}
	c.logger = logger.New(logOpts...)

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	descriptors, err := c.cfg.ProviderDescriptors(creds)
	if err != nil {
		return err
	}

	var recorderOpts []usage.Option
	var tracer trace.Tracer
	if c.cfg.Telemetry.Enabled {
		tracesFile, err := dotdir.NewManager().Path(c.configDir, dotdir.TracesFile)
		if err != nil {
			return err
		}

		t, err := telemetry.New(ctx, telemetry.Config{
			MetricsFile: c.cfg.Telemetry.MetricsFile,
			TracesFile:  tracesFile,
			Version:     utils.Version,
		})
		if err != nil {
			return fmt.Errorf("starting telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := t.Shutdown(shutdownCtx); err != nil {
				c.logger.Error("failed to flush telemetry", "error", err)
			}
		}()

		recorderOpts = append(recorderOpts, usage.WithMeter(t.Meter()))
		tracer = t.Tracer()

		c.logger.Info("exporting telemetry",
			"metrics_file", c.cfg.Telemetry.MetricsFile,
			"traces_file", tracesFile,
		)
	}

	recorder := usage.NewRecorder(descriptors, append(recorderOpts, usage.WithLogger(c.logger))...)

	selector, err := provider.NewSelector(descriptors)
	if err != nil {
		return err
	}

	driver, err := newStorageDriver(ctx, c.cfg.Storage, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := newPublisher(c.cfg.EventStream, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	assistant, err := chat.New(chat.Config{
		Store:     conversation.NewStore(),
		Providers: selector,
		Sender: provider.NewClient(
			provider.WithRecorder(recorder),
			provider.WithLogger(c.logger),
		),
		Publisher: publisher,
		Tracer:    tracer,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating assistant: %w", err)
	}

	active := selector.Available()
	server, err := api.NewServer(api.Config{
		ListenAddr:    c.cfg.Server.Listen,
		StorageDriver: c.cfg.Storage.Driver,
		Provider:      active.Name,
	}, assistant, recorder, driver, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("starting larder server",
		"listen", c.cfg.Server.Listen,
		"storage", c.cfg.Storage.Driver,
		"provider", active.Name,
		"model", active.Model,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// newStorageDriver opens the configured ingredient store.
func newStorageDriver(ctx context.Context, sc config.StorageConfig, l *slog.Logger) (storage.Driver, error) {
	switch sc.Driver {
	case config.StorageDriverPostgres:
		driver, err := postgres.NewDriver(ctx, sc.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		l.Info("using PostgreSQL storage")
		return driver, nil

	case config.StorageDriverSQLite:
		driver, err := sqlite.NewDriver(ctx, sc.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		l.Info("using SQLite storage", "path", sc.SQLitePath)
		return driver, nil

	case config.StorageDriverMemory:
		l.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %q", sc.Driver)
	}
}

// newPublisher returns a queued Kafka publisher when brokers are configured
// and a logging publisher otherwise.
func newPublisher(ec config.EventStreamConfig, l *slog.Logger) (eventstream.Publisher, error) {
	if len(ec.Brokers) == 0 {
		return logpub.NewPublisher(l), nil
	}

	p, err := kafka.NewPublisher(kafka.Config{
		Brokers: ec.Brokers,
		Topic:   ec.Topic,
		Logger:  l,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	pool, err := worker.NewPool(&worker.Config{
		Publisher: p,
		Logger:    l,
	})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("starting publish workers: %w", err)
	}

	l.Info("publishing turn events to kafka", "brokers", ec.Brokers, "topic", ec.Topic)
	return pool, nil
}
