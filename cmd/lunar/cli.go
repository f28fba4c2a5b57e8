package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/seantiz/lunar/internal/api"
	"github.com/seantiz/lunar/internal/config"
	"github.com/seantiz/lunar/internal/engine"
	"github.com/seantiz/lunar/internal/engine/pool"
	"github.com/seantiz/lunar/internal/events"
	"github.com/seantiz/lunar/internal/executor"
	"github.com/seantiz/lunar/internal/store"
	"github.com/seantiz/lunar/internal/task"
)

const serialEngine = "serial"

// serveFlags maps flag names to the configuration keys they override.
var serveFlags = map[string]string{
	"listen-addr":      config.KeyListenAddr,
	"db-path":          config.KeyDBPath,
	"log-level":        config.KeyLogLevel,
	"engine":           config.KeyEngine,
	"workers":          config.KeyWorkers,
	"queue-size":       config.KeyQueueSize,
	"delay":            config.KeyDelay,
	"shutdown-timeout": config.KeyShutdownTimeout,
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lunar",
		Short:         "Task executor service over pluggable engines",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(newServeCommand(), newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version and exit",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "lunar version %s\n", version)
			return nil
		},
	}
}

func newServeCommand() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the admin API over the configured engines",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			return serve(cmd.Context(), config.Load(v))
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&configFile, "config", "", "Config file path")
	addServeFlags(fs)
	return cmd
}

func addServeFlags(fs *pflag.FlagSet) {
	fs.String("listen-addr", "", "HTTP listen address (LUNAR_LISTEN_ADDR)")
	fs.String("db-path", "", "SQLite task journal path (LUNAR_DB_PATH)")
	fs.String("log-level", "", "Log level: debug, info, warn, error (LUNAR_LOG_LEVEL)")
	fs.String("engine", "", "Default engine name (LUNAR_ENGINE)")
	fs.Int("workers", 0, "Worker count of the pool engine (LUNAR_WORKERS)")
	fs.Int("queue-size", 0, "Queue bound per engine, 0 for unbounded (LUNAR_QUEUE_SIZE)")
	fs.Duration("delay", 0, "Artificial delay before each task body (LUNAR_DELAY)")
	fs.Duration("shutdown-timeout", 0, "Time to drain engines before forcing shutdown (LUNAR_SHUTDOWN_TIMEOUT)")
}

// bindFlags binds the serve flags to v. Only flags set on the command line
// override the environment and config file.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range serveFlags {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// buildRegistry creates the pool and serial engines with journal and broker
// observers and selects cfg.Engine as the default.
func buildRegistry(cfg config.Config, s store.Store, b *events.Broker, logger *slog.Logger) (*engine.Registry, error) {
	reg := engine.NewRegistry()
	for _, eng := range []struct {
		name    string
		workers int
	}{
		{pool.DefaultName, cfg.Workers},
		{serialEngine, 1},
	} {
		reg.Register(eng.name, pool.New(
			pool.WithName(eng.name),
			pool.WithWorkers(eng.workers),
			pool.WithQueueSize(cfg.QueueSize),
			pool.WithDelay(cfg.Delay),
			pool.WithLogger(logger),
			pool.WithObserver(task.Observers{store.NewJournal(s, eng.name, logger), b}),
		))
	}
	if err := reg.SetDefault(cfg.Engine); err != nil {
		reg.ShutdownAll()
		return nil, err
	}
	return reg, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("lunar: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"engine", cfg.Engine,
		"workers", cfg.Workers,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	broker := events.NewBroker()
	reg, err := buildRegistry(cfg, db, broker, logger)
	if err != nil {
		return fmt.Errorf("build engines: %w", err)
	}
	def, err := reg.Resolve(engine.NameDefault)
	if err != nil {
		return fmt.Errorf("resolve default engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(cfg.ListenAddr, executor.New(def, logger), reg, db, broker, logger)
	runErr := srv.Run(ctx)

	drain(reg, cfg.ShutdownTimeout, logger)
	return runErr
}

// drain shuts every engine down, waits up to timeout for each to terminate,
// and forces the stragglers with ShutdownNow.
func drain(reg *engine.Registry, timeout time.Duration, logger *slog.Logger) {
	for _, info := range reg.List() {
		e, err := reg.Resolve(info.Name)
		if err != nil {
			continue
		}
		x := executor.New(e, logger)
		x.Shutdown()
		if x.AwaitTermination(timeout) {
			continue
		}
		discarded := x.ShutdownNow()
		logger.Warn("engine did not drain in time", "engine", info.Name, "discarded", len(discarded))
		if !x.AwaitTermination(timeout) {
			logger.Error("engine did not terminate", "engine", info.Name)
		}
	}
}
