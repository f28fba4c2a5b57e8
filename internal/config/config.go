package config

import (
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys. Each is also read from LUNAR_<KEY> in the environment.
const (
	KeyListenAddr      = "listen_addr"
	KeyDBPath          = "db_path"
	KeyLogLevel        = "log_level"
	KeyEngine          = "engine"
	KeyWorkers         = "workers"
	KeyQueueSize       = "queue_size"
	KeyDelay           = "delay"
	KeyShutdownTimeout = "shutdown_timeout"
)

const (
	envPrefix = "LUNAR"

	defaultListenAddr      = ":8080"
	defaultDBPath          = "lunar.db"
	defaultLogLevel        = "info"
	defaultEngine          = "pool"
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds application configuration.
type Config struct {
	ListenAddr      string
	DBPath          string
	LogLevel        slog.Level
	Engine          string
	Workers         int
	QueueSize       int
	Delay           time.Duration
	ShutdownTimeout time.Duration
}

// NewViper returns a viper instance with defaults set, LUNAR_* environment
// variables bound, and configFile read if it is non-empty.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyListenAddr, defaultListenAddr)
	v.SetDefault(KeyDBPath, defaultDBPath)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyEngine, defaultEngine)
	v.SetDefault(KeyWorkers, runtime.GOMAXPROCS(0))
	v.SetDefault(KeyQueueSize, 0)
	v.SetDefault(KeyDelay, time.Duration(0))
	v.SetDefault(KeyShutdownTimeout, defaultShutdownTimeout)

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Load reads configuration from v.
func Load(v *viper.Viper) Config {
	return Config{
		ListenAddr:      v.GetString(KeyListenAddr),
		DBPath:          v.GetString(KeyDBPath),
		LogLevel:        parseLogLevel(v.GetString(KeyLogLevel)),
		Engine:          v.GetString(KeyEngine),
		Workers:         v.GetInt(KeyWorkers),
		QueueSize:       v.GetInt(KeyQueueSize),
		Delay:           v.GetDuration(KeyDelay),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
