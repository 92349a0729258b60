// Package config loads runtime settings for the factory server from the
// environment, with an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the server.
type Config struct {
	AppName string
	HTTP    HTTPConfig
	Storage StorageConfig
	Data    DataConfig
	Sim     SimConfig
	Network NetworkConfig
	Logger  LoggerConfig
}

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type StorageConfig struct {
	// Driver selects the save/event store backend: "sqlite" or "postgres".
	Driver      string
	SQLitePath  string
	PostgresURL string
}

type DataConfig struct {
	// BrandsDir holds brands.json plus one document per brand.
	BrandsDir string
	// TuningPath optionally overrides the built-in economy constants.
	TuningPath string
}

type SimConfig struct {
	// AccrualInterval is the period of the continuous production loop.
	AccrualInterval time.Duration
	// Seed for the simulation RNG; 0 means derive from the wall clock.
	Seed int64
}

type NetworkConfig struct {
	ClientSendBuffer int
	BroadcastBuffer  int
	MaxClients       int
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName: getEnv("APP_NAME", "retro-factory"),
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", "sqlite"),
			SQLitePath:  getEnv("SQLITE_PATH", "factory.db"),
			PostgresURL: getEnv("POSTGRES_URL", ""),
		},
		Data: DataConfig{
			BrandsDir:  getEnv("BRANDS_DIR", "data/brands"),
			TuningPath: getEnv("TUNING_PATH", ""),
		},
		Sim: SimConfig{
			AccrualInterval: getDuration("ACCRUAL_INTERVAL", time.Second),
			Seed:            getInt64("SIM_SEED", 0),
		},
		Network: NetworkConfig{
			ClientSendBuffer: getInt("WS_CLIENT_SEND_BUFFER", 64),
			BroadcastBuffer:  getInt("WS_BROADCAST_BUFFER", 256),
			MaxClients:       getInt("WS_MAX_CLIENTS", 200),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
