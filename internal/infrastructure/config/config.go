package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// JWTSecret verifies bearer tokens issued by the external auth
	// service; privileged routes are disabled when empty.
	JWTSecret string `env:"JWT_SECRET"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Ingest    IngestConfig
	Simulator SimulatorConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=cargoflow"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
	// BridgeChannel is the pub/sub channel mirroring broadcast events
	// between server instances. Empty disables the bridge.
	BridgeChannel string `env:"REDIS_BRIDGE_CHANNEL, default=cargoflow:broadcast"`
}

type IngestConfig struct {
	// AlertSampleRate is the probability an ordinary location update
	// persists an alert. Status transitions always do.
	AlertSampleRate float64 `env:"ALERT_SAMPLE_RATE, default=0.10"`
	// BatchWorkers sizes the sharded dispatcher for batch ingestion.
	BatchWorkers int `env:"INGEST_BATCH_WORKERS, default=8"`
}

type SimulatorConfig struct {
	Enabled      bool          `env:"SIMULATOR_ENABLED, default=false"`
	TickInterval time.Duration `env:"SIMULATOR_TICK_INTERVAL, default=10s"`
	// WebhookURL is where the standalone simulator binary posts reports.
	WebhookURL string `env:"SIMULATOR_WEBHOOK_URL, default=http://localhost:8080/api/shipments/webhook/gps"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
