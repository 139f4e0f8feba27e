package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Upstream ASR sidecar
	FunASRURL  string        `env:"FUNASR_URL" envDefault:"http://127.0.0.1:10095"`
	Model      string        `env:"ASR_MODEL" envDefault:"paraformer-zh"`
	Language   string        `env:"ASR_LANGUAGE" envDefault:"zh"`
	ASRTimeout time.Duration `env:"ASR_TIMEOUT" envDefault:"10m"`

	// Segmentation (seconds)
	MaxSegmentDuration float64 `env:"MAX_SEGMENT_DURATION" envDefault:"15"`
	MinSegmentDuration float64 `env:"MIN_SEGMENT_DURATION" envDefault:"3"`
	MaxMergedDuration  float64 `env:"MAX_MERGED_DURATION" envDefault:"15"`

	// Outputs
	OutputDir string `env:"OUTPUT_DIR" envDefault:"./transcripts"`

	// Batch / service processing
	Workers   int    `env:"WORKERS" envDefault:"1"`
	QueueSize int    `env:"QUEUE_SIZE" envDefault:"64"`
	InboxDir  string `env:"INBOX_DIR"`

	// HTTP API (service mode)
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	AuthToken    string        `env:"AUTH_TOKEN"`

	// Optional transcript index (service mode)
	DatabaseURL string `env:"DATABASE_URL"`

	// Optional MQTT completion events (service mode)
	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"podscribe"`
	MQTTTopic     string `env:"MQTT_TOPIC" envDefault:"podscribe/transcripts"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`

	// Optional S3 archive of outputs (service mode)
	S3Bucket    string `env:"S3_BUCKET"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Prefix    string `env:"S3_PREFIX" envDefault:"transcripts"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile   string
	FunASRURL string
	Model     string
	Language  string
	OutputDir string
	Workers   int
	HTTPAddr  string
	LogLevel  string
}

// Load reads configuration from .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file >
// struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.FunASRURL != "" {
		cfg.FunASRURL = overrides.FunASRURL
	}
	if overrides.Model != "" {
		cfg.Model = overrides.Model
	}
	if overrides.Language != "" {
		cfg.Language = overrides.Language
	}
	if overrides.OutputDir != "" {
		cfg.OutputDir = overrides.OutputDir
	}
	if overrides.Workers > 0 {
		cfg.Workers = overrides.Workers
	}
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	return cfg, nil
}

// S3Enabled reports whether the S3 archive is configured.
func (c *Config) S3Enabled() bool { return c.S3Bucket != "" }
