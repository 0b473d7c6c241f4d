package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port        int    `env:"PORT" env-default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR"`
	JWTSecret   string `env:"JWT_SECRET"`

	Identity IdentityConfig `env-prefix:"IDENTITY_"`
	Storage  StorageConfig  `env-prefix:"STORAGE_"`
	Deepgram DeepgramConfig `env-prefix:"DEEPGRAM_"`
	OpenAI   OpenAIConfig   `env-prefix:"OPENAI_"`
	Pipeline PipelineConfig `env-prefix:"PIPELINE_"`
}

type IdentityConfig struct {
	URL     string        `env:"URL"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" env-default:"10s"`
}

type StorageConfig struct {
	URL        string        `env:"URL"`
	APIKey     string        `env:"API_KEY"`
	Bucket     string        `env:"BUCKET" env-default:"meeting-recordings"`
	SignedTTL  time.Duration `env:"SIGNED_TTL" env-default:"1h"`
	MaxFileMiB int64         `env:"MAX_FILE_MIB" env-default:"50"`
}

type DeepgramConfig struct {
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" env-default:"5m"`
}

type OpenAIConfig struct {
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" env-default:"60s"`
}

type PipelineConfig struct {
	Workers        int           `env:"WORKERS" env-default:"4"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" env-default:"5m"`
	StuckThreshold time.Duration `env:"STUCK_THRESHOLD" env-default:"30m"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}

	return &cfg
}
