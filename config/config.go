package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMongoURI   = "mongodb://localhost:27017"
	DefaultDBName     = "survey_db"
	DefaultFetchLimit = 100
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		Mode           string   `yaml:"mode"` // gin mode: debug, release, test
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		URI            string `yaml:"uri"`
		Name           string `yaml:"name"`
		FetchLimit     int64  `yaml:"fetchLimit"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"` // empty disables the event stream and the shared limiter
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	RateLimit struct {
		ReportsPerMinute int `yaml:"reportsPerMinute"` // 0 leaves reports unlimited
		Burst            int `yaml:"burst"`
	} `yaml:"rateLimit"`

	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		Endpoint    string  `yaml:"endpoint"`
		Insecure    bool    `yaml:"insecure"`
		ServiceName string  `yaml:"serviceName"`
		SampleRatio float64 `yaml:"sampleRatio"`
	} `yaml:"tracing"`
}

// LoadConfig reads the configuration file, applies environment overrides and
// fills defaults. A missing file is tolerated when MONGO_URI is exported.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && os.Getenv("MONGO_URI") != "":
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyEnv() {
	if v := env("MONGO_URI"); v != "" {
		cfg.Database.URI = v
	}
	if v := env("MONGO_DB"); v != "" {
		cfg.Database.Name = v
	}
	if v := env("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := env("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := env("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := env("LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
	if v := env("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Database.URI == "" {
		cfg.Database.URI = DefaultMongoURI
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = DefaultDBName
	}
	if cfg.Database.FetchLimit == 0 {
		cfg.Database.FetchLimit = DefaultFetchLimit
	}
	if cfg.Database.TimeoutSeconds == 0 {
		cfg.Database.TimeoutSeconds = 10
	}
	if cfg.RateLimit.ReportsPerMinute > 0 && cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = cfg.RateLimit.ReportsPerMinute
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "surveyhub"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1
	}
}

// Validate rejects configurations the server cannot start with.
func (cfg *Config) Validate() error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if !strings.HasPrefix(cfg.Database.URI, "mongodb://") && !strings.HasPrefix(cfg.Database.URI, "mongodb+srv://") {
		return errors.New("database.uri must be a mongodb:// or mongodb+srv:// connection string")
	}
	if cfg.Database.FetchLimit < 0 {
		return fmt.Errorf("database.fetchLimit must be positive, got %d", cfg.Database.FetchLimit)
	}
	if cfg.RateLimit.ReportsPerMinute < 0 || cfg.RateLimit.Burst < 0 {
		return errors.New("rateLimit values must not be negative")
	}
	switch cfg.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", cfg.Server.Mode)
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
