package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Pool     PoolConfig     `yaml:"pool"`
	HTTP     HTTPConfig     `yaml:"http"`
	Artifact ArtifactConfig `yaml:"artifact"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logs     LogsConfig     `yaml:"logs"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

// PoolConfig mirrors spec.md §6's pool enumeration. MinConnections and
// MaxOverflow together bound pgxpool's min/max; AcquireTimeout bounds
// only the connectivity ping NewPostgresStore makes at startup. Later
// Store calls wait for a connection under the caller's context alone,
// with no acquire timeout of their own.
type PoolConfig struct {
	MinConnections        int     `yaml:"min_connections"`
	MaxOverflow           int     `yaml:"max_overflow"`
	AcquireTimeoutSeconds float64 `yaml:"acquire_timeout_seconds"`
}

func (p PoolConfig) MaxConnections() int32 {
	return int32(p.MinConnections + p.MaxOverflow)
}

func (p PoolConfig) AcquireTimeout() time.Duration {
	return time.Duration(p.AcquireTimeoutSeconds * float64(time.Second))
}

type HTTPConfig struct {
	BindHost              string   `yaml:"bind_host"`
	BindPort              int      `yaml:"bind_port"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
	RequestTimeoutSeconds float64  `yaml:"request_timeout_seconds"`
}

func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.BindHost, h.BindPort)
}

func (h HTTPConfig) RequestTimeout() time.Duration {
	return time.Duration(h.RequestTimeoutSeconds * float64(time.Second))
}

type ArtifactConfig struct {
	RootPath string `yaml:"root_path"`
}

// WorkerConfig mirrors spec.md §6's worker enumeration, shared by the
// Conversion, Optimization, and AI workers (each reads the subset it
// needs; BatchSize and PollIdle tune the shared poll loop).
type WorkerConfig struct {
	BatchSize               int     `yaml:"batch_size"`
	QuiescenceSeconds       int     `yaml:"quiescence_seconds"`
	ReclaimHorizonSeconds   int     `yaml:"reclaim_horizon_seconds"`
	PollIdleSeconds         float64 `yaml:"poll_idle_seconds"`
	PerEventTimeoutSeconds  int     `yaml:"per_event_timeout_seconds"`
	AIEndpointURL           string  `yaml:"ai_endpoint_url"`
	AIRetryBudget           int     `yaml:"ai_retry_budget"`
}

func (w WorkerConfig) Quiescence() time.Duration {
	return time.Duration(w.QuiescenceSeconds) * time.Second
}

func (w WorkerConfig) ReclaimHorizon() time.Duration {
	return time.Duration(w.ReclaimHorizonSeconds) * time.Second
}

func (w WorkerConfig) PollIdle() time.Duration {
	return time.Duration(w.PollIdleSeconds * float64(time.Second))
}

func (w WorkerConfig) PerEventTimeout() time.Duration {
	return time.Duration(w.PerEventTimeoutSeconds) * time.Second
}

// LogsConfig is the optional retention knob from spec.md §6; zero
// means "retain indefinitely".
type LogsConfig struct {
	MaxDays int `yaml:"max_days"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from a YAML file and applies environment variable
// overrides, the teacher's pattern in cmd/*/main.go.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Pool.MinConnections == 0 {
		cfg.Pool.MinConnections = 2
	}
	if cfg.Pool.MaxOverflow == 0 {
		cfg.Pool.MaxOverflow = 8
	}
	if cfg.Pool.AcquireTimeoutSeconds == 0 {
		cfg.Pool.AcquireTimeoutSeconds = 5
	}
	if cfg.HTTP.BindPort == 0 {
		cfg.HTTP.BindPort = 8080
	}
	if cfg.HTTP.RequestTimeoutSeconds == 0 {
		cfg.HTTP.RequestTimeoutSeconds = 30
	}
	if cfg.Artifact.RootPath == "" {
		cfg.Artifact.RootPath = "/var/lib/camcoord/artifacts"
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = 10
	}
	if cfg.Worker.QuiescenceSeconds == 0 {
		cfg.Worker.QuiescenceSeconds = 5
	}
	if cfg.Worker.ReclaimHorizonSeconds == 0 {
		cfg.Worker.ReclaimHorizonSeconds = 300
	}
	if cfg.Worker.PollIdleSeconds == 0 {
		cfg.Worker.PollIdleSeconds = 2
	}
	if cfg.Worker.PerEventTimeoutSeconds == 0 {
		cfg.Worker.PerEventTimeoutSeconds = 60
	}
	if cfg.Worker.AIRetryBudget == 0 {
		cfg.Worker.AIRetryBudget = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CAMCOORD_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("CAMCOORD_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("CAMCOORD_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("CAMCOORD_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("CAMCOORD_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("CAMCOORD_POOL_MIN_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.MinConnections = n
		}
	}
	if v := os.Getenv("CAMCOORD_POOL_MAX_OVERFLOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.MaxOverflow = n
		}
	}
	if v := os.Getenv("CAMCOORD_HTTP_BIND_HOST"); v != "" {
		cfg.HTTP.BindHost = v
	}
	if v := os.Getenv("CAMCOORD_HTTP_BIND_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.BindPort = port
		}
	}
	if v := os.Getenv("CAMCOORD_ARTIFACT_ROOT"); v != "" {
		cfg.Artifact.RootPath = v
	}
	if v := os.Getenv("CAMCOORD_WORKER_AI_ENDPOINT_URL"); v != "" {
		cfg.Worker.AIEndpointURL = v
	}
	if v := os.Getenv("CAMCOORD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CAMCOORD_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
