package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	DB           DBConfig           `yaml:"db"`
	Vector       VectorConfig       `yaml:"vector"`
	Redis        RedisConfig        `yaml:"redis"`
	Log          LogConfig          `yaml:"log"`
	Transport    TransportConfig    `yaml:"transport"`
	Auth         AuthConfig         `yaml:"auth"`
	Availability AvailabilityConfig `yaml:"availability"`
	Matching     MatchingConfig     `yaml:"matching"`
	Meeting      MeetingConfig      `yaml:"meeting"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Skills       SkillsConfig       `yaml:"skills"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// VectorConfig points at an optional Postgres database with pgvector. When
// empty, similarity is computed by SQLite.
type VectorConfig struct {
	PostgresURL string `yaml:"postgres_url"`
}

// RedisConfig enables realtime event publishing when URL is set.
type RedisConfig struct {
	URL string `yaml:"url"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "http" or "stdio"
}

type AuthConfig struct {
	Enabled      bool   `yaml:"enabled"`
	JWTSecret    string `yaml:"jwt_secret"`
	Issuer       string `yaml:"issuer"`
	DefaultActor string `yaml:"default_actor"`
}

type AvailabilityConfig struct {
	SplitMidnight bool `yaml:"split_midnight"`
}

type MatchingConfig struct {
	CandidateLimit int `yaml:"candidate_limit"`
}

type MeetingConfig struct {
	MaxProposals int `yaml:"max_proposals"`
}

type EmbeddingConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Retries  int           `yaml:"retries"`
	Backoff  time.Duration `yaml:"backoff"`
}

type SchedulerConfig struct {
	ExpirySpec string `yaml:"expiry_spec"`
	RescanSpec string `yaml:"rescan_spec"`
}

// SkillsConfig names an optional YAML skill tree loaded at startup.
type SkillsConfig struct {
	SeedPath string `yaml:"seed_path"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		DB: DBConfig{
			Path: "meshit.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		Matching: MatchingConfig{
			CandidateLimit: 50,
		},
		Meeting: MeetingConfig{
			MaxProposals: 3,
		},
		Embedding: EmbeddingConfig{
			Retries: 2,
			Backoff: time.Second,
		},
		Scheduler: SchedulerConfig{
			ExpirySpec: "@every 15m",
			RescanSpec: "@every 5m",
		},
	}
}

// Load reads an optional .env file, an optional YAML file and environment
// variables, in that order of increasing precedence.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("MESHIT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(getenv, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(getenv func(string) string, cfg *Config) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("MESHIT_SERVER_HOST", &cfg.Server.Host)
	str("MESHIT_DB_PATH", &cfg.DB.Path)
	str("MESHIT_VECTOR_POSTGRES_URL", &cfg.Vector.PostgresURL)
	str("MESHIT_REDIS_URL", &cfg.Redis.URL)
	str("MESHIT_LOG_LEVEL", &cfg.Log.Level)
	str("MESHIT_LOG_PATH", &cfg.Log.Path)
	str("MESHIT_TRANSPORT", &cfg.Transport.Mode)
	str("MESHIT_JWT_SECRET", &cfg.Auth.JWTSecret)
	str("MESHIT_JWT_ISSUER", &cfg.Auth.Issuer)
	str("MESHIT_DEFAULT_ACTOR", &cfg.Auth.DefaultActor)
	str("MESHIT_EMBEDDING_ENDPOINT", &cfg.Embedding.Endpoint)
	str("MESHIT_EXPIRY_SPEC", &cfg.Scheduler.ExpirySpec)
	str("MESHIT_RESCAN_SPEC", &cfg.Scheduler.RescanSpec)
	str("MESHIT_SKILL_SEED", &cfg.Skills.SeedPath)

	if v := getenv("MESHIT_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}
	if v := getenv("MESHIT_EMBEDDING_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MESHIT_EMBEDDING_BACKOFF: %w", err)
		}
		cfg.Embedding.Backoff = d
	}

	return errors.Join(
		num("MESHIT_SERVER_PORT", &cfg.Server.Port),
		num("MESHIT_MATCH_LIMIT", &cfg.Matching.CandidateLimit),
		num("MESHIT_MAX_PROPOSALS", &cfg.Meeting.MaxProposals),
		num("MESHIT_EMBEDDING_RETRIES", &cfg.Embedding.Retries),
		flag("MESHIT_AUTH_ENABLED", &cfg.Auth.Enabled),
		flag("MESHIT_SPLIT_MIDNIGHT", &cfg.Availability.SplitMidnight),
	)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		errs = append(errs, fmt.Errorf("transport.mode %q is not http or stdio", c.Transport.Mode))
	}
	if c.Auth.Enabled && c.Transport.Mode == "http" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when auth is enabled"))
	}
	if (!c.Auth.Enabled || c.Transport.Mode == "stdio") && c.Auth.DefaultActor == "" {
		errs = append(errs, errors.New("auth.default_actor is required for stdio or when auth is disabled"))
	}
	if c.Matching.CandidateLimit < 1 {
		errs = append(errs, errors.New("matching.candidate_limit must be positive"))
	}
	if c.Meeting.MaxProposals < 1 {
		errs = append(errs, errors.New("meeting.max_proposals must be positive"))
	}
	if c.Embedding.Retries < 0 || c.Embedding.Backoff < 0 {
		errs = append(errs, errors.New("embedding retries and backoff must not be negative"))
	}
	return errors.Join(errs...)
}
