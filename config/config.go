package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	JWT           JWTConfig           `yaml:"jwt"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
	Challenge     ChallengeConfig     `yaml:"challenge"`
	Booking       BookingConfig       `yaml:"booking"`
	Judging       JudgingConfig       `yaml:"judging"`
	Blog          BlogConfig          `yaml:"blog"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL keeps events in process
// and slot locks in Postgres.
type NATSConfig struct {
	URL      string `yaml:"url"`
	NkeySeed string `yaml:"nkey_seed"`
	KVBucket string `yaml:"kv_bucket"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// HTTPConfig holds API server configuration.
type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
}

// ObservabilityConfig holds configuration for logging and metrics.
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"` // json|text
	Environment    string `yaml:"environment"`
}

// ChallengeConfig selects the running challenge.
type ChallengeConfig struct {
	Slug          string        `yaml:"slug"`
	PhaseCacheTTL time.Duration `yaml:"phase_cache_ttl"`
}

// BookingConfig controls timeslot locking and availability throttling.
type BookingConfig struct {
	Expiration          time.Duration `yaml:"expiration"`
	ThrottlingEnabled   bool          `yaml:"throttling_enabled"`
	ThrottlingUsers     int           `yaml:"throttling_users"`
	ThrottlingTimedelta time.Duration `yaml:"throttling_timedelta"`
	ReminderInterval    time.Duration `yaml:"reminder_interval"`
}

// JudgingConfig controls judge assignment.
type JudgingConfig struct {
	JudgesPerSubmission int `yaml:"judges_per_submission"`
}

// BlogConfig lists the feeds imported into blog entries, keyed by page.
type BlogConfig struct {
	Feeds          map[string]string `yaml:"feeds"`
	ImportInterval time.Duration     `yaml:"import_interval"`
	EntriesPerFeed int               `yaml:"entries_per_feed"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	data, err := os.ReadFile(filename)
	if err != nil {
		return loadConfigFromEnv()
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing overrides a field.
func Defaults() *Config {
	return &Config{
		JWT: JWTConfig{DefaultTTL: 24 * time.Hour},
		HTTP: HTTPConfig{
			Address:   ":8080",
			RateLimit: 10,
			RateBurst: 20,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
		Challenge: ChallengeConfig{
			Slug:          "ignite-challenge",
			PhaseCacheTTL: 5 * time.Minute,
		},
		Booking: BookingConfig{
			Expiration:          5 * time.Minute,
			ThrottlingEnabled:   true,
			ThrottlingUsers:     10,
			ThrottlingTimedelta: 24 * time.Hour,
			ReminderInterval:    24 * time.Hour,
		},
		Judging: JudgingConfig{JudgesPerSubmission: 2},
		Blog: BlogConfig{
			Feeds:          map[string]string{},
			ImportInterval: time.Hour,
			EntriesPerFeed: 3,
		},
	}
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	cfg := Defaults()

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NkeySeed = v
	}
	if v := os.Getenv("NATS_KV_BUCKET"); v != "" {
		cfg.NATS.KVBucket = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("IGNITE_CHALLENGE_SLUG"); v != "" {
		cfg.Challenge.Slug = v
	}
	if v := os.Getenv("BOOKING_THROTTLING"); v != "" {
		cfg.Booking.ThrottlingEnabled = v == "true"
	}

	durations := map[string]*time.Duration{
		"JWT_DEFAULT_TTL":              &cfg.JWT.DefaultTTL,
		"PHASE_CACHE_TTL":              &cfg.Challenge.PhaseCacheTTL,
		"BOOKING_EXPIRATION":           &cfg.Booking.Expiration,
		"BOOKING_THROTTLING_TIMEDELTA": &cfg.Booking.ThrottlingTimedelta,
		"BOOKING_REMINDER_INTERVAL":    &cfg.Booking.ReminderInterval,
		"BLOG_IMPORT_INTERVAL":         &cfg.Blog.ImportInterval,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %v", key, err)
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"BOOKING_THROTTLING_USERS": &cfg.Booking.ThrottlingUsers,
		"JUDGES_PER_SUBMISSION":    &cfg.Judging.JudgesPerSubmission,
		"BLOG_ENTRIES_PER_FEED":    &cfg.Blog.EntriesPerFeed,
		"HTTP_RATE_BURST":          &cfg.HTTP.RateBurst,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %v", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_LIMIT value: %v", err)
		}
		cfg.HTTP.RateLimit = f
	}
	return nil
}
