package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// BLS API configuration.
	BLSAPIURL      string
	BLSAPIKey      string
	BLSUserAgent   string
	BLSTimeout     time.Duration
	BLSMaxAttempts int

	// Reference data sources: an http(s) URL or a local path.
	StateDictionary      string
	OccupationDictionary string
	SalarySchedule       string

	Years     domain.YearRange
	BatchSize int
	TopK      int
	OutputDir string

	// Response caching.
	CacheSize int
	RedisAddr string
	RedisTTL  time.Duration

	// Optional Kafka publishing of table rows.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	if batchSize > domain.MaxSeriesPerRequest {
		return nil, fmt.Errorf("invalid BATCH_SIZE: %d exceeds the BLS limit of %d series per request", batchSize, domain.MaxSeriesPerRequest)
	}

	blsTimeout, err := parsePositiveDuration("BLS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	redisTTL, err := parsePositiveDuration("REDIS_TTL", "24h")
	if err != nil {
		return nil, err
	}

	maxAttempts, err := parsePositiveInt("BLS_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	topK, err := parsePositiveInt("TOP_K", 5)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	years, err := parseYears()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BLSAPIURL:      sharedcfg.EnvOrDefault("BLS_API_URL", "https://api.bls.gov/publicAPI/v2/timeseries/data/"),
		BLSAPIKey:      os.Getenv("BLS_API_KEY"),
		BLSUserAgent:   sharedcfg.EnvOrDefault("BLS_USER_AGENT", "oes-employment-etl/1.0"),
		BLSTimeout:     blsTimeout,
		BLSMaxAttempts: maxAttempts,

		StateDictionary:      sharedcfg.EnvOrDefault("STATE_DICTIONARY", "https://download.bls.gov/pub/time.series/sa/sa.state"),
		OccupationDictionary: sharedcfg.EnvOrDefault("OCCUPATION_DICTIONARY", "https://download.bls.gov/pub/time.series/oe/oe.occupation"),
		SalarySchedule:       sharedcfg.EnvOrDefault("SALARY_SCHEDULE", "Salary Data 2018 updated.txt"),

		Years:     years,
		BatchSize: batchSize,
		TopK:      topK,
		OutputDir: sharedcfg.EnvOrDefault("OUTPUT_DIR", "."),

		CacheSize: cacheSize,
		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisTTL:  redisTTL,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "oes-state-employment"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.BLSAPIURL == "" {
		return nil, errors.New("BLS_API_URL is required")
	}
	if cfg.SalarySchedule == "" {
		return nil, errors.New("SALARY_SCHEDULE is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// parseYears reads START_YEAR and END_YEAR. Both default to the last full
// calendar year, the most recent year OES annual estimates can exist for.
func parseYears() (domain.YearRange, error) {
	lastYear := time.Now().Year() - 1

	end, err := parsePositiveInt("END_YEAR", lastYear)
	if err != nil {
		return domain.YearRange{}, err
	}
	start, err := parsePositiveInt("START_YEAR", end)
	if err != nil {
		return domain.YearRange{}, err
	}

	years := domain.YearRange{Start: start, End: end}
	if err := years.Validate(); err != nil {
		return domain.YearRange{}, fmt.Errorf("invalid START_YEAR/END_YEAR: %w", err)
	}
	return years, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
