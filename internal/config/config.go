package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/precip-history-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	StationID  string        `validate:"required"`
	NWSBaseURL string        `validate:"required,url"`
	NWSTimeout time.Duration `validate:"-"`
	FetchLimit int           `validate:"min=1,max=168"`

	Timezone string         `validate:"required"`
	Location *time.Location `validate:"-"`

	RetentionHours  int                `validate:"min=48,max=168"`
	DetailLevel     domain.DetailLevel `validate:"min=1,max=3"`
	RainThresholdIn float64            `validate:"min=0"`

	PollInterval       time.Duration `validate:"-"`
	ThresholdCheckTime string        `validate:"required"`

	KafkaBrokers []string `validate:"required,min=1"`
	KafkaTopic   string   `validate:"required"`
	KafkaEnabled bool     `validate:"-"`

	HTTPAddr        string        `validate:"required"`
	LogLevel        string        `validate:"oneof=debug info warn error"`
	LogFormat       string        `validate:"oneof=json text"`
	ShutdownTimeout time.Duration `validate:"-"`
}

var validate = validator.New()

// fieldToEnv maps struct fields back to the environment variables that feed
// them, so validation failures name the knob the operator has to fix.
var fieldToEnv = map[string]string{
	"StationID":          "STATION_ID",
	"NWSBaseURL":         "NWS_BASE_URL",
	"FetchLimit":         "FETCH_LIMIT",
	"Timezone":           "TIMEZONE",
	"RetentionHours":     "RETENTION_HOURS",
	"DetailLevel":        "DETAIL_LEVEL",
	"RainThresholdIn":    "RAIN_THRESHOLD_IN",
	"ThresholdCheckTime": "THRESHOLD_CHECK_TIME",
	"KafkaBrokers":       "KAFKA_BROKERS",
	"KafkaTopic":         "KAFKA_TOPIC",
	"HTTPAddr":           "HTTP_ADDR",
	"LogLevel":           "LOG_LEVEL",
	"LogFormat":          "LOG_FORMAT",
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is merged in first;
// its absence is the normal production case.
func Load() (*Config, error) {
	_ = godotenv.Load()

	nwsTimeout, err := parseDuration("NWS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	pollInterval, err := parseDuration("POLL_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	if pollInterval < 5*time.Minute || pollInterval > 6*time.Hour {
		return nil, errors.New("POLL_INTERVAL must be between 5m and 6h")
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	fetchLimit, err := parseInt("FETCH_LIMIT", 48)
	if err != nil {
		return nil, err
	}
	retentionHours, err := parseInt("RETENTION_HOURS", 96)
	if err != nil {
		return nil, err
	}
	detailLevel, err := parseInt("DETAIL_LEVEL", 1)
	if err != nil {
		return nil, err
	}
	rainThreshold, err := parseFloat("RAIN_THRESHOLD_IN", 0.1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StationID:  os.Getenv("STATION_ID"),
		NWSBaseURL: envOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWSTimeout: nwsTimeout,
		FetchLimit: fetchLimit,

		Timezone: envOrDefault("TIMEZONE", "UTC"),

		RetentionHours:  retentionHours,
		DetailLevel:     domain.DetailLevel(detailLevel),
		RainThresholdIn: rainThreshold,

		PollInterval:       pollInterval,
		ThresholdCheckTime: envOrDefault("THRESHOLD_CHECK_TIME", "06:00"),

		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "station-attribute-updates"),
		KafkaEnabled: envOrDefault("KAFKA_ENABLED", "true") == "true",

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, describeValidationError(err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if _, err := time.Parse("15:04", cfg.ThresholdCheckTime); err != nil {
		return nil, fmt.Errorf("invalid THRESHOLD_CHECK_TIME %q: want HH:MM", cfg.ThresholdCheckTime)
	}

	return cfg, nil
}

// describeValidationError rewrites the first struct-validation failure in
// terms of the offending environment variable.
func describeValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fe := verrs[0]
	key := fieldToEnv[fe.StructField()]
	if key == "" {
		key = fe.StructField()
	}
	if fe.Tag() == "required" {
		return fmt.Errorf("%s is required", key)
	}
	return fmt.Errorf("invalid %s: fails %s=%s", key, fe.Tag(), fe.Param())
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: want a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: want an integer", key)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: want a number", key)
	}
	return v, nil
}
