package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	InputDir     string
	OutputDir    string
	Overwrite    bool
	ScanInterval time.Duration // 0 = convert once and exit

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// GeoNames timezone lookup configuration.
	GeonamesUsername  string
	GeonamesEnabled   bool
	GeonamesTimeout   time.Duration
	GeonamesCacheSize int

	// Optional Kafka manifest publishing.
	KafkaBrokers       []string
	KafkaManifestTopic string
	KafkaEnabled       bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	scanInterval, err := parseDuration("SCAN_INTERVAL", "0s")
	if err != nil || scanInterval < 0 {
		return nil, errors.New("invalid SCAN_INTERVAL")
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	geonamesTimeout, err := parseDuration("GEONAMES_TIMEOUT", "5s")
	if err != nil || geonamesTimeout <= 0 {
		return nil, errors.New("invalid GEONAMES_TIMEOUT")
	}

	geonamesUser := os.Getenv("GEONAMES_USERNAME")
	geonamesEnabled := geonamesUser != ""
	if v := os.Getenv("GEONAMES_ENABLED"); v != "" {
		geonamesEnabled = v == "true"
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		InputDir:     os.Getenv("INPUT_DIR"),
		OutputDir:    os.Getenv("OUTPUT_DIR"),
		Overwrite:    os.Getenv("OVERWRITE") == "true",
		ScanInterval: scanInterval,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeonamesUsername:  geonamesUser,
		GeonamesEnabled:   geonamesEnabled,
		GeonamesTimeout:   geonamesTimeout,
		GeonamesCacheSize: parseCacheSize(),

		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaManifestTopic: envOrDefault("KAFKA_MANIFEST_TOPIC", "conversion-manifest"),
		KafkaEnabled:       kafkaEnabled,
	}

	if cfg.InputDir == "" {
		return nil, errors.New("INPUT_DIR is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.GeonamesEnabled && cfg.GeonamesUsername == "" {
		return nil, errors.New("GEONAMES_ENABLED is true but GEONAMES_USERNAME is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	return time.ParseDuration(envOrDefault(key, def))
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseCacheSize() int {
	if s := os.Getenv("GEONAMES_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
