package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Session store configuration.
	SessionTTL       time.Duration
	SessionCacheSize int

	// Diagram configuration.
	DiagramFontPath string
	DiagramSize     int

	HTTPMaxUploadBytes int64
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

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	sessionTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("SESSION_TTL", "24h"))
	if err != nil || sessionTTL < 0 {
		return nil, errors.New("invalid SESSION_TTL")
	}

	sessionCacheSize, err := positiveInt("SESSION_CACHE_SIZE", 10000)
	if err != nil {
		return nil, err
	}

	diagramSize, err := positiveInt("DIAGRAM_SIZE", 400)
	if err != nil {
		return nil, err
	}

	maxUpload, err := positiveInt("HTTP_MAX_UPLOAD_BYTES", 20<<20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "windrose-updates"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "windrose-replies"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "windrose-bot"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		SessionTTL:       sessionTTL,
		SessionCacheSize: sessionCacheSize,

		DiagramFontPath: os.Getenv("DIAGRAM_FONT_PATH"),
		DiagramSize:     diagramSize,

		HTTPMaxUploadBytes: int64(maxUpload),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.DiagramFontPath != "" {
		if _, err := os.Stat(cfg.DiagramFontPath); err != nil {
			return nil, fmt.Errorf("DIAGRAM_FONT_PATH: %w", err)
		}
	}

	return cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
