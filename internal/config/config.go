package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	postgres "github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/storage/postgres"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/webhook"
)

// Config aggregates runtime configuration grouped by concern.
type Config struct {
	ServiceName string
	HTTP        HTTPConfig
	Webhook     WebhookConfig
	Consensus   ConsensusConfig
	Kafka       KafkaConfig
	Database    postgres.DatabaseConfig
	// UseDatabase selects the Postgres dead letter store; when false the
	// in-memory store is used.
	UseDatabase bool
}

type HTTPConfig struct {
	Addr string
}

type WebhookConfig struct {
	Endpoint      string
	MerchantID    string
	SigningSecret string
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Workers       int
	QueueCapacity int
	EnqueueMode   webhook.EnqueueMode
}

type ConsensusConfig struct {
	Enabled         bool
	AmountThreshold int64
	AgentSet        []string
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// Load reads configuration from environment variables, applying sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "agentic-payment-gateway"),
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_LISTEN_ADDR", ":3000"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "webhook.delivery"),
		},
	}

	maxRetries, err := getEnvInt("WEBHOOK_MAX_RETRIES", webhook.DefaultMaxRetries)
	if err != nil {
		return Config{}, err
	}
	baseDelayMs, err := getEnvInt("WEBHOOK_BASE_RETRY_DELAY_MS", int(webhook.DefaultBaseDelay/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	maxDelayMs, err := getEnvInt("WEBHOOK_MAX_RETRY_DELAY_MS", int(webhook.DefaultMaxDelay/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	workers, err := getEnvInt("WEBHOOK_WORKER_POOL_SIZE", webhook.DefaultWorkerPoolSize)
	if err != nil {
		return Config{}, err
	}
	capacity, err := getEnvInt("WEBHOOK_QUEUE_CAPACITY", webhook.DefaultQueueCapacity)
	if err != nil {
		return Config{}, err
	}

	mode := webhook.EnqueueFail
	switch raw := getEnv("WEBHOOK_ENQUEUE_MODE", "fail"); raw {
	case "fail":
	case "block":
		mode = webhook.EnqueueBlock
	default:
		return Config{}, fmt.Errorf("invalid WEBHOOK_ENQUEUE_MODE %q (want fail or block)", raw)
	}

	cfg.Webhook = WebhookConfig{
		Endpoint:      getEnv("WEBHOOK_ENDPOINT", ""),
		MerchantID:    getEnv("WEBHOOK_MERCHANT_ID", ""),
		SigningSecret: getEnv("WEBHOOK_SIGNING_SECRET", ""),
		MaxRetries:    maxRetries,
		BaseDelay:     time.Duration(baseDelayMs) * time.Millisecond,
		MaxDelay:      time.Duration(maxDelayMs) * time.Millisecond,
		Workers:       workers,
		QueueCapacity: capacity,
		EnqueueMode:   mode,
	}

	threshold, err := getEnvInt("CONSENSUS_AMOUNT_THRESHOLD", 1_000_000)
	if err != nil {
		return Config{}, err
	}
	cfg.Consensus = ConsensusConfig{
		Enabled:         getEnv("CONSENSUS_GATE_ENABLED", "false") == "true",
		AmountThreshold: int64(threshold),
		AgentSet:        splitAndTrim(getEnv("CONSENSUS_AGENT_SET", "")),
	}

	if host := getEnv("DLQ_DB_HOST", ""); host != "" {
		port, err := getEnvInt("DLQ_DB_PORT", 5432)
		if err != nil {
			return Config{}, err
		}
		cfg.UseDatabase = true
		cfg.Database = postgres.DatabaseConfig{
			Host:     host,
			Port:     port,
			Database: getEnv("DLQ_DB_NAME", "paymentgateway"),
			User:     getEnv("DLQ_DB_USER", "paymentgatewayadmin"),
			Password: getEnv("DLQ_DB_PASSWORD", ""),
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
