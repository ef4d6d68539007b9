package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration. It merges file defaults and
// environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string
	MaxDBConns  int32

	KafkaBrokers       []string
	KafkaGroupID       string
	KafkaTopics        []string
	ConsumerPollEvery  time.Duration
	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	DeliveryQueueURL   string
	DeliveryQueueToken string
	CallbackBaseURL    string

	InternalToken string

	DedupTTL              time.Duration
	DisposableDomainsFile string
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL      string   `yaml:"postgres_url"`
		RedisURL         string   `yaml:"redis_url"`
		KafkaBrokers     []string `yaml:"kafka_brokers"`
		KafkaGroupID     string   `yaml:"kafka_group_id"`
		KafkaTopics      []string `yaml:"kafka_topics"`
		DeliveryQueueURL string   `yaml:"delivery_queue_url"`
	} `yaml:"dependencies"`
	Postbacks struct {
		CallbackBaseURL string `yaml:"callback_base_url"`
	} `yaml:"postbacks"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID: "partner-integrity",
		HTTPPort:  8080,
		GRPCPort:  9090,
		KafkaTopics: []string{
			"partner.lead.created",
			"partner.sale.created",
			"partner.commission.created",
		},
		KafkaGroupID:       "partner-integrity",
		ConsumerPollEvery:  2 * time.Second,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		MaxDBConns:         20,
		DedupTTL:           7 * 24 * time.Hour,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Dependencies.KafkaGroupID != "" {
			cfg.KafkaGroupID = f.Dependencies.KafkaGroupID
		}
		if len(f.Dependencies.KafkaTopics) > 0 {
			cfg.KafkaTopics = f.Dependencies.KafkaTopics
		}
		if f.Dependencies.DeliveryQueueURL != "" {
			cfg.DeliveryQueueURL = f.Dependencies.DeliveryQueueURL
		}
		if f.Postbacks.CallbackBaseURL != "" {
			cfg.CallbackBaseURL = f.Postbacks.CallbackBaseURL
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaGroupID = envOrDefault("KAFKA_GROUP_ID", cfg.KafkaGroupID)
	cfg.KafkaTopics = envCSV("KAFKA_TOPICS", cfg.KafkaTopics)
	cfg.DeliveryQueueURL = envOrDefault("DELIVERY_QUEUE_URL", cfg.DeliveryQueueURL)
	cfg.DeliveryQueueToken = envOrDefault("DELIVERY_QUEUE_TOKEN", cfg.DeliveryQueueToken)
	cfg.CallbackBaseURL = envOrDefault("CALLBACK_BASE_URL", cfg.CallbackBaseURL)
	cfg.InternalToken = envOrDefault("INTERNAL_SERVICE_TOKEN", cfg.InternalToken)
	cfg.DisposableDomainsFile = envOrDefault("DISPOSABLE_DOMAINS_FILE", cfg.DisposableDomainsFile)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollEvery = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollEvery.Seconds()))) * time.Second
	cfg.DedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_DAYS", int(cfg.DedupTTL.Hours()/24))) * 24 * time.Hour

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.CallbackBaseURL == "" {
		return Config{}, fmt.Errorf("missing CALLBACK_BASE_URL")
	}
	if cfg.InternalToken == "" {
		return Config{}, fmt.Errorf("missing INTERNAL_SERVICE_TOKEN")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
