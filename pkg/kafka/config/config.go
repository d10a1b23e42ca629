package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cabins/pkg/logger"
)

// Config gates and tunes every producer and consumer. When Enabled is false
// the services run without publishing events or listening for reconcile
// requests.
type Config struct {
	Enabled          bool
	Brokers          []string
	Topics           Topics
	Producer         ProducerConfig
	Consumer         ConsumerConfig
	EnableMiddleware bool
}

type Topics struct {
	ReservationEvents string
	ReconcileRequests string
	ReconcileGroupID  string
	DLQ               string
}

type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 all, 0 none, 1 leader
	Compression  string // none, gzip, snappy, lz4, zstd
}

type ConsumerConfig struct {
	StartOffset       int64 // -1 newest, -2 oldest
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	CommitInterval    time.Duration
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
}

var validCompressions = map[string]bool{"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true}

// Load overlays the environment on Defaults. Validation only runs when Kafka
// is enabled.
func Load() (*Config, error) {
	cfg := Defaults()

	cfg.Enabled = fromEnv(EnvKafkaEnabled, cfg.Enabled, strconv.ParseBool)
	cfg.EnableMiddleware = fromEnv(EnvKafkaEnableMiddleware, cfg.EnableMiddleware, strconv.ParseBool)
	if raw := os.Getenv(EnvKafkaBrokers); raw != "" {
		cfg.Brokers = splitBrokers(raw)
	}

	t := &cfg.Topics
	t.ReservationEvents = fromEnv(EnvKafkaReservationEventsTopic, t.ReservationEvents, asString)
	t.ReconcileRequests = fromEnv(EnvKafkaReconcileRequestsTopic, t.ReconcileRequests, asString)
	t.ReconcileGroupID = fromEnv(EnvKafkaReconcileGroupID, t.ReconcileGroupID, asString)
	t.DLQ = fromEnv(EnvKafkaDLQTopic, t.DLQ, asString)

	p := &cfg.Producer
	p.MaxAttempts = fromEnv(EnvKafkaProducerMaxAttempts, p.MaxAttempts, strconv.Atoi)
	p.BatchTimeout = fromEnv(EnvKafkaProducerBatchTimeout, p.BatchTimeout, time.ParseDuration)
	p.RequireAcks = fromEnv(EnvKafkaProducerRequireAcks, p.RequireAcks, strconv.Atoi)
	p.Compression = fromEnv(EnvKafkaProducerCompression, p.Compression, asString)

	c := &cfg.Consumer
	c.StartOffset = fromEnv(EnvKafkaConsumerStartOffset, c.StartOffset, asInt64)
	c.MinBytes = fromEnv(EnvKafkaConsumerMinBytes, c.MinBytes, strconv.Atoi)
	c.MaxBytes = fromEnv(EnvKafkaConsumerMaxBytes, c.MaxBytes, strconv.Atoi)
	c.MaxWait = fromEnv(EnvKafkaConsumerMaxWait, c.MaxWait, time.ParseDuration)
	c.CommitInterval = fromEnv(EnvKafkaConsumerCommitInterval, c.CommitInterval, time.ParseDuration)
	c.HeartbeatInterval = fromEnv(EnvKafkaConsumerHeartbeatInterval, c.HeartbeatInterval, time.ParseDuration)
	c.SessionTimeout = fromEnv(EnvKafkaConsumerSessionTimeout, c.SessionTimeout, time.ParseDuration)
	c.RebalanceTimeout = fromEnv(EnvKafkaConsumerRebalanceTimeout, c.RebalanceTimeout, time.ParseDuration)
	c.MaxRetries = fromEnv(EnvKafkaConsumerMaxRetries, c.MaxRetries, strconv.Atoi)
	c.RetryBackoff = fromEnv(EnvKafkaConsumerRetryBackoff, c.RetryBackoff, time.ParseDuration)

	if !cfg.Enabled {
		return &cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate lists every problem at once rather than stopping at the first.
func (cfg *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(len(cfg.Brokers) > 0, "At least one Kafka broker is required")
	for i, broker := range cfg.Brokers {
		check(broker != "", "Broker %d cannot be empty", i)
	}

	check(cfg.Topics.ReservationEvents != "", "ReservationEvents topic cannot be empty")
	check(cfg.Topics.ReconcileRequests != "", "ReconcileRequests topic cannot be empty")
	check(cfg.Topics.ReconcileGroupID != "", "ReconcileGroupID cannot be empty")

	p := cfg.Producer
	check(p.MaxAttempts > 0, "Producer.MaxAttempts must be positive, got: %d", p.MaxAttempts)
	check(p.BatchTimeout > 0, "Producer.BatchTimeout must be positive, got: %s", p.BatchTimeout)
	check(validCompressions[p.Compression], "Producer.Compression must be one of [none, gzip, snappy, lz4, zstd], got: %s", p.Compression)
	check(p.RequireAcks >= -1 && p.RequireAcks <= 1, "Producer.RequireAcks must be -1, 0, or 1, got: %d", p.RequireAcks)

	c := cfg.Consumer
	check(c.StartOffset >= -2, "Consumer.StartOffset must be -1 (newest), -2 (oldest), or >= 0, got: %d", c.StartOffset)
	check(c.MinBytes > 0 && c.MaxBytes >= c.MinBytes, "Consumer byte bounds invalid: min %d, max %d", c.MinBytes, c.MaxBytes)
	for name, d := range map[string]time.Duration{
		"MaxWait":           c.MaxWait,
		"CommitInterval":    c.CommitInterval,
		"HeartbeatInterval": c.HeartbeatInterval,
		"SessionTimeout":    c.SessionTimeout,
		"RebalanceTimeout":  c.RebalanceTimeout,
	} {
		check(d > 0, "Consumer.%s must be positive, got: %s", name, d)
	}
	check(c.MaxRetries >= 0, "Consumer.MaxRetries cannot be negative, got: %d", c.MaxRetries)
	check(c.RetryBackoff >= 0, "Consumer.RetryBackoff cannot be negative, got: %s", c.RetryBackoff)

	if len(problems) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("Kafka configuration validation failed:\n")
	for i, problem := range problems {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, problem)
	}
	return fmt.Errorf("%s", b.String())
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	if !cfg.Enabled {
		log.Info("Kafka disabled")
		return
	}

	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"reservation_events_topic", cfg.Topics.ReservationEvents,
		"reconcile_requests_topic", cfg.Topics.ReconcileRequests,
		"reconcile_group_id", cfg.Topics.ReconcileGroupID,
		"dlq_topic", cfg.Topics.DLQ,
		"producer_max_attempts", cfg.Producer.MaxAttempts,
		"producer_require_acks", cfg.Producer.RequireAcks,
		"producer_compression", cfg.Producer.Compression,
		"consumer_start_offset", cfg.Consumer.StartOffset,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

// fromEnv returns the parsed value of key, or fallback when the variable is
// unset or does not parse.
func fromEnv[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

func asString(s string) (string, error) { return s, nil }

func asInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		brokers = append(brokers, strings.TrimSpace(part))
	}
	return brokers
}
