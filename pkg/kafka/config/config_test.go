package kafka_config

import (
	"strings"
	"testing"
)

func TestLoad_DisabledSkipsValidation(t *testing.T) {
	t.Setenv(EnvKafkaEnabled, "false")
	t.Setenv(EnvKafkaProducerCompression, "brotli")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Enabled {
		t.Errorf("expected Kafka disabled")
	}
}

func TestLoad_EnabledValidates(t *testing.T) {
	t.Setenv(EnvKafkaEnabled, "true")
	t.Setenv(EnvKafkaProducerCompression, "brotli")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "Producer.Compression") {
		t.Errorf("error should mention compression: %v", err)
	}
}

func TestLoad_Topics(t *testing.T) {
	t.Setenv(EnvKafkaEnabled, "true")
	t.Setenv(EnvKafkaBrokers, "k1:9092, k2:9092")
	t.Setenv(EnvKafkaReservationEventsTopic, "events-v2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Brokers)
	}
	if cfg.Topics.ReservationEvents != "events-v2" {
		t.Errorf("unexpected topic: %s", cfg.Topics.ReservationEvents)
	}
	if cfg.Topics.ReconcileRequests != DefaultReconcileRequestsTopic {
		t.Errorf("unexpected reconcile topic: %s", cfg.Topics.ReconcileRequests)
	}
}

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults() should validate: %v", err)
	}
}

func TestValidate_ListsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Brokers = []string{""}
	cfg.Producer.RequireAcks = 2
	cfg.Consumer.MaxWait = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"Broker 0", "RequireAcks", "Consumer.MaxWait"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestLoad_UnparsableValueFallsBack(t *testing.T) {
	t.Setenv(EnvKafkaConsumerMaxRetries, "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Consumer.MaxRetries != Defaults().Consumer.MaxRetries {
		t.Errorf("unexpected retries: %d", cfg.Consumer.MaxRetries)
	}
}
