package kafka_config

import "time"

const (
	DefaultReservationEventsTopic = "reservation-events"
	DefaultReconcileRequestsTopic = "calendar-reconcile-requests"
	DefaultReconcileGroupID       = "calendar-reconciler"
	DefaultDLQTopic               = "dlq-calendar-reconciler"
)

// Defaults is the configuration used for every key missing from the
// environment. Acks -1 waits for all in-sync replicas; offset -1 starts a new
// group at the newest message.
func Defaults() Config {
	return Config{
		Enabled: false,
		Brokers: []string{"localhost:9092"},
		Topics: Topics{
			ReservationEvents: DefaultReservationEventsTopic,
			ReconcileRequests: DefaultReconcileRequestsTopic,
			ReconcileGroupID:  DefaultReconcileGroupID,
			DLQ:               DefaultDLQTopic,
		},
		Producer: ProducerConfig{
			MaxAttempts:  3,
			BatchTimeout: 10 * time.Millisecond,
			RequireAcks:  -1,
			Compression:  "snappy",
		},
		Consumer: ConsumerConfig{
			StartOffset:       -1,
			MinBytes:          1,
			MaxBytes:          10 << 20,
			MaxWait:           500 * time.Millisecond,
			CommitInterval:    time.Second,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    10 * time.Second,
			RebalanceTimeout:  time.Minute,
			MaxRetries:        3,
			RetryBackoff:      200 * time.Millisecond,
		},
		EnableMiddleware: true,
	}
}
