package main

import (
	"context"
	"time"

	"cabins/internal/calendar/cache"
	calendarhandler "cabins/internal/calendar/handler"
	calendarservice "cabins/internal/calendar/service"
	calendarvalidator "cabins/internal/calendar/validator"
	reconcileconsumer "cabins/internal/reconciliation/consumer"
	reconcilehandler "cabins/internal/reconciliation/handler"
	reconcileservice "cabins/internal/reconciliation/service"
	"cabins/internal/reservations/events"
	"cabins/internal/reservations/handler"
	"cabins/internal/reservations/service"
	"cabins/internal/reservations/validator"
	"cabins/internal/store"
	"cabins/pkg/app"
	"cabins/pkg/config"
	"cabins/pkg/kafka"
	kafka_config "cabins/pkg/kafka/config"
	kafkamiddleware "cabins/pkg/kafka/middleware"
)

const (
	ServiceName = "reservations"

	metricsLogInterval = time.Minute
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetRedis()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	cfg.Log.Info("Starting Reservations service")
	stores := store.Open(cfg)
	serverApp := app.NewApplication()

	var searchCache cache.SearchCache
	var sinks []service.EventSink
	if cfg.Client.Redis != nil {
		redisCache := cache.NewRedisSearchCache(cfg.Client.Redis, cfg.SearchCacheTTL, cfg.Log)
		searchCache = redisCache
		sinks = append(sinks, redisCache)
	}

	var metrics *kafkamiddleware.Metrics
	if kafkaCfg.Enabled {
		metrics = kafkamiddleware.NewMetrics()
		producer := initProducer(cfg, kafkaCfg, metrics)
		sinks = append(sinks, events.NewKafkaSink(producer, cfg.Log))
		serverApp.AddCloser("kafka-producer", producer.Close)
	}

	reservationService := service.NewReservationService(
		stores.Tx,
		stores.Rooms,
		stores.Reservations,
		stores.Calendar,
		cfg,
		sinks...,
	)
	availabilityService := calendarservice.NewAvailabilityService(
		stores.Tx,
		stores.Rooms,
		stores.Calendar,
		stores.Blocks,
		searchCache,
		cfg,
	)
	reconciler := reconcileservice.NewReconciler(
		stores.Tx,
		stores.Rooms,
		stores.Reservations,
		stores.Calendar,
		stores.Blocks,
		cfg,
	)

	calValidator := calendarvalidator.NewCalendarValidator(cfg.Log)
	serverApp.SetApp(cfg,
		handler.NewReservationHandler(reservationService, validator.NewReservationValidator(cfg.Log), cfg.Log),
		calendarhandler.NewAvailabilityHandler(availabilityService, calValidator, cfg.Log),
		reconcilehandler.NewReconcileHandler(reconciler, calValidator, cfg),
	)

	scheduler := reconcileservice.NewScheduler(reconciler, cfg)
	serverApp.AddWorker("reconcile-scheduler", func(ctx context.Context) error {
		scheduler.Run(ctx)
		return nil
	})

	if kafkaCfg.Enabled {
		consumer := initReconcileConsumer(cfg, kafkaCfg, reconciler, metrics)
		serverApp.AddWorker("reconcile-consumer", consumer.Start)
		serverApp.AddCloser("reconcile-consumer", consumer.Close)
		serverApp.AddWorker("kafka-metrics", func(ctx context.Context) error {
			logMetrics(ctx, cfg, metrics)
			return nil
		})
	}

	serverApp.Run()
}

func initProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, metrics *kafkamiddleware.Metrics) *kafka.Producer {
	log := cfg.Log.Component("reservation-events")
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.Topics.ReservationEvents, kafkaCfg.Topics.DLQ, log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(log))
		producer.Use(metrics.ProducerMiddleware())
	}
	cfg.Log.Info("Reservation events publisher initialized", "topic", producer.Topic())
	return producer
}

func initReconcileConsumer(cfg *config.Config, kafkaCfg *kafka_config.Config, reconciler reconcileservice.Reconciler, metrics *kafkamiddleware.Metrics) *kafka.Consumer {
	log := cfg.Log.Component("reconcile-consumer")
	handle := reconcileconsumer.NewReconcileConsumer(reconciler, cfg).Handle
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.Topics.ReconcileRequests,
		kafkaCfg.Topics.ReconcileGroupID,
		kafkaCfg.Topics.DLQ,
		handle,
		log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create reconcile consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(log))
		consumer.Use(metrics.ConsumerMiddleware())
	}
	cfg.Log.Info("Reconcile request consumer initialized",
		"topic", kafkaCfg.Topics.ReconcileRequests,
		"group_id", kafkaCfg.Topics.ReconcileGroupID,
	)
	return consumer
}

func logMetrics(ctx context.Context, cfg *config.Config, metrics *kafkamiddleware.Metrics) {
	ticker := time.NewTicker(metricsLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.Log(cfg.Log)
		case <-ctx.Done():
			metrics.Log(cfg.Log)
			return
		}
	}
}
