package config

const (
	EnvStoreDriver = "STORE_DRIVER"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr      = "REDIS_ADDR"
	EnvRedisPassword  = "REDIS_PASSWORD"
	EnvRedisDB        = "REDIS_DB"
	EnvSearchCacheTTL = "SEARCH_CACHE_TTL"

	EnvPort          = "PORT"
	EnvLogLevel      = "LOG_LEVEL"
	EnvGatewaySecret = "GATEWAY_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout   = "REQUEST_TIMEOUT"
	EnvOperationTimeout = "OPERATION_TIMEOUT"
	EnvIdempotencyTTL   = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize   = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvMinNights            = "MIN_NIGHTS"
	EnvReconcileHorizonDays = "RECONCILE_HORIZON_DAYS"
	EnvReconcileInterval    = "RECONCILE_INTERVAL"
)
