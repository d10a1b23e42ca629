package config

import "time"

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"

	DefaultStoreDriver = StoreDriverMongo

	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "cabins"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisDB        = 0
	DefaultSearchCacheTTL = 30 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout   = 30 * time.Second
	DefaultOperationTimeout = 5 * time.Second
	DefaultIdempotencyTTL   = 24 * time.Hour
	DefaultMaxRequestSize   = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultLogLevel = "info"

	DefaultMinNights            = 5
	DefaultReconcileHorizonDays = 150
	DefaultReconcileInterval    = time.Duration(0)
)
