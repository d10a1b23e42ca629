package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"cabins/pkg/client"
	"cabins/pkg/logger"
)

type Config struct {
	StoreDriver string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SearchCacheTTL time.Duration

	Port string

	// GatewaySecret signs the principal headers. Empty trusts them as sent.
	GatewaySecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout   time.Duration
	OperationTimeout time.Duration
	IdempotencyTTL   time.Duration
	MaxRequestSize   int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MinNights            int
	ReconcileHorizonDays int
	ReconcileInterval    time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		StoreDriver: getEnvStr(EnvStoreDriver, DefaultStoreDriver),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:      getEnvStr(EnvRedisAddr, ""),
		RedisPassword:  getEnvStr(EnvRedisPassword, ""),
		RedisDB:        getEnvNum(EnvRedisDB, DefaultRedisDB),
		SearchCacheTTL: getEnvDuration(EnvSearchCacheTTL, DefaultSearchCacheTTL),

		Port:          getEnvStr(EnvPort, DefaultPort),
		GatewaySecret: getEnvStr(EnvGatewaySecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout:   getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		OperationTimeout: getEnvDuration(EnvOperationTimeout, DefaultOperationTimeout),
		IdempotencyTTL:   getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize:   getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		MinNights:            getEnvNum(EnvMinNights, DefaultMinNights),
		ReconcileHorizonDays: getEnvNum(EnvReconcileHorizonDays, DefaultReconcileHorizonDays),
		ReconcileInterval:    getEnvDuration(EnvReconcileInterval, DefaultReconcileInterval),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Default returns a configuration populated with defaults only, without reading
// the environment or connecting to anything. Tests build on it.
func Default(log *logger.Logger) *Config {
	return &Config{
		StoreDriver:          StoreDriverMemory,
		MongoURI:             DefaultMongoURI,
		MongoDatabaseName:    DefaultMongoDatabaseName,
		MongoConnTimeout:     DefaultMongoConnTimeout,
		RedisDB:              DefaultRedisDB,
		SearchCacheTTL:       DefaultSearchCacheTTL,
		Port:                 DefaultPort,
		RateLimitRequests:    DefaultRateLimitRequests,
		RateLimitWindow:      DefaultRateLimitWindow,
		RequestTimeout:       DefaultRequestTimeout,
		OperationTimeout:     DefaultOperationTimeout,
		IdempotencyTTL:       DefaultIdempotencyTTL,
		MaxRequestSize:       DefaultMaxRequestSize,
		ReadTimeout:          DefaultReadTimeout,
		WriteTimeout:         DefaultWriteTimeout,
		IdleTimeout:          DefaultIdleTimeout,
		ShutdownTimeout:      DefaultShutdownTimeout,
		MinNights:            DefaultMinNights,
		ReconcileHorizonDays: DefaultReconcileHorizonDays,
		ReconcileInterval:    DefaultReconcileInterval,
		Log:                  log,
		Client:               client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the search cache. It is a no-op when no address is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis address not set, availability search cache disabled")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) UsesMongo() bool {
	return cfg.StoreDriver == StoreDriverMongo
}

func (cfg *Config) Validate() error {
	var errors []string

	if cfg.StoreDriver != StoreDriverMongo && cfg.StoreDriver != StoreDriverMemory {
		errors = append(errors, fmt.Sprintf("StoreDriver must be one of [%s, %s], got: %s", StoreDriverMongo, StoreDriverMemory, cfg.StoreDriver))
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.StoreDriver == StoreDriverMongo {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.SearchCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SearchCacheTTL must be positive, got: %s", cfg.SearchCacheTTL))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.OperationTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("OperationTimeout must be positive, got: %s", cfg.OperationTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.MinNights < 1 {
		errors = append(errors, fmt.Sprintf("MinNights must be at least 1, got: %d", cfg.MinNights))
	}
	if cfg.ReconcileHorizonDays < 1 {
		errors = append(errors, fmt.Sprintf("ReconcileHorizonDays must be at least 1, got: %d", cfg.ReconcileHorizonDays))
	}
	if cfg.ReconcileInterval < 0 {
		errors = append(errors, fmt.Sprintf("ReconcileInterval cannot be negative, got: %s", cfg.ReconcileInterval))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"search_cache_ttl", cfg.SearchCacheTTL,
		"port", cfg.Port,
		"gateway_secret_set", cfg.GatewaySecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"operation_timeout", cfg.OperationTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"min_nights", cfg.MinNights,
		"reconcile_horizon_days", cfg.ReconcileHorizonDays,
		"reconcile_interval", cfg.ReconcileInterval,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
