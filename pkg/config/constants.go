package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:storefront.db?_foreign_keys=on"

	EventSinkPubSub = "pubsub"
	EventSinkKafka  = "kafka"
)

const (
	EnvAppEnv                  = "STOREFRONT_APP_ENV"
	EnvPort                    = "STOREFRONT_APP_PORT"
	EnvLogLevel                = "STOREFRONT_LOG_LEVEL"
	EnvCORSOrigins             = "STOREFRONT_CORS_ORIGINS"
	EnvDBDSN                   = "STOREFRONT_DB_DSN"
	EnvDBDriver                = "STOREFRONT_DB_DRIVER"
	EnvDBHost                  = "STOREFRONT_DB_HOST"
	EnvDBUser                  = "STOREFRONT_DB_USER"
	EnvDBName                  = "STOREFRONT_DB_NAME"
	EnvDBPassword              = "STOREFRONT_DB_PASSWORD"
	EnvRedisURL                = "STOREFRONT_REDIS_URL"
	EnvJWTSecret               = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer               = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins              = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID            = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic       = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub         = "STOREFRONT_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvKafkaBrokers            = "STOREFRONT_KAFKA_BROKERS"
	EnvKafkaOrdersTopic        = "STOREFRONT_KAFKA_ORDERS_TOPIC"
	EnvEventSink               = "STOREFRONT_EVENT_SINK"
	EnvCacheProductTTL         = "STOREFRONT_CACHE_PRODUCT_TTL"
	EnvEventingIdempotencyTTL  = "STOREFRONT_EVENTING_IDEMPOTENCY_TTL"
	EnvOutboxPublishBatchSize  = "STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvOutboxPublishPollMS     = "STOREFRONT_OUTBOX_PUBLISH_POLL_MS"
	EnvOutboxPublishMaxAttempt = "STOREFRONT_OUTBOX_MAX_ATTEMPTS"
)
