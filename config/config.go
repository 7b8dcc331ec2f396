package config

import (
	"os"
	"strconv"
	"time"

	"ticket-shop/internal/services/gateway"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUUID         string

	// Payment gateway configuration
	Gateway gateway.Config

	// Settlement configuration
	SettlementLockTTL  time.Duration
	OrderNumberRetries int

	// Checkout rate limiting
	CheckoutRateLimit  int64
	CheckoutRateWindow time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUUID:         getEnv("PUBNUB_UUID", "ticket-shop"),

		// Gateway
		Gateway: gateway.Config{
			MerchantID:  getEnv("GATEWAY_MERCHANT_ID", "2000132"),
			HashKey:     getEnv("GATEWAY_HASH_KEY", ""),
			HashIV:      getEnv("GATEWAY_HASH_IV", ""),
			CheckoutURL: getEnv("GATEWAY_CHECKOUT_URL", "https://payment-stage.example.com/Cashier/AioCheckOut/V5"),
			QueryURL:    getEnv("GATEWAY_QUERY_URL", "https://payment-stage.example.com/Cashier/QueryTradeInfo/V5"),
			NotifyURL:   getEnv("GATEWAY_NOTIFY_URL", "http://localhost:8090/api/v1/payment/notify"),
			ResultURL:   getEnv("GATEWAY_RESULT_URL", "http://localhost:8090/api/v1/payment/return"),
			Sandbox:     getEnvAsBool("GATEWAY_SANDBOX", true),
			Timeout:     getEnvAsDuration("GATEWAY_TIMEOUT", "10s"),
		},

		// Settlement
		SettlementLockTTL:  getEnvAsDuration("SETTLEMENT_LOCK_TTL", "30s"),
		OrderNumberRetries: getEnvAsInt("ORDER_NUMBER_RETRIES", 3),

		// Rate limiting
		CheckoutRateLimit:  int64(getEnvAsInt("CHECKOUT_RATE_LIMIT", 30)),
		CheckoutRateWindow: getEnvAsDuration("CHECKOUT_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
