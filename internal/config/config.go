package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment    string
	LogLevel       string
	Server         ServerConfig
	Store          StoreConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	PaymentGateway PaymentGatewayConfig
	Pix            PixConfig
	Features       FeatureFlags
	Metrics        MetricsConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig selects the Order Store implementation. "postgres" is the
// production driver; "memory" is meant for local runs and demos.
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	OrdersTopic   string
	PaymentsTopic string
	ConsumerGroup string
}

// PaymentGatewayConfig holds the Mercado Pago credentials. An empty
// AccessToken means the gateway is not configured.
type PaymentGatewayConfig struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
}

func (p PaymentGatewayConfig) Configured() bool {
	return p.AccessToken != ""
}

type PixConfig struct {
	MerchantName     string
	MerchantCity     string
	PlaceholderEmail string
	QRCodeSize       int
}

type FeatureFlags struct {
	EnableOrderCaching bool
	EnableOrderEvents  bool
	ExposeDegradedPix  bool
}

type MetricsConfig struct {
	Path string
}

func Load() *Config {
	return &Config{
		Environment: getEnvString("APP_ENV", "local"),
		LogLevel:    getEnvString("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 5000),
			ReadTimeout:     time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("SERVER_SHUTDOWN_TIMEOUT", 30)) * time.Second,
		},
		Store: StoreConfig{
			Driver: getEnvString("STORE_DRIVER", "postgres"),
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "acme"),
			Password:     getEnvString("DB_PASSWORD", "acme"),
			Name:         getEnvString("DB_NAME", "acme_storefront"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvBool("KAFKA_ENABLED", false),
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic:   getEnvString("KAFKA_ORDERS_TOPIC", "storefront.orders"),
			PaymentsTopic: getEnvString("KAFKA_PAYMENTS_TOPIC", "storefront.payments"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "storefront-service"),
		},
		PaymentGateway: PaymentGatewayConfig{
			AccessToken: getEnvString("MERCADO_PAGO_ACCESS_TOKEN", ""),
			BaseURL:     getEnvString("MERCADO_PAGO_BASE_URL", "https://api.mercadopago.com"),
			Timeout:     time.Duration(getEnvInt("PAYMENT_GATEWAY_TIMEOUT", 15)) * time.Second,
			MaxRetries:  getEnvInt("PAYMENT_GATEWAY_MAX_RETRIES", 3),
		},
		Pix: PixConfig{
			MerchantName:     getEnvString("PIX_MERCHANT_NAME", "Acai Prime"),
			MerchantCity:     getEnvString("PIX_MERCHANT_CITY", "SAO PAULO"),
			PlaceholderEmail: getEnvString("PIX_PLACEHOLDER_EMAIL", "customer@example.com"),
			QRCodeSize:       getEnvInt("PIX_QR_CODE_SIZE", 256),
		},
		Features: FeatureFlags{
			EnableOrderCaching: getEnvBool("FEATURE_ORDER_CACHING", false),
			EnableOrderEvents:  getEnvBool("FEATURE_ORDER_EVENTS", false),
			ExposeDegradedPix:  getEnvBool("FEATURE_EXPOSE_DEGRADED_PIX", false),
		},
		Metrics: MetricsConfig{
			Path: getEnvString("METRICS_PATH", "/metrics"),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
