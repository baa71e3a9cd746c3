package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Store      StoreConfig      `yaml:"store"`
	MongoDB    MongoDBConfig    `yaml:"mongo"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
	Logger     LoggerConfig     `yaml:"logger"`
	Auth       AuthConfig       `yaml:"auth"`
	Stripe     StripeConfig     `yaml:"stripe"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	MinIO      MinIOConfig      `yaml:"minio"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

type HTTPServerConfig struct {
	Port            string        `yaml:"port" env:"HTTP_PORT_RENTAL_SERVICE" env-default:"8085"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	TimeoutGraceful time.Duration `yaml:"timeout_graceful_shutdown" env-default:"15s"`
	// PublicBaseURL is the externally reachable origin used to build payment redirect URLs.
	PublicBaseURL      string `yaml:"public_base_url" env:"PUBLIC_BASE_URL" env-default:"http://localhost:8085"`
	PaymentLandingPath string `yaml:"payment_landing_path" env:"PAYMENT_LANDING_PATH" env-default:"/home"`
	MaxUploadBytes     int64  `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"10485760"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"mongo"`
}

type MongoDBConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	User     string `yaml:"user" env:"MONGO_USER"`
	Password string `yaml:"password" env:"MONGO_PASSWORD"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"rental_service_db"`
	// Transactions requires a replica set or sharded cluster.
	Transactions bool `yaml:"transactions" env:"MONGO_TRANSACTIONS" env-default:"true"`
}

type RedisConfig struct {
	Enabled         bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"true"`
	Addr            string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password        string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB              int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	ListingCacheTTL time.Duration `yaml:"listing_cache_ttl" env:"LISTING_CACHE_TTL" env-default:"5m"`
	ApprovalLockTTL time.Duration `yaml:"approval_lock_ttl" env:"APPROVAL_LOCK_TTL" env-default:"10s"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled" env:"NATS_ENABLED" env-default:"true"`
	URL     string `yaml:"url" env:"NATS_URL" env-default:"nats://localhost:4222"`
}

type LoggerConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding   string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
	TimeFormat string `yaml:"time_format" env:"LOG_TIME_FORMAT" env-default:"2006-01-02T15:04:05.000Z07:00"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `yaml:"currency" env:"STRIPE_CURRENCY" env-default:"usd"`
}

type SMTPConfig struct {
	Enabled     bool   `yaml:"enabled" env:"SMTP_ENABLED" env-default:"false"`
	Host        string `yaml:"host" env:"SMTP_HOST"`
	Port        int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username    string `yaml:"username" env:"SMTP_USERNAME"`
	Password    string `yaml:"password" env:"SMTP_PASSWORD"`
	SenderEmail string `yaml:"sender_email" env:"SMTP_SENDER_EMAIL"`
	Encryption  string `yaml:"encryption" env:"SMTP_ENCRYPTION" env-default:"tls"`
	ServerName  string `yaml:"server_name" env:"SMTP_SERVER_NAME"`
}

type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled" env:"MINIO_ENABLED" env-default:"false"`
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"listing-photos"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type MetricsConfig struct {
	Port      string `yaml:"port" env:"PROMETHEUS_METRICS_PORT" env-default:"9095"`
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" env-default:"rental_service"`
}

type TracingConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"rental-service"`
}

func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, cfg.Validate()
	}

	err := cleanenv.ReadConfig(path, &cfg)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
		log.Printf("Warning: Config file not found at %s, attempting to load from environment variables only.", path)
		if errEnv := cleanenv.ReadEnv(&cfg); errEnv != nil {
			return nil, errEnv
		}
	}
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return errors.New("store.driver must be one of: mongo, memory")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.SMTP.Enabled && (c.SMTP.Host == "" || c.SMTP.SenderEmail == "") {
		return errors.New("smtp.host and smtp.sender_email are required when smtp is enabled")
	}
	if c.HTTPServer.PublicBaseURL == "" {
		return errors.New("http_server.public_base_url is required")
	}
	return nil
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH_RENTAL_SERVICE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	return cfg
}
