// Package config loads the application configuration from the YAML file
// named by CONFIG_PATH, with environment variable overrides for secrets.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root settings structure shared by all binaries.
type Config struct {
	Env                     string        `yaml:"env" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	FrontendBaseURL         string        `yaml:"frontend_base_url"`
	PaymentCallbackURL      string        `yaml:"payment_callback_url"`
	RabbitMQURL             string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries      int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay      time.Duration `yaml:"rabbitmq_retry_delay" env-default:"5s"`
	SweepInterval           time.Duration `yaml:"sweep_interval" env-default:"1h"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	SMTP                    `yaml:"smtp"`
	PayDunya                `yaml:"paydunya"`
	FedaPay                 `yaml:"fedapay"`
}

// HTTPServer holds the listener settings.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection holds the cache settings.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken holds the token signing settings. Access tokens are short
// lived, refresh tokens last a week by default.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	AccessTTL    time.Duration `yaml:"access_ttl" env-default:"24h"`
	RefreshTTL   time.Duration `yaml:"refresh_ttl" env-default:"168h"`
}

// SMTP holds the mail delivery settings for the notification-sender.
type SMTP struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port" env-default:"587"`
	SMTPUser string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass string `yaml:"smtp_pass" env:"SMTP_PASS"`
}

// PayDunya holds the gateway credentials attached to every request as
// the three PAYDUNYA-* headers, plus the webhook signing secret.
type PayDunya struct {
	MasterKey     string        `yaml:"master_key" env:"PAYDUNYA_MASTER_KEY"`
	PrivateKey    string        `yaml:"private_key" env:"PAYDUNYA_PRIVATE_KEY"`
	Token         string        `yaml:"token" env:"PAYDUNYA_TOKEN"`
	BaseURL       string        `yaml:"base_url" env-default:"https://app.paydunya.com/api/v1"`
	StoreName     string        `yaml:"store_name" env-default:"Pronostic Platform"`
	WebhookSecret string        `yaml:"webhook_secret" env:"PAYDUNYA_WEBHOOK_SECRET"`
	Timeout       time.Duration `yaml:"timeout" env-default:"15s"`
}

// FedaPay holds the FedaPay API settings.
type FedaPay struct {
	APIToken string        `yaml:"api_token" env:"FEDAPAY_API_TOKEN"`
	BaseURL  string        `yaml:"base_url" env-default:"https://api.fedapay.com/v1"`
	Timeout  time.Duration `yaml:"timeout" env-default:"15s"`
}

// MustLoad reads the config named by CONFIG_PATH or exits.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
