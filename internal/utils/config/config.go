package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/hexpanel/usdt-reconciler/internal/types/environments"
)

type AppConfig struct {
	Environment environments.Environment
	ApiServer   ApiServerConfig
	Postgres    DBConnection
	Redis       RedisConfig
	Issuer      IssuerConfig
	Payment     PaymentConfig
	Monitoring  MonitoringConfig
	Networks    map[string]NetworkConfig `validate:"required,min=1,dive"`
}

type ApiServerConfig struct {
	Port           string `validate:"required"`
	AllowedOrigins string
	// Shared key for the externally triggered check endpoint and admin ops.
	ApiKey string `validate:"required"`
}

type DBConnection struct {
	Host string `validate:"required"`
	Port string `validate:"required"`
	User string `validate:"required"`
	Name string `validate:"required"`
	Pass string

	SSLMode string
}

type RedisConfig struct {
	Addr string `validate:"required"`
	Pass string
	DB   int
}

type MonitoringConfig struct {
	// Optional heartbeat URL pinged after every reconciliation cycle.
	UptimeWebhookURL string `validate:"omitempty,url"`
}

type IssuerConfig struct {
	ApiURL      string `validate:"required,url"`
	ApiKey      string `validate:"required"`
	CallbackURL string `validate:"omitempty,url"`
}

type PaymentConfig struct {
	// Order lifetime before an intent is swept to expired.
	Timeout time.Duration `validate:"required"`
	// Minimum gap between two reconciliation runs.
	CheckInterval time.Duration `validate:"required"`
	// How far back pending intents are scanned each cycle.
	ScanWindow time.Duration `validate:"required"`
	// Absolute token-unit tolerance when comparing amounts.
	Tolerance float64 `validate:"required,gt=0"`
	// How long intent records are retained.
	IntentTTL time.Duration `validate:"required"`
}

// NetworkConfig describes one chain's token-transfer feed. Decimals vary by
// token deployment (18 for BEP20 USDT, 6 for TRC20), so they are configured
// per network instead of assumed.
type NetworkConfig struct {
	ScanAPIURL    string `validate:"required,url"`
	ScanAPIKey    string `validate:"required"`
	TokenContract string `validate:"required"`
	TokenDecimals int    `validate:"required,gt=0"`
}

func New() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// will not override env variables that already exist
	godotenv.Load(".env." + env)

	return &AppConfig{
		Environment: environments.Environment(env),
		ApiServer: ApiServerConfig{
			Port:           envVarOrDefault("API_PORT", "8080"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
			ApiKey:         os.Getenv("API_KEY"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: os.Getenv("DB_SSL_MODE"),
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
			Pass: os.Getenv("REDIS_PASS"),
			DB:   envVarAtoiOrDefault("REDIS_DB", 0),
		},
		Issuer: IssuerConfig{
			ApiURL:      os.Getenv("ISSUER_API_URL"),
			ApiKey:      os.Getenv("ISSUER_API_KEY"),
			CallbackURL: os.Getenv("ISSUER_CALLBACK_URL"),
		},
		Payment: PaymentConfig{
			Timeout:       envVarMinutesOrDefault("PAYMENT_TIMEOUT_MINUTES", 30),
			CheckInterval: envVarMinutesOrDefault("PAYMENT_CHECK_INTERVAL_MINUTES", 5),
			ScanWindow:    envVarMinutesOrDefault("PAYMENT_SCAN_WINDOW_MINUTES", 24*60),
			Tolerance:     envVarFloatOrDefault("PAYMENT_AMOUNT_TOLERANCE", 0.01),
			IntentTTL:     envVarMinutesOrDefault("PAYMENT_INTENT_TTL_MINUTES", 24*60),
		},
		Monitoring: MonitoringConfig{
			UptimeWebhookURL: os.Getenv("UPTIME_WEBHOOK_URL"),
		},
		Networks: loadNetworks(),
	}
}

// Validate rejects a config with missing required fields at startup instead of
// failing on first use.
func (c *AppConfig) Validate() error {
	return validator.New().Struct(c)
}

func loadNetworks() map[string]NetworkConfig {
	networks := map[string]NetworkConfig{}
	for _, network := range []string{"bsc", "trc20", "erc20"} {
		prefix := strings.ToUpper(network)
		url := os.Getenv(prefix + "_SCAN_API_URL")
		if url == "" {
			continue
		}
		networks[network] = NetworkConfig{
			ScanAPIURL:    url,
			ScanAPIKey:    os.Getenv(prefix + "_SCAN_API_KEY"),
			TokenContract: os.Getenv(prefix + "_TOKEN_CONTRACT"),
			TokenDecimals: envVarAtoiOrDefault(prefix+"_TOKEN_DECIMALS", 18),
		}
	}
	return networks
}

func envVarOrDefault(envName, fallback string) string {
	value := os.Getenv(envName)
	if value == "" {
		return fallback
	}
	return value
}

func envVarAtoiOrDefault(envName string, fallback int) int {
	valueStr := os.Getenv(envName)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func envVarFloatOrDefault(envName string, fallback float64) float64 {
	valueStr := os.Getenv(envName)
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envVarMinutesOrDefault(envName string, fallbackMinutes int) time.Duration {
	return time.Duration(envVarAtoiOrDefault(envName, fallbackMinutes)) * time.Minute
}
