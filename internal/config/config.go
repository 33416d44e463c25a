package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePinata    = "pinata"
	StorageMinIO     = "minio"
	StorageSimulated = "simulated"

	LedgerLive      = "live"
	LedgerSimulated = "simulated"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
	AccessTTL    time.Duration
}

type GenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

type PDFConfig struct {
	FontPath     string
	DefaultTitle string
}

type PinataConfig struct {
	JWT    string
	APIURL string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BreakerEnabled bool
}

type StorageConfig struct {
	Backend string
	Pinata  PinataConfig
	MinIO   MinIOConfig
	Retry   RetryConfig
}

type LedgerConfig struct {
	Mode           string
	AlgodServer    string
	AlgodToken     string
	ConfirmRounds  uint64
	WalletMnemonic string
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	GenAI       GenAIConfig
	RateLimit   RateLimitConfig
	PDF         PDFConfig
	Storage     StorageConfig
	Ledger      LedgerConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	v.SetDefault("STORAGE_BREAKER_ENABLED", true)

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:    v.GetDuration("JWT_ACCESS_TTL"),
		},
		GenAI: GenAIConfig{
			APIKey:  firstNonEmpty(v.GetString("GENAI_API_KEY"), v.GetString("GENERATIVE_API_KEY"), v.GetString("GEMINI_API_KEY")),
			Model:   v.GetString("GENAI_MODEL"),
			BaseURL: v.GetString("GENAI_BASE_URL"),
			Timeout: v.GetDuration("GENAI_TIMEOUT"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: v.GetFloat64("GENERATE_RATE_LIMIT"),
			Burst:     v.GetInt("GENERATE_RATE_BURST"),
		},
		PDF: PDFConfig{
			FontPath:     v.GetString("PDF_FONT_PATH"),
			DefaultTitle: v.GetString("PDF_DEFAULT_TITLE"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND"))),
			Pinata: PinataConfig{
				JWT:    v.GetString("PINATA_JWT"),
				APIURL: v.GetString("PINATA_API_URL"),
			},
			MinIO: MinIOConfig{
				Endpoint:  v.GetString("MINIO_ENDPOINT"),
				AccessKey: v.GetString("MINIO_ACCESS_KEY"),
				SecretKey: v.GetString("MINIO_SECRET_KEY"),
				Bucket:    v.GetString("MINIO_BUCKET"),
				UseSSL:    v.GetBool("MINIO_USE_SSL"),
			},
			Retry: RetryConfig{
				MaxAttempts:    v.GetInt("STORAGE_RETRY_MAX_ATTEMPTS"),
				InitialBackoff: v.GetDuration("STORAGE_RETRY_INITIAL_BACKOFF"),
				MaxBackoff:     v.GetDuration("STORAGE_RETRY_MAX_BACKOFF"),
				BreakerEnabled: v.GetBool("STORAGE_BREAKER_ENABLED"),
			},
		},
		Ledger: LedgerConfig{
			Mode:           strings.ToLower(strings.TrimSpace(v.GetString("LEDGER_MODE"))),
			AlgodServer:    v.GetString("ALGOD_SERVER"),
			AlgodToken:     firstNonEmpty(v.GetString("ALGOD_TOKEN"), v.GetString("ALGOD_API_KEY")),
			ConfirmRounds:  v.GetUint64("LEDGER_CONFIRM_ROUNDS"),
			WalletMnemonic: strings.TrimSpace(v.GetString("WALLET_MNEMONIC")),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.CORSAllowedOrigins) == 0 {
		cfg.HTTP.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = 24 * time.Hour
	}
	if cfg.GenAI.Model == "" {
		cfg.GenAI.Model = "gemini-2.5-flash"
	}
	if cfg.GenAI.BaseURL == "" {
		cfg.GenAI.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 60 * time.Second
	}
	if cfg.RateLimit.PerSecond == 0 {
		cfg.RateLimit.PerSecond = 0.2
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 3
	}
	if cfg.PDF.DefaultTitle == "" {
		cfg.PDF.DefaultTitle = "Sözleşme"
	}
	if cfg.Storage.Backend == "" {
		switch {
		case cfg.Storage.Pinata.JWT != "":
			cfg.Storage.Backend = StoragePinata
		case cfg.Storage.MinIO.Endpoint != "":
			cfg.Storage.Backend = StorageMinIO
		default:
			cfg.Storage.Backend = StorageSimulated
		}
	}
	if cfg.Storage.Pinata.APIURL == "" {
		cfg.Storage.Pinata.APIURL = "https://api.pinata.cloud"
	}
	if cfg.Storage.MinIO.Bucket == "" {
		cfg.Storage.MinIO.Bucket = "signchain-documents"
	}
	if cfg.Storage.Retry.MaxAttempts == 0 {
		cfg.Storage.Retry.MaxAttempts = 3
	}
	if cfg.Storage.Retry.InitialBackoff == 0 {
		cfg.Storage.Retry.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.Storage.Retry.MaxBackoff == 0 {
		cfg.Storage.Retry.MaxBackoff = 4 * time.Second
	}
	if cfg.Ledger.Mode == "" {
		cfg.Ledger.Mode = LedgerSimulated
		if cfg.Ledger.WalletMnemonic != "" {
			cfg.Ledger.Mode = LedgerLive
		}
	}
	if cfg.Ledger.AlgodServer == "" {
		cfg.Ledger.AlgodServer = "https://testnet-api.algonode.cloud"
	}
	if cfg.Ledger.ConfirmRounds == 0 {
		cfg.Ledger.ConfirmRounds = 4
	}
}

func validate(cfg *Config) error {
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.HTTP.Port < 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d is out of range", cfg.HTTP.Port)
	}
	if cfg.RateLimit.PerSecond < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("GENERATE_RATE_LIMIT and GENERATE_RATE_BURST must not be negative")
	}
	switch cfg.Storage.Backend {
	case StoragePinata:
		if cfg.Storage.Pinata.JWT == "" {
			return fmt.Errorf("PINATA_JWT is required for the pinata storage backend")
		}
	case StorageMinIO:
		if cfg.Storage.MinIO.Endpoint == "" || cfg.Storage.MinIO.AccessKey == "" || cfg.Storage.MinIO.SecretKey == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio storage backend")
		}
	case StorageSimulated:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
	switch cfg.Ledger.Mode {
	case LedgerLive, LedgerSimulated:
	default:
		return fmt.Errorf("unsupported LEDGER_MODE %q", cfg.Ledger.Mode)
	}
	return nil
}

// IsDevelopment reports whether the service runs outside production.
func (c *Config) IsDevelopment() bool {
	return c.Environment != "production"
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
