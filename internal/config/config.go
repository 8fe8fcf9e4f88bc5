package config

import "time"

// DefaultConfigFile is read when present; every key can be overridden by ENV.
const DefaultConfigFile = "lodging.yaml"

type Config struct {
	AppEnv   string   `yaml:"app_env"`
	HTTP     HTTP     `yaml:"http"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	Logging  Logging  `yaml:"logging"`
	Booking  Booking  `yaml:"booking"`
	Catalog  Catalog  `yaml:"catalog"`
	Audit    Audit    `yaml:"audit"`
	Redis    Redis    `yaml:"redis"`
	NATS     NATS     `yaml:"nats"`
	Metrics  Metrics  `yaml:"metrics"`
}

type HTTP struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type Database struct {
	URL string `yaml:"url"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Booking struct {
	TxTimeout       time.Duration `yaml:"tx_timeout"`
	MaxTxRetries    int           `yaml:"max_tx_retries"`
	ReferencePrefix string        `yaml:"reference_prefix"`
}

type Catalog struct {
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	CacheMaxBytes int64         `yaml:"cache_max_bytes"`
}

type Audit struct {
	Publisher     string        `yaml:"publisher"` // log | redis | nats
	Stream        string        `yaml:"stream"`
	Subject       string        `yaml:"subject"`
	RelayInterval time.Duration `yaml:"relay_interval"`
	RelayBatch    int           `yaml:"relay_batch"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type NATS struct {
	URL string `yaml:"url"`
}

type Metrics struct {
	Exporter string        `yaml:"exporter"` // none | otlp
	Endpoint string        `yaml:"endpoint"`
	Insecure bool          `yaml:"insecure"`
	Interval time.Duration `yaml:"interval"`
}

const defaultJWTSecret = "change-me-jwt-secret"

func Defaults() Config {
	return Config{
		AppEnv: "dev",
		HTTP: HTTP{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: Database{URL: "lodging.db"},
		Auth:     Auth{JWTSecret: defaultJWTSecret, TokenTTL: 15 * time.Minute},
		Logging:  Logging{Level: "info", Format: "json"},
		Booking: Booking{
			TxTimeout:       15 * time.Second,
			MaxTxRetries:    3,
			ReferencePrefix: "BK",
		},
		Catalog: Catalog{CacheTTL: 30 * time.Second, CacheMaxBytes: 16 << 20},
		Audit: Audit{
			Publisher:     "log",
			Stream:        "lodging:audit",
			Subject:       "lodging.audit",
			RelayInterval: time.Second,
			RelayBatch:    100,
		},
		Redis: Redis{Addr: "localhost:6379"},
		NATS:  NATS{URL: "nats://localhost:4222"},
		Metrics: Metrics{
			Exporter: "none",
			Endpoint: "localhost:4317",
			Insecure: true,
			Interval: 30 * time.Second,
		},
	}
}

func (c *Config) IsProdLike() bool { return isProdLike(c.AppEnv) }
