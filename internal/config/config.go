package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name string `yaml:"name"`
	Port string `yaml:"port"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

// ServicesConfig holds base URLs of the platform services this service calls.
type ServicesConfig struct {
	OrderBaseURL        string `yaml:"order_base_url"`
	NotificationBaseURL string `yaml:"notification_base_url"`
}

// CouponConfig holds the issuance constants: which product SKU marks a
// virtual coupon item and what discount the generated coupon carries.
type CouponConfig struct {
	ProductSKU string  `yaml:"product_sku"`
	CodePrefix string  `yaml:"code_prefix"`
	Amount     float64 `yaml:"amount"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
	Services ServicesConfig `yaml:"services"`
	Coupon   CouponConfig   `yaml:"coupon"`
}

// Load reads the YAML config file at path (optional) and applies environment
// variable overrides on top. A .env file is picked up via godotenv when present.
func Load(path string) (*Config, error) {
	// .env отсутствует в проде, поэтому ошибку игнорируем
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.App.Name = "coupon-service"
	cfg.App.Port = "8083"
	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = time.Hour
	cfg.Postgres.MigrationsPath = "migrations"
	cfg.Coupon.ProductSKU = "virtual-coupon"
	cfg.Coupon.CodePrefix = "TOYS-"
	cfg.Coupon.Amount = 10

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: failed to open config file: %w", err)
			}
		} else {
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("config: invalid config file: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Postgres.Host == "" {
		return nil, fmt.Errorf("config: postgres host is required")
	}
	if cfg.Services.OrderBaseURL == "" {
		return nil, fmt.Errorf("config: order service base url is required")
	}
	if cfg.Services.NotificationBaseURL == "" {
		return nil, fmt.Errorf("config: notification service base url is required")
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.App.Port, "APP_PORT")
	overrideString(&cfg.Postgres.Host, "DB_HOST")
	overrideString(&cfg.Postgres.Port, "DB_PORT")
	overrideString(&cfg.Postgres.User, "DB_USER")
	overrideString(&cfg.Postgres.Password, "DB_PASSWORD")
	overrideString(&cfg.Postgres.DBName, "DB_NAME")
	overrideString(&cfg.Postgres.SSLMode, "DB_SSLMODE")
	overrideString(&cfg.Postgres.MigrationsPath, "DB_MIGRATIONS_PATH")
	overrideString(&cfg.Services.OrderBaseURL, "ORDER_SERVICE_URL")
	overrideString(&cfg.Services.NotificationBaseURL, "NOTIFICATION_SERVICE_URL")
	overrideString(&cfg.Coupon.ProductSKU, "COUPON_PRODUCT_SKU")
	overrideString(&cfg.Coupon.CodePrefix, "COUPON_CODE_PREFIX")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
