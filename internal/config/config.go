package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/nft-benefit-registry/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// CollectionConfig holds the ERC-721 collection this deployment serves
type CollectionConfig struct {
	ChainID         domain.Chain `mapstructure:"chain_id"`
	ContractAddress string       `mapstructure:"contract_address"`
	// ExtraOperators are addresses trusted for collection-wide benefits in
	// addition to the contract owner
	ExtraOperators []string `mapstructure:"extra_operators"`
}

// EthereumConfig holds Ethereum RPC configuration
type EthereumConfig struct {
	RPCURL string `mapstructure:"rpc_url"`
}

// RegistryOptionsConfig holds registry behavior configuration
type RegistryOptionsConfig struct {
	// MaxBenefitsPerToken caps live benefits per token (0 = unlimited)
	MaxBenefitsPerToken int `mapstructure:"max_benefits_per_token"`
	// AttachFeeWei is the fee required per attach as a decimal wei string
	// ("" or "0" = attaching is free)
	AttachFeeWei string `mapstructure:"attach_fee_wei"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// WebhookConfig holds webhook dispatcher configuration
type WebhookConfig struct {
	MaxWorkers      int           `mapstructure:"max_workers"`
	MaxQueueSize    int           `mapstructure:"max_queue_size"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	MaxRetryElapsed time.Duration `mapstructure:"max_retry_elapsed"`
}

// StoreBackend selects the benefit persistence backend
type StoreBackend string

const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendPostgres StoreBackend = "postgres"
)

// RegistryConfig holds configuration for the registry service
type RegistryConfig struct {
	BaseConfig   `mapstructure:",squash"`
	StoreBackend StoreBackend          `mapstructure:"store_backend"`
	Server       ServerConfig          `mapstructure:"server"`
	Database     DatabaseConfig        `mapstructure:"database"`
	NATS         NATSConfig            `mapstructure:"nats"`
	Ethereum     EthereumConfig        `mapstructure:"ethereum"`
	Collection   CollectionConfig      `mapstructure:"collection"`
	Registry     RegistryOptionsConfig `mapstructure:"registry"`
	Auth         AuthConfig            `mapstructure:"auth"`
	Webhook      WebhookConfig         `mapstructure:"webhook"`
}

// LoadRegistryConfig loads configuration for the registry service
func LoadRegistryConfig(configFile string, envPath string) (*RegistryConfig, error) {
	v := configureViper("registry", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("store_backend", "postgres")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "BENEFIT_EVENTS")
	v.SetDefault("nats.connection_name", "benefit-registry")
	v.SetDefault("collection.chain_id", "eip155:1")
	v.SetDefault("registry.max_benefits_per_token", 0)
	v.SetDefault("registry.attach_fee_wei", "0")
	v.SetDefault("webhook.max_workers", 10)
	v.SetDefault("webhook.max_queue_size", 1000)
	v.SetDefault("webhook.delivery_timeout", "30s")
	v.SetDefault("webhook.max_retry_elapsed", "2m")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config RegistryConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if !domain.IsValidChain(config.Collection.ChainID) {
		return nil, fmt.Errorf("unsupported collection.chain_id: %s", config.Collection.ChainID)
	}
	if config.Collection.ContractAddress == "" {
		return nil, errors.New("collection.contract_address is required")
	}
	if config.StoreBackend != StoreBackendMemory && config.StoreBackend != StoreBackendPostgres {
		return nil, fmt.Errorf("unsupported store_backend: %s", config.StoreBackend)
	}
	if config.StoreBackend == StoreBackendPostgres {
		if config.Database.Host == "" {
			return nil, errors.New("database.host is required")
		}
		if config.Database.DBName == "" {
			return nil, errors.New("database.dbname is required")
		}
	}

	return &config, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("BENEFIT_REGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"store_backend",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.enabled",
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Ethereum
		"ethereum.rpc_url",
		// Collection
		"collection.chain_id",
		"collection.contract_address",
		"collection.extra_operators",
		// Registry
		"registry.max_benefits_per_token",
		"registry.attach_fee_wei",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Webhook
		"webhook.max_workers",
		"webhook.max_queue_size",
		"webhook.delivery_timeout",
		"webhook.max_retry_elapsed",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
