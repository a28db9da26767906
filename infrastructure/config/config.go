package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store and lock backends
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendNone     = "none"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion       string `yaml:"aws_region"`
	TableName       string `yaml:"table_name"`
	ParentIndexName string `yaml:"parent_index_name"` // GSI1 - children of a category
	EventBusName    string `yaml:"event_bus_name"`

	// Storage
	StoreBackend string        `yaml:"store_backend"`
	LockBackend  string        `yaml:"lock_backend"`
	LockTTL      time.Duration `yaml:"lock_ttl"`
	LockWait     time.Duration `yaml:"lock_wait"`
	TaxonomyFile string        `yaml:"taxonomy_file"`

	// Reload the TAXONOMY_FILE categories on change (memory backend, cmd/api)
	WatchTaxonomy bool `yaml:"watch_taxonomy"`

	// Materialization
	MaterializeMaxDepth int `yaml:"materialize_max_depth"`

	// Lambda configuration
	IsLambda bool `yaml:"is_lambda"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Observability
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// CORS
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Feature flags
	EnableMetrics        bool `yaml:"enable_metrics"`
	EnableTracing        bool `yaml:"enable_tracing"`
	EnableCORS           bool `yaml:"enable_cors"`
	EnableCircuitBreaker bool `yaml:"enable_circuit_breaker"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerAddress:        ":8080",
		Environment:          "development",
		AWSRegion:            "us-west-2",
		TableName:            "catmenu",
		ParentIndexName:      "GSI1",
		EventBusName:         "",
		StoreBackend:         BackendMemory,
		LockBackend:          BackendMemory,
		LockTTL:              30 * time.Second,
		LockWait:             2 * time.Second,
		MaterializeMaxDepth:  64,
		LogLevel:             "info",
		JWTIssuer:            "catmenu",
		AllowedOrigins:       []string{"*"},
		EnableMetrics:        true,
		EnableTracing:        false,
		EnableCORS:           true,
		EnableCircuitBreaker: true,
	}
}

// LoadConfig loads configuration from defaults, the optional YAML file named
// by CONFIG_FILE, then environment variables, each layer overriding the last.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.overlayEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.TableName = getEnv("TABLE_NAME", c.TableName)
	c.ParentIndexName = getEnv("PARENT_INDEX_NAME", c.ParentIndexName)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.LockBackend = strings.ToLower(getEnv("LOCK_BACKEND", c.LockBackend))
	c.LockTTL = getEnvDuration("LOCK_TTL", c.LockTTL)
	c.LockWait = getEnvDuration("LOCK_WAIT", c.LockWait)
	c.TaxonomyFile = getEnv("TAXONOMY_FILE", c.TaxonomyFile)
	c.WatchTaxonomy = getEnvBool("WATCH_TAXONOMY", c.WatchTaxonomy)

	c.MaterializeMaxDepth = getEnvInt("MATERIALIZE_MAX_DEPTH", c.MaterializeMaxDepth)

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.OTLPEndpoint)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = strings.Split(origins, ",")
	}

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.EnableCircuitBreaker = getEnvBool("ENABLE_CIRCUIT_BREAKER", c.EnableCircuitBreaker)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendDynamoDB, c.StoreBackend)
	}

	switch c.LockBackend {
	case BackendMemory, BackendNone:
	case BackendDynamoDB:
		if c.TableName == "" {
			return fmt.Errorf("TABLE_NAME is required for the dynamodb lock backend")
		}
	default:
		return fmt.Errorf("LOCK_BACKEND must be %q, %q or %q, got %q", BackendMemory, BackendDynamoDB, BackendNone, c.LockBackend)
	}

	if c.StoreBackend == BackendDynamoDB && c.TableName == "" {
		return fmt.Errorf("TABLE_NAME is required for the dynamodb store backend")
	}
	if c.WatchTaxonomy && (c.TaxonomyFile == "" || c.StoreBackend != BackendMemory) {
		return fmt.Errorf("WATCH_TAXONOMY requires TAXONOMY_FILE and the %q store backend", BackendMemory)
	}
	if c.MaterializeMaxDepth < 1 {
		return fmt.Errorf("MATERIALIZE_MAX_DEPTH must be positive")
	}
	if c.EnableTracing && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP_ENDPOINT is required when tracing is enabled")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StoreBackend != BackendDynamoDB {
			return fmt.Errorf("STORE_BACKEND must be %q in production", BackendDynamoDB)
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
