package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"serverAddress"`
	Environment   string `yaml:"environment"`
	Version       string `yaml:"version"`

	// AWS configuration
	AWSRegion        string `yaml:"awsRegion"`
	TableName        string `yaml:"tableName"`
	IndexName        string `yaml:"indexName"` // GSI1 - status and tag listings
	DynamoDBEndpoint string `yaml:"dynamodbEndpoint"`
	StoreDriver      string `yaml:"storeDriver"`

	// Store resilience
	StoreTimeout       time.Duration `yaml:"storeTimeout"`
	BreakerMaxFailures int           `yaml:"breakerMaxFailures"`
	BreakerOpenTimeout time.Duration `yaml:"breakerOpenTimeout"`

	// Media uploads
	BucketName       string        `yaml:"bucketName"`
	CloudFrontDomain string        `yaml:"cloudFrontDomain"`
	UploadURLExpiry  time.Duration `yaml:"uploadUrlExpiry"`

	// Lambda configuration
	IsLambda           bool   `yaml:"-"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"logLevel"`

	// Authentication
	JWTSecret string `yaml:"jwtSecret"`
	JWTIssuer string `yaml:"jwtIssuer"`

	// HTTP surface
	EnableCORS         bool     `yaml:"enableCors"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
	RateLimitRPS       float64  `yaml:"rateLimitRps"`
	RateLimitBurst     int      `yaml:"rateLimitBurst"`

	// Observability
	EnableMetrics  bool   `yaml:"enableMetrics"`
	MetricsAddress string `yaml:"metricsAddress"`
	EnableTracing  bool   `yaml:"enableTracing"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerAddress:      ":8080",
		Environment:        "development",
		Version:            "dev",
		AWSRegion:          "us-east-1",
		TableName:          "BlogTable",
		IndexName:          "GSI1",
		StoreDriver:        StoreDriverDynamoDB,
		StoreTimeout:       5 * time.Second,
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: 30 * time.Second,
		UploadURLExpiry:    15 * time.Minute,
		LogLevel:           "info",
		JWTIssuer:          "",
		EnableCORS:         true,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		RateLimitRPS:       5,
		RateLimitBurst:     10,
		EnableMetrics:      false,
		MetricsAddress:     ":9090",
		EnableTracing:      false,
	}
}

// LoadConfig loads configuration. Defaults are overlaid by the YAML file named
// in CONFIG_FILE, if any, and then by environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Version = getEnv("VERSION", c.Version)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.TableName = getEnv("TABLE_NAME", c.TableName)
	c.IndexName = getEnv("INDEX_NAME", c.IndexName)
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))

	c.StoreTimeout = getEnvDuration("STORE_TIMEOUT", c.StoreTimeout)
	c.BreakerMaxFailures = getEnvInt("BREAKER_MAX_FAILURES", c.BreakerMaxFailures)
	c.BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", c.BreakerOpenTimeout)

	c.BucketName = getEnv("BUCKET_NAME", c.BucketName)
	c.CloudFrontDomain = getEnv("CLOUDFRONT_DOMAIN", c.CloudFrontDomain)
	c.UploadURLExpiry = getEnvDuration("UPLOAD_URL_EXPIRY", c.UploadURLExpiry)

	// Lambda sets this for every function
	c.LambdaFunctionName = os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	c.IsLambda = c.LambdaFunctionName != ""

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)
	c.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.MetricsAddress = getEnv("METRICS_ADDRESS", c.MetricsAddress)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.TableName == "" {
		return fmt.Errorf("TABLE_NAME is required")
	}
	if c.IndexName == "" {
		return fmt.Errorf("INDEX_NAME is required")
	}
	switch c.StoreDriver {
	case StoreDriverDynamoDB, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if c.IsProduction() {
		if c.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME is required in production")
		}
		if c.CloudFrontDomain == "" {
			return fmt.Errorf("CLOUDFRONT_DOMAIN is required in production")
		}
		// Behind API Gateway the authorizer verifies tokens
		if !c.IsLambda && c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
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

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15m") or plain seconds ("900")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
