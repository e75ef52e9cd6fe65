package config

import (
	"os"
	"time"

	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig     `yaml:"server"`
	SendGrid SendGridConfig   `yaml:"sendgrid"`
	Redis    RedisConfig      `yaml:"redis"`
	Sink     SinkConfig       `yaml:"sink"`
	Notify   NotifyConfig     `yaml:"notify"`
	MailSink MailSinkConfig   `yaml:"mail_sink"`
	Events   EventsConfig     `yaml:"events"`
	Source   source.RawConfig `yaml:"source"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int      `yaml:"port"`
	Host        string   `yaml:"host"`
	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// SendGridConfig holds SendGrid API transport settings. Credentials live in
// the source section since they are part of the pipeline properties.
type SendGridConfig struct {
	BaseURL             string `yaml:"base_url"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	ProbeTimeoutSeconds int    `yaml:"probe_timeout_seconds"`
	MaxRetries          int    `yaml:"max_retries"`
	PageSize            int    `yaml:"page_size"`
}

// Timeout returns the configured timeout as a duration
func (c SendGridConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProbeTimeout bounds the connectivity check run during validation
func (c SendGridConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// RedisConfig holds the Redis connection used for the probe cache and run locks
type RedisConfig struct {
	Addr                 string `yaml:"addr"`
	Password             string `yaml:"password"`
	DB                   int    `yaml:"db"`
	ProbeCacheTTLSeconds int    `yaml:"probe_cache_ttl_seconds"`
	LockTTLSeconds       int    `yaml:"lock_ttl_seconds"`
}

// ProbeCacheTTL returns how long a successful connectivity probe is remembered
func (c RedisConfig) ProbeCacheTTL() time.Duration {
	return time.Duration(c.ProbeCacheTTLSeconds) * time.Second
}

// LockTTL returns the run lock expiry
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// SinkConfig selects where extracted rows are written
type SinkConfig struct {
	Type        string `yaml:"type"` // s3, postgres, contacts or stdout
	S3Bucket    string `yaml:"s3_bucket"`
	S3Prefix    string `yaml:"s3_prefix"`
	AWSRegion   string `yaml:"aws_region"`
	AWSProfile  string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`

	// Contacts sink: the destination SendGrid account
	ContactsAPIKey  string   `yaml:"contacts_api_key"`
	ContactsMode    string   `yaml:"contacts_mode"` // upsert or delete
	ContactsListIDs []string `yaml:"contacts_list_ids"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c SinkConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// NotifyConfig holds the post-run email action
type NotifyConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Transport    string `yaml:"transport"` // sendgrid or ses
	RunCondition string `yaml:"run_condition"`
	From         string `yaml:"from"`
	To           string `yaml:"to"`
	Subject      string `yaml:"subject"`
	Content      string `yaml:"content"`
	APIKey       string `yaml:"api_key"`
	SESRegion    string `yaml:"ses_region"`
	SESAccessKey string `yaml:"ses_access_key"`
	SESSecretKey string `yaml:"ses_secret_key"`
}

// MailSinkConfig holds the SendGrid mail sink, which sends one email per row
type MailSinkConfig struct {
	Enabled                bool   `yaml:"enabled"`
	APIKey                 string `yaml:"api_key"`
	From                   string `yaml:"from"`
	MailSubject            string `yaml:"mail_subject"`
	RecipientAddressSource string `yaml:"recipient_address_source"` // config or input
	RecipientAddresses     string `yaml:"recipient_addresses"`
	RecipientColumnName    string `yaml:"recipient_column_name"`
	BodyColumnName         string `yaml:"body_column_name"`
	ReplyTo                string `yaml:"reply_to"`
	FooterEnable           bool   `yaml:"footer_enable"`
	FooterHTML             string `yaml:"footer_html"`
	SandboxMode            bool   `yaml:"sandbox_mode"`
	ClickTracking          bool   `yaml:"click_tracking"`
	OpenTracking           bool   `yaml:"open_tracking"`
	SubscriptionTracking   bool   `yaml:"subscription_tracking"`
}

// EventsConfig holds the SQS queue that receives run completion events.
// An empty queue URL disables publishing.
type EventsConfig struct {
	QueueURL string `yaml:"queue_url"`
	Region   string `yaml:"region"`
}

// Enabled reports whether run events are published
func (c EventsConfig) Enabled() bool { return c.QueueURL != "" }

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.SendGrid.BaseURL == "" {
		cfg.SendGrid.BaseURL = "https://api.sendgrid.com/v3"
	}
	if cfg.SendGrid.TimeoutSeconds == 0 {
		cfg.SendGrid.TimeoutSeconds = 30
	}
	if cfg.SendGrid.ProbeTimeoutSeconds == 0 {
		cfg.SendGrid.ProbeTimeoutSeconds = 10
	}
	if cfg.SendGrid.MaxRetries == 0 {
		cfg.SendGrid.MaxRetries = 3
	}
	if cfg.SendGrid.PageSize == 0 {
		cfg.SendGrid.PageSize = 500
	}
	if cfg.Redis.ProbeCacheTTLSeconds == 0 {
		cfg.Redis.ProbeCacheTTLSeconds = 300
	}
	if cfg.Redis.LockTTLSeconds == 0 {
		cfg.Redis.LockTTLSeconds = 3600
	}
	if cfg.Sink.Type == "" {
		cfg.Sink.Type = "stdout"
	}
	if cfg.Sink.AWSRegion == "" {
		cfg.Sink.AWSRegion = "us-west-2"
	}
	if cfg.Sink.Table == "" {
		cfg.Sink.Table = "sendgrid_records"
	}
	if cfg.Notify.Transport == "" {
		cfg.Notify.Transport = "sendgrid"
	}
	if cfg.Notify.RunCondition == "" {
		cfg.Notify.RunCondition = "completion"
	}
	if cfg.Notify.SESRegion == "" {
		cfg.Notify.SESRegion = cfg.Sink.AWSRegion
	}
	if cfg.Events.Region == "" {
		cfg.Events.Region = cfg.Sink.AWSRegion
	}
	if cfg.MailSink.RecipientAddressSource == "" {
		cfg.MailSink.RecipientAddressSource = "config"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if apiKey := os.Getenv("SENDGRID_API_KEY"); apiKey != "" {
		cfg.Source.SendGridAPIKey = apiKey
		if cfg.MailSink.APIKey == "" {
			cfg.MailSink.APIKey = apiKey
		}
		if cfg.Notify.APIKey == "" {
			cfg.Notify.APIKey = apiKey
		}
	}
	if username := os.Getenv("SENDGRID_USERNAME"); username != "" {
		cfg.Source.Username = username
	}
	if password := os.Getenv("SENDGRID_PASSWORD"); password != "" {
		cfg.Source.Password = password
	}
	if baseURL := os.Getenv("SENDGRID_BASE_URL"); baseURL != "" {
		cfg.SendGrid.BaseURL = baseURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Sink.DatabaseURL = dbURL
	}
	if v := os.Getenv("SINK_S3_BUCKET"); v != "" {
		cfg.Sink.S3Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Sink.AWSRegion = v
	}
	if v := os.Getenv("RUN_EVENTS_QUEUE_URL"); v != "" {
		cfg.Events.QueueURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}

	return cfg, nil
}
