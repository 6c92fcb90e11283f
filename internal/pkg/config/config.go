package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Ingest service
	IngestServerAddr   string        `env:"INGEST_SERVER_ADDR" envDefault:":8080"`
	AdminServerAddr    string        `env:"ADMIN_SERVER_ADDR" envDefault:":9091"`
	MaxEventSize       int64         `env:"MAX_EVENT_SIZE_BYTES" envDefault:"1048576"`      // 1MB
	WALPath            string        `env:"WAL_PATH" envDefault:"./wal"`
	WALSegmentSize     int64         `env:"WAL_SEGMENT_SIZE_BYTES" envDefault:"104857600"`  // 100MB
	WALMaxDiskSize     int64         `env:"WAL_MAX_DISK_SIZE_BYTES" envDefault:"1073741824"` // 1GB
	APIKeyCacheTTL     time.Duration `env:"API_KEY_CACHE_TTL" envDefault:"5m"`
	PIIRedactionFields []string      `env:"PII_REDACTION_FIELDS" envDefault:"ip,email,password" envSeparator:","`

	// Buffer
	RedisAddr      string `env:"REDIS_ADDR,required"`
	RedisStream    string `env:"REDIS_STREAM" envDefault:"lms_events"`
	RedisDLQStream string `env:"REDIS_DLQ_STREAM" envDefault:"lms_events_dlq"`
	ConsumerGroup  string `env:"CONSUMER_GROUP" envDefault:"translators"`

	// LMS database the records are read from
	PostgresURL string `env:"POSTGRES_URL,required"`
	TablePrefix string `env:"TABLE_PREFIX" envDefault:"mdl_"`

	// Translator worker
	StatementSink      string        `env:"STATEMENT_SINK" envDefault:"postgres"`
	StatementsURL      string        `env:"STATEMENTS_POSTGRES_URL"`
	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaTopic         string        `env:"KAFKA_TOPIC" envDefault:"xapi-statements"`
	BatchSize          int           `env:"BATCH_SIZE" envDefault:"500"`
	RetryCount         int           `env:"RETRY_COUNT" envDefault:"3"`
	RetryBackoff       time.Duration `env:"RETRY_BACKOFF" envDefault:"1s"`
	ProcessingInterval time.Duration `env:"PROCESSING_INTERVAL" envDefault:"1s"`
	ClaimMinIdle       time.Duration `env:"CLAIM_MIN_IDLE" envDefault:"1m"`

	// Statement content
	SourceName                  string `env:"SOURCE_NAME" envDefault:"Moodle"`
	AppURL                      string `env:"APP_URL,required"`
	SourceURL                   string `env:"SOURCE_URL" envDefault:"http://moodle.org"`
	SourceVersion               string `env:"SOURCE_VERSION"`
	SendMbox                    bool   `env:"SEND_MBOX" envDefault:"false"`
	SendUsername                bool   `env:"SEND_USERNAME" envDefault:"false"`
	SendShortCourseID           bool   `env:"SEND_SHORT_COURSE_ID" envDefault:"false"`
	SendCourseAndModuleIDNumber bool   `env:"SEND_COURSE_AND_MODULE_IDNUMBER" envDefault:"false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StatementSink {
	case "postgres", "kafka":
	default:
		return fmt.Errorf("STATEMENT_SINK must be postgres or kafka, got %q", c.StatementSink)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.RetryCount <= 0 {
		return fmt.Errorf("RETRY_COUNT must be positive, got %d", c.RetryCount)
	}
	c.AppURL = strings.TrimRight(c.AppURL, "/")
	if c.StatementsURL == "" {
		c.StatementsURL = c.PostgresURL
	}
	return nil
}

// TransformConfig builds the options the transformer reads.
func (c *Config) TransformConfig(repo domain.RecordRepository) *domain.TransformConfig {
	return &domain.TransformConfig{
		Repo:                        repo,
		SourceName:                  c.SourceName,
		AppURL:                      c.AppURL,
		SourceURL:                   c.SourceURL,
		SourceVersion:               c.SourceVersion,
		SendMbox:                    c.SendMbox,
		SendUsername:                c.SendUsername,
		SendShortCourseID:           c.SendShortCourseID,
		SendCourseAndModuleIDNumber: c.SendCourseAndModuleIDNumber,
	}
}
