package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP            HTTP
		Log             Log
		PG              PG
		S3              S3
		Auth            Auth
		Kafka           Kafka
		KafkaController KafkaController
		Derivation      Derivation
		RedriveRelay    RedriveRelay
		Upload          Upload
		CORS            CORS
		Swagger         Swagger
		Metrics         Metrics
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	S3 struct {
		Endpoint           string        `env:"S3_ENDPOINT"`
		Region             string        `env:"S3_REGION" envDefault:"us-east-1"`
		AccessKey          string        `env:"S3_ACCESS_KEY,required"`
		SecretKey          string        `env:"S3_SECRET_KEY,required"`
		Bucket             string        `env:"S3_BUCKET,required"`
		UsePathStyle       bool          `env:"S3_USE_PATH_STYLE" envDefault:"true"`
		CfgLoadTimeout     time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
		PutURLExpiry       time.Duration `env:"S3_PUT_URL_EXPIRY" envDefault:"15m"`
		GetURLExpiry       time.Duration `env:"S3_GET_URL_EXPIRY" envDefault:"1h"`
		ThumbnailURLExpiry time.Duration `env:"S3_THUMBNAIL_URL_EXPIRY" envDefault:"1h"`
	}

	Auth struct {
		Secret          string        `env:"AUTH_SECRET,required,notEmpty"`
		PreviousSecrets []string      `env:"AUTH_PREVIOUS_SECRETS"`
		TokenExpiry     time.Duration `env:"AUTH_TOKEN_EXPIRY" envDefault:"2h"`
		BcryptCost      int           `env:"AUTH_BCRYPT_COST" envDefault:"9"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS,required"`
		GroupID string   `env:"KAFKA_GROUP_ID,required"`
		Topic   string   `env:"KAFKA_TOPIC,required"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"30s"` // whole event incl. retries
		CPUTimeout      time.Duration `env:"KAFKA_CONTROLLER_CPU_TIMEOUT" envDefault:"8s"`      // decode + resize + encode
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		Workers         int           `env:"KAFKA_CONTROLLER_WORKERS" envDefault:"4"`
		RetryInitial    time.Duration `env:"KAFKA_CONTROLLER_RETRY_INITIAL" envDefault:"500ms"`
		RetryMax        time.Duration `env:"KAFKA_CONTROLLER_RETRY_MAX" envDefault:"30s"`
	}

	Derivation struct {
		ThumbnailSize  int           `env:"DERIVATION_THUMBNAIL_SIZE" envDefault:"172"`
		MaxAttempts    int           `env:"DERIVATION_MAX_ATTEMPTS" envDefault:"3"`
		InitialBackoff time.Duration `env:"DERIVATION_INITIAL_BACKOFF" envDefault:"200ms"`
		MaxBackoff     time.Duration `env:"DERIVATION_MAX_BACKOFF" envDefault:"5s"`
		MaxRedrives    int           `env:"DERIVATION_MAX_REDRIVES" envDefault:"3"`
		MaxPixels      int           `env:"DERIVATION_MAX_PIXELS" envDefault:"50000000"`
		MaxAspectRatio int           `env:"DERIVATION_MAX_ASPECT_RATIO" envDefault:"20"`
	}

	RedriveRelay struct {
		PollInterval        time.Duration `env:"REDRIVE_RELAY_POLL_INTERVAL" envDefault:"30s"`
		MarkFailedInterval  time.Duration `env:"REDRIVE_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"REDRIVE_RELAY_CLEANUP_INTERVAL" envDefault:"24h"`
		ProcessBatchTimeout time.Duration `env:"REDRIVE_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"REDRIVE_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"REDRIVE_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"REDRIVE_RELAY_MAX_RETRIES" envDefault:"3"`
	}

	Upload struct {
		MaxFiles    int `env:"UPLOAD_MAX_FILES" envDefault:"20"`
		Concurrency int `env:"UPLOAD_CONCURRENCY" envDefault:"8"`
	}

	CORS struct {
		AllowOrigins string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:4200"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}

	Metrics struct {
		Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return nil, fmt.Errorf("config error: AUTH_BCRYPT_COST must be in [4, 31], got %d", cfg.Auth.BcryptCost)
	}

	if cfg.Derivation.MaxAttempts < 1 {
		return nil, fmt.Errorf("config error: DERIVATION_MAX_ATTEMPTS must be positive, got %d", cfg.Derivation.MaxAttempts)
	}

	return cfg, nil
}
