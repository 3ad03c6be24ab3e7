package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"
)

type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`

	Server Server `yaml:"server"`
	DB     DB     `yaml:"db"`
	Kafka  Kafka  `yaml:"kafka"`
	MinIO  MinIO  `yaml:"minio"`
	Worker Worker `yaml:"worker"`
	Images Images `yaml:"images"`
	Retry  Retry  `yaml:"retry"`
}

type Server struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type DB struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost" validate:"required"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432" validate:"gt=0"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"dynamic_image" validate:"required"`
	SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
}

type Kafka struct {
	Brokers       []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092" validate:"min=1"`
	VariantsTopic string   `yaml:"variants_topic" env:"KAFKA_VARIANTS_TOPIC" env-default:"image-variants" validate:"required"`
	GroupID       string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"dynamic-image-workers" validate:"required"`
}

type MinIO struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000" validate:"required"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"dynamic-image" validate:"required"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type Worker struct {
	Concurrency int `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"4" validate:"gt=0"`
}

type Images struct {
	Secret string `yaml:"secret" env:"IMAGES_SECRET" validate:"required"`
	// Digest is the HMAC hash used to sign URLs.
	Digest        string        `yaml:"digest" env:"IMAGES_DIGEST" env-default:"sha1" validate:"oneof=sha1 sha256"`
	MaxPixelArea  int64         `yaml:"max_pixel_area" env:"IMAGES_MAX_PIXEL_AREA" env-default:"100000000" validate:"gte=0"`
	MaxUploadSize int64         `yaml:"max_upload_size" env:"IMAGES_MAX_UPLOAD_SIZE" env-default:"33554432" validate:"gt=0"`
	RetryAfter    time.Duration `yaml:"retry_after" env:"IMAGES_RETRY_AFTER" env-default:"10s"`
	CacheMaxAge   time.Duration `yaml:"cache_max_age" env:"IMAGES_CACHE_MAX_AGE" env-default:"720h"`
}

type Retry struct {
	Attempts     int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3" validate:"gt=0"`
	Delay        time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"100ms"`
	Backoff      float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
	TaskAttempts int           `yaml:"task_attempts" env:"RETRY_TASK_ATTEMPTS" env-default:"5" validate:"gt=0"`
	TaskDelay    time.Duration `yaml:"task_delay" env:"RETRY_TASK_DELAY" env-default:"1s"`
}

// MustLoad reads the YAML file named by CONFIG_PATH, if any, and overlays
// the environment.
func MustLoad() (*Config, error) {
	return Load(os.Getenv("CONFIG_PATH"))
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid config: %s failed on %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) DBDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:     c.DB.Name,
		RawQuery: url.Values{"sslmode": {c.DB.SSLMode}}.Encode(),
	}
	return u.String()
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

// TaskRetryStrategy bounds how often a worker retries a variant task.
func (c *Config) TaskRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.TaskAttempts,
		Delay:    c.Retry.TaskDelay,
		Backoff:  c.Retry.Backoff,
	}
}

// Level parses LogLevel. It falls back to info.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
