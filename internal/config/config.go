package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port         int    `envconfig:"PORT" default:"3000"`
	Environment  string `envconfig:"ENV" default:"development"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	MaxImageSize int    `envconfig:"MAX_IMAGE_SIZE" default:"10485760"`

	// Rate limiting (per client IP)
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Database (optional: enables analysis records and the remote job ledger)
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Analysis cache
	CacheBackend  string        `envconfig:"CACHE_BACKEND" default:"memory"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`

	// Models
	ONNXRuntimeLib    string `envconfig:"ONNXRUNTIME_LIB" default:"lib/libonnxruntime.so"`
	ClassifierModel   string `envconfig:"CLASSIFIER_MODEL" default:"models/face_shape.onnx"`
	FaceMeshModel     string `envconfig:"FACE_MESH_MODEL" default:"models/face_mesh.onnx"`
	SegmentationModel string `envconfig:"SEGMENTATION_MODEL" default:"models/selfie_segmentation.onnx"`

	// Face detection
	FaceDetector string `envconfig:"FACE_DETECTOR" default:"cascade"`
	CascadePath  string `envconfig:"CASCADE_PATH" default:"models/haarcascade_frontalface_default.xml"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Overlay assets
	AssetsDir string `envconfig:"ASSETS_DIR" default:"assets"`

	// Remote style transfer
	StyleAPIURL       string        `envconfig:"STYLE_API_URL"`
	StyleAPIKey       string        `envconfig:"STYLE_API_KEY"`
	StyleAPITimeout   time.Duration `envconfig:"STYLE_API_TIMEOUT" default:"45s"`
	StylePollInterval time.Duration `envconfig:"STYLE_POLL_INTERVAL" default:"3s"`
	StylePollAttempts int           `envconfig:"STYLE_POLL_ATTEMPTS" default:"5"`
	RemoteWorkers     int           `envconfig:"REMOTE_WORKERS" default:"2"`
	RemoteQueueSize   int           `envconfig:"REMOTE_QUEUE_SIZE" default:"64"`
	RemoteJobTimeout  time.Duration `envconfig:"REMOTE_JOB_TIMEOUT" default:"2m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the combinations envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("CACHE_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	switch c.FaceDetector {
	case "cascade", "rekognition":
	default:
		return fmt.Errorf("unknown FACE_DETECTOR %q", c.FaceDetector)
	}

	if c.StylePollAttempts < 1 {
		return errors.New("STYLE_POLL_ATTEMPTS must be at least 1")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RemoteEnabled reports whether the remote style-transfer service is configured.
func (c *Config) RemoteEnabled() bool {
	return c.StyleAPIURL != "" && c.StyleAPIKey != ""
}
