package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Match     MatchConfig
	Gallery   GalleryConfig
	Extractor ExtractorConfig
	Bucket    BucketConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Web       WebConfig
}

type MatchConfig struct {
	Threshold float64 `yaml:"threshold"`
}

type GalleryConfig struct {
	DatasetDir string   `yaml:"dataset_dir"` // directory with labeled reference images
	Store      string   `yaml:"store"`       // file path, file://, redis:// or postgres:// URL
	Workers    int      `yaml:"workers"`     // parallel extractions during a build
	Extensions []string `yaml:"extensions"`  // candidate image extensions (lowercase, with dot)
}

type ExtractorConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxImageSize   int    `yaml:"max_image_size"`
}

// Timeout returns the per-request extractor timeout.
func (c *ExtractorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BucketConfig selects a MinIO/S3 bucket as the reference image source.
// When Bucket is empty the local DatasetDir is used instead.
type BucketConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// Enabled reports whether the bucket source is configured.
func (c *BucketConfig) Enabled() bool {
	return c.Bucket != ""
}

type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Key string `yaml:"key"`
}

type WebConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	AllowedOrigins        []string
	AdminReload           bool // exposes POST /api/v1/gallery/reload
}

// RequestTimeout returns the request-level timeout applied by the router.
func (c *WebConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// defaults mirrors defaults.yaml.
type defaults struct {
	Match     MatchConfig     `yaml:"match"`
	Gallery   GalleryConfig   `yaml:"gallery"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float64.
// Returns the default value if the env var is unset, empty, or unparsable.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty items.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadDefaults() defaults {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return d
}

func Load() *Config {
	d := loadDefaults()

	return &Config{
		Match: MatchConfig{
			Threshold: envFloat("MATCH_THRESHOLD", d.Match.Threshold),
		},
		Gallery: GalleryConfig{
			DatasetDir: envString("DATASET_DIR", d.Gallery.DatasetDir),
			Store:      envString("GALLERY_STORE", d.Gallery.Store),
			Workers:    envInt("GALLERY_WORKERS", d.Gallery.Workers),
			Extensions: envList("GALLERY_EXTENSIONS", d.Gallery.Extensions),
		},
		Extractor: ExtractorConfig{
			URL:            envString("EMBEDDING_URL", d.Extractor.URL),
			TimeoutSeconds: envInt("EMBEDDING_TIMEOUT_SECONDS", d.Extractor.TimeoutSeconds),
			MaxImageSize:   envInt("EMBEDDING_MAX_IMAGE_SIZE", d.Extractor.MaxImageSize),
		},
		Bucket: BucketConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
			Bucket:    os.Getenv("MINIO_BUCKET"),
			Prefix:    os.Getenv("MINIO_PREFIX"),
		},
		Database: DatabaseConfig{
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		Redis: RedisConfig{
			Key: envString("GALLERY_REDIS_KEY", d.Redis.Key),
		},
		Web: WebConfig{
			Host:                  envString("WEB_HOST", d.Web.Host),
			Port:                  envInt("WEB_PORT", d.Web.Port),
			RequestTimeoutSeconds: envInt("WEB_REQUEST_TIMEOUT_SECONDS", d.Web.RequestTimeoutSeconds),
			AllowedOrigins:        envList("WEB_ALLOWED_ORIGINS", []string{"*"}),
			AdminReload:           envBool("WEB_ADMIN_RELOAD", false),
		},
	}
}

// Validate checks the settings that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	var errs []error
	if c.Match.Threshold <= 0 || c.Match.Threshold > 2 {
		errs = append(errs, fmt.Errorf("MATCH_THRESHOLD must be in (0, 2], got %v", c.Match.Threshold))
	}
	if c.Gallery.Store == "" {
		errs = append(errs, errors.New("GALLERY_STORE must not be empty"))
	}
	if len(c.Gallery.Extensions) == 0 {
		errs = append(errs, errors.New("GALLERY_EXTENSIONS must list at least one extension"))
	}
	if c.Bucket.Enabled() && c.Bucket.Endpoint == "" {
		errs = append(errs, errors.New("MINIO_ENDPOINT is required when MINIO_BUCKET is set"))
	}
	return errors.Join(errs...)
}
