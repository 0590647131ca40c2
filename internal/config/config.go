// Package config loads the server configuration once at startup.
//
// Order of precedence (last wins): built-in defaults, the YAML file named by
// CONFIG_FILE, .env files, process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	ImagesLocal      = "local"
	ImagesCloudinary = "cloudinary"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Images   ImagesConfig   `yaml:"images"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
}

type AppConfig struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	ViewsDir    string `yaml:"views_dir"` // empty: use the embedded templates
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"` // silent, error, warn, info
}

type SessionConfig struct {
	Secret     string `yaml:"secret"`
	CookieName string `yaml:"cookie_name"`
	Secure     bool   `yaml:"secure"`
	MaxAge     int    `yaml:"max_age"` // seconds
}

type ImagesConfig struct {
	Provider   string           `yaml:"provider"`
	UploadDir  string           `yaml:"upload_dir"`
	URLPrefix  string           `yaml:"url_prefix"`
	MaxBytes   int64            `yaml:"max_bytes"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Folder    string `yaml:"folder"`
}

type CleanupConfig struct {
	RedisAddr     string        `yaml:"redis_addr"` // empty: in-process queue
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	QueueKey      string        `yaml:"queue_key"`
	Workers       int           `yaml:"workers"`
	Buffer        int           `yaml:"buffer"`
	MaxAttempts   int           `yaml:"max_attempts"`
	Backoff       time.Duration `yaml:"backoff"`
}

// Default returns a configuration usable for local development once a DSN
// is provided.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Port:        "8080",
			Environment: EnvDevelopment,
		},
		Database: DatabaseConfig{
			LogLevel: "warn",
		},
		Session: SessionConfig{
			CookieName: "shopper_session",
			MaxAge:     7 * 24 * 3600,
		},
		Images: ImagesConfig{
			Provider:  ImagesLocal,
			UploadDir: "uploads",
			URLPrefix: "/uploads",
			MaxBytes:  8 << 20,
			Cloudinary: CloudinaryConfig{
				Folder: "Shopper",
			},
		},
		Cleanup: CleanupConfig{
			QueueKey:    "shopper:image-cleanup",
			Workers:     2,
			Buffer:      64,
			MaxAttempts: 5,
			Backoff:     500 * time.Millisecond,
		},
	}
}

// Load reads .env files, the optional YAML file and the environment.
func Load() (*Config, error) {
	// .env may live next to the binary or at the repo root when run from cmd/server
	_ = godotenv.Overload(".env", "../.env", "../../.env")

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.App.Port = getEnv("APP_PORT", c.App.Port)
	c.App.Environment = getEnv("APP_ENV", c.App.Environment)
	c.App.ViewsDir = getEnv("VIEWS_DIR", c.App.ViewsDir)

	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)
	c.Database.LogLevel = getEnv("DB_LOG_LEVEL", c.Database.LogLevel)

	c.Session.Secret = getEnv("SESSION_SECRET", c.Session.Secret)
	c.Session.CookieName = getEnv("SESSION_COOKIE", c.Session.CookieName)

	c.Images.Provider = getEnv("IMAGES_PROVIDER", c.Images.Provider)
	c.Images.UploadDir = getEnv("IMAGES_UPLOAD_DIR", c.Images.UploadDir)
	c.Images.URLPrefix = getEnv("IMAGES_URL_PREFIX", c.Images.URLPrefix)
	c.Images.Cloudinary.CloudName = getEnv("CLOUDINARY_CLOUD_NAME", c.Images.Cloudinary.CloudName)
	c.Images.Cloudinary.APIKey = getEnv("CLOUDINARY_API_KEY", c.Images.Cloudinary.APIKey)
	c.Images.Cloudinary.APISecret = getEnv("CLOUDINARY_SECRET", c.Images.Cloudinary.APISecret)
	c.Images.Cloudinary.Folder = getEnv("CLOUDINARY_FOLDER", c.Images.Cloudinary.Folder)

	c.Cleanup.RedisAddr = getEnv("REDIS_ADDR", c.Cleanup.RedisAddr)
	c.Cleanup.RedisPassword = getEnv("REDIS_PASSWORD", c.Cleanup.RedisPassword)
	c.Cleanup.QueueKey = getEnv("CLEANUP_QUEUE_KEY", c.Cleanup.QueueKey)

	var err error
	if c.Session.Secure, err = getEnvBool("SESSION_SECURE", c.Session.Secure); err != nil {
		return err
	}
	maxBytes, err := getEnvInt("IMAGES_MAX_BYTES", int(c.Images.MaxBytes))
	if err != nil {
		return err
	}
	c.Images.MaxBytes = int64(maxBytes)
	if c.Cleanup.RedisDB, err = getEnvInt("REDIS_DB", c.Cleanup.RedisDB); err != nil {
		return err
	}
	if c.Cleanup.Workers, err = getEnvInt("CLEANUP_WORKERS", c.Cleanup.Workers); err != nil {
		return err
	}
	if c.Cleanup.MaxAttempts, err = getEnvInt("CLEANUP_MAX_ATTEMPTS", c.Cleanup.MaxAttempts); err != nil {
		return err
	}
	if c.Cleanup.Buffer, err = getEnvInt("CLEANUP_BUFFER", c.Cleanup.Buffer); err != nil {
		return err
	}
	if c.Cleanup.Backoff, err = getEnvDuration("CLEANUP_BACKOFF", c.Cleanup.Backoff); err != nil {
		return err
	}
	return nil
}

// Validate reports the first setting that makes the server unstartable.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: DB_DSN is empty (check your .env)")
	}
	switch c.App.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("config: unknown environment %q", c.App.Environment)
	}
	if c.Session.Secret == "" {
		if c.IsProduction() {
			return errors.New("config: SESSION_SECRET is required in production")
		}
		c.Session.Secret = "dev_fallback_secret"
	}
	switch c.Images.Provider {
	case ImagesLocal:
		if c.Images.UploadDir == "" {
			return errors.New("config: images.upload_dir is empty")
		}
	case ImagesCloudinary:
		cl := c.Images.Cloudinary
		if cl.CloudName == "" || cl.APIKey == "" || cl.APISecret == "" {
			return errors.New("config: cloudinary needs cloud name, api key and secret")
		}
	default:
		return fmt.Errorf("config: unknown images provider %q", c.Images.Provider)
	}
	if c.Images.MaxBytes <= 0 {
		return errors.New("config: images.max_bytes must be positive")
	}
	if c.Cleanup.Workers < 1 {
		return errors.New("config: cleanup.workers must be at least 1")
	}
	if c.Cleanup.MaxAttempts < 1 {
		return errors.New("config: cleanup.max_attempts must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a number", key, raw)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a duration", key, raw)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s=%q is not a boolean", key, raw)
	}
	return v, nil
}
