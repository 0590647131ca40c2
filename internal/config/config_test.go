package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment can't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "APP_PORT", "APP_ENV", "VIEWS_DIR", "DB_DSN", "DB_LOG_LEVEL",
		"SESSION_SECRET", "SESSION_COOKIE", "SESSION_SECURE",
		"IMAGES_PROVIDER", "IMAGES_UPLOAD_DIR", "IMAGES_URL_PREFIX", "IMAGES_MAX_BYTES",
		"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_SECRET", "CLOUDINARY_FOLDER",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CLEANUP_QUEUE_KEY",
		"CLEANUP_WORKERS", "CLEANUP_MAX_ATTEMPTS", "CLEANUP_BUFFER", "CLEANUP_BACKOFF",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "host=localhost dbname=shop")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, ImagesLocal, cfg.Images.Provider)
	assert.Equal(t, "Shopper", cfg.Images.Cloudinary.Folder)
	assert.Equal(t, "dev_fallback_secret", cfg.Session.Secret)
	assert.Equal(t, 5, cfg.Cleanup.MaxAttempts)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "dsn")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("SESSION_SECRET", "abc")
	t.Setenv("SESSION_SECURE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CLEANUP_WORKERS", "4")
	t.Setenv("IMAGES_MAX_BYTES", "1048576")
	t.Setenv("CLEANUP_BUFFER", "128")
	t.Setenv("CLEANUP_BACKOFF", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "abc", cfg.Session.Secret)
	assert.True(t, cfg.Session.Secure)
	assert.Equal(t, "localhost:6379", cfg.Cleanup.RedisAddr)
	assert.Equal(t, 4, cfg.Cleanup.Workers)
	assert.Equal(t, int64(1<<20), cfg.Images.MaxBytes)
	assert.Equal(t, 128, cfg.Cleanup.Buffer)
	assert.Equal(t, 2*time.Second, cfg.Cleanup.Backoff)
}

func TestLoad_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "dsn")
	t.Setenv("CLEANUP_BACKOFF", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "CLEANUP_BACKOFF")
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "shopper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: "7000"
database:
  dsn: "from-file"
images:
  provider: cloudinary
  cloudinary:
    cloud_name: demo
    api_key: key
    api_secret: secret
cleanup:
  backoff: 2s
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.App.Port, "env wins over file")
	assert.Equal(t, "from-file", cfg.Database.DSN)
	assert.Equal(t, ImagesCloudinary, cfg.Images.Provider)
	assert.Equal(t, "demo", cfg.Images.Cloudinary.CloudName)
	assert.Equal(t, "Shopper", cfg.Images.Cloudinary.Folder, "unset keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Cleanup.Backoff)
}

func TestLoad_BadNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "dsn")
	t.Setenv("CLEANUP_WORKERS", "many")

	_, err := Load()
	assert.ErrorContains(t, err, "CLEANUP_WORKERS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing dsn",
			mutate:  func(c *Config) { c.Database.DSN = "" },
			wantErr: "DB_DSN",
		},
		{
			name: "production needs a secret",
			mutate: func(c *Config) {
				c.App.Environment = EnvProduction
				c.Session.Secret = ""
			},
			wantErr: "SESSION_SECRET",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Images.Provider = "ftp" },
			wantErr: "unknown images provider",
		},
		{
			name:    "cloudinary without credentials",
			mutate:  func(c *Config) { c.Images.Provider = ImagesCloudinary },
			wantErr: "cloudinary needs",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Cleanup.MaxAttempts = 0 },
			wantErr: "max_attempts",
		},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.App.Environment = "staging" },
			wantErr: "unknown environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Database.DSN = "dsn"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
