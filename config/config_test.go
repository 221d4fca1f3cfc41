package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"TOKEN", "API_BASE_URL", "API_TIMEOUT", "STORAGE_DRIVER", "SQLITE_PATH", "DB_PORT", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("STORAGE_DRIVER", StoragePostgres)
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_PORT", "6543")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Contains(t, cfg.DB.DSN(), ":6543/")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DB_PORT", "five")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_PORT", "")
	t.Setenv("API_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing token", Config{Storage: StorageConfig{Driver: StorageMemory}}, "TOKEN environment variable not set"},
		{"memory", Config{Telegram: TelegramConfig{Token: "t"}, Storage: StorageConfig{Driver: StorageMemory}}, ""},
		{"sqlite without path", Config{Telegram: TelegramConfig{Token: "t"}, Storage: StorageConfig{Driver: StorageSQLite}}, "SQLITE_PATH environment variable not set"},
		{"postgres without password", Config{Telegram: TelegramConfig{Token: "t"}, Storage: StorageConfig{Driver: StoragePostgres}}, "DB_PASSWORD environment variable not set"},
		{"unknown driver", Config{Telegram: TelegramConfig{Token: "t"}, Storage: StorageConfig{Driver: "redis"}}, `unknown STORAGE_DRIVER "redis"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
