package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":      "postgres://localhost/bookhaven",
		"REDIS_URL":         "redis://localhost:6379/0",
		"PORT":              "",
		"CATALOG_CACHE_TTL": "",
		"CONTACT_RATE_LIMIT": "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, "5-M", cfg.ContactRateLimit)
	require.Equal(t, 4, cfg.QueueConcurrency)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.Error(t, err)
}

func TestLoadParsesOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":      "postgres://localhost/bookhaven",
		"REDIS_URL":         "redis://localhost:6379/0",
		"PORT":              "9000",
		"CATALOG_CACHE_TTL": "30s",
		"QUEUE_CONCURRENCY": "8",
		"CORS_ALLOWED_ORIGINS": "https://bookhaven.example, https://admin.bookhaven.example",
	})
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, "30s", cfg.CatalogCacheTTL.String())
	require.Equal(t, 8, cfg.QueueConcurrency)
	require.Len(t, cfg.CORSAllowedOrigins, 2)
}
