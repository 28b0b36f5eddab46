package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 48*time.Hour, cfg.Tables.IdempotencyTTL)
	assert.Equal(t, "awesomeTech_cart", cfg.Redis.Namespace)
	assert.Equal(t, "+254704546916", cfg.Notify.Destination)
	assert.Equal(t, 120, cfg.RateLimit.PerMinute)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingSecret)
}

func TestLoad_PrefixedAndLegacyEnv(t *testing.T) {
	t.Setenv("STOREFRONT_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("ORDERS_TABLE", "orders-prod")
	t.Setenv("ORDERS_QUEUE_URL", "https://sqs.local/orders")
	t.Setenv("RUN_LOCAL", "true")
	t.Setenv("STOREFRONT_TABLES_IDEMPOTENCY_TTL", "2h")
	t.Setenv("STOREFRONT_SERVER_CORS_ORIGINS", "https://awesome.co.ke")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "orders-prod", cfg.Tables.Orders)
	assert.True(t, cfg.Server.RunLocal)
	assert.Equal(t, 2*time.Hour, cfg.Tables.IdempotencyTTL)
	assert.Equal(t, []string{"https://awesome.co.ke"}, cfg.Server.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	// registers cleanup that unsets the variable godotenv is about to set
	t.Setenv("STOREFRONT_MONGO_DATABASE", "")
	require.NoError(t, os.Unsetenv("STOREFRONT_MONGO_DATABASE"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STOREFRONT_MONGO_DATABASE=shop_test\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shop_test", cfg.Mongo.Database)
}
