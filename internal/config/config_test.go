package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-registry/internal/registry"
)

const adminHex = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func setMemoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REGISTRY_STORE", "memory")
	t.Setenv("REGISTRY_ADMIN", adminHex)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OPERATORS", "")
}

func TestLoadDefaults(t *testing.T) {
	setMemoryEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, registry.Config{
		Name:    "BaseBlock Ticket",
		Symbol:  "BBT",
		BaseURI: "https://example.com/meta/",
		Admin:   registry.MustParseAddress(adminHex),
	}, cfg.Registry)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.False(t, cfg.ConsumerEnabled)
}

func TestLoadReportsAllMissing(t *testing.T) {
	t.Setenv("REGISTRY_STORE", "mysql")
	t.Setenv("REGISTRY_ADMIN", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"REGISTRY_ADMIN", "JWT_SECRET", "DB_USER", "DB_HOST", "DB_NAME"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadRejectsZeroAdmin(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("REGISTRY_ADMIN", "0x0000000000000000000000000000000000000000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address for REGISTRY_ADMIN")
}

func TestLoadOperators(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("OPERATORS", " 0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed=$2a$04$admin ,0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359=$2a$04$user,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, map[registry.Address]string{
		registry.MustParseAddress(adminHex):                                     "$2a$04$admin",
		registry.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"): "$2a$04$user",
	}, cfg.Operators)
}

func TestLoadRejectsBadOperators(t *testing.T) {
	tests := map[string]string{
		"missing hash":      adminHex,
		"empty hash":        adminHex + "=",
		"bad address":       "0x123=$2a$04$x",
		"zero address":      "0x0000000000000000000000000000000000000000=$2a$04$x",
		"duplicate address": adminHex + "=$2a$04$x," + strings.ToLower(adminHex) + "=$2a$04$y",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			setMemoryEnv(t)
			t.Setenv("OPERATORS", value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "OPERATORS")
		})
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("REGISTRY_STORE", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REGISTRY_STORE")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TICKET_TEST_FROM_DOTENV=hello\n"), 0o600))
	t.Setenv("TICKET_TEST_FROM_DOTENV", "")
	require.NoError(t, os.Unsetenv("TICKET_TEST_FROM_DOTENV"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "hello", os.Getenv("TICKET_TEST_FROM_DOTENV"))
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_TLS", "1")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_PASSWORD", "")

	cfg := LoadRedisConfig()
	assert.Equal(t, RedisConfig{Addr: "cache:6380", DB: 3, TLS: true}, cfg)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	assert.Equal(t, "redis:6379", LoadRedisConfig().Addr)
}
