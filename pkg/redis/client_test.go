package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{"reachable server", "redis://" + mr.Addr(), false},
		{"invalid scheme", "invalid://url", true},
		{"empty URL", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", nil)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client.KeyBuilder)
			assert.NoError(t, client.Close())
		})
	}
}

func TestClient_GetSetDelete(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	_, err := client.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	val, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	mr.FastForward(2 * time.Minute)
	_, err = client.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, client.Set(ctx, "a", "1", 0))
	require.NoError(t, client.Set(ctx, "b", "2", 0))
	require.NoError(t, client.Delete(ctx, "a", "b"))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestClient_IncrWithTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	v, err := client.GetInt64(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, "counter", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	v, err = client.GetInt64(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	assert.Equal(t, time.Hour, mr.TTL("counter"))
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, client.Health(ctx))

	mr.Close()
	assert.Error(t, client.Health(ctx))
}

func TestPrefixForLog(t *testing.T) {
	assert.Equal(t, "short", prefixForLog("short"))
	long := "prod:poker:table:123456789:status:v1"
	assert.Equal(t, long[:24]+"…", prefixForLog(long))
}
