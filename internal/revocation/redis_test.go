package revocation_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estokealo/estokealo/internal/revocation"
)

const defaultTestRedisURL = "redis://127.0.0.1:6379/15"

func setupRedis(t *testing.T) *revocation.RedisRegistry {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = defaultTestRedisURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := revocation.Connect(ctx, url)
	if err != nil {
		t.Skipf("skipping: cannot connect to test redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return revocation.NewRedisRegistry(client, nil)
}

func TestRedisRegistry_RevokeAndCheck(t *testing.T) {
	reg := setupRedis(t)
	ctx := context.Background()
	id := uuid.NewString()

	revoked, err := reg.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, reg.Revoke(ctx, id, time.Now().Add(time.Minute)))

	revoked, err = reg.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRedisRegistry_ExpiredIsNoOp(t *testing.T) {
	reg := setupRedis(t)
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, reg.Revoke(ctx, id, time.Now().Add(-time.Second)))

	revoked, err := reg.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRegistry_EntryExpires(t *testing.T) {
	reg := setupRedis(t)
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, reg.Revoke(ctx, id, time.Now().Add(1500*time.Millisecond)))
	time.Sleep(2 * time.Second)

	revoked, err := reg.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked)
}
