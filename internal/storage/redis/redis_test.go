package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaia-invest/kaia-core/pkg/testutil"
)

func TestStoreIntegration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, Config{Addr: addr, Prefix: "kaia-test:" + uuid.NewString() + ":"})
	require.NoError(t, err)
	defer s.Close()

	testutil.RunKVContract(t, s)
}

func TestNewRequiresAddr(t *testing.T) {
	_, err := New(context.Background(), Config{Addr: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "addr is required")
}

func TestKeyPrefix(t *testing.T) {
	s := &Store{prefix: "kaia:"}
	assert.Equal(t, "kaia:jwt_token", s.key("jwt_token"))
}
