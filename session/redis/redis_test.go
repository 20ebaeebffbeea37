package redis

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/internal/testutil"
)

var _ core.SessionStore = (*Store)(nil)

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestRetryOnTxFailure_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := retryOnTxFailure(maxAppendAttempts, func() error {
		calls++
		return redis.TxFailedErr
	})

	require.ErrorIs(t, err, redis.TxFailedErr)
	assert.Equal(t, maxAppendAttempts, calls)
}

func TestRetryOnTxFailure_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := retryOnTxFailure(maxAppendAttempts, func() error {
		calls++
		if calls < 3 {
			return redis.TxFailedErr
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryOnTxFailure_OtherErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := retryOnTxFailure(maxAppendAttempts, func() error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestStore(t *testing.T) {
	addr := os.Getenv("LLMBRIDGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LLMBRIDGE_TEST_REDIS_ADDR not set")
	}

	testutil.RunSessionStoreSuite(t, func(t *testing.T) core.SessionStore {
		store, err := New(context.Background(), Config{Address: addr, Prefix: "llmbridge-test:" + core.NewID()})
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx := context.Background()
			keys, _ := store.client.Keys(ctx, store.prefix+":*").Result()
			if len(keys) > 0 {
				store.client.Del(ctx, keys...)
			}
			_ = store.Close()
		})
		return store
	})
}
