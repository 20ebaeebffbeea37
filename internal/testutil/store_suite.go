package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/protocol"
)

// RunSessionStoreSuite exercises the core.SessionStore contract against a
// fresh store returned by newStore for every sub-test.
func RunSessionStoreSuite(t *testing.T, newStore func(t *testing.T) core.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		store := newStore(t)
		sess := NewSessionBuilder().Protocol(protocol.GibberLink).Credential(core.ProviderAnthropic, "sk-ant").Build()
		require.NoError(t, store.Create(ctx, sess))

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, sess.Host, got.Host)
		assert.Equal(t, sess.Target, got.Target)
		assert.Equal(t, protocol.GibberLink, got.Protocol)
		assert.Equal(t, core.StatusActive, got.Status)
		assert.Equal(t, "sk-ant", got.Credentials[core.ProviderAnthropic])
		assert.Empty(t, got.Messages)
		assert.Nil(t, got.Latest)
	})

	t.Run("unknown session", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, core.ErrSessionNotFound)
		err = store.AppendResult(ctx, "missing", core.ExtractionResult{Query: "q"})
		assert.ErrorIs(t, err, core.ErrSessionNotFound)
	})

	t.Run("append keeps history and latest", func(t *testing.T) {
		store := newStore(t)
		sess := NewSessionBuilder().Build()
		require.NoError(t, store.Create(ctx, sess))

		for i := 0; i < 3; i++ {
			require.NoError(t, store.AppendResult(ctx, sess.ID, core.ExtractionResult{
				Query:        fmt.Sprintf("q%d", i),
				ProtocolUsed: protocol.Natural,
			}))
		}

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, got.Messages, 3)
		assert.Equal(t, "q0", got.Messages[0].Query)
		require.NotNil(t, got.Latest)
		assert.Equal(t, "q2", got.Latest.Query)
		assert.Equal(t, protocol.Natural, got.Latest.ProtocolUsed)
	})

	t.Run("returned sessions are copies", func(t *testing.T) {
		store := newStore(t)
		sess := NewSessionBuilder().Build()
		require.NoError(t, store.Create(ctx, sess))

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		got.Protocol = protocol.DroidSpeak
		got.Credentials[core.ProviderGemini] = "changed"

		again, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, protocol.MCP, again.Protocol)
		assert.NotContains(t, again.Credentials, core.ProviderGemini)
	})

	t.Run("list ordered and limited", func(t *testing.T) {
		store := newStore(t)
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		var ids []string
		for i := 0; i < 4; i++ {
			sess := NewSessionBuilder().CreatedAt(base.Add(time.Duration(i) * time.Minute)).Build()
			ids = append(ids, sess.ID)
			require.NoError(t, store.Create(ctx, sess))
		}

		all, err := store.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i, s := range all {
			assert.Equal(t, ids[i], s.ID)
		}

		limited, err := store.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, ids[0], limited[0].ID)
	})

	t.Run("concurrent appends are all recorded", func(t *testing.T) {
		store := newStore(t)
		sess := NewSessionBuilder().Build()
		require.NoError(t, store.Create(ctx, sess))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, store.AppendResult(ctx, sess.ID, core.ExtractionResult{Query: fmt.Sprintf("c%d", i)}))
			}(i)
		}
		wg.Wait()

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Len(t, got.Messages, 8)
		assert.NotNil(t, got.Latest)
	})
}
