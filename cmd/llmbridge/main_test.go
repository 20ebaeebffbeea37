package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/llmbridge"
	"github.com/hupe1980/llmbridge/config"
	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/logging"
	"github.com/hupe1980/llmbridge/protocol"
	"github.com/hupe1980/llmbridge/session"
	"github.com/hupe1980/llmbridge/session/sqlite"
)

func TestRunEncode(t *testing.T) {
	defer func() { encodeProtocol = protocol.MCP.String() }()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	encodeProtocol = "droidspeak"
	require.NoError(t, runEncode(cmd, []string{"Hi"}))
	assert.Equal(t, "DroidSpeak protocol: DROID[16]:0100100001101001 | Query: Hi\n", out.String())

	out.Reset()
	encodeProtocol = "natural"
	require.NoError(t, runEncode(cmd, []string{"plain", "text"}))
	assert.Equal(t, "plain text\n", out.String())

	encodeProtocol = "semaphore"
	assert.Error(t, runEncode(cmd, []string{"x"}))
}

func TestRunModels(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, runModels(cmd, nil))
	assert.Contains(t, out.String(), "PROVIDER")
	assert.Contains(t, out.String(), "claude-sonnet-4-20250514")
	assert.Contains(t, out.String(), "gemini-2.0-flash")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	store, closer, err := openStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &session.InMemoryStore{}, store)
	require.NoError(t, closer())

	cfg.Store.Driver = config.DriverSQLite
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "sessions.db")
	store, closer, err = openStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, store)
	require.NoError(t, closer())

	cfg.Store.Driver = "postgres"
	_, _, err = openStore(ctx, cfg)
	assert.Error(t, err)
}

func TestBuildBridge_DemoRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	bridge, closer, err := buildBridge(ctx, cfg, logging.NoOpLogger{})
	require.NoError(t, err)
	defer closer() //nolint:errcheck

	sess, err := bridge.CreateSession(ctx, llmbridge.CreateSessionInput{
		Host:   core.ModelDescriptor{Provider: core.ProviderOpenAI, ModelName: "gpt-4o", DisplayName: "GPT-4o"},
		Target: core.ModelDescriptor{Provider: core.ProviderGemini, ModelName: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash"},
	})
	require.NoError(t, err)

	res, err := bridge.Extract(ctx, core.ExtractionRequest{SessionID: sess.ID, Query: "demo"})
	require.NoError(t, err)
	assert.Equal(t, protocol.MCP, res.ProtocolUsed)
	assert.Contains(t, res.TargetResponse, "Gemini 2.0 Flash")
}

func TestNewBinder_RegistersAllProviders(t *testing.T) {
	assert.Empty(t, newBinder(config.Default()).Missing())
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"
	l, err := newLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, l)
}
