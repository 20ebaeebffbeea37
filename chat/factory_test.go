package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/credential"
	"github.com/hupe1980/llmbridge/logging"
	"github.com/hupe1980/llmbridge/model"
)

var target = core.ModelDescriptor{Provider: core.ProviderAnthropic, ModelName: "claude-sonnet-4-20250514", DisplayName: "Claude Sonnet 4"}

func TestFactory_CredentialMissing(t *testing.T) {
	binder := model.NewMockBinder()
	f := NewFactory(credential.NewResolver(core.ProviderOpenAI, "sk-ambient"), binder)

	_, err := f.Create(context.Background(), target, "s_target", "sys", credential.Set{core.ProviderOpenAI: "sk"})
	require.ErrorIs(t, err, core.ErrCredentialMissing)

	e, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.ProviderAnthropic, e.Provider)
	assert.Empty(t, binder.Binds())
}

func TestFactory_BindsWithResolvedCredential(t *testing.T) {
	binder := model.NewMockBinder()
	f := NewFactory(credential.NewResolver(core.ProviderOpenAI, ""), binder)

	c, err := f.Create(context.Background(), target, "s_target", "sys", credential.Set{core.ProviderAnthropic: "sk-ant"})
	require.NoError(t, err)

	binds := binder.Binds()
	require.Len(t, binds, 1)
	assert.Equal(t, "sk-ant", binds[0].Credential)
	assert.Equal(t, "s_target", binds[0].SessionID)
	assert.Equal(t, "sys", binds[0].Instruction)
	assert.Equal(t, target, binds[0].Descriptor)

	reply, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hi", reply)
}

func TestFactory_ModelInitializationFailedRedactsCredential(t *testing.T) {
	binder := model.NewMockBinder()
	binder.FailBind(errors.New("invalid key sk-ant-secret supplied"))
	f := NewFactory(nil, binder)

	_, err := f.Create(context.Background(), target, "s", "sys", credential.Set{core.ProviderAnthropic: "sk-ant-secret"})
	require.ErrorIs(t, err, core.ErrModelInitializationFailed)
	assert.NotContains(t, err.Error(), "sk-ant-secret")

	e, _ := core.AsError(err)
	require.Error(t, e.Cause)
	assert.NotContains(t, e.Cause.Error(), "sk-ant-secret")
	assert.Contains(t, e.Cause.Error(), redacted)
	assert.Equal(t, "claude-sonnet-4-20250514", e.Model)
}

func TestFactory_SendFailureIsClassified(t *testing.T) {
	binder := model.NewMockBinder()
	binder.FailSend("s", errors.New("Rate limit reached for key sk-ant"))
	f := NewFactory(nil, binder)

	c, err := f.Create(context.Background(), target, "s", "sys", credential.Set{core.ProviderAnthropic: "sk-ant"})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "hi")
	require.ErrorIs(t, err, core.ErrRemoteCallFailed)

	e, _ := core.AsError(err)
	assert.Equal(t, core.RemoteQuota, e.Remote)
	assert.NotContains(t, e.Cause.Error(), "sk-ant")
}

func TestRedact(t *testing.T) {
	base := errors.New("plain failure")
	assert.Same(t, base, redact(base, "key"))
	assert.Same(t, base, redact(base, ""))
	assert.Nil(t, redact(nil, "key"))
	assert.EqualError(t, redact(errors.New("bad key=abc"), "abc"), "bad key="+redacted)
}

func TestFactory_CallLogCarriesSessionAndProvider(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(func(o *logging.Options) { o.Output = &buf })
	f := NewFactory(nil, model.NewMockBinder(), func(o *Options) { o.Logger = logger })

	c, err := f.Create(context.Background(), target, "s_target", "sys", credential.Set{core.ProviderAnthropic: "sk-ant"})
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "hi")
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "LLM call completed", line["msg"])
	assert.Equal(t, "s_target", line["session_id"])
	assert.Equal(t, "anthropic", line["provider"])
	assert.Equal(t, target.ModelName, line["model"])
}
