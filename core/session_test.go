package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/llmbridge/protocol"
)

func testDescriptors() (ModelDescriptor, ModelDescriptor) {
	return ModelDescriptor{Provider: ProviderOpenAI, ModelName: "gpt-4o", DisplayName: "GPT-4o"},
		ModelDescriptor{Provider: ProviderAnthropic, ModelName: "claude-sonnet-4-20250514", DisplayName: "Claude Sonnet 4"}
}

func TestSession_AppendResultAndClone(t *testing.T) {
	host, target := testDescriptors()
	s := NewSession(host, target, protocol.MCP, map[Provider]string{ProviderOpenAI: "sk-1"})

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatusActive, s.Status)
	assert.Nil(t, s.Latest)

	s.AppendResult(ExtractionResult{Query: "q1", ProtocolUsed: protocol.MCP})
	s.AppendResult(ExtractionResult{Query: "q2", ProtocolUsed: protocol.Natural})

	require.Len(t, s.Messages, 2)
	require.NotNil(t, s.Latest)
	assert.Equal(t, "q2", s.Latest.Query)

	clone := s.Clone()
	clone.Messages[0].Query = "changed"
	clone.Latest.Query = "changed"
	clone.Credentials[ProviderGemini] = "g"

	assert.Equal(t, "q1", s.Messages[0].Query)
	assert.Equal(t, "q2", s.Latest.Query)
	assert.NotContains(t, s.Credentials, ProviderGemini)
}

func TestSession_JSONOmitsCredentials(t *testing.T) {
	host, target := testDescriptors()
	s := NewSession(host, target, protocol.Natural, map[Provider]string{ProviderOpenAI: "sk-secret-value"})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret-value")
	assert.Contains(t, string(data), `"host_llm"`)
	assert.Contains(t, string(data), `"protocol":"natural"`)
}

func TestSession_Header(t *testing.T) {
	host, target := testDescriptors()
	s := NewSession(host, target, protocol.MCP, map[Provider]string{ProviderOpenAI: "sk"})
	s.AppendResult(ExtractionResult{Query: "q"})

	h := s.Header()
	assert.Equal(t, s.ID, h.ID)
	assert.Empty(t, h.Messages)
	assert.Nil(t, h.Latest)
	assert.Empty(t, h.Credentials)
	assert.Len(t, s.Messages, 1)
}

func TestModelDescriptor_Validate(t *testing.T) {
	host, _ := testDescriptors()
	assert.NoError(t, host.Validate())
	assert.Error(t, ModelDescriptor{Provider: "mistral", ModelName: "x"}.Validate())
	assert.Error(t, ModelDescriptor{Provider: ProviderGemini}.Validate())
	assert.Equal(t, "gpt-4o", ModelDescriptor{ModelName: "gpt-4o"}.Label())
}
