package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedEncoder() *Encoder {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Encoder{Now: func() time.Time { return ts }}
}

func TestParse(t *testing.T) {
	for _, k := range Kinds() {
		got, err := Parse(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	for _, raw := range []string{"", "unsupported_value", "MCP", " natural"} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrUnknown, raw)
	}
}

func TestEncoderTableCoversKinds(t *testing.T) {
	assert.Len(t, encoders, len(Kinds()))
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("binary").Valid())
}

func TestEncode_Deterministic(t *testing.T) {
	enc := fixedEncoder()
	inputs := []string{"", "hi", "What are your capabilities?", strings.Repeat("x", 120), "héllo wörld"}
	for _, k := range Kinds() {
		for _, in := range inputs {
			assert.Equal(t, enc.Encode(k, in), enc.Encode(k, in), "%s/%q", k, in)
		}
	}
}

func TestEncode_NaturalIsIdentity(t *testing.T) {
	for _, in := range []string{"", "plain", "multi\nline <tag> & more"} {
		assert.Equal(t, in, Encode(Natural, in))
	}
}

func TestEncode_MCP(t *testing.T) {
	content := `Tell me about <html> & "quotes"`
	out := fixedEncoder().Encode(MCP, content)

	require.True(t, strings.HasPrefix(out, "MCP Protocol Message: "))

	var msg map[string]string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(out, "MCP Protocol Message: ")), &msg))
	assert.Equal(t, "mcp", msg["protocol"])
	assert.Equal(t, "query", msg["type"])
	assert.Equal(t, content, msg["content"])
	assert.Equal(t, "2025-01-02T03:04:05Z", msg["timestamp"])
	assert.Contains(t, out, "<html> & ")
}

func TestEncode_GibberLink(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		prefix string
	}{
		{"empty", "", ""},
		{"short", "hello", "hello"},
		{"long", strings.Repeat("abcde", 20), strings.Repeat("abcde", 10)},
		{"multibyte", strings.Repeat("é", 60), strings.Repeat("é", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Encode(GibberLink, tt.in)
			want := fmt.Sprintf("GibberLink compressed query: [GIBBER:%d:%d] %s...",
				len([]rune(tt.in)), Fingerprint(tt.in), tt.prefix)
			assert.Equal(t, want, out)
		})
	}
}

func TestFingerprintRange(t *testing.T) {
	for _, in := range []string{"", "a", "What are your capabilities?"} {
		assert.Less(t, Fingerprint(in), uint32(1000))
	}
	assert.Equal(t, Fingerprint("abc"), Fingerprint("abc"))
}

func TestEncode_DroidSpeak(t *testing.T) {
	tests := []struct {
		in   string
		bits int
	}{
		{"", 0},
		{"A", 8},
		{"What are your capabilities?", 160},
		{strings.Repeat("z", 20), 160},
		{"héllo", 40},
		{"中文能力", 32},
		{"Привет", 48},
		{strings.Repeat("中", 25), 160},
	}

	for _, tt := range tests {
		out := Encode(DroidSpeak, tt.in)
		assert.Contains(t, out, fmt.Sprintf("DROID[%d]:", tt.bits), tt.in)
		assert.True(t, strings.HasSuffix(out, "| Query: "+tt.in), out)
	}

	assert.Equal(t, "DroidSpeak protocol: DROID[16]:0100100001101001 | Query: Hi", Encode(DroidSpeak, "Hi"))
}

func TestEncode_DroidSpeakWideCharactersUseFallbackByte(t *testing.T) {
	// 'é' is Latin-1 and keeps its code point; '中' is replaced with '?'.
	assert.Equal(t,
		"DroidSpeak protocol: DROID[16]:1110100100111111 | Query: é中",
		Encode(DroidSpeak, "é中"))
}

func TestEncode_PanicsOnInvalidKind(t *testing.T) {
	assert.Panics(t, func() { Encode(Kind("bogus"), "x") })
}
