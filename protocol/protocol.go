// Package protocol implements the four textual envelope formats a query can
// be wrapped in before it is handed to a target model. Encodings are
// presentation shaping only; nothing on the receiving side decodes them.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// Kind identifies one of the supported envelope formats.
type Kind string

const (
	// MCP wraps content in a structured JSON message.
	MCP Kind = "mcp"
	// GibberLink emits a compressed-looking signature plus a content prefix.
	GibberLink Kind = "gibberlink"
	// DroidSpeak emits a pseudo-binary prefix followed by the full content.
	DroidSpeak Kind = "droidspeak"
	// Natural passes content through unchanged.
	Natural Kind = "natural"
)

const (
	gibberPrefixRunes = 50
	droidPrefixRunes  = 20
	gibberHashRange   = 1000
	// droidFallback stands in for characters outside Latin-1 so every
	// character contributes exactly one 8-bit group.
	droidFallback = '?'
)

// ErrUnknown is returned by Parse for values outside the closed set of kinds.
var ErrUnknown = errors.New("unknown protocol")

// encoders is the dispatch table; every Kind constant must have an entry.
var encoders = map[Kind]func(e *Encoder, content string) string{
	MCP:        (*Encoder).encodeMCP,
	GibberLink: (*Encoder).encodeGibberLink,
	DroidSpeak: (*Encoder).encodeDroidSpeak,
	Natural:    (*Encoder).encodeNatural,
}

// Kinds returns all supported kinds in a stable order.
func Kinds() []Kind { return []Kind{MCP, GibberLink, DroidSpeak, Natural} }

// Parse converts a raw protocol name into a Kind. Matching is exact.
func Parse(raw string) (Kind, error) {
	k := Kind(raw)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknown, raw)
	}
	return k, nil
}

// Valid reports whether k belongs to the closed set of kinds.
func (k Kind) Valid() bool {
	_, ok := encoders[k]
	return ok
}

func (k Kind) String() string { return string(k) }

// Encoder produces envelopes. Now supplies the timestamp embedded by MCP.
type Encoder struct {
	Now func() time.Time
}

// NewEncoder returns an Encoder stamping MCP envelopes with the current UTC time.
func NewEncoder() *Encoder {
	return &Encoder{Now: func() time.Time { return time.Now().UTC() }}
}

var defaultEncoder = NewEncoder()

// Encode wraps content using the default wall-clock encoder.
func Encode(k Kind, content string) string { return defaultEncoder.Encode(k, content) }

// Encode wraps content in the envelope for k. It never fails for a valid
// kind and panics if k was constructed outside Parse and is not Valid.
func (e *Encoder) Encode(k Kind, content string) string {
	fn, ok := encoders[k]
	if !ok {
		panic(fmt.Sprintf("protocol: no encoder for kind %q", string(k)))
	}
	return fn(e, content)
}

type mcpMessage struct {
	Protocol  string `json:"protocol"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (e *Encoder) encodeMCP(content string) string {
	now := time.Now().UTC()
	if e.Now != nil {
		now = e.Now()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// a struct of strings always marshals
	_ = enc.Encode(mcpMessage{
		Protocol:  string(MCP),
		Type:      "query",
		Content:   content,
		Timestamp: now.Format(time.RFC3339Nano),
	})

	return "MCP Protocol Message: " + strings.TrimRight(buf.String(), "\n")
}

func (e *Encoder) encodeGibberLink(content string) string {
	runes := []rune(content)
	prefix := runes
	if len(prefix) > gibberPrefixRunes {
		prefix = prefix[:gibberPrefixRunes]
	}
	return fmt.Sprintf("GibberLink compressed query: [GIBBER:%d:%d] %s...",
		len(runes), Fingerprint(content), string(prefix))
}

func (e *Encoder) encodeDroidSpeak(content string) string {
	runes := []rune(content)
	if len(runes) > droidPrefixRunes {
		runes = runes[:droidPrefixRunes]
	}
	var bits strings.Builder
	for _, r := range runes {
		if r > 0xFF {
			r = droidFallback
		}
		fmt.Fprintf(&bits, "%08b", r)
	}
	return fmt.Sprintf("DroidSpeak protocol: DROID[%d]:%s | Query: %s", bits.Len(), bits.String(), content)
}

func (e *Encoder) encodeNatural(content string) string { return content }

// Fingerprint is the cosmetic GibberLink signature: FNV-1a modulo 1000.
func Fingerprint(content string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(content))
	return h.Sum32() % gibberHashRange
}
