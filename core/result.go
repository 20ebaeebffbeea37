package core

import (
	"time"

	"github.com/hupe1980/llmbridge/protocol"
)

// ExtractionRequest asks for one extraction against a stored session.
// An empty Protocol selects the session's configured protocol.
type ExtractionRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
	Protocol  string `json:"protocol,omitempty"`
}

// ExtractionResult records one host/target exchange. ProtocolUsed is the
// protocol actually applied to the query sent to the target.
type ExtractionResult struct {
	Query          string        `json:"query"`
	TargetResponse string        `json:"target_response"`
	HostAnalysis   string        `json:"host_analysis"`
	ProtocolUsed   protocol.Kind `json:"protocol_used"`
	Demo           bool          `json:"demo,omitempty"`
	CreatedAt      time.Time     `json:"created_at,omitzero"`
}
