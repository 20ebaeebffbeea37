// Package extraction drives the two-hop host/target exchange: the query is
// encoded and sent to the target, then the target's reply is handed to the
// host for analysis. The two sends are strictly sequential and never retried.
package extraction

import (
	"context"
	"fmt"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/credential"
	"github.com/hupe1980/llmbridge/logging"
	"github.com/hupe1980/llmbridge/model"
	"github.com/hupe1980/llmbridge/protocol"
)

const (
	hostSuffix   = "_host"
	targetSuffix = "_target"
)

// ChatFactory creates bound chat handles (see chat.Factory).
type ChatFactory interface {
	Create(ctx context.Context, desc core.ModelDescriptor, sessionID, instruction string, creds credential.Set) (model.Chat, error)
}

// Options configures an Orchestrator.
type Options struct {
	Encoder *protocol.Encoder
	Logger  logging.Logger
}

// Orchestrator runs extractions.
type Orchestrator struct {
	factory ChatFactory
	encoder *protocol.Encoder
	logger  logging.Logger
}

// New creates an Orchestrator using factory for both roles.
func New(factory ChatFactory, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{Encoder: protocol.NewEncoder()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{factory: factory, encoder: opts.Encoder, logger: logging.OrNoOp(opts.Logger)}
}

// HostInstruction frames the host as a systematic extractor.
func HostInstruction(kind protocol.Kind) string {
	return fmt.Sprintf("You are a Host LLM communicating with a Target LLM to extract information. "+
		"Use %s protocol for communication. Be systematic and thorough in your information extraction.", kind)
}

// TargetInstruction frames the target as an informative responder.
func TargetInstruction(kind protocol.Kind) string {
	return fmt.Sprintf("You are a Target LLM. Respond to queries from the Host LLM using %s protocol. "+
		"Provide detailed and accurate information.", kind)
}

// AnalysisPrompt asks the host to extract key information from a target reply.
func AnalysisPrompt(targetResponse string) string {
	return "Analyze this response from the target LLM and extract key information: " + targetResponse
}

// Extract performs one exchange. Binding failures surface before any send;
// a target failure prevents the host send.
func (o *Orchestrator) Extract(
	ctx context.Context,
	host, target core.ModelDescriptor,
	query string,
	kind protocol.Kind,
	sessionID string,
	creds credential.Set,
) (core.ExtractionResult, error) {
	if !kind.Valid() {
		return core.ExtractionResult{}, core.InvalidProtocol(string(kind))
	}

	targetChat, err := o.factory.Create(ctx, target, sessionID+targetSuffix, TargetInstruction(kind), creds)
	if err != nil {
		return core.ExtractionResult{}, err
	}

	hostChat, err := o.factory.Create(ctx, host, sessionID+hostSuffix, HostInstruction(kind), creds)
	if err != nil {
		return core.ExtractionResult{}, err
	}

	o.logger.Debug("Sending query to target", "session_id", sessionID, "protocol", kind.String(), "target", target.ModelName)

	targetResponse, err := targetChat.Send(ctx, o.encoder.Encode(kind, query))
	if err != nil {
		return core.ExtractionResult{}, err
	}

	hostAnalysis, err := hostChat.Send(ctx, o.encoder.Encode(protocol.Natural, AnalysisPrompt(targetResponse)))
	if err != nil {
		return core.ExtractionResult{}, err
	}

	return core.ExtractionResult{
		Query:          query,
		TargetResponse: targetResponse,
		HostAnalysis:   hostAnalysis,
		ProtocolUsed:   kind,
	}, nil
}
