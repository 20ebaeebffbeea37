// Package model defines the provider‑agnostic chat capability used by the
// extraction flow and concrete helpers around it.
//
// Core goals:
//   - A single conversational handle (Chat) whose only operation is Send
//   - A Binder per provider producing handles scoped to a logical session id
//     and a system instruction
//   - Exhaustive provider dispatch (Registry) so an unregistered provider is a
//     reported binding failure rather than a silent fallthrough
//   - Lightweight mocking for tests (MockBinder)
//
// Providers (OpenAI, Anthropic, Gemini) implement Binder in sub-packages so
// higher layers remain decoupled from vendor SDKs.
package model
