// Package core provides the foundational domain types and contracts shared by
// llmbridge components. It defines:
//
//   - Providers and model descriptors (which model plays host or target)
//   - Extraction requests and results (one host/target exchange)
//   - Sessions (a host/target pair, a default protocol, credentials and the
//     accumulated extraction history) and the SessionStore contract
//   - The error taxonomy surfaced by extraction, with remediation hints
//
// Concrete behavior (encoding, binding, orchestration, persistence) lives in
// sibling packages so that core stays dependency free apart from protocol.
package core
