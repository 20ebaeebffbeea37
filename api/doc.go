// Package api exposes the bridge over a small JSON HTTP interface under
// /api: model catalog, session management, extraction and liveness checks.
// Failures are reported as {"detail": "..."} bodies whose text always
// carries a remediation hint and never carries credentials.
package api
