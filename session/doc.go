// Package session houses concrete implementations of the core.SessionStore.
// The interface itself (and the Session struct) live in the core package to
// centralize domain contracts. Keeping only implementations here prevents
// higher level packages (façade, api) from depending on concrete storage.
//
// Durable backends live in sub‑packages (sqlite, redis); only the wiring
// layer decides which implementation to instantiate.
package session
