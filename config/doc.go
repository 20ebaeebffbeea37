// Package config loads llmbridge runtime settings from an optional YAML file
// and overlays environment variables on top. Load("") yields the defaults
// plus environment overrides, which is enough to run a local server.
package config
