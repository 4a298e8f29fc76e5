// Package config loads, normalizes, and validates video generator configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SUPABASE_SERVICE_ROLE_KEY, SUNO_API_KEY and PORT. The Config type gathers
// the blob store, provider, caption and render settings the server and CLI
// need in one pass.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
