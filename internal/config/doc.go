// Package config loads, normalizes, and validates mangarecap configuration.
//
// It supplies repository defaults (the Ken Burns and detection constants the
// recap format depends on), expands user paths including tilde shortcuts,
// reads TOML files, and honours the MANGARECAP_PIPER_MODEL environment
// fallback. Command-line overrides are applied on top of a loaded Config and
// re-checked with Finalize.
//
// Always obtain settings through this package so downstream stages receive
// sanitized paths, canonical engine names, and clear validation errors.
package config
