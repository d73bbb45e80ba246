// Package config loads, validates, and normalizes adforge configuration.
//
// Configuration lives in a TOML file (default ~/.config/adforge/config.toml)
// and covers the backend API connection, polling intervals, the OAuth
// callback listener, local storage paths, notifications, and logging.
// Defaults favor a working setup with only api.key supplied.
package config
